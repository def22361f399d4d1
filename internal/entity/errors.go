package entity

import "errors"

var (
	// ErrSingletonViolation is returned when the root node read back after
	// creation is not the instance this process created. It indicates a
	// consistency problem in the persistence layer and must not be ignored.
	ErrSingletonViolation = errors.New("entity: root node singleton violation")

	// ErrUnknownType is returned when a stored record names a class that is
	// not registered with the session's type factory.
	ErrUnknownType = errors.New("entity: unknown entity type")

	// ErrUnbound is returned by operations on entities that were never
	// created through, or loaded from, a Session.
	ErrUnbound = errors.New("entity: not bound to a session")

	// ErrWrongType is returned by typed loads when the stored entity is not
	// of the requested type.
	ErrWrongType = errors.New("entity: wrong entity type")

	// ErrInvalidDirection is returned for direction values other than
	// out, in and both.
	ErrInvalidDirection = errors.New("entity: invalid direction")
)
