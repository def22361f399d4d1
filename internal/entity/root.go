package entity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/specialistvlad/osgraph/internal/ctxlog"
	"github.com/specialistvlad/osgraph/internal/entityid"
	"github.com/specialistvlad/osgraph/internal/store"
)

// Root is the singleton root node, stored as n:RootNode:root.
type Root struct {
	Node

	// Instance identifies the process-local creation of the root. It is how
	// GetRoot detects that another writer created the record concurrently.
	Instance string `json:"instance"`
}

// ClassName reports "RootNode".
func (r *Root) ClassName() string { return entityid.RootClass }

// GetRoot returns the root node, creating it on first use. Creation is
// serialised per session and verified by re-reading the record; a record
// carrying another instance token yields ErrSingletonViolation.
func GetRoot(ctx context.Context, sess *Session) (*Root, error) {
	root, err := GetAs[*Root](ctx, sess, entityid.RootID)
	if err != nil || root != nil {
		return root, err
	}

	sess.rootMu.Lock()
	defer sess.rootMu.Unlock()

	root, err = GetAs[*Root](ctx, sess, entityid.RootID)
	if err != nil || root != nil {
		return root, err
	}

	created := &Root{Instance: uuid.NewString()}
	created.id = entityid.RootID
	created.bind(sess, created)
	if _, err := sess.writer.Save(ctx, store.NodeCollection, Export(created)); err != nil {
		return nil, fmt.Errorf("create root: %w", err)
	}

	stored, err := GetAs[*Root](ctx, sess, entityid.RootID)
	if err != nil {
		return nil, fmt.Errorf("verify root: %w", err)
	}
	if stored == nil || stored.Instance != created.Instance {
		return nil, ErrSingletonViolation
	}
	ctxlog.FromContext(ctx).Debug("Created root node.", "instance", created.Instance)
	return stored, nil
}
