package entity

import (
	"sync"
	"weak"
)

// Presence is the token a walker hands to the node or edge it is visiting.
// The walker owns it; nodes and edges only hold a weak pointer, so a visited
// element never keeps its visitor alive.
type Presence struct {
	visitor any
}

// NewPresence returns a presence token for visitor.
func NewPresence(visitor any) *Presence {
	return &Presence{visitor: visitor}
}

// Visitor returns the walker behind the token.
func (p *Presence) Visitor() any {
	if p == nil {
		return nil
	}
	return p.visitor
}

// Visitable is implemented by nodes and edges: the elements a walker can
// queue and visit.
type Visitable interface {
	Entity
	AttachVisitor(p *Presence)
	DetachVisitor(p *Presence)
	Visitor() any
}

// visitSlot holds the weak visitor back-reference shared by Node and Edge.
type visitSlot struct {
	mu      sync.Mutex
	visitor weak.Pointer[Presence]
}

// AttachVisitor records p as the current visitor.
func (s *visitSlot) AttachVisitor(p *Presence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visitor = weak.Make(p)
}

// DetachVisitor clears the visitor if it is still p.
func (s *visitSlot) DetachVisitor(p *Presence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visitor == weak.Make(p) {
		s.visitor = weak.Pointer[Presence]{}
	}
}

// Visitor returns the walker currently visiting this element, or nil when no
// visit is in progress or the walker has been garbage collected.
func (s *visitSlot) Visitor() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visitor.Value().Visitor()
}
