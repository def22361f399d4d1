package entity

import (
	"context"
	"fmt"

	"github.com/specialistvlad/osgraph/internal/ctxlog"
	"github.com/specialistvlad/osgraph/internal/entityid"
)

// EdgeEntity is implemented by every type embedding Edge.
type EdgeEntity interface {
	Visitable
	SourceID() string
	TargetID() string
	Source(ctx context.Context) (NodeEntity, error)
	Target(ctx context.Context) (NodeEntity, error)
	edge() *Edge
}

// Edge is the base for connectors between two nodes. Endpoints are held by
// id only.
type Edge struct {
	Object
	visitSlot

	source        string
	target        string
	bidirectional bool
}

// EntityKind reports entityid.Edge.
func (e *Edge) EntityKind() entityid.Kind { return entityid.Edge }

func (e *Edge) edge() *Edge { return e }

// SourceID returns the id of the source node.
func (e *Edge) SourceID() string { return e.source }

// TargetID returns the id of the target node.
func (e *Edge) TargetID() string { return e.target }

// Bidirectional reports whether the edge was created with direction both.
func (e *Edge) Bidirectional() bool { return e.bidirectional }

// Direction returns Both for bidirectional edges and Out otherwise.
func (e *Edge) Direction() Direction {
	if e.bidirectional {
		return Both
	}
	return Out
}

// SetEndpoints sets the endpoints explicitly. Use it before Create for edges
// built from node ids rather than through Node.Connect.
func (e *Edge) SetEndpoints(source, target string, bidirectional bool) {
	e.source, e.target, e.bidirectional = source, target, bidirectional
}

// Opposite returns the endpoint that is not id, or "" when id is not an
// endpoint. A self-loop returns id.
func (e *Edge) Opposite(id string) string {
	switch id {
	case e.source:
		return e.target
	case e.target:
		return e.source
	}
	return ""
}

func (e *Edge) matches(nodeID string, dir Direction) bool {
	isSource, isTarget := e.source == nodeID, e.target == nodeID
	if !isSource && !isTarget {
		return false
	}
	if dir == Both || e.bidirectional {
		return true
	}
	if dir == Out {
		return isSource
	}
	return isTarget
}

// Source loads the source node. A missing node yields (nil, nil).
func (e *Edge) Source(ctx context.Context) (NodeEntity, error) {
	_, sess, err := e.bound()
	if err != nil {
		return nil, err
	}
	return GetAs[NodeEntity](ctx, sess, e.source)
}

// Target loads the target node. A missing node yields (nil, nil).
func (e *Edge) Target(ctx context.Context) (NodeEntity, error) {
	_, sess, err := e.bound()
	if err != nil {
		return nil, err
	}
	return GetAs[NodeEntity](ctx, sess, e.target)
}

// Destroy deletes the edge and removes it from both endpoints' edge lists.
func (e *Edge) Destroy(ctx context.Context) error {
	self, sess, err := e.bound()
	if err != nil {
		return err
	}
	return destroyEdge(ctx, sess, self.(EdgeEntity), "")
}

// destroyEdge detaches edge from its endpoints and deletes it. The endpoint
// with id skip is left untouched. Endpoints found in live are updated in
// place instead of being reloaded, so callers holding them stay consistent.
func destroyEdge(ctx context.Context, sess *Session, edge EdgeEntity, skip string, live ...NodeEntity) error {
	e := edge.edge()
	endpoints := []string{e.source}
	if e.target != e.source {
		endpoints = append(endpoints, e.target)
	}
	for _, id := range endpoints {
		if id == "" || id == skip {
			continue
		}
		var endpoint NodeEntity
		for _, l := range live {
			if l != nil && l.ID() == id {
				endpoint = l
				break
			}
		}
		if endpoint == nil {
			loaded, err := GetAs[NodeEntity](ctx, sess, id)
			if err != nil {
				return fmt.Errorf("detach %s from %s: %w", e.id, id, err)
			}
			if loaded == nil {
				continue
			}
			endpoint = loaded
		}
		if err := updateEdges(ctx, sess, endpoint, removeEdgeID(e.id)); err != nil {
			return fmt.Errorf("detach %s from %s: %w", e.id, id, err)
		}
	}
	if _, err := sess.writer.Delete(ctx, Collection(edge), e.id); err != nil {
		return fmt.Errorf("destroy %s: %w", e.id, err)
	}
	ctxlog.FromContext(ctx).Debug("Destroyed edge.", "id", e.id)
	return nil
}
