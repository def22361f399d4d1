// Package walker implements the traversal engine.
//
// A walker is a stateful agent with a FIFO queue of nodes and edges to visit
// and a response document. User walkers embed Walker and declare hooks (see
// package registry):
//
//	type Tourist struct {
//		walker.Walker
//	}
//
//	func (t *Tourist) OnCity(ctx context.Context, c *City) error {
//		t.Response().Append("visited", c.Name)
//		return nil
//	}
//
// The engine is a small state machine:
//
//	idle -> running -> paused -> running -> done
//	                \-> errored
//
// Hooks run one at a time, never in parallel within one walker. Each hook is
// fault isolated: a returned error or a panic is recorded in the response's
// hook_errors list and traversal continues. Hooks steer the traversal through
// Visit, Pause, Skip and Disengage; the engine inspects the requested control
// after every hook.
package walker
