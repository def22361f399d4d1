// Package entity implements the persistable graph model: generic objects,
// nodes, edges and the singleton root node.
//
// User types embed one of the bases and are bound to a Session, which carries
// the persistence port, the background writer and the type factory used to
// reconstruct stored records:
//
//	type City struct {
//		entity.Node
//		Name string `json:"name"`
//	}
//
//	city, err := entity.Create(ctx, sess, &City{Name: "Chicago"})
//
// The class name of an entity is its Go type name. Exported fields form the
// record's context map, keyed by their json tag.
//
// Persistence is explicit. Create and Commit enqueue a snapshot on the
// session's background writer; Save writes synchronously; Session.Flush
// waits for every enqueued snapshot to land.
package entity
