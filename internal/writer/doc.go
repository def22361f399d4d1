// Package writer provides the background write path used by entities.
//
// Entity construction and mutation must not block the caller on storage, yet
// the writes must not be lost or reordered either. Writer sits between the
// entity model and a store.Store and gives both guarantees:
//
//   - Enqueue is non-blocking until the bounded queue is full, then it
//     applies back-pressure instead of growing without limit.
//   - Snapshots are coalesced per (collection, id): a newer snapshot of a
//     record replaces an older one that has not been written yet.
//   - Writes to the same record never overlap, so the last snapshot enqueued
//     is the one that lands.
//   - Flush gives observable completion. It returns once everything enqueued
//     before the call is durable and reports the first error since the
//     previous flush.
//
// Save and Delete are the synchronous counterparts. They are ordered with the
// queued writes of the same record, so a pending async snapshot can never
// overwrite a newer synchronous save or resurrect a deleted record.
package writer
