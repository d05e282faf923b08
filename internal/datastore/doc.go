// Package datastore provides the opaque per-device key/value store that a
// device controller owns alongside its group table.
//
// The core never interprets the stored data; it only holds a reference and
// hands it to application collaborators. Two implementations are provided:
//
//   - MemoryStore: map-backed, for tests and devices that delegate
//     durability elsewhere
//   - SQLiteStore: a durable store on a local SQLite file, for deployments
//     where the device process is responsible for its own data
//
// Both implement Store and are safe for concurrent use.
package datastore
