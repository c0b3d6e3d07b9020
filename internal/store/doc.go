// Package store provides the shared location store: a single slot holding
// the latest directory fetch result, with publish/subscribe notification.
//
// The main components are:
//
//   - [Store]: Interface defining read, publish and subscription operations
//   - [MemoryStore]: In-memory implementation of Store
//
// A store starts in the loading state. Every publish replaces the current
// result and is delivered to all subscribers, synchronously and in
// registration order, before the next publish is delivered. Once a store is
// closed further publishes are discarded.
package store
