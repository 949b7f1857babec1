// Package state persists connector state between runs.
//
// A connector records when it last ran, the work identifier of that run and
// an optional collector cursor. Stores:
//
//   - BoltStore keeps state in a local bbolt file (the default).
//   - RedisStore keeps state under connector:<id>:state.
//   - EtcdStore keeps state under /<namespace>/connectors/<id>/state.
//   - MemoryStore keeps state in process, for tests and one-shot runs.
//
// Open picks a store from the state section of the configuration.
package state
