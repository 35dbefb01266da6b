// Package repositories implements SQLite persistence for the client's local state.
//
// The backend owns collections, places and wishlists. Locally the client only keeps
// what it needs between invocations.
//
// Key Implementations:
//   - [SessionRepository] : the logged-in user and cookie jar contents per backend
//   - [SearchHistoryRepository] : committed searches for recall in the TUI
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments named counters in the sequences table.
package repositories
