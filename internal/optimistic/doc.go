// Package optimistic applies local state changes before the server confirms them.
//
// A [Mutation] pairs a pure state transform with the remote call that makes it durable.
// [Cell.Begin] applies the transform immediately and snapshots the previous value; the returned [Pending]
// runs the call and settles it. Success keeps the applied value, failure restores the snapshot, and a cell
// that was closed or re-keyed in the meantime ignores the settlement.
//
// [Gate] is the per-instance cooldown: Idle, then Cooling until an expiry, then Idle again. It also refuses
// while a call is in flight. Time comes from a [clockwork.Clock] so tests can advance it by hand.
//
// [LikeCell] combines the two for anything with a like counter (collections and places).
package optimistic
