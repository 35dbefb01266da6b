// Package query is the client-side read cache.
//
// Reads are addressed by a typed [Key] (a [View] plus its parameters) and stored in a bounded LRU.
// Concurrent reads of the same key share one request, reads are retried with capped exponential backoff,
// and mutations are never retried.
//
// Which views a mutation affects is declared once in a [Registry] that maps a [Kind] to view families.
// [Client.Invalidate] marks the matching entries stale without dropping them: a view keeps rendering the
// cached value and the next fetch of that key goes to the network.
package query
