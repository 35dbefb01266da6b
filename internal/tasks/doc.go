// Package tasks runs the client's mutations against the API and reconciles the query cache afterwards.
//
// # Likes
//
// [LikeEngine] hands out [optimistic.LikeCell] values bound to the collection or place
// endpoints. Views toggle a cell, which updates the count and flag at once, then run the
// returned call off the render loop through [LikeEngine.Run]. A successful call marks every
// list and detail view showing that entity as stale; a failed one restores the cell to the
// state it had just before the toggle and is only logged.
//
// # Collection contents
//
// [ContentEngine] adds and removes albums and artists, edits album condition and switches
// collection visibility. Identical add requests are suppressed while one is in flight.
// Every operation returns a [Notice] suitable for an inline, dismissable message.
//
// # Bulk import
//
// [ContentEngine.BulkImport] adds many external references to one collection with a rate
// limit and a bounded worker pool. Progress is reported through a non-blocking channel of
// [ProgressUpdate] values.
package tasks
