// Package models defines the VinylKeeper domain types used by the client.
//
// The package contains two categories of types:
//
// 1. Wire types: JSON shapes exchanged with the REST backend
//   - [CollectionListItem], [CollectionDetail] : collections as listed and as shown in detail
//   - [CollectionAlbum], [CollectionArtist] : items attached to a collection
//   - [Place], [WishlistItem], [ExternalItem] : places, wishlist entries and metadata proxy hits
//   - [AddItemRequest], [AddItemResult], [RemoveResult] : contents mutation payloads
//
// 2. Local records: rows kept in the client's SQLite store
//   - [StoredSession] : the logged-in user and their cookies
//   - [SearchEntry] : committed searches for recall
//
// [LikeState] is the shadow copy of a likeable entity that the optimistic layer mutates.
// Local records implement [Model]; [Repository] describes their persistence.
package models
