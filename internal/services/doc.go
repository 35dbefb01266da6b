// Package services is the client for the VinylKeeper REST API.
//
// # Transport
//
// [APIService] owns the base URL and the [http.Client]. Credentials travel as cookies held by the client's jar,
// so every request made through one APIService shares the same login. Each request carries an X-Request-ID header
// for correlation with backend logs.
//
// # Service Interfaces
//
// [VinylKeeperService] implements three interfaces:
//   - [Authenticator] : login, logout and the current user
//   - [Catalog] : reads (collections, contents, places, wishlist, metadata proxy search)
//   - [Gateway] : one method per mutating endpoint, with no logic beyond request/response mapping
//
// # Error Handling
//
// Non-2xx responses become an [*APIError] carrying the server's message (the "message" field, or FastAPI's "detail").
// APIError unwraps to [shared.ErrAPIRequest], or [shared.ErrNotAuthenticated] for 401 responses.
package services
