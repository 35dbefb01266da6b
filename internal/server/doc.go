// Package server provides HTTP routing and middleware, and a sandbox implementation of the VinylKeeper API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so one path can carry
// several methods and wildcards like {id}.
//
// # Sandbox
//
// [Sandbox] serves the REST endpoints the client talks to from an in-memory [Store]. It issues an
// access_token cookie at login, so the client's cookie handling is exercised end to end. [Faults]
// makes a number of upcoming like calls fail, which is how rollback can be demonstrated without a
// real backend. [Seed] fills a store with demo users, collections and places.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
