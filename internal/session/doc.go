// Package session owns the logged-in state of the client.
//
// A [Session] bundles the current user, a cookie jar scoped with the public suffix list,
// and the API service whose [http.Client] carries that jar. The [Manager] creates sessions
// at login or cookie import, restores them from SQLite between invocations, and tears them
// down at logout by dropping cookies, clearing the query cache and deleting the stored row.
package session
