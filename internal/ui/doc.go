// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has four views:
//  1. [CollectionsView] : the user's collections or the public ones, paginated, with likes
//  2. [DetailView] : one collection's albums, its like, and a debounced search over its contents
//  3. [PlacesView] : community places with likes
//  4. [AddView] : metadata search feeding add to collection and add to wishlist
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Every network call runs in a [tea.Cmd] and reports back as a Msg, so the event loop never blocks.
//
// Each rendered row and header owns its like cell. Leaving a view closes its cells; a like that
// settles afterwards is ignored by the view but still reconciles the query cache.
//
// Search inputs are driven by [search.Controller]: every keystroke schedules a tick with its tag and
// only the newest tag, once stable for the debounce window, commits a query. Up and down recall
// earlier searches from the local history.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, l, /, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
