package search

// Recall steps through previous queries, newest first, like shell history.
type Recall struct {
	entries []string
	pos     int
}

// NewRecall creates a recall over entries ordered newest first.
func NewRecall(entries []string) *Recall {
	return &Recall{entries: entries, pos: -1}
}

// Prev moves to an older entry.
func (r *Recall) Prev() (string, bool) {
	if r.pos+1 >= len(r.entries) {
		return "", false
	}
	r.pos++
	return r.entries[r.pos], true
}

// Next moves to a newer entry. Past the newest it returns "" and true so the input is cleared.
func (r *Recall) Next() (string, bool) {
	if r.pos < 0 {
		return "", false
	}
	r.pos--
	if r.pos < 0 {
		return "", true
	}
	return r.entries[r.pos], true
}

// Push records a new query at the front and rewinds.
func (r *Recall) Push(q string) {
	r.pos = -1
	if len(r.entries) > 0 && r.entries[0] == q {
		return
	}
	r.entries = append([]string{q}, r.entries...)
}

// Len returns the number of entries.
func (r *Recall) Len() int {
	return len(r.entries)
}
