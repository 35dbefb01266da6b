package session

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Jar is a [cookiejar.Jar] that remembers the full cookies it was given so they can be persisted.
// The standard jar only returns name and value from Cookies.
type Jar struct {
	*cookiejar.Jar

	mu   sync.Mutex
	kept map[string]*http.Cookie
}

// NewJar creates an empty jar scoped with the public suffix list.
func NewJar() (*Jar, error) {
	j, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &Jar{Jar: j, kept: make(map[string]*http.Cookie)}, nil
}

// SetCookies implements [http.CookieJar].
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.Jar.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		key := c.Name + "|" + c.Path
		if c.MaxAge < 0 || c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(j.kept, key)
			continue
		}
		cp := *c
		j.kept[key] = &cp
	}
}

// Snapshot returns copies of every live cookie the jar was given.
func (j *Jar) Snapshot() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	out := make([]*http.Cookie, 0, len(j.kept))
	for _, c := range j.kept {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out
}

// Len reports the number of cookies held.
func (j *Jar) Len() int {
	return len(j.Snapshot())
}
