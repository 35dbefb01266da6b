package session

import (
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/services"
)

// Session is one authenticated (or anonymous) connection to a backend.
type Session struct {
	baseURL *url.URL
	user    *models.User
	jar     *Jar
	client  *http.Client
	service *services.VinylKeeperService
	stored  *models.StoredSession
}

// Options configures the HTTP side of new sessions.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Transport http.RoundTripper
	Logger    *log.Logger
}

func newSession(opts Options, jar *Jar) (*Session, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Jar: jar, Timeout: opts.Timeout, Transport: opts.Transport}

	apiOpts := []services.APIOption{}
	if opts.UserAgent != "" {
		apiOpts = append(apiOpts, services.WithUserAgent(opts.UserAgent))
	}
	if opts.Logger != nil {
		apiOpts = append(apiOpts, services.WithLogger(opts.Logger))
	}
	api := services.NewAPIService(opts.BaseURL, client, apiOpts...)

	return &Session{
		baseURL: u,
		jar:     jar,
		client:  client,
		service: services.NewVinylKeeperService(api),
	}, nil
}

// User returns the logged-in user, or nil for an anonymous session.
func (s *Session) User() *models.User {
	return s.user
}

// Authenticated reports whether a user is attached.
func (s *Session) Authenticated() bool {
	return s.user != nil
}

// IsOwner reports whether the session user owns the entity with ownerUUID.
func (s *Session) IsOwner(ownerUUID string) bool {
	return s.user != nil && ownerUUID != "" && s.user.UUID == ownerUUID
}

// Service returns the API client bound to this session's cookies.
func (s *Session) Service() *services.VinylKeeperService {
	return s.service
}

// Client returns the cookie-carrying [http.Client].
func (s *Session) Client() *http.Client {
	return s.client
}

// BaseURL returns the backend root.
func (s *Session) BaseURL() string {
	return s.service.API().BaseURL()
}

// Cookies returns the persisted form of the jar.
func (s *Session) Cookies() []*http.Cookie {
	return s.jar.Snapshot()
}

func (s *Session) seed(cookies []*http.Cookie) {
	root := *s.baseURL
	root.Path = "/"
	for _, c := range cookies {
		cp := *c
		if cp.Path == "" {
			cp.Path = "/"
		}
		s.jar.SetCookies(&root, []*http.Cookie{&cp})
	}
}
