// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/vkx/internal/models"
)

// FakeGateway is an in-memory stand-in for the API's mutating endpoints.
//
// Every call is counted under its method name. Err, when set, is returned by every call.
// Hold, when non-nil, blocks each call until a value is received, so tests can observe in-flight state.
type FakeGateway struct {
	mu    sync.Mutex
	calls map[string]int

	Err        error
	Hold       chan struct{}
	AddResults map[string]models.AddItemResult
}

// NewFakeGateway creates an empty [FakeGateway].
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{calls: map[string]int{}, AddResults: map[string]models.AddItemResult{}}
}

// SetErr changes the error returned by subsequent calls.
func (f *FakeGateway) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}

// Calls returns how many times name was invoked.
func (f *FakeGateway) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// Total returns the number of calls across all methods.
func (f *FakeGateway) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeGateway) record(ctx context.Context, name string) error {
	f.mu.Lock()
	f.calls[name]++
	hold := f.Hold
	f.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Err
}

func (f *FakeGateway) LikeCollection(ctx context.Context, id int64) error {
	return f.record(ctx, "LikeCollection")
}

func (f *FakeGateway) UnlikeCollection(ctx context.Context, id int64) error {
	return f.record(ctx, "UnlikeCollection")
}

func (f *FakeGateway) LikePlace(ctx context.Context, id int64) error {
	return f.record(ctx, "LikePlace")
}

func (f *FakeGateway) UnlikePlace(ctx context.Context, id int64) error {
	return f.record(ctx, "UnlikePlace")
}

func (f *FakeGateway) AddToCollection(ctx context.Context, collectionID int64, req models.AddItemRequest) (*models.AddItemResult, error) {
	if err := f.record(ctx, "AddToCollection"); err != nil {
		return nil, err
	}
	return f.addResult(req), nil
}

func (f *FakeGateway) AddToWishlist(ctx context.Context, req models.AddItemRequest) (*models.AddItemResult, error) {
	if err := f.record(ctx, "AddToWishlist"); err != nil {
		return nil, err
	}
	return f.addResult(req), nil
}

// addResult answers from AddResults, keyed by external id, defaulting to a new item.
func (f *FakeGateway) addResult(req models.AddItemRequest) *models.AddItemResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if res, ok := f.AddResults[req.ExternalID]; ok {
		return &res
	}
	return &models.AddItemResult{IsNew: true, Message: "added"}
}

func (f *FakeGateway) RemoveFromWishlist(ctx context.Context, itemID int64) (*models.RemoveResult, error) {
	if err := f.record(ctx, "RemoveFromWishlist"); err != nil {
		return nil, err
	}
	return &models.RemoveResult{Success: true}, nil
}

func (f *FakeGateway) RemoveAlbum(ctx context.Context, collectionID, albumID int64) (*models.RemoveResult, error) {
	if err := f.record(ctx, "RemoveAlbum"); err != nil {
		return nil, err
	}
	return &models.RemoveResult{Success: true}, nil
}

func (f *FakeGateway) RemoveArtist(ctx context.Context, collectionID, artistID int64) (*models.RemoveResult, error) {
	if err := f.record(ctx, "RemoveArtist"); err != nil {
		return nil, err
	}
	return &models.RemoveResult{Success: true}, nil
}

func (f *FakeGateway) SwitchVisibility(ctx context.Context, collectionID int64, isPublic bool) (*models.CollectionListItem, error) {
	if err := f.record(ctx, "SwitchVisibility"); err != nil {
		return nil, err
	}
	return &models.CollectionListItem{ID: collectionID, IsPublic: isPublic}, nil
}

func (f *FakeGateway) UpdateCondition(ctx context.Context, collectionID, albumID int64, update models.ConditionUpdate) (*models.Condition, error) {
	if err := f.record(ctx, "UpdateCondition"); err != nil {
		return nil, err
	}
	c := models.Condition{}.Apply(update)
	return &c, nil
}

func (f *FakeGateway) CreateCollection(ctx context.Context, req models.CollectionCreate) (*models.CreatedCollection, error) {
	if err := f.record(ctx, "CreateCollection"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.CreatedCollection{Message: "Collection created successfully", CollectionID: int64(100 + f.calls["CreateCollection"])}, nil
}

func (f *FakeGateway) UpdateCollection(ctx context.Context, collectionID int64, update models.CollectionUpdate) error {
	return f.record(ctx, "UpdateCollection")
}

func (f *FakeGateway) DeleteCollection(ctx context.Context, collectionID int64) error {
	return f.record(ctx, "DeleteCollection")
}

func (f *FakeGateway) CreatePlace(ctx context.Context, req models.PlaceCreate) (*models.Place, error) {
	if err := f.record(ctx, "CreatePlace"); err != nil {
		return nil, err
	}
	return &models.Place{ID: 500, Name: req.Name, City: req.City, Country: req.Country}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
