package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/server"
	"github.com/desertthunder/vkx/internal/shared"
	tu "github.com/desertthunder/vkx/internal/testing"
)

type harness struct {
	runner *Runner
	out    *bytes.Buffer
	store  *server.Store
	seeded server.Seeded
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := server.NewStore()
	seeded := server.Seed(store)
	srv := httptest.NewServer(server.NewSandbox(store, log.New(io.Discard), "/api"))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.API.BaseURL = srv.URL + "/api"
	config.Database.Path = filepath.Join(dir, "vkx.db")
	config.Query.ReadRetries = 0

	out := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Output: out,
		Logger: log.New(io.Discard),
		Clock:  clockwork.NewFakeClock(),
	})
	t.Cleanup(func() { runner.Close() })

	return &harness{runner: runner, out: out, store: store, seeded: seeded, dir: dir}
}

// run executes one command line against a fresh command tree.
func (h *harness) run(args ...string) error {
	h.out.Reset()
	app := newApp(h.runner)
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	argv := append([]string{"vkx", "-c", filepath.Join(h.dir, "missing.toml")}, args...)
	return app.Run(context.Background(), argv)
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	if err := h.run(args...); err != nil {
		t.Fatalf("vkx %s: %v", strings.Join(args, " "), err)
	}
	return h.out.String()
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	h.mustRun(t, "auth", "login", "--email", server.DemoEmail, "--password", server.DemoPassword)
}

func id(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			clock := clockwork.NewFakeClock()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Clock:      clock,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.clock != clock {
				t.Error("expected clock to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("does not open a database until needed", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.db != nil {
				t.Error("expected no database before first use")
			}
			if err := runner.Close(); err != nil {
				t.Errorf("Close without database: %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		names := map[string]bool{}
		for i, cmd := range runner.register() {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "collections", "places", "wishlist", "search", "add", "export", "tui", "sandbox"} {
			if !names[want] {
				t.Errorf("expected %q to be registered", want)
			}
		}
	})

	t.Run("apiPrefix", func(t *testing.T) {
		for in, want := range map[string]string{
			"http://localhost:8000/api":  "/api",
			"http://localhost:8000/api/": "/api",
			"http://localhost:8000":      "",
		} {
			if got := apiPrefix(in); got != want {
				t.Errorf("apiPrefix(%q) = %q, want %q", in, got, want)
			}
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("commands that need a session refuse to run without one", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("collections", "list"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("auth", "login", "--email", server.DemoEmail, "--password", "nope")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		h := newHarness(t)
		t.Setenv("VKX_EMAIL", "")
		t.Setenv("VKX_PASSWORD", "")
		if err := h.run("auth", "login"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("login persists the session for later commands", func(t *testing.T) {
		h := newHarness(t)
		out := h.mustRun(t, "auth", "login", "--email", server.DemoEmail, "--password", server.DemoPassword)
		if !strings.Contains(out, "Logged in as demo") {
			t.Errorf("unexpected login output %q", out)
		}

		out = h.mustRun(t, "auth", "status")
		if !strings.Contains(out, "healthy") || !strings.Contains(out, "demo <"+server.DemoEmail+">") {
			t.Errorf("unexpected status output %q", out)
		}
	})

	t.Run("status without a session", func(t *testing.T) {
		h := newHarness(t)
		out := h.mustRun(t, "auth", "status")
		if !strings.Contains(out, "Not logged in") {
			t.Errorf("unexpected status output %q", out)
		}
	})

	t.Run("logout forgets the session", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if out := h.mustRun(t, "auth", "logout"); !strings.Contains(out, "Logged out") {
			t.Errorf("unexpected logout output %q", out)
		}
		if err := h.run("collections", "list"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated after logout, got %v", err)
		}
	})

	t.Run("import requires exactly one cURL source", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("auth", "import"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := h.run("auth", "import", "--curl", "curl x", "--curl-file", "x.txt"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("import a browser session", func(t *testing.T) {
		h := newHarness(t)
		token, err := h.store.Login(server.DemoEmail, server.DemoPassword)
		if err != nil {
			t.Fatalf("store login: %v", err)
		}

		curl := "curl '" + h.runner.config.API.BaseURL + "/users/me' -H 'Cookie: " + server.CookieName + "=" + token + "'"
		out := h.mustRun(t, "auth", "import", "--curl", curl)
		if !strings.Contains(out, "Session imported for demo") {
			t.Errorf("unexpected import output %q", out)
		}
		h.mustRun(t, "collections", "list")
	})
}

func TestCollectionsCommands(t *testing.T) {
	t.Run("list own collections", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		out := h.mustRun(t, "collections", "list")
		for _, want := range []string{"Blue Note Shelf", "To Clean", "My Collections (2)"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}

		h.mustRun(t, "collections", "list", "--json")
		var page models.Paginated[models.CollectionListItem]
		if err := json.Unmarshal(h.out.Bytes(), &page); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if page.Total != 2 || len(page.Items) != 2 {
			t.Errorf("expected 2 collections, got %+v", page)
		}
	})

	t.Run("show a collection", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		out := h.mustRun(t, "collections", "show", id(h.seeded.Collections[0]))
		for _, want := range []string{"Blue Note Shelf", "Blue Train", "record: Near Mint", "John Coltrane"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("ids must be numeric", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		if err := h.run("collections", "show", "abc"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unlike refreshes the cached public listing", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		motorik := h.seeded.Collections[2]

		liked := func() bool {
			t.Helper()
			h.mustRun(t, "collections", "list", "--public", "--json")
			var page models.Paginated[models.CollectionListItem]
			if err := json.Unmarshal(h.out.Bytes(), &page); err != nil {
				t.Fatalf("decode: %v", err)
			}
			for _, c := range page.Items {
				if c.ID == motorik {
					return c.IsLiked
				}
			}
			t.Fatalf("collection %d not in public listing", motorik)
			return false
		}

		if !liked() {
			t.Fatal("expected seeded like")
		}
		if out := h.mustRun(t, "collections", "unlike", id(motorik)); !strings.Contains(out, "Unliked Motorik") {
			t.Errorf("unexpected output %q", out)
		}
		if liked() {
			t.Error("expected the public listing to be refetched after unlike")
		}
	})

	t.Run("liking twice is a no-op", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		out := h.mustRun(t, "collections", "like", id(h.seeded.Collections[2]))
		if !strings.Contains(out, "already Liked") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("a failed like leaves the server untouched", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		shelf := h.seeded.Collections[0]
		h.store.SetFaults(server.Faults{LikeFailures: 1})

		if err := h.run("collections", "like", id(shelf)); err == nil {
			t.Fatal("expected the like to fail")
		}
		d, err := h.store.Details(shelf, h.seeded.Demo.ID)
		if err != nil {
			t.Fatal(err)
		}
		if d.IsLiked || d.LikesCount != 0 {
			t.Errorf("expected no like after failure, got %+v", d)
		}

		out := h.mustRun(t, "collections", "like", id(shelf))
		if !strings.Contains(out, "Liked Blue Note Shelf (♥ 1)") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("search inside a collection", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		shelf := id(h.seeded.Collections[0])

		if out := h.mustRun(t, "collections", "search", shelf, "blue"); !strings.Contains(out, "Blue Train") {
			t.Errorf("unexpected output %q", out)
		}
		if err := h.run("collections", "search", shelf, "b"); !errors.Is(err, shared.ErrQueryTooShort) {
			t.Errorf("expected ErrQueryTooShort, got %v", err)
		}

		out := h.mustRun(t, "history", "list", "--collection", shelf)
		if !strings.Contains(out, `"blue"`) || strings.Contains(out, `"b"`) {
			t.Errorf("expected only the committed query in history:\n%s", out)
		}
	})

	t.Run("only the owner changes visibility", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run("collections", "visibility", id(h.seeded.Collections[2]), "--private"); !errors.Is(err, shared.ErrNotOwner) {
			t.Errorf("expected ErrNotOwner, got %v", err)
		}
		if err := h.run("collections", "visibility", id(h.seeded.Collections[1])); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument without a flag, got %v", err)
		}

		out := h.mustRun(t, "collections", "visibility", id(h.seeded.Collections[1]), "--public")
		if !strings.Contains(out, "Collection is now public") {
			t.Errorf("unexpected output %q", out)
		}
		d, _ := h.store.Details(h.seeded.Collections[1], h.seeded.Demo.ID)
		if !d.IsPublic {
			t.Error("expected the collection to be public")
		}
	})

	t.Run("update album condition", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		shelf := h.seeded.Collections[0]
		albums, err := h.store.Albums(shelf, h.seeded.Demo.ID, 1, 20)
		if err != nil || len(albums.Items) == 0 {
			t.Fatalf("albums: %v", err)
		}
		album := albums.Items[0]

		out := h.mustRun(t, "collections", "condition", id(shelf), id(album.ID), "--record", "mint", "--acquired", "2021-06")
		if !strings.Contains(out, "Condition updated") || !strings.Contains(out, "record: Mint") {
			t.Errorf("unexpected output %q", out)
		}

		if err := h.run("collections", "condition", id(shelf), id(album.ID), "--record", "scratched"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("remove an album", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		shelf := h.seeded.Collections[0]
		albums, _ := h.store.Albums(shelf, h.seeded.Demo.ID, 1, 20)

		out := h.mustRun(t, "collections", "remove", id(shelf), "--album", id(albums.Items[0].ID))
		if !strings.Contains(out, "Album removed") {
			t.Errorf("unexpected output %q", out)
		}
		after, _ := h.store.Albums(shelf, h.seeded.Demo.ID, 1, 20)
		if after.Total != albums.Total-1 {
			t.Errorf("expected %d albums, got %d", albums.Total-1, after.Total)
		}
	})

	t.Run("create, edit and delete a collection", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		if out := h.mustRun(t, "collections", "list"); strings.Contains(out, "Dub Plates") {
			t.Fatalf("unexpected collection before create:\n%s", out)
		}

		out := h.mustRun(t, "collections", "create", "--name", "Dub Plates", "--description", "Sound system cuts")
		if !strings.Contains(out, "Created Dub Plates") {
			t.Fatalf("unexpected output %q", out)
		}
		var created int64
		if _, err := fmt.Sscanf(out[strings.Index(out, "id "):], "id %d", &created); err != nil {
			t.Fatalf("no id in %q: %v", out, err)
		}
		if out := h.mustRun(t, "collections", "list"); !strings.Contains(out, "Dub Plates") {
			t.Errorf("expected the cached listing to refresh after create:\n%s", out)
		}

		if err := h.run("collections", "edit", id(created)); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument without changes, got %v", err)
		}
		out = h.mustRun(t, "collections", "edit", id(created), "--name", "Dubplates", "--public")
		if !strings.Contains(out, "Updated Dubplates") {
			t.Errorf("unexpected output %q", out)
		}
		d, err := h.store.Details(created, h.seeded.Demo.ID)
		if err != nil || d.Name != "Dubplates" || !d.IsPublic || d.Description != "Sound system cuts" {
			t.Errorf("unexpected detail %+v (%v)", d, err)
		}

		if out := h.mustRun(t, "collections", "delete", id(created)); !strings.Contains(out, "Deleted Dubplates") {
			t.Errorf("unexpected output %q", out)
		}
		if _, err := h.store.Details(created, h.seeded.Demo.ID); err == nil {
			t.Error("expected the collection to be gone")
		}
	})

	t.Run("only the owner deletes", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		if err := h.run("collections", "delete", id(h.seeded.Collections[2])); !errors.Is(err, shared.ErrNotOwner) {
			t.Errorf("expected ErrNotOwner, got %v", err)
		}
		if _, err := h.store.Details(h.seeded.Collections[2], h.seeded.Demo.ID); err != nil {
			t.Errorf("expected the collection to survive, got %v", err)
		}
	})
}

func TestContentCommands(t *testing.T) {
	t.Run("adding twice reports the item as already present", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		shelf := id(h.seeded.Collections[0])

		out := h.mustRun(t, "add", shelf, "dz-301826", "--title", "A Love Supreme", "--record", "very_good")
		if !strings.Contains(out, "Added A Love Supreme to collection") {
			t.Errorf("unexpected output %q", out)
		}
		out = h.mustRun(t, "add", shelf, "dz-301826", "--title", "A Love Supreme")
		if !strings.Contains(out, "You already have A Love Supreme") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("cannot add to someone else's collection", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		err := h.run("add", id(h.seeded.Collections[2]), "dz-301826", "--title", "A Love Supreme")
		if !errors.Is(err, shared.ErrNotOwner) {
			t.Errorf("expected ErrNotOwner, got %v", err)
		}
	})

	t.Run("bulk import from CSV", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		path := filepath.Join(h.dir, "import.csv")
		csv := "external_id,title\n" +
			"dg-1,First Pressing\n" +
			"dg-2,Second Pressing\n" +
			"dg-1,First Pressing\n"
		if err := os.WriteFile(path, []byte(csv), 0644); err != nil {
			t.Fatal(err)
		}

		out := h.mustRun(t, "add", id(h.seeded.Collections[1]), "--from-file", path, "--rate", "1000")
		for _, want := range []string{"Added: 2", "Skipped: 1", "Failed: 0"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("proxy search is recorded in history", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		out := h.mustRun(t, "search", "coltrane")
		if !strings.Contains(out, "2 results") || !strings.Contains(out, "A Love Supreme") {
			t.Errorf("unexpected output %q", out)
		}
		if err := h.run("search", "c"); !errors.Is(err, shared.ErrQueryTooShort) {
			t.Errorf("expected ErrQueryTooShort, got %v", err)
		}

		out = h.mustRun(t, "history", "list", "--scope", "proxy")
		if !strings.Contains(out, `"coltrane"`) {
			t.Errorf("expected the search in history:\n%s", out)
		}
		if out := h.mustRun(t, "history", "clear"); !strings.Contains(out, "Removed 1 searches") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("wishlist round trip", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if out := h.mustRun(t, "wishlist", "add", "dz-103248", "--title", "Neu!"); !strings.Contains(out, "Added Neu! to wishlist") {
			t.Errorf("unexpected output %q", out)
		}

		h.mustRun(t, "wishlist", "list", "--json")
		var items []models.WishlistItem
		if err := json.Unmarshal(h.out.Bytes(), &items); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(items) != 1 || items[0].Title != "Neu!" {
			t.Fatalf("unexpected wishlist %+v", items)
		}

		if out := h.mustRun(t, "wishlist", "remove", id(items[0].ID)); !strings.Contains(out, "Removed from wishlist") {
			t.Errorf("unexpected output %q", out)
		}
		if out := h.mustRun(t, "wishlist", "list"); !strings.Contains(out, "Wishlist (0)") {
			t.Errorf("expected an empty wishlist after remove:\n%s", out)
		}
	})

	t.Run("export writes every album", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		base := filepath.Join(h.dir, "shelf")

		out := h.mustRun(t, "export", id(h.seeded.Collections[0]), "--format", "json", "--output", base)
		if !strings.Contains(out, "Exported Blue Note Shelf (2 albums, 1 artists)") {
			t.Errorf("unexpected output %q", out)
		}
		tu.AssertFileExists(t, base+".json")
		if data := tu.MustReadFile(t, base+".json"); !strings.Contains(data, "Speak No Evil") {
			t.Errorf("expected album in export:\n%s", data)
		}

		if err := h.run("export", id(h.seeded.Collections[0]), "--format", "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestPlacesCommands(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	shop := h.seeded.Places[0]

	t.Run("list", func(t *testing.T) {
		out := h.mustRun(t, "places", "list")
		if !strings.Contains(out, "Rough Trade East") || !strings.Contains(out, "Places (2)") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("show", func(t *testing.T) {
		out := h.mustRun(t, "places", "show", id(shop))
		if !strings.Contains(out, "London, United Kingdom") || !strings.Contains(out, "Map: ") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("like", func(t *testing.T) {
		out := h.mustRun(t, "places", "like", id(shop))
		if !strings.Contains(out, "Liked Rough Trade East") {
			t.Errorf("unexpected output %q", out)
		}
		p, err := h.store.Place(shop, h.seeded.Demo.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !p.IsLiked || p.LikesCount != 1 {
			t.Errorf("expected the place to be liked once, got %+v", p)
		}
	})

	t.Run("add waits for moderation", func(t *testing.T) {
		out := h.mustRun(t, "places", "add", "--name", "Honest Jon's", "--type", "Shop",
			"--city", "London", "--country", "United Kingdom", "--lat", "51.52", "--lng", "-0.2")
		if !strings.Contains(out, "Submitted Honest Jon's for moderation") {
			t.Errorf("unexpected output %q", out)
		}
		if out := h.mustRun(t, "places", "list"); strings.Contains(out, "Honest Jon's") {
			t.Errorf("expected unmoderated places to stay unlisted:\n%s", out)
		}

		err := h.run("places", "add", "--name", "Nowhere", "--type", "Shop", "--city", "X", "--country", "Y", "--lat", "91")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for an out of range latitude, got %v", err)
		}
	})

	t.Run("url falls back to the map", func(t *testing.T) {
		p := models.Place{Latitude: 1, Longitude: 2}
		if got := placeURL(p); got != shared.MapURL(1, 2) {
			t.Errorf("placeURL = %q", got)
		}
		p.SourceURL = "https://example.com"
		if got := placeURL(p); got != "https://example.com" {
			t.Errorf("placeURL = %q", got)
		}
	})
}

func TestAPICommands(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	t.Run("get uses the stored cookies", func(t *testing.T) {
		out := h.mustRun(t, "api", "get", "/users/me")
		if !strings.Contains(out, server.DemoEmail) {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("post rejects invalid JSON", func(t *testing.T) {
		if err := h.run("api", "post", "/request-proxy/search-music", "--data", "{"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("post", func(t *testing.T) {
		out := h.mustRun(t, "api", "post", "/request-proxy/search-music", "--data", `{"query":"neu","is_artist":false}`)
		if !strings.Contains(out, "dz-103248") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		if err := h.run("api", "get", "/collections/999999/details"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	original := tu.MustGetwd(t)
	tu.MustChdir(t, dir)
	t.Cleanup(func() { os.Chdir(original) })

	out := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Output: out, Logger: log.New(io.Discard)})
	t.Cleanup(func() { runner.Close() })

	app := newApp(runner)
	app.Writer = io.Discard
	if err := app.Run(context.Background(), []string{"vkx", "-c", "config.toml", "setup"}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
	tu.AssertFileExists(t, filepath.Join(dir, "vkx.db"))
	if !strings.Contains(out.String(), "Database ready") {
		t.Errorf("unexpected output %q", out.String())
	}
}
