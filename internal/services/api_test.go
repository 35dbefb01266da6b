package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/vkx/internal/shared"
	tu "github.com/desertthunder/vkx/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/api/", customClient)

			if srv.baseURL != "http://example.com/api" {
				t.Errorf("expected trailing slash trimmed, got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.baseURL != defaultBaseURL {
				t.Errorf("expected default baseURL %s, got %s", defaultBaseURL, srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Successful Request With JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/test" {
					t.Errorf("expected path '/test', got %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/test")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
			if !resp.IsJSON {
				t.Error("expected response to be JSON")
			}
		})

		t.Run("Non-JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("plain text response"))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/test")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON {
				t.Error("expected response to not be JSON")
			}
			if string(resp.Body) != "plain text response" {
				t.Errorf("expected body 'plain text response', got %s", string(resp.Body))
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			_, err := NewAPIService("http://example.com", nil).Get(context.Background(), "/test\x00invalid")
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}

			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test")
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test")
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected Content-Type 'application/json', got %s", r.Header.Get("Content-Type"))
			}
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
		}))
		defer server.Close()

		resp, err := NewAPIService(server.URL, nil).Post(context.Background(), "/echo", []byte(`{"a":1}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Errorf("expected status 201, got %d", resp.StatusCode)
		}
		if string(resp.Body) != `{"a":1}` {
			t.Errorf("expected echoed body, got %s", resp.Body)
		}
	})

	t.Run("Do", func(t *testing.T) {
		t.Run("encodes body, query and headers", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("page") != "2" {
					t.Errorf("expected page=2, got %s", r.URL.RawQuery)
				}
				if r.Header.Get("User-Agent") != "vkx-test" {
					t.Errorf("expected user agent vkx-test, got %s", r.Header.Get("User-Agent"))
				}
				if r.Header.Get("X-Request-ID") == "" {
					t.Error("expected X-Request-ID header")
				}
				var in map[string]string
				json.NewDecoder(r.Body).Decode(&in)
				json.NewEncoder(w).Encode(map[string]string{"echo": in["name"]})
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, WithUserAgent("vkx-test"))
			var out map[string]string
			err := srv.Do(context.Background(), http.MethodPost, "/x", url.Values{"page": {"2"}}, map[string]string{"name": "blue"}, &out)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if out["echo"] != "blue" {
				t.Errorf("expected echo blue, got %v", out)
			}
		})

		t.Run("empty body with out is not an error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			var out map[string]any
			if err := NewAPIService(server.URL, nil).Do(context.Background(), http.MethodDelete, "/x", nil, nil, &out); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})

		t.Run("error bodies", func(t *testing.T) {
			tc := []struct {
				name    string
				status  int
				body    string
				want    string
				wantErr error
			}{
				{name: "message field", status: 400, body: `{"message":"Album not found"}`, want: "Album not found", wantErr: shared.ErrAPIRequest},
				{name: "fastapi detail string", status: 403, body: `{"detail":"Not the owner"}`, want: "Not the owner", wantErr: shared.ErrAPIRequest},
				{name: "fastapi validation list", status: 422, body: `{"detail":[{"msg":"field required"}]}`, want: "field required", wantErr: shared.ErrAPIRequest},
				{name: "no body", status: 500, body: ``, want: "request failed with status 500", wantErr: shared.ErrAPIRequest},
				{name: "unauthorized", status: 401, body: `{"detail":"Not authenticated"}`, want: "Not authenticated", wantErr: shared.ErrNotAuthenticated},
			}

			for _, tt := range tc {
				t.Run(tt.name, func(t *testing.T) {
					server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						w.WriteHeader(tt.status)
						w.Write([]byte(tt.body))
					}))
					defer server.Close()

					err := NewAPIService(server.URL, nil).Do(context.Background(), http.MethodGet, "/x", nil, nil, nil)

					var apiErr *APIError
					if !errors.As(err, &apiErr) {
						t.Fatalf("expected *APIError, got %T: %v", err, err)
					}
					if apiErr.StatusCode != tt.status {
						t.Errorf("expected status %d, got %d", tt.status, apiErr.StatusCode)
					}
					if err.Error() != tt.want {
						t.Errorf("expected message %q, got %q", tt.want, err.Error())
					}
					if !errors.Is(err, tt.wantErr) {
						t.Errorf("expected error to wrap %v", tt.wantErr)
					}
					if apiErr.RequestID == "" {
						t.Error("expected request id to be recorded")
					}
				})
			}
		})
	})
}
