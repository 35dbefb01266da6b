package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantHeaders map[string]string
		wantCookie  string
		wantURL     string
		wantErr     bool
	}{
		{
			name:        "single header with single quotes",
			curlCmd:     `curl -H 'X-CSRFToken: abc' https://vinyl.example.com/api/users/me`,
			wantHeaders: map[string]string{"X-CSRFToken": "abc"},
			wantURL:     "https://vinyl.example.com/api/users/me",
		},
		{
			name:        "single header with double quotes",
			curlCmd:     `curl -H "X-CSRFToken: abc" https://vinyl.example.com/api`,
			wantHeaders: map[string]string{"X-CSRFToken": "abc"},
			wantURL:     "https://vinyl.example.com/api",
		},
		{
			name:        "cookie in -b flag",
			curlCmd:     `curl -b 'access_token=abc123' https://vinyl.example.com/api`,
			wantHeaders: map[string]string{},
			wantCookie:  "access_token=abc123",
			wantURL:     "https://vinyl.example.com/api",
		},
		{
			name:        "cookie in --cookie flag",
			curlCmd:     `curl --cookie "access_token=abc123" https://vinyl.example.com/api`,
			wantHeaders: map[string]string{},
			wantCookie:  "access_token=abc123",
			wantURL:     "https://vinyl.example.com/api",
		},
		{
			name:        "cookie header is excluded from regular headers",
			curlCmd:     `curl -H 'Cookie: access_token=abc' -H 'Accept: application/json' https://vinyl.example.com/api`,
			wantHeaders: map[string]string{"Accept": "application/json"},
			wantCookie:  "access_token=abc",
			wantURL:     "https://vinyl.example.com/api",
		},
		{
			name:        "-b cookie takes precedence over -H cookie",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://vinyl.example.com/api`,
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
			wantURL:     "https://vinyl.example.com/api",
		},
		{
			name: "copied from browser devtools",
			curlCmd: `curl 'https://vinyl.example.com/api/users/me' \
  -H 'accept: application/json' \
  -H 'cookie: access_token=aaa; refresh_token=bbb' \
  --compressed`,
			wantHeaders: map[string]string{"accept": "application/json"},
			wantCookie:  "access_token=aaa; refresh_token=bbb",
			wantURL:     "https://vinyl.example.com/api/users/me",
		},
		{
			name:    "no headers or cookies",
			curlCmd: `curl https://vinyl.example.com/api`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurlCommand([]byte(tc.curlCmd))
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}

			if len(result.Headers) != len(tc.wantHeaders) {
				t.Errorf("headers count = %v, want %v", len(result.Headers), len(tc.wantHeaders))
			}
			for key, want := range tc.wantHeaders {
				if got := result.Headers[key]; got != want {
					t.Errorf("header[%s] = %v, want %v", key, got, want)
				}
			}
			if result.Cookie != tc.wantCookie {
				t.Errorf("cookie = %v, want %v", result.Cookie, tc.wantCookie)
			}
			if result.URL != tc.wantURL {
				t.Errorf("url = %v, want %v", result.URL, tc.wantURL)
			}
		})
	}
}

func TestCurlHeaders_Cookies(t *testing.T) {
	h := &CurlHeaders{Cookie: "access_token=aaa; junk; refresh_token=b=b"}
	cookies := h.Cookies()

	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	if cookies[0].Name != "access_token" || cookies[0].Value != "aaa" {
		t.Errorf("unexpected first cookie %s=%s", cookies[0].Name, cookies[0].Value)
	}
	if cookies[1].Value != "b=b" {
		t.Errorf("expected value with embedded '=', got %s", cookies[1].Value)
	}
}

func TestParseCurlFile(t *testing.T) {
	t.Run("successful file parse", func(t *testing.T) {
		curlFile := filepath.Join(t.TempDir(), "curl.sh")
		curlCmd := `curl -b 'access_token=t' https://vinyl.example.com/api`
		if err := os.WriteFile(curlFile, []byte(curlCmd), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		result, err := ParseCurlFile(curlFile)
		if err != nil {
			t.Fatalf("ParseCurlFile() error = %v", err)
		}
		if result.Cookie != "access_token=t" {
			t.Errorf("expected cookie access_token=t, got %s", result.Cookie)
		}
	})

	t.Run("file does not exist", func(t *testing.T) {
		if _, err := ParseCurlFile("/nonexistent/file.sh"); err == nil {
			t.Error("ParseCurlFile() expected error for nonexistent file")
		}
	})
}
