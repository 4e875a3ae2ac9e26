package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, 1<<20)
}

func TestClientURLs(t *testing.T) {
	client := NewClient("https://docs.google.com/spreadsheets/d/", time.Second, 1024)

	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc123/edit", client.PageURL("abc123"))
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc123/export?format=csv&gid=987654321",
		client.ExportURL("abc123", "987654321"))
}

func TestFetchCSV(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sheet/export", r.URL.Path)
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		assert.Equal(t, "42", r.URL.Query().Get("gid"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte("id,name\r\n1,Ann\r\n"))
	})

	text, err := client.FetchCSV(context.Background(), "sheet", "42")
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,Ann\n", text)
}

func TestFetchCSVStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	_, err := client.FetchCSV(context.Background(), "sheet", "1")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, statusErr.URL, "gid=1")
}

func TestFetchCSVEmptyBody(t *testing.T) {
	for _, body := range []string{"", "  \n\n"} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte(body))
		})

		_, err := client.FetchCSV(context.Background(), "sheet", "1")
		assert.True(t, errors.Is(err, ErrEmptyResponse), "body %q: %v", body, err)
	}
}

func TestFetchCSVSignInPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>Sign in</body></html>"))
	})

	_, err := client.FetchCSV(context.Background(), "sheet", "1")
	assert.True(t, errors.Is(err, ErrUnexpectedContent))
}

func TestFetchCSVTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(strings.Repeat("a,b\n", 100)))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 64)
	_, err := client.FetchCSV(context.Background(), "sheet", "1")
	assert.True(t, errors.Is(err, ErrResponseTooLarge))
}

func TestFetchCSVLatin1(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte{'n', 'a', 'm', 'e', '\n', 'C', 'a', 'f', 0xe9, '\n'})
	})

	text, err := client.FetchCSV(context.Background(), "sheet", "1")
	require.NoError(t, err)
	assert.Equal(t, "name\nCafé\n", text)
}

func TestFetchCSVStripsBOM(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("\xef\xbb\xbfid\n1\n"))
	})

	text, err := client.FetchCSV(context.Background(), "sheet", "1")
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", text)
}

func TestFetchCSVCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("id\n1\n"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchCSV(ctx, "sheet", "1")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFetchPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sheet/edit", r.URL.Path)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>page</html>"))
	})

	page, err := client.FetchPage(context.Background(), "sheet")
	require.NoError(t, err)
	assert.Equal(t, "<html>page</html>", page)
}
