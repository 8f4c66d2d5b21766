package utils

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "video.mp4", SanitizeFilename("video.mp4"))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "clip.mp4", SanitizeFilename("/tmp/clip.mp4"))
	assert.NotContains(t, SanitizeFilename(`a\b\c.mp4`), `\`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "lo...", Truncate("long message", 5))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "héll...", Truncate("héllo wörld", 7), "truncation counts runes, not bytes")
}

func TestDownloadFile(t *testing.T) {
	var gotAgent, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotHeader = r.Header.Get("X-Extra")
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	path, err := DownloadFile(srv.URL+"/v.mp4", "video.mp4", DownloadOptions{
		Timeout:      time.Second,
		ExtraHeaders: map[string]string{"X-Extra": "yes"},
	})
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, "Mozilla/5.0", gotAgent)
	assert.Equal(t, "yes", gotHeader)
	assert.True(t, strings.HasSuffix(path, "_video.mp4"))
	assert.Equal(t, "botfleet_media", filepath.Base(filepath.Dir(path)))
}

func TestDownloadFile_UniquePaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	a, err := DownloadFile(srv.URL, "video.mp4", DownloadOptions{Timeout: time.Second})
	require.NoError(t, err)
	defer os.Remove(a)
	b, err := DownloadFile(srv.URL, "video.mp4", DownloadOptions{Timeout: time.Second})
	require.NoError(t, err)
	defer os.Remove(b)

	assert.NotEqual(t, a, b, "concurrent downloads of the same name must not collide")
}

func TestDownloadFile_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := DownloadFile(srv.URL, "video.mp4", DownloadOptions{Timeout: time.Second})
	assert.ErrorContains(t, err, "status 404")
}
