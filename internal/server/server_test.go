package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjectLiveReload(t *testing.T) {
	withBody := injectLiveReload([]byte(`<html><body><p>hi</p></body></html>`))
	assert.Equal(t, `<html><body><p>hi</p>`+liveReloadTag+`</body></html>`, string(withBody))

	fragment := injectLiveReload([]byte(`<p>no body tag</p>`))
	assert.Equal(t, `<p>no body tag</p>`+liveReloadTag, string(fragment))
}

func newSiteFixture(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":      `<html><body><h1>home</h1></body></html>`,
		"docs/index.html": `<html><body><h1>docs</h1></body></html>`,
		"css/site.css":    `body {}`,
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return New(Options{OutputDir: dir}, func(context.Context, []string) error { return nil })
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string, http.Header) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header
}

func TestSiteHandlerInjectsIntoHTML(t *testing.T) {
	s := newSiteFixture(t)
	srv := httptest.NewServer(s.siteHandler())
	defer srv.Close()

	code, body, headers := get(t, srv, "/index.html")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<h1>home</h1>")
	assert.Contains(t, body, "livereload.js")
	assert.Contains(t, headers.Get("Content-Type"), "text/html")
}

func TestSiteHandlerDirectoryServesIndex(t *testing.T) {
	s := newSiteFixture(t)
	srv := httptest.NewServer(s.siteHandler())
	defer srv.Close()

	code, body, _ := get(t, srv, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<h1>home</h1>")

	code, body, _ = get(t, srv, "/docs/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<h1>docs</h1>")
}

func TestSiteHandlerAssetsServedUnmodified(t *testing.T) {
	s := newSiteFixture(t)
	srv := httptest.NewServer(s.siteHandler())
	defer srv.Close()

	code, body, _ := get(t, srv, "/css/site.css")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "body {}", body)
	assert.NotContains(t, body, "livereload")
}

func TestSiteHandlerMissingPage(t *testing.T) {
	s := newSiteFixture(t)
	srv := httptest.NewServer(s.siteHandler())
	defer srv.Close()

	code, _, _ := get(t, srv, "/nope.html")
	assert.Equal(t, http.StatusNotFound, code)
}
