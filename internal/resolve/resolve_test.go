package resolve

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dompile/cli/internal/deps"
)

// recordingReader wraps the OS reader and remembers every path it was
// asked to open, so sandbox tests can assert nothing outside the root
// was ever read.
type recordingReader struct {
	mu    sync.Mutex
	reads []string
}

func (r *recordingReader) ReadFile(path string) ([]byte, error) {
	r.mu.Lock()
	r.reads = append(r.reads, path)
	r.mu.Unlock()
	return os.ReadFile(path)
}

type fixture struct {
	root     string
	tracker  *deps.Tracker
	reader   *recordingReader
	resolver *Resolver
}

// newFixture writes the given relative-path -> content files under a
// fresh source root (".layouts/..." keys land in the layouts dir) and
// returns a resolver over it.
func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		writeFixtureFile(t, root, rel, content)
	}

	f := &fixture{
		root:    root,
		tracker: deps.NewTracker(),
		reader:  &recordingReader{},
	}
	f.resolver = New(Options{
		SourceRoot:  root,
		LayoutsRoot: filepath.Join(root, ".layouts"),
		Reader:      f.reader,
	}, f.tracker)
	return f
}

func (f *fixture) abs(rel string) string {
	return filepath.Join(f.root, filepath.FromSlash(rel))
}

// resolvePage runs the full pipeline (includes then layout) for one
// page, the way the build driver does.
func (f *fixture) resolvePage(t *testing.T, rel string) (string, *Resolution) {
	t.Helper()
	page := f.abs(rel)
	raw, err := os.ReadFile(page)
	require.NoError(t, err)

	res := f.resolver.Begin(page)
	expanded := res.ExpandIncludes(string(raw))
	return res.ApplyLayout(expanded, "", "Test"), res
}

// expandOnly runs just include expansion for one page.
func (f *fixture) expandOnly(t *testing.T, rel string) (string, *Resolution) {
	t.Helper()
	page := f.abs(rel)
	raw, err := os.ReadFile(page)
	require.NoError(t, err)

	res := f.resolver.Begin(page)
	return res.ExpandIncludes(string(raw)), res
}

func writeFixtureFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func countOccurrences(s, sub string) int {
	return strings.Count(s, sub)
}
