package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "dompile.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "src", cfg.Source)
	assert.Equal(t, "dist", cfg.Output)
	assert.Equal(t, ".layouts", cfg.LayoutsDir)
	assert.Equal(t, "default.html", cfg.DefaultLayout)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dompile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source: content
output: public
pretty_urls: true
site:
  title: Example
  base_url: https://example.com
server:
  port: 3000
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "content", cfg.Source)
	assert.Equal(t, "public", cfg.Output)
	assert.True(t, cfg.PrettyURLs)
	assert.Equal(t, "Example", cfg.Site.Title)
	assert.Equal(t, "https://example.com", cfg.Site.BaseURL)
	assert.Equal(t, 3000, cfg.Server.Port)
	// defaults still fill unset fields
	assert.Equal(t, ".components", cfg.ComponentsDir)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dompile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRejectsSourceEqualsOutput(t *testing.T) {
	cfg := Default()
	cfg.Source = "site"
	cfg.Output = "site"
	require.Error(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DOMPILE_BASE_URL", "https://override.test")
	t.Setenv("DOMPILE_PORT", "9999")

	cfg, err := Load(filepath.Join(t.TempDir(), "dompile.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://override.test", cfg.Site.BaseURL)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestResolveRoots(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()

	roots, err := cfg.ResolveRoots(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), roots.Source)
	assert.Equal(t, filepath.Join(dir, "dist"), roots.Output)
	// layouts and components live under the source root
	assert.Equal(t, filepath.Join(dir, "src", ".layouts"), roots.Layouts)
	assert.Equal(t, filepath.Join(dir, "src", ".components"), roots.Components)
}
