package themes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lirany1/bench-report/pkg/config"
)

func TestCopyAssets(t *testing.T) {
	assets := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(assets, "d3.min.js"), []byte("d3"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(assets, "css"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(assets, "css", "nv.d3.min.css"), []byte("css"), 0644))

	cfg := config.NewConfig()
	cfg.AssetsDir = assets
	m := NewManager(cfg)

	out := filepath.Join(t.TempDir(), "libs")
	files, err := m.CopyAssets("", out)
	require.NoError(t, err)
	assert.NotEmpty(t, files)

	content, err := os.ReadFile(filepath.Join(out, "d3.min.js"))
	require.NoError(t, err)
	assert.Equal(t, "d3", string(content))
	content, err = os.ReadFile(filepath.Join(out, "css", "nv.d3.min.css"))
	require.NoError(t, err)
	assert.Equal(t, "css", string(content))
}

func TestCopyAssets_MissingDir(t *testing.T) {
	cfg := config.NewConfig()
	cfg.AssetsDir = filepath.Join(t.TempDir(), "missing")

	files, err := NewManager(cfg).CopyAssets("", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestAssetsPath(t *testing.T) {
	cfg := config.NewConfig()
	cfg.AssetsDir = "web/libs"
	m := NewManager(cfg)

	assert.Equal(t, "web/libs", m.AssetsPath(""))
	abs := filepath.Join(t.TempDir(), "dark")
	assert.Equal(t, abs, m.AssetsPath(abs))
	assert.Equal(t, filepath.Join("web/libs", "dark"), m.AssetsPath("dark"))
}
