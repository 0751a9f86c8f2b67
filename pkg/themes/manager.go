package themes

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/getgauge/common"

	"github.com/lirany1/bench-report/pkg/config"
	"github.com/lirany1/bench-report/pkg/logger"
)

// Manager handles the static assets shipped next to generated reports
type Manager struct {
	config *config.Config
}

// NewManager creates a new theme manager
func NewManager(cfg *config.Config) *Manager {
	return &Manager{config: cfg}
}

// CopyAssets mirrors the theme's asset directory into outputDir and
// returns the copied file paths. A missing asset directory is not an error.
func (m *Manager) CopyAssets(themeName, outputDir string) ([]string, error) {
	assetsPath := m.AssetsPath(themeName)

	if _, err := os.Stat(assetsPath); os.IsNotExist(err) {
		logger.Debugf("No assets found at %s, skipping", assetsPath)
		return nil, nil
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory: %w", err)
	}

	files, err := common.MirrorDir(assetsPath, outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to copy assets from %s: %w", assetsPath, err)
	}
	logger.Debugf("Copied %d asset files to %s", len(files), outputDir)
	return files, nil
}

// AssetsPath resolves where a theme's assets live. An empty name means the
// configured assets directory; absolute names are used as is.
func (m *Manager) AssetsPath(themeName string) string {
	if themeName == "" {
		return m.config.AssetsDir
	}
	if filepath.IsAbs(themeName) {
		return themeName
	}

	projectThemes := filepath.Join("themes", themeName)
	if _, err := os.Stat(projectThemes); err == nil {
		return projectThemes
	}

	return filepath.Join(m.config.AssetsDir, themeName)
}
