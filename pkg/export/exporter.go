package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lirany1/bench-report/pkg/config"
	"github.com/lirany1/bench-report/pkg/logger"
	"github.com/lirany1/bench-report/pkg/plot"
)

// Supported export formats
const (
	FormatHTML = "html"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Exporter handles exporting report data to various formats
type Exporter struct {
	config *config.Config
}

// NewExporter creates a new exporter
func NewExporter(cfg *config.Config) *Exporter {
	return &Exporter{config: cfg}
}

// Export writes the report into outputDir in the given format and returns
// the written file. HTML is produced by the renderer, not here.
func (e *Exporter) Export(report *plot.Report, outputDir, format string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	switch format {
	case FormatJSON:
		return e.exportJSON(report, outputDir)
	case FormatYAML:
		return e.exportYAML(report, outputDir)
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

// ExportAll writes every configured non-HTML format
func (e *Exporter) ExportAll(report *plot.Report, outputDir string) ([]string, error) {
	var files []string
	for _, format := range e.config.ExportFormats {
		if format == FormatHTML {
			continue
		}
		path, err := e.Export(report, outputDir, format)
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

func (e *Exporter) exportJSON(report *plot.Report, outputDir string) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	return writeFile(filepath.Join(outputDir, "report.json"), data)
}

// exportYAML goes through JSON so the YAML keys match the JSON ones
func (e *Exporter) exportYAML(report *plot.Report, outputDir string) (string, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode report as yaml: %w", err)
	}
	return writeFile(filepath.Join(outputDir, "report.yaml"), data)
}

func writeFile(path string, data []byte) (string, error) {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Infof("Exported report to %s", path)
	return path, nil
}
