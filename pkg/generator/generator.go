package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lirany1/bench-report/pkg/builder"
	"github.com/lirany1/bench-report/pkg/config"
	"github.com/lirany1/bench-report/pkg/export"
	"github.com/lirany1/bench-report/pkg/logger"
	"github.com/lirany1/bench-report/pkg/models"
	"github.com/lirany1/bench-report/pkg/plot"
	"github.com/lirany1/bench-report/pkg/renderer"
	"github.com/lirany1/bench-report/pkg/themes"
)

// Output file names
const (
	ReportFile = "report.html"
	TrendsFile = "trends.html"
	LibsDir    = "libs"
)

// TaskStore is the task history used to resolve task references
type TaskStore interface {
	SaveTask(task *models.Task) error
	GetTask(uuid string) (*models.Task, error)
}

// Generator handles benchmark report generation
type Generator struct {
	config    *config.Config
	formatter *plot.Formatter
	builder   *builder.TaskBuilder
	exporter  *export.Exporter
	themes    *themes.Manager
	store     TaskStore
}

// NewGenerator creates a report generator. store may be nil, in which case
// tasks can only be read from files.
func NewGenerator(cfg *config.Config, version string, store TaskStore) (*Generator, error) {
	r, err := renderer.NewRenderer(cfg)
	if err != nil {
		return nil, err
	}
	formatter, err := plot.NewFormatter(cfg, version, r)
	if err != nil {
		return nil, err
	}

	return &Generator{
		config:    cfg,
		formatter: formatter,
		builder:   builder.NewTaskBuilder(),
		exporter:  export.NewExporter(cfg),
		themes:    themes.NewManager(cfg),
		store:     store,
	}, nil
}

// Formatter returns the formatter used for reports
func (g *Generator) Formatter() *plot.Formatter {
	return g.formatter
}

// Import loads task files and saves every task into the store
func (g *Generator) Import(paths []string) ([]*models.Task, error) {
	if g.store == nil {
		return nil, fmt.Errorf("no task store configured")
	}
	tasks, err := g.builder.LoadFiles(paths)
	if err != nil {
		return nil, err
	}
	for _, task := range tasks {
		if err := g.store.SaveTask(task); err != nil {
			return nil, err
		}
		logger.Infof("Imported task %s (%s)", task.UUID, task.Title)
	}
	return tasks, nil
}

// ResolveTasks turns each reference into tasks: an existing file is loaded,
// anything else is looked up by UUID in the store
func (g *Generator) ResolveTasks(refs []string) ([]*models.Task, error) {
	var tasks []*models.Task
	for _, ref := range refs {
		if info, err := os.Stat(ref); err == nil && !info.IsDir() {
			loaded, err := g.builder.LoadFile(ref)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, loaded...)
			continue
		}
		if g.store == nil {
			return nil, fmt.Errorf("no such task file: %s", ref)
		}
		task, err := g.store.GetTask(ref)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no tasks to report")
	}
	return tasks, nil
}

// GenerateReport writes report.html for the tasks into outputDir, plus the
// configured export formats, and returns the report path
func (g *Generator) GenerateReport(tasks []*models.Task, outputDir string) (string, error) {
	startTime := time.Now()
	logger.Info("Starting report generation...")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	logger.Info("Rendering HTML report...")
	html, err := g.formatter.Plot(tasks, g.config.IncludeLibs)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	path := filepath.Join(outputDir, ReportFile)
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", err
	}

	if !g.config.IncludeLibs {
		logger.Info("Copying assets...")
		if _, err := g.themes.CopyAssets("", filepath.Join(outputDir, LibsDir)); err != nil {
			logger.Warnf("Failed to copy assets: %v", err)
		}
	}

	if hasExtraFormats(g.config.ExportFormats) {
		logger.Info("Exporting to additional formats...")
		report, err := g.formatter.BuildReport(tasks)
		if err != nil {
			return "", err
		}
		if _, err := g.exporter.ExportAll(report, outputDir); err != nil {
			logger.Warnf("Failed to export to some formats: %v", err)
		}
	}

	logger.Infof("✓ Report generated successfully in %v", time.Since(startTime))
	logger.Infof("Open: file://%s", path)
	return path, nil
}

// GenerateTrends writes trends.html for the tasks into outputDir
func (g *Generator) GenerateTrends(tasks []*models.Task, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	logger.Infof("Building trends of %d tasks...", len(tasks))
	html, err := g.formatter.Trends(tasks)
	if err != nil {
		return "", fmt.Errorf("failed to render trends: %w", err)
	}
	path := filepath.Join(outputDir, TrendsFile)
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", err
	}
	logger.Infof("Open: file://%s", path)
	return path, nil
}

// Export writes the report data of the tasks in one format
func (g *Generator) Export(tasks []*models.Task, outputDir, format string) (string, error) {
	report, err := g.formatter.BuildReport(tasks)
	if err != nil {
		return "", err
	}
	return g.exporter.Export(report, outputDir, format)
}

func hasExtraFormats(formats []string) bool {
	for _, f := range formats {
		if f != export.FormatHTML {
			return true
		}
	}
	return false
}
