// Package plot prepares benchmark task results for the HTML report templates.
package plot

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/lirany1/bench-report/pkg/analytics"
	"github.com/lirany1/bench-report/pkg/charts"
	"github.com/lirany1/bench-report/pkg/config"
	"github.com/lirany1/bench-report/pkg/logger"
	"github.com/lirany1/bench-report/pkg/models"
)

// DefaultTimeLayout is used for hook and error timestamps
const DefaultTimeLayout = "2006-01-02 15:04:05"

// Template names understood by a Renderer
const (
	ReportTemplate = "task/report.html"
	TrendsTemplate = "task/trends.html"
)

// TimeFormatter renders a unix timestamp in seconds for display
type TimeFormatter func(ts float64) string

// NewTimeFormatter formats timestamps with layout in loc, UTC when loc is nil
func NewTimeFormatter(layout string, loc *time.Location) TimeFormatter {
	if layout == "" {
		layout = DefaultTimeLayout
	}
	if loc == nil {
		loc = time.UTC
	}
	return func(ts float64) string {
		sec, frac := math.Modf(ts)
		return time.Unix(int64(sec), int64(frac*1e9)).In(loc).Format(layout)
	}
}

// Page is what a report template is rendered with. Data and Source hold
// JSON text.
type Page struct {
	Version     string
	Data        string
	Source      string
	IncludeLibs bool
}

// Renderer turns a page into HTML using a named template
type Renderer interface {
	Render(name string, page Page) (string, error)
}

// Formatter builds report data from stored tasks
type Formatter struct {
	Version    string
	ZippedSize int
	FormatTime TimeFormatter
	Renderer   Renderer
}

// NewFormatter creates a formatter using the configured time zone and layout
func NewFormatter(cfg *config.Config, version string, r Renderer) (*Formatter, error) {
	loc := time.UTC
	if cfg.TimestampLocation != "" {
		l, err := time.LoadLocation(cfg.TimestampLocation)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp location %q: %w", cfg.TimestampLocation, err)
		}
		loc = l
	}
	return &Formatter{
		Version:    version,
		ZippedSize: cfg.ZippedSize,
		FormatTime: NewTimeFormatter(cfg.TimestampLayout, loc),
		Renderer:   r,
	}, nil
}

func (f *Formatter) formatTime() TimeFormatter {
	if f.FormatTime == nil {
		return NewTimeFormatter(DefaultTimeLayout, time.UTC)
	}
	return f.FormatTime
}

func (f *Formatter) zippedSize() int {
	if f.ZippedSize <= 0 {
		return charts.DefaultZippedSize
	}
	return f.ZippedSize
}

// Report is the structured content behind report.html
type Report struct {
	Version   string     `json:"version"`
	Source    string     `json:"source"`
	Workloads []Workload `json:"workloads"`
}

func workloadsOf(tasks []*models.Task) []*models.Workload {
	var workloads []*models.Workload
	for _, task := range tasks {
		for _, st := range task.Subtasks {
			workloads = append(workloads, st.Workloads...)
		}
	}
	return workloads
}

// BuildReport formats every workload of the tasks and their merged source
func (f *Formatter) BuildReport(tasks []*models.Task) (*Report, error) {
	source, err := MakeSource(tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to build task source: %w", err)
	}

	workloads := workloadsOf(tasks)
	logger.Debugf("Formatting %d workloads of %d tasks", len(workloads), len(tasks))
	processed, err := f.ProcessWorkloads(workloads)
	if err != nil {
		return nil, err
	}

	return &Report{Version: f.Version, Source: source, Workloads: processed}, nil
}

// Plot renders the HTML report of the tasks
func (f *Formatter) Plot(tasks []*models.Task, includeLibs bool) (string, error) {
	report, err := f.BuildReport(tasks)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(report.Workloads)
	if err != nil {
		return "", fmt.Errorf("failed to encode report data: %w", err)
	}
	source, err := json.Marshal(report.Source)
	if err != nil {
		return "", fmt.Errorf("failed to encode report source: %w", err)
	}

	return f.render(ReportTemplate, Page{
		Version:     f.Version,
		Data:        string(data),
		Source:      string(source),
		IncludeLibs: includeLibs,
	})
}

// BuildTrends merges every workload of the tasks into trend series
func (f *Formatter) BuildTrends(tasks []*models.Task) ([]analytics.TrendSeries, error) {
	trends, err := analytics.NewTrends()
	if err != nil {
		return nil, err
	}
	for _, w := range workloadsOf(tasks) {
		if err := trends.AddResult(w); err != nil {
			return nil, err
		}
	}
	return trends.Data(), nil
}

// Trends renders the HTML trends report of the tasks
func (f *Formatter) Trends(tasks []*models.Task) (string, error) {
	series, err := f.BuildTrends(tasks)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(series)
	if err != nil {
		return "", fmt.Errorf("failed to encode trends data: %w", err)
	}
	return f.render(TrendsTemplate, Page{Version: f.Version, Data: string(data)})
}

func (f *Formatter) render(name string, page Page) (string, error) {
	if f.Renderer == nil {
		return "", fmt.Errorf("no renderer configured for %s", name)
	}
	html, err := f.Renderer.Render(name, page)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return html, nil
}
