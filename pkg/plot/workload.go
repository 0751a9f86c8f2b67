package plot

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/lirany1/bench-report/pkg/charts"
	"github.com/lirany1/bench-report/pkg/models"
)

// ChartGroup bundles the histogram, per-iteration series and pie of a workload
type ChartGroup struct {
	Histogram [][]charts.HistogramSeries `json:"histogram"`
	Iter      []charts.Series            `json:"iter"`
	Pie       []charts.Slice             `json:"pie"`
}

// IterationError describes an iteration that ended with an error
type IterationError struct {
	Iteration int    `json:"iteration"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Traceback string `json:"traceback"`
}

// OutputError is an output chart that could not be processed
type OutputError struct {
	Iteration int    `json:"iteration"`
	Chart     string `json:"chart"`
	Message   string `json:"message"`
}

// Workload is the report-ready form of one workload
type Workload struct {
	Class           string                  `json:"cls"`
	Method          string                  `json:"met"`
	Pos             string                  `json:"pos"`
	Name            string                  `json:"name"`
	Description     string                  `json:"description"`
	Runner          string                  `json:"runner"`
	Config          string                  `json:"config"`
	CreatedAt       string                  `json:"created_at"`
	FullDuration    float64                 `json:"full_duration"`
	LoadDuration    float64                 `json:"load_duration"`
	Hooks           []Hook                  `json:"hooks"`
	Atomic          ChartGroup              `json:"atomic"`
	Iterations      ChartGroup              `json:"iterations"`
	IterationsCount int                     `json:"iterations_count"`
	Errors          []IterationError        `json:"errors"`
	LoadProfile     []charts.Series         `json:"load_profile"`
	AdditiveOutput  []charts.View           `json:"additive_output"`
	CompleteOutput  [][]charts.CompleteView `json:"complete_output"`
	HasOutput       bool                    `json:"has_output"`
	OutputErrors    []OutputError           `json:"output_errors"`
	SLA             []models.SLAResult      `json:"sla"`
	SLASuccess      bool                    `json:"sla_success"`
	Table           charts.Table            `json:"table"`
}

// ProcessWorkload builds the charts and tables of a single workload.
// pos is the zero-based index of the workload among those sharing its name.
func (f *Formatter) ProcessWorkload(w *models.Workload, cfg interface{}, pos int) (Workload, error) {
	config, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return Workload{}, fmt.Errorf("failed to encode config of %s: %w", w.Name, err)
	}

	zipped := f.zippedSize()
	mainArea := charts.NewMainStackedAreaChart(w, zipped)
	mainHist := charts.NewMainHistogramChart(w)
	mainStat := charts.NewMainStatsTable(w)
	loadProfile := charts.NewLoadProfileChart(w)
	atomicPie := charts.NewAtomicAvgChart(w)
	atomicArea := charts.NewAtomicStackedAreaChart(w, zipped)
	atomicHist := charts.NewAtomicHistogramChart(w)

	out := output{baseSize: charts.BaseSize(w), zippedSize: zipped}
	errs := make([]IterationError, 0)
	complete := make([][]charts.CompleteView, 0, len(w.Data))

	for idx, it := range w.Data {
		mainArea.AddIteration(it)
		mainHist.AddIteration(it)
		mainStat.AddIteration(it)
		loadProfile.AddIteration(it)
		atomicPie.AddIteration(it)
		atomicArea.AddIteration(it)
		atomicHist.AddIteration(it)

		if it.Failed() {
			errs = append(errs, f.iterationError(idx+1, it))
			complete = append(complete, []charts.CompleteView{})
			continue
		}
		out.addIteration(idx+1, it.Output)
		complete = append(complete, out.completeCharts(idx+1, it.Output))
	}

	hooks, err := f.ProcessHooks(w.Hooks)
	if err != nil {
		return Workload{}, err
	}

	additive := out.render()
	hasOutput := len(additive) > 0
	for _, c := range complete {
		if len(c) > 0 {
			hasOutput = true
			break
		}
	}

	name := w.Method()
	if pos > 0 {
		name = fmt.Sprintf("%s [%d]", name, pos+1)
	}

	sla := w.SLAResults.SLA
	if sla == nil {
		sla = []models.SLAResult{}
	}

	total := charts.BaseSize(w)
	return Workload{
		Class:        w.Class(),
		Method:       w.Method(),
		Pos:          strconv.Itoa(pos),
		Name:         name,
		Description:  w.Description,
		Runner:       w.RunnerType(),
		Config:       string(config),
		CreatedAt:    w.CreatedAt,
		FullDuration: w.FullDuration,
		LoadDuration: w.LoadDuration,
		Hooks:        hooks,
		Atomic: ChartGroup{
			Histogram: atomicHist.Render(),
			Iter:      atomicArea.Render(),
			Pie:       atomicPie.Render(),
		},
		Iterations: ChartGroup{
			Histogram: mainHist.Render(),
			Iter:      mainArea.Render(),
			Pie: []charts.Slice{
				{Name: "success", Value: float64(total - len(errs))},
				{Name: "errors", Value: float64(len(errs))},
			},
		},
		IterationsCount: total,
		Errors:          errs,
		LoadProfile:     loadProfile.Render(),
		AdditiveOutput:  additive,
		CompleteOutput:  complete,
		HasOutput:       hasOutput,
		OutputErrors:    out.errors,
		SLA:             sla,
		SLASuccess:      w.PassSLA,
		Table:           mainStat.Render(),
	}, nil
}

func (f *Formatter) iterationError(iteration int, it models.Iteration) IterationError {
	e := IterationError{Iteration: iteration, Timestamp: f.formatTime()(it.Timestamp)}
	fields := []*string{&e.Type, &e.Message, &e.Traceback}
	for i, v := range it.Error {
		if i >= len(fields) {
			break
		}
		*fields[i] = v
	}
	return e
}

// output aggregates iteration output charts by their position in the output
type output struct {
	baseSize   int
	zippedSize int
	charts     []charts.OutputChart
	errors     []OutputError
}

func (o *output) addIteration(iteration int, out models.Output) {
	if o.errors == nil {
		o.errors = make([]OutputError, 0)
	}
	for i, c := range out.Additive {
		if i >= len(o.charts) {
			// a nil entry keeps later positions aligned
			chart, err := charts.NewOutputChart(c, o.baseSize, o.zippedSize)
			if err != nil {
				o.errors = append(o.errors, OutputError{Iteration: iteration, Chart: c.Title, Message: err.Error()})
			}
			o.charts = append(o.charts, chart)
		}
		if o.charts[i] == nil {
			continue
		}
		if err := o.charts[i].AddIteration(c.Data); err != nil {
			o.errors = append(o.errors, OutputError{Iteration: iteration, Chart: c.Title, Message: err.Error()})
		}
	}
}

func (o *output) completeCharts(iteration int, out models.Output) []charts.CompleteView {
	views := make([]charts.CompleteView, 0, len(out.Complete))
	for _, c := range out.Complete {
		view, err := charts.RenderComplete(c)
		if err != nil {
			o.errors = append(o.errors, OutputError{Iteration: iteration, Chart: c.Title, Message: err.Error()})
			continue
		}
		views = append(views, view)
	}
	return views
}

func (o *output) render() []charts.View {
	if o.errors == nil {
		o.errors = make([]OutputError, 0)
	}
	views := make([]charts.View, 0, len(o.charts))
	for _, c := range o.charts {
		if c != nil {
			views = append(views, c.Render())
		}
	}
	return views
}

// ProcessWorkloads formats workloads in report order. Workloads sharing a
// scenario name are numbered in the order they were run.
func (f *Formatter) ProcessWorkloads(workloads []*models.Workload) ([]Workload, error) {
	positions := make(map[string]int)
	out := make([]Workload, 0, len(workloads))
	for _, w := range workloads {
		pos := positions[w.Name]
		positions[w.Name] = pos + 1

		p, err := f.ProcessWorkload(w, w.ToTask(), pos)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		if out[i].Method != out[j].Method {
			return out[i].Method < out[j].Method
		}
		pi, _ := strconv.Atoi(out[i].Pos)
		pj, _ := strconv.Atoi(out[j].Pos)
		return pi < pj
	})
	return out, nil
}
