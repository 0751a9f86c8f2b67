package charts

import (
	"fmt"
	"math"

	"github.com/lirany1/bench-report/pkg/models"
)

// namedZippers keeps one zipper per series name in first-seen order
type namedZippers struct {
	baseSize   int
	zippedSize int
	names      []string
	zippers    map[string]*GraphZipper
}

func newNamedZippers(baseSize, zippedSize int) *namedZippers {
	return &namedZippers{
		baseSize:   baseSize,
		zippedSize: zippedSize,
		zippers:    make(map[string]*GraphZipper),
	}
}

func (n *namedZippers) add(name string, value float64) {
	z, ok := n.zippers[name]
	if !ok {
		z = NewGraphZipper(n.baseSize, n.zippedSize)
		n.zippers[name] = z
		n.names = append(n.names, name)
	}
	z.AddPoint(value)
}

func (n *namedZippers) series() []Series {
	out := make([]Series, 0, len(n.names))
	for _, name := range n.names {
		out = append(out, Series{Name: name, Points: n.zippers[name].Points()})
	}
	return out
}

// actionDurations sums the durations of the iteration's actions by name
func actionDurations(it models.Iteration) (map[string]float64, map[string]bool) {
	durations := make(map[string]float64)
	failed := make(map[string]bool)
	for _, a := range it.AtomicActions {
		durations[a.Name] += a.Duration()
		if a.Failed {
			failed[a.Name] = true
		}
	}
	return durations, failed
}

// actionNames lists atomic action names in first-seen order
func actionNames(w *models.Workload) []string {
	seen := make(map[string]bool)
	var names []string
	for _, it := range w.Data {
		for _, a := range it.AtomicActions {
			if !seen[a.Name] {
				seen[a.Name] = true
				names = append(names, a.Name)
			}
		}
	}
	return names
}

// BaseSize is the number of points a workload series starts with
func BaseSize(w *models.Workload) int {
	if w.TotalIterationCount > 0 {
		return w.TotalIterationCount
	}
	return len(w.Data)
}

// MainStackedAreaChart shows whole-iteration and idle durations per iteration
type MainStackedAreaChart struct {
	workload *models.Workload
	data     *namedZippers
}

// NewMainStackedAreaChart creates the iteration duration chart
func NewMainStackedAreaChart(w *models.Workload, zippedSize int) *MainStackedAreaChart {
	return &MainStackedAreaChart{workload: w, data: newNamedZippers(BaseSize(w), zippedSize)}
}

// AddIteration records one iteration; failed ones count as failed_duration
func (c *MainStackedAreaChart) AddIteration(it models.Iteration) {
	withFailures := c.workload.FailedIterationCount > 0
	if it.Failed() {
		c.data.add("duration", 0)
		c.data.add("idle_duration", 0)
		if withFailures {
			c.data.add("failed_duration", it.Duration+it.IdleDuration)
		}
		return
	}
	c.data.add("duration", it.Duration)
	c.data.add("idle_duration", it.IdleDuration)
	if withFailures {
		c.data.add("failed_duration", 0)
	}
}

// Render returns the stacked series
func (c *MainStackedAreaChart) Render() []Series {
	return c.data.series()
}

// AtomicStackedAreaChart shows every action's duration per iteration
type AtomicStackedAreaChart struct {
	workload *models.Workload
	names    []string
	data     *namedZippers
}

// NewAtomicStackedAreaChart creates the per-action duration chart
func NewAtomicStackedAreaChart(w *models.Workload, zippedSize int) *AtomicStackedAreaChart {
	return &AtomicStackedAreaChart{
		workload: w,
		names:    actionNames(w),
		data:     newNamedZippers(BaseSize(w), zippedSize),
	}
}

// AddIteration records one iteration; missing actions count as zero
func (c *AtomicStackedAreaChart) AddIteration(it models.Iteration) {
	durations, _ := actionDurations(it)
	total := 0.0
	for _, name := range c.names {
		c.data.add(name, durations[name])
		total += durations[name]
	}
	if c.workload.FailedIterationCount > 0 {
		failed := 0.0
		if it.Failed() {
			failed = math.Max(it.Duration-total, 0)
		}
		c.data.add("failed_duration", failed)
	}
}

// Render returns the stacked series
func (c *AtomicStackedAreaChart) Render() []Series {
	return c.data.series()
}

// LoadProfileChart shows how many iterations ran in parallel over time
type LoadProfileChart struct {
	name  string
	start float64
	step  float64
	load  []float64
}

// LoadProfileScale is the number of steps the load duration is split into
const LoadProfileScale = 100

// NewLoadProfileChart creates the concurrency chart over the load duration
func NewLoadProfileChart(w *models.Workload) *LoadProfileChart {
	start := w.StartTime
	for i, it := range w.Data {
		if i == 0 || it.Timestamp < start {
			start = it.Timestamp
		}
	}
	c := &LoadProfileChart{name: "parallel iterations", start: start}
	if w.LoadDuration > 0 {
		c.step = w.LoadDuration / LoadProfileScale
		c.load = make([]float64, LoadProfileScale+1)
	}
	return c
}

// AddIteration spreads the iteration over the steps it overlaps
func (c *LoadProfileChart) AddIteration(it models.Iteration) {
	if c.step <= 0 || it.Duration <= 0 {
		return
	}
	begin := it.Timestamp - c.start
	end := begin + it.Duration
	first := int(begin / c.step)
	for idx := first; idx < len(c.load); idx++ {
		lo := float64(idx) * c.step
		hi := lo + c.step
		if lo >= end {
			break
		}
		overlap := math.Min(hi, end) - math.Max(lo, begin)
		if overlap > 0 {
			c.load[idx] += overlap / c.step
		}
	}
}

// Render returns the load series
func (c *LoadProfileChart) Render() []Series {
	points := make([]Point, 0, len(c.load))
	for idx, v := range c.load {
		points = append(points, Point{Round(float64(idx)*c.step, 2), Round(v, 2)})
	}
	return []Series{{Name: c.name, Points: points}}
}

// HistogramMethods are the binning rules offered for every histogram
var HistogramMethods = []string{"Sturges", "Rice", "One Half"}

func binCount(method string, n int) int {
	var bins float64
	switch method {
	case "Sturges":
		bins = math.Ceil(math.Log2(float64(n)) + 1)
	case "Rice":
		bins = math.Ceil(2 * math.Cbrt(float64(n)))
	default:
		bins = math.Ceil(float64(n) / 2)
	}
	if bins < 1 {
		return 1
	}
	return int(bins)
}

// HistogramChart bins successful durations per series name
type HistogramChart struct {
	baseSize int
	names    []string
	values   map[string][]float64
	atomic   bool
}

// NewMainHistogramChart bins whole-iteration durations
func NewMainHistogramChart(w *models.Workload) *HistogramChart {
	return &HistogramChart{baseSize: BaseSize(w), values: make(map[string][]float64)}
}

// NewAtomicHistogramChart bins every action's durations
func NewAtomicHistogramChart(w *models.Workload) *HistogramChart {
	h := &HistogramChart{baseSize: BaseSize(w), values: make(map[string][]float64), atomic: true}
	h.names = actionNames(w)
	return h
}

func (h *HistogramChart) add(name string, v float64) {
	if _, ok := h.values[name]; !ok && !h.atomic {
		h.names = append(h.names, name)
	}
	h.values[name] = append(h.values[name], v)
}

// AddIteration records the durations of a successful iteration
func (h *HistogramChart) AddIteration(it models.Iteration) {
	if it.Failed() {
		return
	}
	if !h.atomic {
		h.add("task", it.Duration)
		return
	}
	durations, _ := actionDurations(it)
	for _, name := range h.names {
		if d, ok := durations[name]; ok {
			h.add(name, d)
		}
	}
}

// Render returns one list per binning method, each with one entry per series
func (h *HistogramChart) Render() [][]HistogramSeries {
	views := make([][]HistogramSeries, 0, len(HistogramMethods))
	for _, method := range HistogramMethods {
		view := make([]HistogramSeries, 0, len(h.names))
		for idx, name := range h.names {
			values := h.values[name]
			if len(values) == 0 {
				continue
			}
			disabled := idx
			view = append(view, HistogramSeries{
				Key:      name,
				View:     method,
				Disabled: &disabled,
				Values:   bin(values, binCount(method, h.baseSize)),
			})
		}
		views = append(views, view)
	}
	return views
}

func bin(values []float64, bins int) []HistogramPoint {
	min, max := MinMax(values)
	width := (max - min) / float64(bins)
	points := make([]HistogramPoint, bins)
	for i := range points {
		points[i].X = Round(min+width*float64(i+1), 2)
	}
	for _, v := range values {
		idx := bins - 1
		if width > 0 {
			idx = int((v - min) / width)
			if idx >= bins {
				idx = bins - 1
			}
		}
		points[idx].Y++
	}
	return points
}

// AtomicAvgChart is a pie of average action durations
type AtomicAvgChart struct {
	names  []string
	values map[string][]float64
}

// NewAtomicAvgChart creates the average action duration pie
func NewAtomicAvgChart(w *models.Workload) *AtomicAvgChart {
	return &AtomicAvgChart{names: actionNames(w), values: make(map[string][]float64)}
}

// AddIteration records action durations of a successful iteration
func (c *AtomicAvgChart) AddIteration(it models.Iteration) {
	if it.Failed() {
		return
	}
	durations, _ := actionDurations(it)
	for name, d := range durations {
		c.values[name] = append(c.values[name], d)
	}
}

// Render returns one slice per action
func (c *AtomicAvgChart) Render() []Slice {
	out := make([]Slice, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, Slice{Name: name, Value: Round(Mean(c.values[name]), 3)})
	}
	return out
}

// StatsColumns are the headers of the duration statistics table
var StatsColumns = []string{
	"Action", "Min (sec)", "Median (sec)", "90%ile (sec)",
	"95%ile (sec)", "Max (sec)", "Avg (sec)", "Success", "Count",
}

type statsAcc struct {
	values    []float64
	count     int
	successes int
}

// MainStatsTable computes duration statistics per action and in total
type MainStatsTable struct {
	workload *models.Workload
	names    []string
	actions  map[string]*statsAcc
	total    *statsAcc
	done     bool
}

// NewMainStatsTable creates the statistics table of a workload
func NewMainStatsTable(w *models.Workload) *MainStatsTable {
	t := &MainStatsTable{
		workload: w,
		names:    actionNames(w),
		actions:  make(map[string]*statsAcc),
		total:    &statsAcc{},
	}
	for _, name := range t.names {
		t.actions[name] = &statsAcc{}
	}
	return t
}

// AddIteration records one iteration
func (t *MainStatsTable) AddIteration(it models.Iteration) {
	t.done = true
	durations, failed := actionDurations(it)
	for name, d := range durations {
		acc := t.actions[name]
		if acc == nil {
			acc = &statsAcc{}
			t.actions[name] = acc
			t.names = append(t.names, name)
		}
		acc.count++
		if !it.Failed() && !failed[name] {
			acc.successes++
			acc.values = append(acc.values, d)
		}
	}

	t.total.count++
	if !it.Failed() {
		t.total.successes++
		t.total.values = append(t.total.values, it.Duration)
	}
}

func (t *MainStatsTable) fill() {
	if t.done {
		return
	}
	for _, it := range t.workload.Data {
		t.AddIteration(it)
	}
}

func row(name string, acc *statsAcc) models.StatsRow {
	r := models.StatsRow{Name: name, Count: acc.count, Success: models.NotAvailable}
	if acc.count > 0 {
		r.Success = fmt.Sprintf("%.1f%%", float64(acc.successes)/float64(acc.count)*100)
	}
	if len(acc.values) == 0 {
		na := models.NA()
		r.Min, r.Median, r.P90, r.P95, r.Max, r.Avg = na, na, na, na, na, na
		return r
	}
	s := summarize(acc.values)
	r.Min = models.Num(s.min)
	r.Median = models.Num(s.median)
	r.P90 = models.Num(s.p90)
	r.P95 = models.Num(s.p95)
	r.Max = models.Num(s.max)
	r.Avg = models.Num(s.avg)
	return r
}

// DurationStats returns the table as a statistics block. Iterations are read
// from the workload when none were added explicitly.
func (t *MainStatsTable) DurationStats() *models.DurationStats {
	t.fill()
	stats := &models.DurationStats{Atomics: make([]models.StatsRow, 0, len(t.names))}
	for _, name := range t.names {
		stats.Atomics = append(stats.Atomics, row(name, t.actions[name]))
	}
	stats.Total = row("total", t.total)
	return stats
}

// Render returns the table widget payload
func (t *MainStatsTable) Render() Table {
	stats := t.DurationStats()
	rows := make([][]interface{}, 0, len(stats.Atomics)+1)
	for _, r := range append(stats.Atomics, stats.Total) {
		cells := []interface{}{r.Name}
		for _, name := range models.PercentileNames {
			cells = append(cells, r.Percentile(name))
		}
		cells = append(cells, r.Success, r.Count)
		rows = append(rows, cells)
	}
	return Table{Cols: StatsColumns, Rows: rows}
}
