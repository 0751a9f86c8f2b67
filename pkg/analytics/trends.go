package analytics

import (
	"encoding/json"
	"fmt"

	"github.com/lirany1/bench-report/pkg/charts"
	"github.com/lirany1/bench-report/pkg/models"
)

// Sample is one statistic value recorded at a run's start time (milliseconds)
type Sample struct {
	Timestamp int64
	Value     models.Value
}

// PercentileSeries holds the samples of one named statistic
type PercentileSeries struct {
	Name    string
	Samples []Sample
}

// Stat is the min/max/avg rollup of a series, nil when nothing was numeric
type Stat struct {
	Avg *float64 `json:"avg"`
	Max *float64 `json:"max"`
	Min *float64 `json:"min"`
}

// ActionTrend is the per-action part of a trend series
type ActionTrend struct {
	Name      string             `json:"name"`
	Durations []PercentileSeries `json:"durations"`
	Success   []PercentileSeries `json:"success"`
}

// TrendSeries is the accumulated history of one scenario configuration
type TrendSeries struct {
	Name        string             `json:"name"`
	Class       string             `json:"cls"`
	Method      string             `json:"met"`
	Description string             `json:"description"`
	Config      string             `json:"config"`
	Length      int                `json:"length"`
	SLAFailures int                `json:"sla_failures"`
	Stat        Stat               `json:"stat"`
	Durations   []PercentileSeries `json:"durations"`
	Success     []PercentileSeries `json:"success"`
	Actions     []ActionTrend      `json:"actions"`
}

type seriesKey struct {
	class       string
	fingerprint string
}

// percentiles keeps samples per statistic name in first-seen order
type percentiles struct {
	names   []string
	samples map[string][]Sample
}

func newPercentiles() *percentiles {
	return &percentiles{samples: make(map[string][]Sample)}
}

func (p *percentiles) add(name string, s Sample) {
	if _, ok := p.samples[name]; !ok {
		p.names = append(p.names, name)
	}
	p.samples[name] = append(p.samples[name], s)
}

func (p *percentiles) series() []PercentileSeries {
	out := make([]PercentileSeries, 0, len(p.names))
	for _, name := range p.names {
		out = append(out, PercentileSeries{Name: name, Samples: p.samples[name]})
	}
	return out
}

type actionAcc struct {
	durations *percentiles
	success   []Sample
}

type seriesAcc struct {
	name        string
	class       string
	method      string
	description string
	config      string
	length      int
	slaFailures int
	durations   *percentiles
	success     []Sample
	actionOrder []string
	actions     map[string]*actionAcc
}

func (s *seriesAcc) action(name string) *actionAcc {
	a, ok := s.actions[name]
	if !ok {
		a = &actionAcc{durations: newPercentiles()}
		s.actions[name] = a
		s.actionOrder = append(s.actionOrder, name)
	}
	return a
}

// Trends merges workload results of many runs into per-configuration series.
// It is not safe for concurrent use.
type Trends struct {
	order []seriesKey
	data  map[seriesKey]*seriesAcc
}

// NewTrends creates an empty accumulator. It takes no configuration.
func NewTrends(args ...interface{}) (*Trends, error) {
	if len(args) > 0 {
		return nil, fmt.Errorf("%w: trends takes no arguments, got %d", ErrInvalidArgument, len(args))
	}
	return &Trends{data: make(map[seriesKey]*seriesAcc)}, nil
}

// AddResult merges one workload into the series of its configuration
func (t *Trends) AddResult(w *models.Workload) error {
	if w == nil {
		return fmt.Errorf("%w: nil workload", ErrInvalidArgument)
	}

	cfg := w.ToTask()
	fp, err := Fingerprint(cfg.Generic())
	if err != nil {
		return fmt.Errorf("failed to fingerprint %s: %w", w.Name, err)
	}

	key := seriesKey{class: w.Class(), fingerprint: fp}
	acc, ok := t.data[key]
	if !ok {
		config, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode config of %s: %w", w.Name, err)
		}
		acc = &seriesAcc{
			name:        w.Name,
			class:       w.Class(),
			method:      w.Method(),
			description: w.Description,
			config:      string(config),
			durations:   newPercentiles(),
			actions:     make(map[string]*actionAcc),
		}
		t.data[key] = acc
		t.order = append(t.order, key)
	}

	acc.length++
	if !w.PassSLA {
		acc.slaFailures++
	}

	stats := w.Statistics.Durations
	if stats == nil {
		stats = charts.NewMainStatsTable(w).DurationStats()
	}
	ts := int64(w.StartTime * 1000)

	for _, row := range stats.Atomics {
		a := acc.action(row.Name)
		for _, name := range models.PercentileNames {
			a.durations.add(name, Sample{Timestamp: ts, Value: row.Percentile(name)})
		}
		a.success = append(a.success, Sample{Timestamp: ts, Value: successValue(row, w.PassSLA)})
	}

	for _, name := range models.PercentileNames {
		acc.durations.add(name, Sample{Timestamp: ts, Value: stats.Total.Percentile(name)})
	}
	acc.success = append(acc.success, Sample{Timestamp: ts, Value: successValue(stats.Total, w.PassSLA)})

	return nil
}

// successValue reads the row's success rate; "n/a" counts as 0
func successValue(row models.StatsRow, passed bool) models.Value {
	rate, present := row.SuccessRate()
	if present {
		return models.Num(rate)
	}
	if passed {
		return models.Num(100)
	}
	return models.Num(0)
}

// Data returns every accumulated series in first-seen order
func (t *Trends) Data() []TrendSeries {
	out := make([]TrendSeries, 0, len(t.order))
	for _, key := range t.order {
		acc := t.data[key]

		actions := make([]ActionTrend, 0, len(acc.actionOrder))
		for _, name := range acc.actionOrder {
			a := acc.actions[name]
			actions = append(actions, ActionTrend{
				Name:      name,
				Durations: a.durations.series(),
				Success:   []PercentileSeries{{Name: "success", Samples: a.success}},
			})
		}

		durations := acc.durations.series()
		out = append(out, TrendSeries{
			Name:        acc.name,
			Class:       acc.class,
			Method:      acc.method,
			Description: acc.description,
			Config:      acc.config,
			Length:      acc.length,
			SLAFailures: acc.slaFailures,
			Stat:        rollup(durations),
			Durations:   durations,
			Success:     []PercentileSeries{{Name: "success", Samples: acc.success}},
			Actions:     actions,
		})
	}
	return out
}

// rollup computes min/max/avg over every numeric sample of every statistic
func rollup(series []PercentileSeries) Stat {
	var (
		count         int
		sum, min, max float64
	)
	for _, s := range series {
		for _, sample := range s.Samples {
			v, ok := sample.Value.Float()
			if !ok {
				continue
			}
			if count == 0 || v < min {
				min = v
			}
			if count == 0 || v > max {
				max = v
			}
			sum += v
			count++
		}
	}
	if count == 0 {
		return Stat{}
	}
	avg := sum / float64(count)
	return Stat{Avg: &avg, Max: &max, Min: &min}
}

// MarshalJSON writes the sample as a [timestamp, value] pair
func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{s.Timestamp, s.Value})
}

// UnmarshalJSON reads a [timestamp, value] pair
func (s *Sample) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("sample must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &s.Timestamp); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &s.Value)
}

// MarshalJSON writes the series as a [name, samples] pair
func (p PercentileSeries) MarshalJSON() ([]byte, error) {
	samples := p.Samples
	if samples == nil {
		samples = []Sample{}
	}
	return json.Marshal([]interface{}{p.Name, samples})
}

// UnmarshalJSON reads a [name, samples] pair
func (p *PercentileSeries) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("series must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Name); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &p.Samples)
}
