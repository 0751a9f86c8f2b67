package charts

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lirany1/bench-report/pkg/models"
)

// ErrUnknownPlugin is returned for output charts with an unregistered plugin
var ErrUnknownPlugin = errors.New("unknown chart plugin")

// OutputStatsColumns are the headers of an additive StatsTable
var OutputStatsColumns = []string{
	"Action", "Min (sec)", "Median (sec)", "90%ile (sec)",
	"95%ile (sec)", "Max (sec)", "Avg (sec)", "Count",
}

var widgets = map[string]string{
	"StatsTable":  "Table",
	"Pie":         "Pie",
	"Table":       "Table",
	"Lines":       "Lines",
	"StackedArea": "StackedArea",
	"TextArea":    "TextArea",
}

// OutputChart aggregates additive output reported by many iterations
type OutputChart interface {
	AddIteration(data interface{}) error
	Render() View
}

type outputMeta struct {
	title       string
	description string
	label       string
	axisLabel   string
	widget      string
}

func (m outputMeta) view(data interface{}) View {
	return View{
		Title:       m.title,
		Description: m.description,
		Widget:      m.widget,
		Data:        data,
		Label:       m.label,
		AxisLabel:   m.axisLabel,
	}
}

// NewOutputChart creates the additive aggregator for a chart plugin
func NewOutputChart(c models.OutputChart, baseSize, zippedSize int) (OutputChart, error) {
	widget, ok := widgets[c.ChartPlugin]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlugin, c.ChartPlugin)
	}
	meta := outputMeta{
		title:       c.Title,
		description: c.Description,
		label:       c.Label,
		axisLabel:   c.AxisLabel,
		widget:      widget,
	}
	switch c.ChartPlugin {
	case "StatsTable":
		return &statsTableOutput{meta: meta, values: make(map[string][]float64)}, nil
	case "Pie":
		return &avgPieOutput{meta: meta, values: make(map[string][]float64)}, nil
	case "Lines", "StackedArea":
		return &seriesOutput{meta: meta, data: newNamedZippers(baseSize, zippedSize)}, nil
	}
	return nil, fmt.Errorf("chart plugin %q has no additive form", c.ChartPlugin)
}

// RenderComplete validates and renders per-iteration chart data
func RenderComplete(c models.OutputChart) (CompleteView, error) {
	widget, ok := widgets[c.ChartPlugin]
	if !ok {
		return CompleteView{}, fmt.Errorf("%w: %q", ErrUnknownPlugin, c.ChartPlugin)
	}
	if c.ChartPlugin == "StatsTable" {
		return CompleteView{}, fmt.Errorf("chart plugin %q has no complete form", c.ChartPlugin)
	}
	return CompleteView{
		Title:       c.Title,
		Description: c.Description,
		Widget:      widget,
		Data:        c.Data,
		Label:       c.Label,
		AxisLabel:   c.AxisLabel,
	}, nil
}

type namedValue struct {
	name  string
	value float64
}

// namedValues reads [[name, number], ...] chart data
func namedValues(data interface{}) ([]namedValue, error) {
	items, ok := data.([]interface{})
	if !ok {
		return nil, fmt.Errorf("chart data must be a list, got %T", data)
	}
	out := make([]namedValue, 0, len(items))
	for _, item := range items {
		pair, ok := item.([]interface{})
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("chart data item must be a [name, value] pair, got %v", item)
		}
		name, ok := pair[0].(string)
		if !ok {
			return nil, fmt.Errorf("chart data name must be a string, got %T", pair[0])
		}
		value, err := toFloat(pair[1])
		if err != nil {
			return nil, err
		}
		out = append(out, namedValue{name: name, value: value})
	}
	return out, nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("chart data value must be a number, got %q", n)
		}
		return f, nil
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("chart data value must be a number, got %T", v)
}

// ordered collects values per name in first-seen order
type ordered struct {
	names  []string
	values map[string][]float64
}

func (o *ordered) add(items []namedValue) {
	for _, item := range items {
		if _, ok := o.values[item.name]; !ok {
			o.names = append(o.names, item.name)
		}
		o.values[item.name] = append(o.values[item.name], item.value)
	}
}

type statsTableOutput struct {
	meta   outputMeta
	names  []string
	values map[string][]float64
}

func (s *statsTableOutput) AddIteration(data interface{}) error {
	items, err := namedValues(data)
	if err != nil {
		return err
	}
	o := ordered{names: s.names, values: s.values}
	o.add(items)
	s.names = o.names
	return nil
}

func (s *statsTableOutput) Render() View {
	rows := make([][]interface{}, 0, len(s.names))
	for _, name := range s.names {
		values := s.values[name]
		sum := summarize(values)
		rows = append(rows, []interface{}{
			name, sum.min, sum.median, sum.p90, sum.p95, sum.max, sum.avg, len(values),
		})
	}
	return s.meta.view(Table{
		Cols:   OutputStatsColumns,
		Rows:   rows,
		Styles: map[int]string{1: "rich"},
	})
}

type avgPieOutput struct {
	meta   outputMeta
	names  []string
	values map[string][]float64
}

func (p *avgPieOutput) AddIteration(data interface{}) error {
	items, err := namedValues(data)
	if err != nil {
		return err
	}
	o := ordered{names: p.names, values: p.values}
	o.add(items)
	p.names = o.names
	return nil
}

func (p *avgPieOutput) Render() View {
	slices := make([]Slice, 0, len(p.names))
	for _, name := range p.names {
		slices = append(slices, Slice{Name: name, Value: Round(Mean(p.values[name]), 3)})
	}
	return p.meta.view(slices)
}

type seriesOutput struct {
	meta outputMeta
	data *namedZippers
}

func (s *seriesOutput) AddIteration(data interface{}) error {
	items, err := namedValues(data)
	if err != nil {
		return err
	}
	for _, item := range items {
		s.data.add(item.name, item.value)
	}
	return nil
}

func (s *seriesOutput) Render() View {
	return s.meta.view(s.data.series())
}
