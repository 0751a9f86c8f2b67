package charts

import (
	"encoding/json"
	"fmt"
)

// Point is an [x, y] chart coordinate
type Point [2]float64

// Series is a named list of points, encoded as [name, points]
type Series struct {
	Name   string
	Points []Point
}

// Slice is a named value, encoded as [name, value]
type Slice struct {
	Name  string
	Value float64
}

// Table is a tabular widget payload
type Table struct {
	Cols   []string        `json:"cols"`
	Rows   [][]interface{} `json:"rows"`
	Styles map[int]string  `json:"styles,omitempty"`
}

// View is a rendered additive chart
type View struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Widget      string      `json:"widget"`
	Data        interface{} `json:"data"`
	Label       string      `json:"label"`
	AxisLabel   string      `json:"axis_label"`
}

// CompleteView is a rendered per-iteration chart
type CompleteView struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Widget      string      `json:"widget"`
	Data        interface{} `json:"data"`
	Label       string      `json:"label,omitempty"`
	AxisLabel   string      `json:"axis_label,omitempty"`
}

// HistogramPoint is one histogram bin
type HistogramPoint struct {
	X float64 `json:"x"`
	Y int     `json:"y"`
}

// HistogramSeries is one binning method applied to one series
type HistogramSeries struct {
	Key      string           `json:"key"`
	View     string           `json:"view"`
	Disabled *int             `json:"disabled"`
	Values   []HistogramPoint `json:"values"`
}

// MarshalJSON writes [name, points]
func (s Series) MarshalJSON() ([]byte, error) {
	points := s.Points
	if points == nil {
		points = []Point{}
	}
	return json.Marshal([]interface{}{s.Name, points})
}

// UnmarshalJSON reads [name, points]
func (s *Series) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("series must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &s.Name); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &s.Points)
}

// MarshalJSON writes [name, value]
func (s Slice) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{s.Name, s.Value})
}

// UnmarshalJSON reads [name, value]
func (s *Slice) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("slice must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &s.Name); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &s.Value)
}
