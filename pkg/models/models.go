package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// NotAvailable marks a statistic that could not be computed for a run
const NotAvailable = "n/a"

// PercentileNames lists duration statistics in display order
var PercentileNames = []string{"min", "median", "90%ile", "95%ile", "max", "avg"}

// Task represents a complete benchmark task as stored after a run
type Task struct {
	UUID        string     `json:"uuid"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   string     `json:"created_at,omitempty"`
	Subtasks    []*Subtask `json:"subtasks"`
	Resources   []Resource `json:"resources,omitempty"`
}

// Subtask groups workloads of a task
type Subtask struct {
	UUID        string      `json:"uuid,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Workloads   []*Workload `json:"workloads"`
}

// Resource is a cloud object created while a task was running
type Resource struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Workload is one completed scenario execution with its raw iterations
type Workload struct {
	UUID        string `json:"uuid,omitempty"`
	TaskUUID    string `json:"task_uuid,omitempty"`
	SubtaskUUID string `json:"subtask_uuid,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Position    int    `json:"position"`

	Args    map[string]interface{} `json:"args,omitempty"`
	Runner  map[string]interface{} `json:"runner"`
	Context map[string]interface{} `json:"context,omitempty"`
	SLA     map[string]interface{} `json:"sla,omitempty"`

	Hooks      []HookResult `json:"hooks"`
	SLAResults SLAResults   `json:"sla_results"`
	PassSLA    bool         `json:"pass_sla"`

	StartTime            float64 `json:"start_time"`
	CreatedAt            string  `json:"created_at,omitempty"`
	FullDuration         float64 `json:"full_duration"`
	LoadDuration         float64 `json:"load_duration"`
	MinDuration          float64 `json:"min_duration"`
	MaxDuration          float64 `json:"max_duration"`
	TotalIterationCount  int     `json:"total_iteration_count"`
	FailedIterationCount int     `json:"failed_iteration_count"`

	Statistics Statistics  `json:"statistics"`
	Data       []Iteration `json:"data"`
}

// Statistics holds the precomputed duration table of a workload
type Statistics struct {
	Durations *DurationStats `json:"durations,omitempty"`
}

// DurationStats is the per-action and total duration breakdown
type DurationStats struct {
	Atomics []StatsRow `json:"atomics"`
	Total   StatsRow   `json:"total"`
}

// StatsRow is one line of a duration statistics table
type StatsRow struct {
	Name     string     `json:"name"`
	Min      Value      `json:"min"`
	Median   Value      `json:"median"`
	P90      Value      `json:"90%ile"`
	P95      Value      `json:"95%ile"`
	Max      Value      `json:"max"`
	Avg      Value      `json:"avg"`
	Success  string     `json:"success,omitempty"`
	Count    int        `json:"count"`
	Children []StatsRow `json:"children,omitempty"`
}

// Iteration is a single scenario invocation
type Iteration struct {
	Timestamp     float64       `json:"timestamp"`
	Duration      float64       `json:"duration"`
	IdleDuration  float64       `json:"idle_duration"`
	Error         []string      `json:"error"`
	Output        Output        `json:"output"`
	AtomicActions AtomicActions `json:"atomic_actions"`
}

// AtomicAction is a named, timed step inside an iteration
type AtomicAction struct {
	Name       string         `json:"name"`
	StartedAt  float64        `json:"started_at"`
	FinishedAt float64        `json:"finished_at"`
	Failed     bool           `json:"failed,omitempty"`
	Children   []AtomicAction `json:"children,omitempty"`
}

// AtomicActions accepts both the list form and the legacy {"name": duration} form
type AtomicActions []AtomicAction

// Output is the chart data a scenario or hook reported
type Output struct {
	Additive []OutputChart `json:"additive"`
	Complete []OutputChart `json:"complete"`
}

// OutputChart is a chart description produced by a scenario or hook
type OutputChart struct {
	ChartPlugin string      `json:"chart_plugin"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Label       string      `json:"label,omitempty"`
	AxisLabel   string      `json:"axis_label,omitempty"`
	Data        interface{} `json:"data"`
}

// HookResult holds a hook configuration and every time it fired
type HookResult struct {
	Config  HookConfig     `json:"config"`
	Results []HookFiring   `json:"results"`
	Summary map[string]int `json:"summary,omitempty"`
}

// HookConfig describes a hook as written in the task file
type HookConfig struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Args        interface{} `json:"args"`
	Trigger     HookTrigger `json:"trigger"`
}

// HookTrigger decides when a hook fires
type HookTrigger struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// HookFiring is one execution of a hook
type HookFiring struct {
	Status      string      `json:"status"`
	StartedAt   float64     `json:"started_at"`
	FinishedAt  float64     `json:"finished_at"`
	TriggeredBy TriggeredBy `json:"triggered_by"`
	Output      Output      `json:"output"`
	Error       []string    `json:"error,omitempty"`
}

// TriggeredBy records the event that fired a hook
type TriggeredBy struct {
	EventType string      `json:"event_type"`
	Value     interface{} `json:"value"`
}

// SLAResults wraps the SLA criteria verdicts of a workload
type SLAResults struct {
	SLA []SLAResult `json:"sla"`
}

// SLAResult is a single SLA criterion verdict
type SLAResult struct {
	Criterion string `json:"criterion"`
	Success   bool   `json:"success"`
	Detail    string `json:"detail"`
}

// WorkloadConfig is the task-file form of a workload
type WorkloadConfig struct {
	Scenario    map[string]interface{} `json:"scenario"`
	Description string                 `json:"description"`
	Contexts    map[string]interface{} `json:"contexts"`
	Runner      map[string]interface{} `json:"runner"`
	Hooks       []HookConfig           `json:"hooks"`
	SLA         map[string]interface{} `json:"sla"`
}

// Class returns the scenario class part of a dotted scenario name
func (w *Workload) Class() string {
	cls, _ := splitName(w.Name)
	return cls
}

// Method returns the scenario method part of a dotted scenario name
func (w *Workload) Method() string {
	_, met := splitName(w.Name)
	return met
}

func splitName(name string) (string, string) {
	idx := strings.Index(name, ".")
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}

// RunnerType returns the runner plugin name
func (w *Workload) RunnerType() string {
	if t, ok := w.Runner["type"].(string); ok {
		return t
	}
	return ""
}

// ToTask converts a stored workload back into its task-file form
func (w *Workload) ToTask() WorkloadConfig {
	args := w.Args
	if args == nil {
		args = map[string]interface{}{}
	}

	runnerArgs := make(map[string]interface{})
	for k, v := range w.Runner {
		if k != "type" {
			runnerArgs[k] = v
		}
	}

	hooks := make([]HookConfig, 0, len(w.Hooks))
	for _, h := range w.Hooks {
		hooks = append(hooks, h.Config)
	}

	return WorkloadConfig{
		Scenario:    map[string]interface{}{w.Name: args},
		Description: w.Description,
		Contexts:    orEmpty(w.Context),
		Runner:      map[string]interface{}{w.RunnerType(): runnerArgs},
		Hooks:       hooks,
		SLA:         orEmpty(w.SLA),
	}
}

func orEmpty(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

// Generic returns the config as plain maps, slices and scalars keyed by
// their task-file names. Scalars are passed through untouched, so an int 42
// and a float 42.0 stay distinct.
func (c WorkloadConfig) Generic() map[string]interface{} {
	hooks := make([]interface{}, 0, len(c.Hooks))
	for _, h := range c.Hooks {
		hooks = append(hooks, h.generic())
	}
	return map[string]interface{}{
		"scenario":    c.Scenario,
		"description": c.Description,
		"contexts":    c.Contexts,
		"runner":      c.Runner,
		"hooks":       hooks,
		"sla":         c.SLA,
	}
}

func (h HookConfig) generic() map[string]interface{} {
	trigger := map[string]interface{}{"name": h.Trigger.Name, "args": nil}
	if h.Trigger.Args != nil {
		trigger["args"] = h.Trigger.Args
	}
	out := map[string]interface{}{
		"name":    h.Name,
		"args":    h.Args,
		"trigger": trigger,
	}
	if h.Description != "" {
		out["description"] = h.Description
	}
	return out
}

// Failed reports whether the iteration ended with an error
func (it Iteration) Failed() bool {
	return len(it.Error) > 0
}

// Duration returns how long the action ran
func (a AtomicAction) Duration() float64 {
	return a.FinishedAt - a.StartedAt
}

// UnmarshalJSON decodes either a list of actions or a name to duration map
func (a *AtomicActions) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = nil
		return nil
	}
	if trimmed[0] == '[' {
		var list []AtomicAction
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*a = list
		return nil
	}

	var legacy map[string]float64
	if err := json.Unmarshal(trimmed, &legacy); err != nil {
		return fmt.Errorf("atomic actions: %w", err)
	}
	names := make([]string, 0, len(legacy))
	for name := range legacy {
		names = append(names, name)
	}
	sort.Strings(names)
	list := make([]AtomicAction, 0, len(names))
	for _, name := range names {
		list = append(list, AtomicAction{Name: name, FinishedAt: legacy[name]})
	}
	*a = list
	return nil
}

// Percentile returns the named duration statistic of the row
func (r StatsRow) Percentile(name string) Value {
	switch name {
	case "min":
		return r.Min
	case "median":
		return r.Median
	case "90%ile":
		return r.P90
	case "95%ile":
		return r.P95
	case "max":
		return r.Max
	case "avg":
		return r.Avg
	}
	return NA()
}

// SuccessRate parses the "100.0%" style success field.
// The second result is false when the field is absent.
func (r StatsRow) SuccessRate() (float64, bool) {
	if r.Success == "" {
		return 0, false
	}
	if r.Success == NotAvailable {
		return 0, true
	}
	rate, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(r.Success), "%"), 64)
	if err != nil {
		return 0, true
	}
	return rate, true
}
