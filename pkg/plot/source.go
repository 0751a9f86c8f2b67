package plot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lirany1/bench-report/pkg/models"
)

const (
	sourceVersion       = 2
	combinedTitle       = "A combined task."
	combinedDescription = "The task contains subtasks from a multiple number of tasks."
)

// Source is a task file reproducing one or more stored tasks
type Source struct {
	Version     int             `json:"version"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Subtasks    []SourceSubtask `json:"subtasks"`
}

// SourceSubtask is a subtask of a Source
type SourceSubtask struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Workloads   []models.WorkloadConfig `json:"workloads"`
}

// NewSource merges tasks into a single task file. Subtasks of a merged
// source are annotated with the task they came from.
func NewSource(tasks []*models.Task) Source {
	src := Source{Version: sourceVersion, Subtasks: []SourceSubtask{}}
	if len(tasks) == 1 {
		src.Title = tasks[0].Title
		src.Description = tasks[0].Description
	} else {
		src.Title = combinedTitle
		src.Description = combinedDescription
	}

	for _, task := range tasks {
		for _, st := range task.Subtasks {
			sub := SourceSubtask{
				Title:       st.Title,
				Description: st.Description,
				Workloads:   make([]models.WorkloadConfig, 0, len(st.Workloads)),
			}
			if len(tasks) > 1 {
				sub.Description = fmt.Sprintf("%s\n[Task UUID: %s]", st.Description, task.UUID)
			}
			for _, w := range st.Workloads {
				sub.Workloads = append(sub.Workloads, w.ToTask())
			}
			src.Subtasks = append(src.Subtasks, sub)
		}
	}
	return src
}

// MakeSource renders the merged task file as indented JSON
func MakeSource(tasks []*models.Task) (string, error) {
	return encodeIndent(NewSource(tasks))
}

// encodeIndent writes two-space indented JSON without HTML escaping
func encodeIndent(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
