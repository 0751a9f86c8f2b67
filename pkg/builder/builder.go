// Package builder turns task result files into stored task documents.
package builder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lirany1/bench-report/pkg/logger"
	"github.com/lirany1/bench-report/pkg/models"
)

// ErrInvalidTask is returned for documents that are not task results
var ErrInvalidTask = errors.New("invalid task")

// Input formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// TaskBuilder loads task results and fills in what a stored task needs
type TaskBuilder struct {
	now func() time.Time
}

// NewTaskBuilder creates a new task builder
func NewTaskBuilder() *TaskBuilder {
	return &TaskBuilder{now: time.Now}
}

// LoadFile reads the tasks in a JSON or YAML file
func (b *TaskBuilder) LoadFile(path string) ([]*models.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	tasks, err := b.Parse(data, formatOf(path, data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debugf("Loaded %d tasks from %s", len(tasks), path)
	return tasks, nil
}

// LoadFiles reads the tasks of every file, in order
func (b *TaskBuilder) LoadFiles(paths []string) ([]*models.Task, error) {
	var tasks []*models.Task
	for _, path := range paths {
		loaded, err := b.LoadFile(path)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, loaded...)
	}
	return tasks, nil
}

func formatOf(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes a single task or a list of tasks and normalizes each
func (b *TaskBuilder) Parse(data []byte, format string) ([]*models.Task, error) {
	raw, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}

	var tasks []*models.Task
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return nil, fmt.Errorf("%w: empty document", ErrInvalidTask)
	case trimmed[0] == '[':
		if err := decode(trimmed, &tasks); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTask, err)
		}
	default:
		var task models.Task
		if err := decode(trimmed, &task); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTask, err)
		}
		tasks = []*models.Task{&task}
	}

	for i, task := range tasks {
		if err := b.Normalize(task); err != nil {
			return nil, fmt.Errorf("task #%d: %w", i, err)
		}
	}
	return tasks, nil
}

// decode keeps free-form numbers as json.Number so 42 and 42.0 stay distinct
func decode(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// toJSON converts YAML input to JSON so model decoding goes through one path
func toJSON(data []byte, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return data, nil
	case FormatYAML:
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTask, err)
		}
		raw, err := json.Marshal(floatLiterals(doc))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTask, err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported input format: %s", format)
	}
}

// floatLiterals replaces YAML floats with number literals that keep a
// fractional part, since encoding/json prints 42.0 as 42
func floatLiterals(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, item := range t {
			t[k] = floatLiterals(item)
		}
	case []interface{}:
		for i, item := range t {
			t[i] = floatLiterals(item)
		}
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return t
		}
		s := strconv.FormatFloat(t, 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return json.Number(s)
	}
	return v
}

// Normalize assigns missing UUIDs and creation time and links workloads
// to their task and subtask
func (b *TaskBuilder) Normalize(task *models.Task) error {
	if task == nil {
		return fmt.Errorf("%w: null task", ErrInvalidTask)
	}
	if len(task.Subtasks) == 0 {
		return fmt.Errorf("%w: task has no subtasks", ErrInvalidTask)
	}

	if task.UUID == "" {
		task.UUID = uuid.New().String()
	}
	if task.CreatedAt == "" {
		task.CreatedAt = b.now().UTC().Format(time.RFC3339)
	}

	for i, st := range task.Subtasks {
		if st == nil {
			return fmt.Errorf("%w: subtask #%d is null", ErrInvalidTask, i)
		}
		if st.UUID == "" {
			st.UUID = uuid.New().String()
		}
		for j, w := range st.Workloads {
			if w == nil || w.Name == "" {
				return fmt.Errorf("%w: subtask #%d workload #%d has no scenario name", ErrInvalidTask, i, j)
			}
			if w.UUID == "" {
				w.UUID = uuid.New().String()
			}
			w.TaskUUID = task.UUID
			w.SubtaskUUID = st.UUID
			if w.TotalIterationCount == 0 {
				w.TotalIterationCount = len(w.Data)
			}
			if w.FailedIterationCount == 0 {
				for _, it := range w.Data {
					if it.Failed() {
						w.FailedIterationCount++
					}
				}
			}
		}
	}
	return nil
}
