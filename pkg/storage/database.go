package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lirany1/bench-report/pkg/logger"
	"github.com/lirany1/bench-report/pkg/models"
)

var (
	// ErrTaskNotFound is returned when no task has the requested UUID
	ErrTaskNotFound = errors.New("task not found")
	// ErrResourceNotFound is returned when a ledger entry does not exist
	ErrResourceNotFound = errors.New("resource not found")
)

// timeLayout sorts lexically in time order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Database stores task results and the resources their runs created
type Database struct {
	db   *sql.DB
	path string
}

// TaskRecord summarizes a stored task
type TaskRecord struct {
	UUID          string    `json:"uuid"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	WorkloadCount int       `json:"workload_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// ResourceRecord is one ledger entry
type ResourceRecord struct {
	ID         int64     `json:"id"`
	OwnerTask  string    `json:"owner_task"`
	Type       string    `json:"type"`
	ResourceID string    `json:"resource_id"`
	Name       string    `json:"name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewDatabase creates or opens the task database at path
func NewDatabase(path string) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Debugf("Opening database at: %s", path)

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{
		db:   db,
		path: path,
	}

	if err := database.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return database, nil
}

// migrate creates or updates the database schema
func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			uuid TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			workload_count INTEGER NOT NULL DEFAULT 0,
			document TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_task_created
		 ON tasks(created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS resources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_task TEXT NOT NULL,
			resource_type TEXT NOT NULL,
			resource_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			deleted_at TEXT,
			UNIQUE (owner_task, resource_type, resource_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_resource_owner
		 ON resources(owner_task, resource_type)`,
	}

	for i, migration := range migrations {
		if _, err := d.db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}

func workloadCount(task *models.Task) int {
	n := 0
	for _, st := range task.Subtasks {
		n += len(st.Workloads)
	}
	return n
}

// SaveTask stores a task document, replacing any task with the same UUID.
// Resources listed on the task are added to the ledger.
func (d *Database) SaveTask(task *models.Task) error {
	if task.UUID == "" {
		return fmt.Errorf("task has no uuid")
	}

	doc, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", task.UUID, err)
	}

	createdAt := time.Now().UTC()
	if task.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, task.CreatedAt); err == nil {
			createdAt = t.UTC()
		}
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO tasks (uuid, title, description, workload_count, document, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, task.UUID, task.Title, task.Description, workloadCount(task), string(doc), createdAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.UUID, err)
	}

	for _, r := range task.Resources {
		if err := trackResource(tx, task.UUID, r, createdAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logger.Infof("Saved task record: %s", task.UUID)
	return nil
}

// GetTask loads a stored task document
func (d *Database) GetTask(uuid string) (*models.Task, error) {
	var doc string
	err := d.db.QueryRow(`SELECT document FROM tasks WHERE uuid = ?`, uuid).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, uuid)
	}
	if err != nil {
		return nil, err
	}

	var task models.Task
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&task); err != nil {
		return nil, fmt.Errorf("failed to decode task %s: %w", uuid, err)
	}
	return &task, nil
}

// GetTasks loads several tasks, keeping the requested order
func (d *Database) GetTasks(uuids []string) ([]*models.Task, error) {
	tasks := make([]*models.Task, 0, len(uuids))
	for _, uuid := range uuids {
		task, err := d.GetTask(uuid)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// ListTasks returns the newest tasks first. A non-positive limit lists all.
func (d *Database) ListTasks(limit int) ([]TaskRecord, error) {
	query := `
		SELECT uuid, title, description, workload_count, created_at
		FROM tasks
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]TaskRecord, 0)
	for rows.Next() {
		var rec TaskRecord
		var createdAt string
		if err := rows.Scan(&rec.UUID, &rec.Title, &rec.Description, &rec.WorkloadCount, &createdAt); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		tasks = append(tasks, rec)
	}
	return tasks, rows.Err()
}

// DeleteTask removes a task and its ledger entries
func (d *Database) DeleteTask(uuid string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM tasks WHERE uuid = ?`, uuid)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, uuid)
	}
	if _, err := tx.Exec(`DELETE FROM resources WHERE owner_task = ?`, uuid); err != nil {
		return err
	}
	return tx.Commit()
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func trackResource(e execer, owner string, r models.Resource, at time.Time) error {
	_, err := e.Exec(`
		INSERT OR IGNORE INTO resources (owner_task, resource_type, resource_id, name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, owner, r.Type, r.ID, r.Name, at.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to track %s %s: %w", r.Type, r.ID, err)
	}
	return nil
}

// TrackResource records a resource created on behalf of a task
func (d *Database) TrackResource(owner string, r models.Resource) error {
	return trackResource(d.db, owner, r, time.Now().UTC())
}

// ListResources returns live resources of a task, filtered by type when
// types is not empty
func (d *Database) ListResources(owner string, types []string) ([]ResourceRecord, error) {
	query := `
		SELECT id, owner_task, resource_type, resource_id, name, created_at
		FROM resources
		WHERE owner_task = ? AND deleted_at IS NULL
	`
	args := []interface{}{owner}
	if len(types) > 0 {
		query += " AND resource_type IN (?" + strings.Repeat(", ?", len(types)-1) + ")"
		for _, t := range types {
			args = append(args, t)
		}
	}
	query += " ORDER BY id ASC"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resources := make([]ResourceRecord, 0)
	for rows.Next() {
		var rec ResourceRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.OwnerTask, &rec.Type, &rec.ResourceID, &rec.Name, &createdAt); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		resources = append(resources, rec)
	}
	return resources, rows.Err()
}

// MarkResourceDeleted flags a ledger entry as cleaned up
func (d *Database) MarkResourceDeleted(id int64) error {
	result, err := d.db.Exec(
		`UPDATE resources SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrResourceNotFound, id)
	}
	return nil
}

// Path returns the database file location
func (d *Database) Path() string {
	return d.path
}

// Close closes the database connection
func (d *Database) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
