package cleanup

import (
	"context"
	"fmt"
	"math"

	"github.com/lirany1/bench-report/pkg/logger"
)

const (
	// AdminCleanupName is the context name used in task files
	AdminCleanupName = "admin_cleanup"
	// AdminCleanupOrder runs admin cleanup just before user cleanup
	AdminCleanupOrder = math.MaxInt - 1
	// DefaultSuperclass marks the scenarios whose resources are collected
	DefaultSuperclass = "CloudScenario"
)

// Credential is an authenticated identity on the cloud under test
type Credential struct {
	AuthURL   string `json:"auth_url"`
	Username  string `json:"username"`
	ProjectID string `json:"project_id,omitempty"`
	Region    string `json:"region,omitempty"`
}

// User is a temporary user a task created
type User struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	Credential Credential `json:"credential"`
}

// TaskContext is what a running task shares with its contexts
type TaskContext struct {
	TaskID      string
	Admin       *Credential
	Users       []User
	APIVersions map[string]interface{}
}

// Params is the fixed argument set handed to a Manager
type Params struct {
	Names         []string
	AdminRequired bool
	Admin         *Credential
	Users         []User
	APIVersions   map[string]interface{}
	Superclass    string
	TaskID        string
}

// Manager deletes resources on behalf of a task
type Manager interface {
	Cleanup(ctx context.Context, p Params) error
}

// AdminCleanup is the task context removing resources that need admin
// rights to delete. It is hidden from task files' context listing and
// runs just before user cleanup.
type AdminCleanup struct {
	names      []string
	task       *TaskContext
	manager    Manager
	superclass string
}

// NewAdminCleanup validates names against the registry and builds the context
func NewAdminCleanup(names []string, task *TaskContext, registry *Registry, manager Manager) (*AdminCleanup, error) {
	if task == nil {
		return nil, fmt.Errorf("%w: no task context", ErrInvalidConfig)
	}
	if task.Admin == nil {
		return nil, ErrAdminRequired
	}
	if err := registry.CheckResources(names, true); err != nil {
		return nil, err
	}
	return &AdminCleanup{
		names:      names,
		task:       task,
		manager:    manager,
		superclass: DefaultSuperclass,
	}, nil
}

// Name returns the context name
func (c *AdminCleanup) Name() string { return AdminCleanupName }

// Order returns the context's position among task contexts
func (c *AdminCleanup) Order() int { return AdminCleanupOrder }

// Hidden reports that the context is not listed to users
func (c *AdminCleanup) Hidden() bool { return true }

// Setup does nothing; resources are only tracked while the task runs
func (c *AdminCleanup) Setup(ctx context.Context) error { return nil }

// Cleanup asks the manager to delete every configured resource of the task
func (c *AdminCleanup) Cleanup(ctx context.Context) error {
	return logger.TaskWrapper(c.task.TaskID, "admin resources cleanup", func() error {
		users := c.task.Users
		if users == nil {
			users = []User{}
		}
		return c.manager.Cleanup(ctx, Params{
			Names:         c.names,
			AdminRequired: true,
			Admin:         c.task.Admin,
			Users:         users,
			APIVersions:   c.task.APIVersions,
			Superclass:    c.superclass,
			TaskID:        c.task.TaskID,
		})
	})
}
