package cleanup

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lirany1/bench-report/pkg/models"
	"github.com/lirany1/bench-report/pkg/storage"
)

type recordingManager struct {
	params []Params
	err    error
}

func (m *recordingManager) Cleanup(_ context.Context, p Params) error {
	m.params = append(m.params, p)
	return m.err
}

func testRegistry() *Registry {
	return NewRegistry(
		ResourceType{Name: "a", AdminRequired: true, Order: 2},
		ResourceType{Name: "b", AdminRequired: true, Order: 1},
		ResourceType{Name: "c", Order: 3},
	)
}

func adminTask() *TaskContext {
	return &TaskContext{
		TaskID: "task-1",
		Admin:  &Credential{AuthURL: "http://cloud", Username: "admin"},
	}
}

func TestCheckResources(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		name    string
		names   []string
		admin   bool
		wantErr error
	}{
		{"empty", nil, true, nil},
		{"known", []string{"a", "b"}, true, nil},
		{"unknown", []string{"a", "zzz"}, true, ErrUnknownResource},
		{"not admin capable", []string{"c"}, true, ErrUnknownResource},
		{"user cleanup", []string{"c"}, false, nil},
		{"duplicate", []string{"a", "a"}, true, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.CheckResources(tt.names, tt.admin)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckResources_ListsMissing(t *testing.T) {
	err := testRegistry().CheckResources([]string{"x", "a", "y"}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "couldn't find cleanup resource managers: x, y")
}

func TestRegistryNames(t *testing.T) {
	reg := testRegistry()
	assert.Equal(t, []string{"a", "b", "c"}, reg.Names(false))
	assert.Equal(t, []string{"a", "b"}, reg.Names(true))

	_, ok := reg.Lookup("c")
	assert.True(t, ok)
	_, ok = DefaultRegistry().Lookup("keystone.users")
	assert.True(t, ok)
}

func TestNewAdminCleanup(t *testing.T) {
	reg := testRegistry()
	m := &recordingManager{}

	_, err := NewAdminCleanup([]string{"a"}, nil, reg, m)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewAdminCleanup([]string{"a"}, &TaskContext{TaskID: "t"}, reg, m)
	assert.ErrorIs(t, err, ErrAdminRequired)

	_, err = NewAdminCleanup([]string{"nope"}, adminTask(), reg, m)
	assert.ErrorIs(t, err, ErrUnknownResource)

	c, err := NewAdminCleanup([]string{"a"}, adminTask(), reg, m)
	require.NoError(t, err)
	assert.Equal(t, "admin_cleanup", c.Name())
	assert.Equal(t, math.MaxInt-1, c.Order())
	assert.True(t, c.Hidden())
	assert.NoError(t, c.Setup(context.Background()))
	assert.Empty(t, m.params)
}

func TestAdminCleanup_Cleanup(t *testing.T) {
	m := &recordingManager{}
	task := adminTask()
	task.APIVersions = map[string]interface{}{"nova": map[string]interface{}{"version": "2.1"}}

	c, err := NewAdminCleanup([]string{"a", "b"}, task, testRegistry(), m)
	require.NoError(t, err)
	require.NoError(t, c.Cleanup(context.Background()))

	require.Len(t, m.params, 1)
	p := m.params[0]
	assert.Equal(t, []string{"a", "b"}, p.Names)
	assert.True(t, p.AdminRequired)
	assert.Equal(t, task.Admin, p.Admin)
	assert.NotNil(t, p.Users)
	assert.Empty(t, p.Users)
	assert.Equal(t, task.APIVersions, p.APIVersions)
	assert.Equal(t, DefaultSuperclass, p.Superclass)
	assert.Equal(t, "task-1", p.TaskID)
}

func TestAdminCleanup_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	c, err := NewAdminCleanup([]string{"a"}, adminTask(), testRegistry(), &recordingManager{err: boom})
	require.NoError(t, err)
	assert.ErrorIs(t, c.Cleanup(context.Background()), boom)
}

func newLedger(t *testing.T) *storage.Database {
	t.Helper()
	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, r := range []models.Resource{
		{Type: "a", ID: "a-1"},
		{Type: "b", ID: "b-1"},
		{Type: "c", ID: "c-1"},
		{Type: "a", ID: "a-2"},
	} {
		require.NoError(t, db.TrackResource("task-1", r))
	}
	require.NoError(t, db.TrackResource("task-2", models.Resource{Type: "a", ID: "other"}))
	return db
}

func TestLedgerManager_Cleanup(t *testing.T) {
	db := newLedger(t)
	var deleted []string
	deleter := DeleterFunc(func(_ context.Context, _ Params, r storage.ResourceRecord) error {
		deleted = append(deleted, r.ResourceID)
		return nil
	})
	m := NewLedgerManager(db, deleter, testRegistry())

	err := m.Cleanup(context.Background(), Params{
		Names:         []string{"a", "b"},
		AdminRequired: true,
		Admin:         &Credential{Username: "admin"},
		TaskID:        "task-1",
	})
	require.NoError(t, err)
	// b sorts before a, ledger order is kept within a type
	assert.Equal(t, []string{"b-1", "a-1", "a-2"}, deleted)

	live, err := db.ListResources("task-1", nil)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "c-1", live[0].ResourceID)

	other, err := db.ListResources("task-2", nil)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestLedgerManager_ContinuesOnFailure(t *testing.T) {
	db := newLedger(t)
	boom := errors.New("boom")
	deleter := DeleterFunc(func(_ context.Context, _ Params, r storage.ResourceRecord) error {
		if r.ResourceID == "a-1" {
			return boom
		}
		return nil
	})
	m := NewLedgerManager(db, deleter, testRegistry())

	err := m.Cleanup(context.Background(), Params{
		Names:         []string{"a"},
		AdminRequired: true,
		Admin:         &Credential{},
		TaskID:        "task-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "a a-1")

	live, err := db.ListResources("task-1", []string{"a"})
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "a-1", live[0].ResourceID)
}

func TestLedgerManager_Errors(t *testing.T) {
	db := newLedger(t)
	m := NewLedgerManager(db, LogDeleter{}, testRegistry())

	err := m.Cleanup(context.Background(), Params{Names: []string{"a"}, AdminRequired: true, TaskID: "task-1"})
	assert.ErrorIs(t, err, ErrAdminRequired)

	err = m.Cleanup(context.Background(), Params{Names: []string{"c"}, AdminRequired: true, Admin: &Credential{}, TaskID: "task-1"})
	assert.ErrorIs(t, err, ErrUnknownResource)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = m.Cleanup(ctx, Params{Names: []string{"a"}, AdminRequired: true, Admin: &Credential{}, TaskID: "task-1"})
	assert.ErrorIs(t, err, context.Canceled)

	live, err := db.ListResources("task-1", []string{"a"})
	require.NoError(t, err)
	assert.Len(t, live, 2)
}

func TestLedgerManager_LogDeleter(t *testing.T) {
	db := newLedger(t)
	m := NewLedgerManager(db, LogDeleter{}, testRegistry())

	require.NoError(t, m.Cleanup(context.Background(), Params{
		Names:  []string{"c"},
		TaskID: "task-1",
	}))
	live, err := db.ListResources("task-1", []string{"c"})
	require.NoError(t, err)
	assert.Empty(t, live)
}
