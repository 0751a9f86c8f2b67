package cleanup

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/lirany1/bench-report/pkg/logger"
	"github.com/lirany1/bench-report/pkg/storage"
)

// Ledger lists and retires the resources recorded for a task
type Ledger interface {
	ListResources(owner string, types []string) ([]storage.ResourceRecord, error)
	MarkResourceDeleted(id int64) error
}

// Deleter removes one resource from the cloud
type Deleter interface {
	Delete(ctx context.Context, p Params, r storage.ResourceRecord) error
}

// DeleterFunc adapts a function to Deleter
type DeleterFunc func(ctx context.Context, p Params, r storage.ResourceRecord) error

// Delete calls f
func (f DeleterFunc) Delete(ctx context.Context, p Params, r storage.ResourceRecord) error {
	return f(ctx, p, r)
}

// LogDeleter only logs deletions; the resources are retired from the ledger
// without touching the cloud
type LogDeleter struct{}

// Delete logs the resource
func (LogDeleter) Delete(_ context.Context, p Params, r storage.ResourceRecord) error {
	logger.WithFields(logger.Fields{
		"task":     p.TaskID,
		"resource": r.ResourceID,
		"type":     r.Type,
	}).Infof("Retiring %s %s", r.Type, r.ResourceID)
	return nil
}

// LedgerManager is a Manager deleting the live resources recorded in the ledger
type LedgerManager struct {
	ledger   Ledger
	deleter  Deleter
	registry *Registry
}

// NewLedgerManager creates a manager over the ledger
func NewLedgerManager(ledger Ledger, deleter Deleter, registry *Registry) *LedgerManager {
	return &LedgerManager{ledger: ledger, deleter: deleter, registry: registry}
}

// Cleanup deletes every live resource of p.TaskID whose type is in p.Names.
// Failed deletions are logged and reported together; the rest still run.
func (m *LedgerManager) Cleanup(ctx context.Context, p Params) error {
	if p.AdminRequired && p.Admin == nil {
		return ErrAdminRequired
	}
	if err := m.registry.CheckResources(p.Names, p.AdminRequired); err != nil {
		return err
	}
	if len(p.Names) == 0 {
		return nil
	}

	records, err := m.ledger.ListResources(p.TaskID, p.Names)
	if err != nil {
		return fmt.Errorf("failed to list resources of task %s: %w", p.TaskID, err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return m.registry.Order(records[i].Type) < m.registry.Order(records[j].Type)
	})

	var errs []error
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := m.deleter.Delete(ctx, p, r); err != nil {
			logger.Warnf("Failed to delete %s %s of task %s: %v", r.Type, r.ResourceID, p.TaskID, err)
			errs = append(errs, fmt.Errorf("%s %s: %w", r.Type, r.ResourceID, err))
			continue
		}
		if err := m.ledger.MarkResourceDeleted(r.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
