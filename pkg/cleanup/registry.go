// Package cleanup removes resources a benchmark task left behind.
package cleanup

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownResource is returned for resource names with no registered manager
	ErrUnknownResource = errors.New("unknown cleanup resource")
	// ErrAdminRequired is returned when admin cleanup runs without admin credentials
	ErrAdminRequired = errors.New("admin credential required")
	// ErrInvalidConfig is returned for malformed cleanup configuration
	ErrInvalidConfig = errors.New("invalid cleanup config")
)

// ResourceType describes a kind of resource the cleanup can delete
type ResourceType struct {
	Name string
	// AdminRequired marks resources only an admin can remove
	AdminRequired bool
	// Order sorts deletion; lower values go first
	Order int
}

// Registry holds the resource types cleanup knows how to delete
type Registry struct {
	types map[string]ResourceType
}

// NewRegistry creates a registry with the given resource types
func NewRegistry(types ...ResourceType) *Registry {
	r := &Registry{types: make(map[string]ResourceType)}
	for _, t := range types {
		r.Register(t)
	}
	return r
}

// DefaultRegistry returns the resource types shipped with the tool
func DefaultRegistry() *Registry {
	return NewRegistry(
		ResourceType{Name: "nova.servers", Order: 100},
		ResourceType{Name: "nova.flavors", AdminRequired: true, Order: 110},
		ResourceType{Name: "cinder.volumes", Order: 200},
		ResourceType{Name: "cinder.volume_types", AdminRequired: true, Order: 210},
		ResourceType{Name: "neutron.networks", Order: 300},
		ResourceType{Name: "neutron.quotas", AdminRequired: true, Order: 310},
		ResourceType{Name: "glance.images", AdminRequired: true, Order: 400},
		ResourceType{Name: "keystone.users", AdminRequired: true, Order: 900},
		ResourceType{Name: "keystone.projects", AdminRequired: true, Order: 910},
	)
}

// Register adds or replaces a resource type
func (r *Registry) Register(t ResourceType) {
	r.types[t.Name] = t
}

// Lookup returns the resource type registered under name
func (r *Registry) Lookup(name string) (ResourceType, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Names lists registered resource names, optionally only admin-capable ones
func (r *Registry) Names(adminRequired bool) []string {
	names := make([]string, 0, len(r.types))
	for name, t := range r.types {
		if adminRequired && !t.AdminRequired {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Order returns the position of a resource type in deletion order
func (r *Registry) Order(name string) int {
	return r.types[name].Order
}

// CheckResources validates cleanup config: names must be unique and
// registered, admin-capable when adminRequired is set
func (r *Registry) CheckResources(names []string, adminRequired bool) error {
	seen := make(map[string]bool, len(names))
	var missing []string
	for _, name := range names {
		if seen[name] {
			return fmt.Errorf("%w: duplicate resource %q", ErrInvalidConfig, name)
		}
		seen[name] = true

		t, ok := r.types[name]
		if !ok || (adminRequired && !t.AdminRequired) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: couldn't find cleanup resource managers: %s",
			ErrUnknownResource, strings.Join(missing, ", "))
	}
	return nil
}
