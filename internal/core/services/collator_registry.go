package services

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
)

// Ensure CollatorRegistry implements the interface.
var _ driving.CollatorRegistry = (*CollatorRegistry)(nil)

// CollatorRegistry holds one collator per document type.
// Registering a type again replaces the previous registration.
type CollatorRegistry struct {
	mu        sync.RWMutex
	regs      map[string]driving.CollatorRegistration
	observers []func(driving.CollatorRegistration)
}

// NewCollatorRegistry creates an empty collator registry.
func NewCollatorRegistry() *CollatorRegistry {
	return &CollatorRegistry{
		regs: make(map[string]driving.CollatorRegistration),
	}
}

// Register adds or replaces the registration for reg.Type.
func (r *CollatorRegistry) Register(reg driving.CollatorRegistration) error {
	reg.Type = strings.TrimSpace(reg.Type)
	switch {
	case reg.Type == "":
		return fmt.Errorf("%w: empty type", domain.ErrInvalidRegistration)
	case reg.RefreshInterval <= 0:
		return fmt.Errorf("%w: type %q: refresh interval must be positive, got %s",
			domain.ErrInvalidRegistration, reg.Type, reg.RefreshInterval)
	case reg.Collator == nil:
		return fmt.Errorf("%w: type %q: nil collator", domain.ErrInvalidRegistration, reg.Type)
	}

	r.mu.Lock()
	r.regs[reg.Type] = reg
	observers := slices.Clone(r.observers)
	r.mu.Unlock()

	for _, fn := range observers {
		fn(reg)
	}
	return nil
}

// Get returns the registration for docType.
func (r *CollatorRegistry) Get(docType string) (driving.CollatorRegistration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.regs[docType]
	if !ok {
		return driving.CollatorRegistration{}, fmt.Errorf("collator %q: %w", docType, domain.ErrNotFound)
	}
	return reg, nil
}

// ListTypes returns all registered types, sorted.
func (r *CollatorRegistry) ListTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.regs))
	for t := range r.regs {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// OnRegister adds an observer called after every successful Register.
// Observers run synchronously on the registering goroutine, outside the lock.
func (r *CollatorRegistry) OnRegister(fn func(driving.CollatorRegistration)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}
