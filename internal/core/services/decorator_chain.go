package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure DecoratorChain implements the interface.
var _ driving.DecoratorChain = (*DecoratorChain)(nil)

// DecoratorChain holds decorators in registration order.
// Decorators are additive; nothing is keyed or replaced.
type DecoratorChain struct {
	mu      sync.RWMutex
	entries []driving.DecoratorRegistration
}

// NewDecoratorChain creates an empty decorator chain.
func NewDecoratorChain() *DecoratorChain {
	return &DecoratorChain{}
}

// Register appends a decorator to the chain.
func (c *DecoratorChain) Register(reg driving.DecoratorRegistration) error {
	if reg.Decorator == nil {
		return fmt.Errorf("%w: nil decorator", domain.ErrInvalidRegistration)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if reg.Name == "" {
		reg.Name = fmt.Sprintf("decorator-%d", len(c.entries)+1)
	}
	c.entries = append(c.entries, reg)
	return nil
}

// ResolveFor returns the decorators applying to docType, preserving
// global registration order.
func (c *DecoratorChain) ResolveFor(docType string) []driving.DecoratorRegistration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []driving.DecoratorRegistration
	for _, reg := range c.entries {
		if reg.Scope.Contains(docType) {
			out = append(out, reg)
		}
	}
	return out
}

// Len returns the number of registered decorators.
func (c *DecoratorChain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Apply runs the decorators resolved for docType. The caller's slice is
// cloned first so decorators can never alter it. If any decorator fails
// the chain fails as a whole and no partial output is returned.
func (c *DecoratorChain) Apply(
	ctx context.Context,
	docType string,
	docs []domain.IndexableDocument,
) ([]domain.IndexableDocument, error) {
	chain := c.ResolveFor(docType)
	out := domain.CloneDocuments(docs)

	for i, reg := range chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := reg.Decorator.Decorate(ctx, slices.Clip(out))
		if err != nil {
			return nil, fmt.Errorf("decorator %d (%s): %w", i+1, reg.Name, err)
		}
		logger.Debug("decorator %s: %d -> %d documents for %s", reg.Name, len(out), len(next), docType)
		out = next
	}

	return out, nil
}
