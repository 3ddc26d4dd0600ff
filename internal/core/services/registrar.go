package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure Registrar implements the interface.
var _ driving.Registrar = (*Registrar)(nil)

// RefreshIntervalKey returns the configuration key overriding the refresh
// interval of docType.
func RefreshIntervalKey(docType string) string {
	return "search.collators." + docType + ".refresh_interval_seconds"
}

// Registrar is the registration API feature modules use at startup. It
// resolves each collator's effective refresh interval from configuration.
type Registrar struct {
	config     driven.ConfigStore
	collators  driving.CollatorRegistry
	decorators driving.DecoratorChain

	// mu serialises registry writes so a reload never re-registers a
	// superseded collator.
	mu     sync.Mutex
	params map[string]driving.RegisterCollatorParams
}

// NewRegistrar creates a registrar. config may be nil, in which case
// defaults always apply.
func NewRegistrar(
	config driven.ConfigStore,
	collators driving.CollatorRegistry,
	decorators driving.DecoratorChain,
) *Registrar {
	return &Registrar{
		config:     config,
		collators:  collators,
		decorators: decorators,
		params:     make(map[string]driving.RegisterCollatorParams),
	}
}

// RegisterCollator registers a collator with its effective interval.
func (r *Registrar) RegisterCollator(params driving.RegisterCollatorParams) error {
	params.Type = strings.TrimSpace(params.Type)
	if params.DefaultRefreshIntervalSeconds <= 0 {
		return fmt.Errorf("%w: type %q: default refresh interval must be positive, got %d",
			domain.ErrInvalidRegistration, params.Type, params.DefaultRefreshIntervalSeconds)
	}

	reg := driving.CollatorRegistration{
		Type:            params.Type,
		RefreshInterval: r.effectiveInterval(params),
		Collator:        params.Collator,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.collators.Register(reg); err != nil {
		return err
	}
	r.params[params.Type] = params

	logger.Debug("registered collator %s every %s", reg.Type, reg.RefreshInterval)
	return nil
}

// RegisterDecorator registers a decorator for the given types, or all
// types when none are given.
func (r *Registrar) RegisterDecorator(params driving.RegisterDecoratorParams) error {
	reg := driving.DecoratorRegistration{
		Name:      params.Name,
		Decorator: params.Decorator,
		Scope:     domain.TypesScope(params.Types...),
	}
	if err := r.decorators.Register(reg); err != nil {
		return err
	}
	logger.Debug("registered decorator %s for %s", params.Name, reg.Scope)
	return nil
}

// ApplyOverrides re-resolves the interval of every registered collator,
// re-registering those whose interval changed. Called after the
// configuration is reloaded.
func (r *Registrar) ApplyOverrides() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, params := range r.params {
		current, err := r.collators.Get(params.Type)
		if err != nil {
			continue
		}
		interval := r.effectiveInterval(params)
		if interval == current.RefreshInterval {
			continue
		}
		reg := driving.CollatorRegistration{
			Type:            params.Type,
			RefreshInterval: interval,
			Collator:        params.Collator,
		}
		if err := r.collators.Register(reg); err != nil {
			return err
		}
		logger.Info("collator %s refresh interval now %s", params.Type, interval)
	}
	return nil
}

// effectiveInterval applies a positive configuration override, else the
// default.
func (r *Registrar) effectiveInterval(params driving.RegisterCollatorParams) time.Duration {
	seconds := params.DefaultRefreshIntervalSeconds
	if r.config != nil && params.Type != "" {
		key := RefreshIntervalKey(params.Type)
		if _, ok := r.config.Get(key); ok {
			override := r.config.GetInt(key)
			if override > 0 {
				seconds = override
			} else {
				logger.Warn("ignoring %s = %d: must be positive", key, override)
			}
		}
	}
	return time.Duration(seconds) * time.Second
}
