package app

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/custodia-labs/sercha-indexer/internal/cfgmap"
	"github.com/custodia-labs/sercha-indexer/internal/collators"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/decorators"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// RegisterSources builds a collator for every [sources.<name>] table and
// registers it. The document type defaults to the source name.
func RegisterSources(cfg driven.ConfigStore, registrar driving.Registrar, builders *collators.Registry) error {
	for _, name := range cfg.Children(SourcesPrefix) {
		section := cfg.Section(SourcesPrefix + "." + name)
		if !cfgmap.Bool(section, "enabled", true) {
			logger.Debug("source %s disabled", name)
			continue
		}

		kind := cfgmap.String(section, "kind", "")
		collator, err := builders.Build(kind, section)
		if err != nil {
			return fmt.Errorf("source %q: %w", name, err)
		}

		err = registrar.RegisterCollator(driving.RegisterCollatorParams{
			Type:                          cfgmap.String(section, "type", name),
			DefaultRefreshIntervalSeconds: cfgmap.Int(section, "refresh_interval_seconds", DefaultRefreshIntervalSeconds),
			Collator:                      collator,
		})
		if err != nil {
			return fmt.Errorf("source %q: %w", name, err)
		}
	}
	return nil
}

type decoratorEntry struct {
	name    string
	order   int
	section map[string]any
}

// RegisterDecorators builds a decorator for every [decorators.<name>]
// table and registers them by ascending order, then name.
func RegisterDecorators(cfg driven.ConfigStore, registrar driving.Registrar, builders *decorators.Registry) error {
	var entries []decoratorEntry
	for _, name := range cfg.Children(DecoratorsPrefix) {
		section := cfg.Section(DecoratorsPrefix + "." + name)
		if !cfgmap.Bool(section, "enabled", true) {
			continue
		}
		entries = append(entries, decoratorEntry{
			name:    name,
			order:   cfgmap.Int(section, "order", 0),
			section: section,
		})
	}
	slices.SortStableFunc(entries, func(a, b decoratorEntry) int {
		return cmp.Or(cmp.Compare(a.order, b.order), cmp.Compare(a.name, b.name))
	})

	for _, e := range entries {
		decorator, err := builders.Build(cfgmap.String(e.section, "kind", ""), e.section)
		if err != nil {
			return fmt.Errorf("decorator %q: %w", e.name, err)
		}
		err = registrar.RegisterDecorator(driving.RegisterDecoratorParams{
			Name:      e.name,
			Decorator: decorator,
			Types:     cfgmap.Strings(e.section, "types"),
		})
		if err != nil {
			return fmt.Errorf("decorator %q: %w", e.name, err)
		}
	}
	return nil
}
