package decorators

import (
	"fmt"

	"github.com/custodia-labs/sercha-indexer/internal/cfgmap"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// RegisterDefaults registers the built-in decorator kinds.
func RegisterDefaults(r *Registry) {
	r.Register("append-text", buildAppendText)
	r.Register("default-owner", buildDefaultOwner)
	r.Register("default-lifecycle", buildDefaultLifecycle)
	r.Register("set-field", buildSetField)
}

// buildAppendText supports text (required) and separator (default " ").
func buildAppendText(cfg map[string]any) (driven.Decorator, error) {
	text := cfgmap.String(cfg, "text", "")
	if text == "" {
		return nil, fmt.Errorf("%w: text", ErrMissingSetting)
	}
	sep, ok := cfg["separator"].(string)
	if !ok {
		sep = " "
	}
	return &AppendText{Suffix: text, Separator: sep}, nil
}

func buildDefaultOwner(cfg map[string]any) (driven.Decorator, error) {
	owner := cfgmap.String(cfg, domain.FieldOwner, "")
	if owner == "" {
		return nil, fmt.Errorf("%w: owner", ErrMissingSetting)
	}
	return &DefaultOwner{Owner: owner}, nil
}

func buildDefaultLifecycle(cfg map[string]any) (driven.Decorator, error) {
	lifecycle := cfgmap.String(cfg, domain.FieldLifecycle, "")
	if lifecycle == "" {
		return nil, fmt.Errorf("%w: lifecycle", ErrMissingSetting)
	}
	return &DefaultLifecycle{Lifecycle: lifecycle}, nil
}

// buildSetField supports field (required), value (required) and overwrite.
// Base document properties cannot be set this way.
func buildSetField(cfg map[string]any) (driven.Decorator, error) {
	field := cfgmap.String(cfg, "field", "")
	if field == "" {
		return nil, fmt.Errorf("%w: field", ErrMissingSetting)
	}
	switch field {
	case domain.FieldTitle, domain.FieldText, domain.FieldLocation, domain.FieldOwner, domain.FieldLifecycle:
		return nil, fmt.Errorf("%w: %q is a base property", domain.ErrInvalidInput, field)
	}
	value, ok := cfg["value"]
	if !ok {
		return nil, fmt.Errorf("%w: value", ErrMissingSetting)
	}
	return &SetField{Field: field, Value: value, Overwrite: cfgmap.Bool(cfg, "overwrite", false)}, nil
}
