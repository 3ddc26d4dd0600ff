package memory

import (
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-indexer/internal/cfgmap"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore holds flattened configuration keys in memory. It backs
// storage.kind=memory setups and tests.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates a new in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		values: make(map[string]any),
	}
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString returns the value of key if it is a string.
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt returns the value of key as an int, or zero if it is not numeric.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	n, _ := cfgmap.ToInt(val)
	return n
}

// GetBool returns the value of key if it is a bool.
func (s *ConfigStore) GetBool(key string) bool {
	val, _ := s.Get(key)
	b, _ := val.(bool)
	return b
}

// GetStringSlice returns the string items of a list value.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	return cfgmap.ToStrings(val)
}

// Children returns the distinct table names directly under prefix.
func (s *ConfigStore) Children(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix += "."
	seen := make(map[string]struct{})
	for key := range s.values {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		name, _, nested := strings.Cut(rest, ".")
		if nested && name != "" {
			seen[name] = struct{}{}
		}
	}

	children := make([]string, 0, len(seen))
	for name := range seen {
		children = append(children, name)
	}
	slices.Sort(children)
	return children
}

// Section returns the values under prefix with the prefix stripped.
func (s *ConfigStore) Section(prefix string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix += "."
	out := make(map[string]any)
	for key, value := range s.values {
		if rest, ok := strings.CutPrefix(key, prefix); ok && rest != "" {
			out[rest] = value
		}
	}
	return out
}

// Set stores a configuration value.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op; values only change through Set.
func (s *ConfigStore) Load() error { return nil }

// Path reports ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }
