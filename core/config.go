package core

import (
	"fmt"
	"sort"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is the construction surface for GraphSync
type Config struct {
	// Mutations maps each watched mutation name to the queries it can
	// affect and, per query, the transform computing its new cached
	// value. Fixed at construction.
	Mutations map[string]map[string]UpdateFunc

	// Debug enables diagnostic logging. Logging never alters behavior
	// or return values.
	Debug bool

	// ReadOnly disables all store mutation while keeping tracking and
	// snapshot bookkeeping intact.
	ReadOnly bool

	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

// WatchList is the file-shaped half of the registry: which queries each
// mutation is declared to affect. Transforms are registered in code and
// checked against the list with CheckWatchList.
type WatchList struct {
	Mutations map[string][]string `yaml:"mutations"`
}

// LoadWatchList reads and validates a YAML watch list from the given
// filesystem.
func LoadWatchList(fs afero.Fs, path string) (*WatchList, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("watch list %s: %w", path, err)
	}

	var wl WatchList
	if err := yaml.Unmarshal(b, &wl); err != nil {
		return nil, fmt.Errorf("watch list %s: %w", path, err)
	}
	if err := wl.Validate(); err != nil {
		return nil, fmt.Errorf("watch list %s: %w", path, err)
	}
	return &wl, nil
}

// Validate checks the list's shape: non-empty names and no duplicate
// query per mutation.
func (wl *WatchList) Validate() error {
	if len(wl.Mutations) == 0 {
		return fmt.Errorf("%w: watch list declares no mutations", ErrInvalidConfig)
	}
	for mname, queries := range wl.Mutations {
		if mname == "" {
			return fmt.Errorf("%w: empty mutation name", ErrInvalidConfig)
		}
		if len(queries) == 0 {
			return fmt.Errorf("%w: mutation %q declares no queries", ErrInvalidConfig, mname)
		}
		seen := make(map[string]bool, len(queries))
		for _, q := range queries {
			if q == "" {
				return fmt.Errorf("%w: mutation %q declares an empty query name", ErrInvalidConfig, mname)
			}
			if seen[q] {
				return fmt.Errorf("%w: mutation %q declares query %q twice", ErrInvalidConfig, mname, q)
			}
			seen[q] = true
		}
	}
	return nil
}

// MutationNames lists the declared mutation names in sorted order
func (wl *WatchList) MutationNames() []string {
	names := make([]string, 0, len(wl.Mutations))
	for m := range wl.Mutations {
		names = append(names, m)
	}
	sort.Strings(names)
	return names
}

// CheckWatchList verifies that every pair declared in the watch list has
// a registered transform in the config.
func (c *Config) CheckWatchList(wl *WatchList) error {
	for _, mname := range wl.MutationNames() {
		reg := c.Mutations[mname]
		if reg == nil {
			return fmt.Errorf("%w: mutation %q declared but not registered", ErrInvalidConfig, mname)
		}
		for _, q := range wl.Mutations[mname] {
			if reg[q] == nil {
				return fmt.Errorf("%w: no update function for mutation %q query %q",
					ErrInvalidConfig, mname, q)
			}
		}
	}
	return nil
}
