// Package config loads and saves treekit settings.
//
// The file lives at ~/.config/treekit/config.yaml, or under
// $XDG_CONFIG_HOME when that is set. A missing file yields DefaultConfig.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

const appName = "treekit"

// TreeConfig holds check and selection behaviour.
type TreeConfig struct {
	CheckDisabled     string `yaml:"check_disabled,omitempty"` // skip, block
	IndependentChecks bool   `yaml:"independent_checks,omitempty"`
	MultiSelect       bool   `yaml:"multi_select,omitempty"`
}

// SearchConfig selects how the filter query is interpreted.
type SearchConfig struct {
	Mode string `yaml:"mode,omitempty"` // keyword, regex
}

// UIConfig holds display preferences.
type UIConfig struct {
	ShowCheckboxes *bool `yaml:"show_checkboxes,omitempty"`
	Width          int   `yaml:"width,omitempty"` // 0 means terminal width
}

// WatchConfig tunes the file watcher used by -watch.
type WatchConfig struct {
	DebounceMs int  `yaml:"debounce_ms,omitempty"`
	ForcePoll  bool `yaml:"force_poll,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Tree   TreeConfig   `yaml:"tree,omitempty"`
	Search SearchConfig `yaml:"search,omitempty"`
	UI     UIConfig     `yaml:"ui,omitempty"`
	Watch  WatchConfig  `yaml:"watch,omitempty"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Tree:   TreeConfig{CheckDisabled: "skip"},
		Search: SearchConfig{Mode: "keyword"},
		Watch:  WatchConfig{DebounceMs: 200},
	}
}

// ConfigDir returns the XDG config directory for treekit.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config from the XDG config directory.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from path. A missing file is not an error.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values.
func (c Config) Validate() error {
	switch strings.ToLower(c.Tree.CheckDisabled) {
	case "", "skip", "block":
	default:
		return fmt.Errorf("tree.check_disabled: unknown value %q (want skip or block)", c.Tree.CheckDisabled)
	}
	switch strings.ToLower(c.Search.Mode) {
	case "", "keyword", "regex":
	default:
		return fmt.Errorf("search.mode: unknown value %q (want keyword or regex)", c.Search.Mode)
	}
	if c.Watch.DebounceMs < 0 {
		return fmt.Errorf("watch.debounce_ms: must not be negative")
	}
	return nil
}

// Save writes cfg to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes cfg to path, creating parent directories.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// CheckPolicy translates the tree section.
func (c Config) CheckPolicy() tree.CheckPolicy {
	p := tree.CheckPolicy{Independent: c.Tree.IndependentChecks}
	if strings.EqualFold(c.Tree.CheckDisabled, "block") {
		p.Disabled = tree.DisabledBlock
	}
	return p
}

// TreeOptions returns the tree.New options implied by the config.
func (c Config) TreeOptions() []tree.Option {
	return []tree.Option{
		tree.WithPolicy(c.CheckPolicy()),
		tree.WithMultiSelect(c.Tree.MultiSelect),
	}
}

// Matcher builds the filter for query according to search.mode. An empty
// query returns a nil matcher, which clears the filter.
func (c Config) Matcher(query string) (tree.Matcher, error) {
	if strings.EqualFold(c.Search.Mode, "regex") {
		return tree.RegexMatcher(query)
	}
	return tree.KeywordMatcher(query), nil
}

// ShowCheckboxes defaults to true.
func (c Config) ShowCheckboxes() bool {
	return c.UI.ShowCheckboxes == nil || *c.UI.ShowCheckboxes
}

// Debounce returns the watcher debounce interval.
func (c Config) Debounce() time.Duration {
	if c.Watch.DebounceMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
