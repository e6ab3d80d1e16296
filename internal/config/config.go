// Package config loads project configuration for header generation.
//
// Values come from, in increasing precedence: built-in defaults, a project
// file (xbridge.yaml or xbridge.toml), XBRIDGE_* environment variables, and
// finally command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/xbridge/internal/ir"
)

// FileNames are the project file names searched for, in order.
var FileNames = []string{"xbridge.yaml", "xbridge.yml", "xbridge.toml"}

// DefaultDB is the history database path used when none is configured.
const DefaultDB = ".xbridge/history.db"

// Config is the resolved project configuration.
type Config struct {
	// Namespace overrides the target namespace; empty uses the module name.
	Namespace string `yaml:"namespace" toml:"namespace"`

	// Output is the directory headers are written to; empty writes to stdout.
	Output string `yaml:"output" toml:"output"`

	PointerWidth int    `yaml:"pointer_width" toml:"pointer_width"`
	DB           string `yaml:"db" toml:"db"`

	// Renames map a declaration selector to its target-visible name.
	Renames map[string]string `yaml:"renames" toml:"renames"`

	// Conformances are extra edges added to every module's table.
	Conformances []Conformance `yaml:"conformances" toml:"conformances"`
}

// Conformance is a configured conformance edge.
type Conformance struct {
	Type     string `yaml:"type" toml:"type"`
	Protocol string `yaml:"protocol" toml:"protocol"`
}

// envConfig holds raw env overrides. Unset variables leave pointers nil.
type envConfig struct {
	Namespace    *string `env:"XBRIDGE_NAMESPACE"`
	Output       *string `env:"XBRIDGE_OUTPUT"`
	PointerWidth *int    `env:"XBRIDGE_POINTER_WIDTH"`
	DB           *string `env:"XBRIDGE_DB"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		PointerWidth: 64,
		DB:           DefaultDB,
		Renames:      map[string]string{},
	}
}

// Find returns the first project file in dir, or "" when there is none.
func Find(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Load resolves configuration from defaults, the file at path (skipped when
// empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Renames == nil {
		cfg.Renames = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	case ".toml":
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	default:
		return fmt.Errorf("%s: unsupported config format", path)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if raw.Namespace != nil {
		cfg.Namespace = *raw.Namespace
	}
	if raw.Output != nil {
		cfg.Output = *raw.Output
	}
	if raw.PointerWidth != nil {
		cfg.PointerWidth = *raw.PointerWidth
	}
	if raw.DB != nil {
		cfg.DB = *raw.DB
	}
	return nil
}

// Validate checks field values that are not enforced by decoding.
func (c Config) Validate() error {
	if c.PointerWidth != 32 && c.PointerWidth != 64 {
		return fmt.Errorf("pointer_width must be 32 or 64, got %d", c.PointerWidth)
	}
	for selector, name := range c.Renames {
		if strings.TrimSpace(selector) == "" || strings.TrimSpace(name) == "" {
			return fmt.Errorf("renames: empty selector or name (%q: %q)", selector, name)
		}
	}
	for i, e := range c.Conformances {
		if e.Type == "" || e.Protocol == "" {
			return fmt.Errorf("conformances[%d]: type and protocol are required", i)
		}
	}
	return nil
}

// Edges returns the configured conformances as interface edges.
func (c Config) Edges() []ir.ConformanceEdge {
	edges := make([]ir.ConformanceEdge, len(c.Conformances))
	for i, e := range c.Conformances {
		edges[i] = ir.ConformanceEdge{Type: e.Type, Protocol: e.Protocol}
	}
	return edges
}
