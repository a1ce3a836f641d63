// Package config provides YAML-based configuration loading for mallet.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/chazu/mallet/pkg/part"
)

// Kernel backend names.
const (
	KernelSdfx     = "sdfx"
	KernelManifold = "manifold"
)

// Defaults applied to zero-valued fields.
const (
	DefaultKernel        = KernelSdfx
	DefaultMeshCells     = 64
	DefaultEvalTimeoutMS = 5000
	DefaultHistoryLimit  = 200

	// UnboundedHistory as history_limit keeps every undo step.
	UnboundedHistory = -1
)

// Config is the top-level mallet configuration, loaded from mallet.yaml.
type Config struct {
	Kernel        string   `yaml:"kernel" validate:"oneof=sdfx manifold"`
	MeshCells     int      `yaml:"mesh_cells" validate:"gte=8,lte=512"`
	EvalTimeoutMS int      `yaml:"eval_timeout_ms" validate:"gte=100,lte=600000"`
	DefaultSize   float64  `yaml:"default_size" validate:"gt=0"`
	HistoryLimit  int      `yaml:"history_limit" validate:"gte=-1"`
	Palette       []string `yaml:"palette" validate:"min=1,dive,hexcolor"`
}

var validate = validator.New()

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in default values.
func (c *Config) applyDefaults() {
	if c.Kernel == "" {
		c.Kernel = DefaultKernel
	}
	if c.MeshCells == 0 {
		c.MeshCells = DefaultMeshCells
	}
	if c.EvalTimeoutMS == 0 {
		c.EvalTimeoutMS = DefaultEvalTimeoutMS
	}
	if c.DefaultSize == 0 {
		c.DefaultSize = part.DefaultSize
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
	if len(c.Palette) == 0 {
		c.Palette = append([]string(nil), part.DefaultPalette...)
	}
}

// validate checks field ranges and reports every violation at once.
func (c *Config) validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s: failed %q (value %v)", yamlName(fe.StructNamespace()), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("config: validation failed: %s", strings.Join(msgs, "; "))
}

var yamlNames = map[string]string{
	"Kernel":        "kernel",
	"MeshCells":     "mesh_cells",
	"EvalTimeoutMS": "eval_timeout_ms",
	"DefaultSize":   "default_size",
	"HistoryLimit":  "history_limit",
	"Palette":       "palette",
}

// yamlName maps a validator namespace such as "Config.Palette[2]" to the
// config key "palette[2]".
func yamlName(ns string) string {
	ns = strings.TrimPrefix(ns, "Config.")
	field, rest, _ := strings.Cut(ns, "[")
	name, ok := yamlNames[field]
	if !ok {
		return ns
	}
	if rest != "" {
		return name + "[" + rest
	}
	return name
}

// HistorySize returns the undo depth for the session, where 0 means
// unbounded.
func (c *Config) HistorySize() int {
	if c.HistoryLimit == UnboundedHistory {
		return 0
	}
	return c.HistoryLimit
}

// EvalTimeout returns the script timeout as a duration.
func (c *Config) EvalTimeout() time.Duration {
	return time.Duration(c.EvalTimeoutMS) * time.Millisecond
}

// PartDefaults returns the settings applied to new parts.
func (c *Config) PartDefaults() part.Defaults {
	return part.Defaults{Size: c.DefaultSize, Palette: append([]string(nil), c.Palette...)}
}
