package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// fileRoot mirrors the file layout. Every block and attribute is optional.
type fileRoot struct {
	HealthcheckPort *int         `hcl:"healthcheck_port,attr"`
	Log             *logBlock    `hcl:"log,block"`
	Store           *storeBlock  `hcl:"store,block"`
	Writer          *writerBlock `hcl:"writer,block"`
}

type logBlock struct {
	Level  *string `hcl:"level,attr"`
	Format *string `hcl:"format,attr"`
}

type storeBlock struct {
	Backend *string `hcl:"backend,attr"`
	Path    *string `hcl:"path,attr"`
}

type writerBlock struct {
	QueueSize *int `hcl:"queue_size,attr"`
	Workers   *int `hcl:"workers,attr"`
}

// Load reads path and applies it over the defaults. The result is validated.
func Load(path string) (*Config, error) {
	f, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}
	return decode(f, path)
}

// Parse is Load for a document held in memory.
func Parse(src []byte, filename string) (*Config, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config %s: %w", filename, diags)
	}
	return decode(f, filename)
}

func decode(f *hcl.File, name string) (*Config, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config %s: %w", name, diags)
	}

	cfg := Default()
	set(&cfg.HealthcheckPort, root.HealthcheckPort)
	if b := root.Log; b != nil {
		set(&cfg.Log.Level, b.Level)
		set(&cfg.Log.Format, b.Format)
	}
	if b := root.Store; b != nil {
		set(&cfg.Store.Backend, b.Backend)
		set(&cfg.Store.Path, b.Path)
	}
	if b := root.Writer; b != nil {
		set(&cfg.Writer.QueueSize, b.QueueSize)
		set(&cfg.Writer.Workers, b.Workers)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be 'debug', 'info', 'warn' or 'error', got '%s'", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be 'text' or 'json', got '%s'", c.Log.Format))
	}

	switch c.Store.Backend {
	case BackendMemory, BackendBadger:
	case BackendSQLite:
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required for the sqlite backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.backend must be '%s', '%s' or '%s', got '%s'", BackendMemory, BackendBadger, BackendSQLite, c.Store.Backend))
	}

	if c.Writer.QueueSize < 1 {
		errs = append(errs, fmt.Sprintf("writer.queue_size must be positive, got %d", c.Writer.QueueSize))
	}
	if c.Writer.Workers < 1 {
		errs = append(errs, fmt.Sprintf("writer.workers must be positive, got %d", c.Writer.Workers))
	}
	if c.HealthcheckPort < 0 || c.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Sprintf("healthcheck_port must be between 0 and 65535, got %d", c.HealthcheckPort))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
