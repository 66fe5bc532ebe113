package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// DumpConfig holds the TOML-driven decode configuration.
type DumpConfig struct {
	Database  string          `toml:"database"` // statement qualifier; empty means parent directory name
	Table     string          `toml:"table"`    // table name for a single input; empty means file name
	Engine    string          `toml:"engine"`   // engine override
	Defaults  string          `toml:"defaults"` // off|safe|experimental
	ViewDDL   bool            `toml:"view_ddl"`
	Workers   int             `toml:"workers"`
	Output    string          `toml:"output"` // file path; empty means stdout
	Charset   CharsetConfig   `toml:"charset"`
	Inventory InventoryConfig `toml:"inventory"`

	// configDir is the directory containing the TOML file, used to resolve relative paths.
	configDir string
	// defaultsMode is Defaults parsed by validate.
	defaultsMode DefaultsMode
}

// CharsetConfig selects where charset/collation metadata comes from.
type CharsetConfig struct {
	Source string `toml:"source"` // builtin|mysql|none
	DSN    string `toml:"dsn"`    // MySQL DSN when source = "mysql"
}

// InventoryConfig selects the optional scan inventory backend.
type InventoryConfig struct {
	Type string `toml:"type"` // none|sqlite|postgres
	DSN  string `toml:"dsn"`
}

func defaultDumpConfig() DumpConfig {
	return DumpConfig{
		Defaults:  "off",
		Charset:   CharsetConfig{Source: "builtin"},
		Inventory: InventoryConfig{Type: "none"},
	}
}

// loadConfig reads a TOML config file and returns a DumpConfig with defaults
// applied. An empty path yields the defaults alone. The result still needs
// validate once command-line overrides are applied.
func loadConfig(path string) (*DumpConfig, error) {
	cfg := defaultDumpConfig()
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		cfg.configDir = wd
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if unknown := md.Undecoded(); len(unknown) > 0 {
		keys := make([]string, len(unknown))
		for i, k := range unknown {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.configDir = filepath.Dir(absPath)
	return &cfg, nil
}

// validate normalizes and checks the configuration.
func (c *DumpConfig) validate() error {
	if c.Workers <= 0 {
		c.Workers = defaultWorkers()
	}

	c.Database = strings.TrimSpace(c.Database)
	c.Table = strings.TrimSpace(c.Table)
	c.Engine = strings.TrimSpace(c.Engine)

	mode, err := parseDefaultsMode(c.Defaults)
	if err != nil {
		return err
	}
	c.defaultsMode = mode

	if c.Charset.Source == "" {
		c.Charset.Source = "builtin"
	}
	switch c.Charset.Source {
	case "builtin", "none":
		if c.Charset.DSN != "" {
			return fmt.Errorf("charset.dsn is only used with charset.source = \"mysql\"")
		}
	case "mysql":
		if c.Charset.DSN == "" {
			return fmt.Errorf("charset.dsn is required when charset.source = \"mysql\"")
		}
	default:
		return fmt.Errorf("charset.source must be one of: builtin, mysql, none")
	}

	if c.Inventory.Type == "" {
		c.Inventory.Type = "none"
	}
	switch c.Inventory.Type {
	case "none":
	case "sqlite":
		if c.Inventory.DSN == "" {
			return fmt.Errorf("inventory.dsn is required for sqlite inventories")
		}
		if !strings.HasPrefix(c.Inventory.DSN, "file:") {
			c.Inventory.DSN = c.resolvePath(c.Inventory.DSN)
		}
	case "postgres":
		if c.Inventory.DSN == "" {
			return fmt.Errorf("inventory.dsn is required for postgres inventories")
		}
	default:
		return fmt.Errorf("inventory.type must be one of: none, sqlite, postgres")
	}

	if c.Output != "" {
		c.Output = c.resolvePath(c.Output)
	}
	return nil
}

// decodeOptions returns the per-file decode options for this configuration.
func (c *DumpConfig) decodeOptions(charsets CharsetResolver) DecodeOptions {
	return DecodeOptions{
		Database: c.Database,
		Table:    c.Table,
		Engine:   c.Engine,
		Defaults: c.defaultsMode,
		Charsets: charsets,
		ViewDDL:  c.ViewDDL,
	}
}

// checkInputs rejects a table name override that would apply to more than
// one file.
func (c *DumpConfig) checkInputs(paths []string) error {
	if c.Table != "" && len(paths) != 1 {
		return fmt.Errorf("table name %q needs exactly one .frm input, got %d", c.Table, len(paths))
	}
	return nil
}

// resolvePath resolves a path relative to the config file directory.
func (c *DumpConfig) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.configDir, p)
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	if n > 8 {
		return 8
	}
	return n
}
