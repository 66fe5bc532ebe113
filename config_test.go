package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "frmdump.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgFile := writeConfig(t, dir, `
database = " shop "
engine = "MyISAM"
defaults = "safe"
view_ddl = true
workers = 3
output = "out/schema.sql"

[charset]
source = "mysql"
dsn = "root:root@tcp(127.0.0.1:3306)/"

[inventory]
type = "sqlite"
dsn = "inventory.db"
`)

	cfg, err := loadConfig(cfgFile)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate() error: %v", err)
	}

	if cfg.Database != "shop" {
		t.Errorf("Database = %q, want %q", cfg.Database, "shop")
	}
	if cfg.Engine != "MyISAM" {
		t.Errorf("Engine = %q", cfg.Engine)
	}
	if cfg.defaultsMode != DefaultsSafe {
		t.Errorf("defaultsMode = %v, want safe", cfg.defaultsMode)
	}
	if !cfg.ViewDDL {
		t.Errorf("ViewDDL = %t, want true", cfg.ViewDDL)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	if cfg.Charset.Source != "mysql" || cfg.Charset.DSN != "root:root@tcp(127.0.0.1:3306)/" {
		t.Errorf("Charset = %+v", cfg.Charset)
	}
	if want := filepath.Join(dir, "inventory.db"); cfg.Inventory.DSN != want {
		t.Errorf("Inventory.DSN = %q, want %q", cfg.Inventory.DSN, want)
	}
	if want := filepath.Join(dir, "out", "schema.sql"); cfg.Output != want {
		t.Errorf("Output = %q, want %q", cfg.Output, want)
	}

	opts := cfg.decodeOptions(builtinCharsets())
	if opts.Database != "shop" || opts.Engine != "MyISAM" || opts.Defaults != DefaultsSafe || !opts.ViewDDL || opts.Charsets == nil {
		t.Errorf("decodeOptions() = %+v", opts)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate() error: %v", err)
	}
	if cfg.defaultsMode != DefaultsOff {
		t.Errorf("defaultsMode = %v, want off", cfg.defaultsMode)
	}
	if cfg.Charset.Source != "builtin" {
		t.Errorf("Charset.Source = %q, want builtin", cfg.Charset.Source)
	}
	if cfg.Inventory.Type != "none" {
		t.Errorf("Inventory.Type = %q, want none", cfg.Inventory.Type)
	}
	if cfg.Workers != defaultWorkers() {
		t.Errorf("Workers = %d, want %d", cfg.Workers, defaultWorkers())
	}
	if cfg.Output != "" {
		t.Errorf("Output = %q, want stdout", cfg.Output)
	}
	wd, _ := os.Getwd()
	if cfg.configDir != wd {
		t.Errorf("configDir = %q, want %q", cfg.configDir, wd)
	}
}

func TestLoadConfig_UnknownKeys(t *testing.T) {
	cfgFile := writeConfig(t, t.TempDir(), `
database = "shop"
schema = "public"

[charset]
source = "builtin"
collation = "utf8mb4_bin"
`)
	_, err := loadConfig(cfgFile)
	if err == nil {
		t.Fatal("expected error for unknown keys")
	}
	if !strings.Contains(err.Error(), "unknown config keys") || !strings.Contains(err.Error(), "schema") || !strings.Contains(err.Error(), "charset.collation") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DumpConfig)
		wantErr string
	}{
		{"bad defaults", func(c *DumpConfig) { c.Defaults = "always" }, "defaults must be one of"},
		{"bad charset source", func(c *DumpConfig) { c.Charset.Source = "file" }, "charset.source must be one of"},
		{"mysql without dsn", func(c *DumpConfig) { c.Charset.Source = "mysql" }, "charset.dsn is required"},
		{"builtin with dsn", func(c *DumpConfig) { c.Charset.DSN = "root@/" }, "charset.dsn is only used"},
		{"bad inventory", func(c *DumpConfig) { c.Inventory.Type = "mongo" }, "inventory.type must be one of"},
		{"sqlite without dsn", func(c *DumpConfig) { c.Inventory.Type = "sqlite" }, "inventory.dsn is required for sqlite"},
		{"postgres without dsn", func(c *DumpConfig) { c.Inventory.Type = "postgres" }, "inventory.dsn is required for postgres"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultDumpConfig()
			cfg.configDir = t.TempDir()
			tt.mutate(&cfg)
			err := cfg.validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_SQLiteURIUntouched(t *testing.T) {
	cfg := defaultDumpConfig()
	cfg.configDir = "/etc/frmdump"
	cfg.Inventory = InventoryConfig{Type: "sqlite", DSN: "file:inv.db?cache=shared"}
	if err := cfg.validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Inventory.DSN != "file:inv.db?cache=shared" {
		t.Errorf("Inventory.DSN = %q", cfg.Inventory.DSN)
	}
}

func TestResolvePath(t *testing.T) {
	cfg := &DumpConfig{configDir: "/etc/frmdump"}

	if got := cfg.resolvePath("/abs/path.sql"); got != "/abs/path.sql" {
		t.Errorf("resolvePath(abs) = %q", got)
	}
	if got := cfg.resolvePath("out.sql"); got != "/etc/frmdump/out.sql" {
		t.Errorf("resolvePath(rel) = %q, want %q", got, "/etc/frmdump/out.sql")
	}
}

func TestDefaultWorkers(t *testing.T) {
	want := runtime.NumCPU()
	if want > 8 {
		want = 8
	}
	if want < 1 {
		want = 1
	}
	if got := defaultWorkers(); got != want {
		t.Errorf("defaultWorkers() = %d, want %d", got, want)
	}
}

func TestDumpConfig_TableOverride(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, t.TempDir(), `table = " orders "`))
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate() error: %v", err)
	}
	opts := cfg.decodeOptions(nil)
	if opts.Table != "orders" {
		t.Errorf("decodeOptions().Table = %q, want orders", opts.Table)
	}

	if err := cfg.checkInputs([]string{"a.frm"}); err != nil {
		t.Errorf("checkInputs(1 file) error: %v", err)
	}
	if err := cfg.checkInputs([]string{"a.frm", "b.frm"}); err == nil {
		t.Error("expected error for a table name with two inputs")
	}
	cfg.Table = ""
	if err := cfg.checkInputs([]string{"a.frm", "b.frm"}); err != nil {
		t.Errorf("checkInputs() without table error: %v", err)
	}

	path := minimalFixture().write(t, filepath.Join(t.TempDir(), "shop"), "orders@0G.frm")
	opts.Database = "shop"
	stmt, warnings, err := readCreateStatement(path, opts)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(stmt, "CREATE TABLE `shop`.`orders` (") || len(warnings) != 0 {
		t.Errorf("statement = %q, warnings = %v", stmt, warnings)
	}
}

func TestApplyFlagOverrides_Table(t *testing.T) {
	saved := flagTable
	t.Cleanup(func() { flagTable = saved })

	cmd := &cobra.Command{Use: "frmdump"}
	cmd.Flags().StringVar(&flagTable, "table", "", "")
	cfg := defaultDumpConfig()
	cfg.Table = "from_config"

	applyFlagOverrides(cmd, &cfg)
	if cfg.Table != "from_config" {
		t.Errorf("unset flag changed Table to %q", cfg.Table)
	}
	if err := cmd.Flags().Set("table", "from_flag"); err != nil {
		t.Fatal(err)
	}
	applyFlagOverrides(cmd, &cfg)
	if cfg.Table != "from_flag" {
		t.Errorf("Table = %q, want from_flag", cfg.Table)
	}
}
