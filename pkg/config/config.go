// Package config provides n8nctl's layered configuration: built-in
// defaults, an optional YAML file, environment variables, and CLI flags,
// merged through koanf in that precedence order.
package config

import "time"

// Config is the fully resolved configuration for a single CLI invocation.
type Config struct {
	ControlPlane ControlPlaneConfig `koanf:"control_plane"`
	Store        StoreConfig        `koanf:"store"`
	CLI          CLIConfig          `koanf:"cli"`
	Validation   ValidationConfig   `koanf:"validation"`
}

// ControlPlaneConfig addresses the remote n8n instance n8nctl talks to
// for workflow/execution operations.
type ControlPlaneConfig struct {
	BaseURL           string          `koanf:"base_url"`
	APIKey            SensitiveString `koanf:"api_key"`
	Timeout           time.Duration   `koanf:"timeout"`
	RequestsPerSecond float64         `koanf:"requests_per_second"`
	Burst             int             `koanf:"burst"`
}

// StoreConfig locates the on-disk state described by the persisted
// state layout (catalog DB, version store, backups dir). Nothing writes
// to BackupsDir.
type StoreConfig struct {
	ConfigDir    string `koanf:"config_dir"`
	CatalogPath  string `koanf:"catalog_path"`
	VersionsPath string `koanf:"versions_path"`
	BackupsDir   string `koanf:"backups_dir"`
}

// CLIConfig holds the global output/verbosity flags shared by every
// subcommand.
type CLIConfig struct {
	JSON    bool `koanf:"json"`
	Debug   bool `koanf:"debug"`
	Quiet   bool `koanf:"quiet"`
	NoColor bool `koanf:"no_color"`
}

// ValidationConfig controls the default validator profile used when a
// command doesn't pass --profile explicitly.
type ValidationConfig struct {
	Profile string `koanf:"profile"`
}

// Default returns the built-in configuration baseline. NewDefaultProvider
// feeds this into the structs koanf provider so every field has a
// well-defined value before YAML/env/CLI layers are applied.
func Default() *Config {
	return &Config{
		ControlPlane: ControlPlaneConfig{
			BaseURL:           "http://localhost:5678/api/v1",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
			Burst:             20,
		},
		CLI: CLIConfig{},
		Validation: ValidationConfig{
			Profile: "strict",
		},
	}
}
