package config

import (
	"os"
	"path/filepath"
)

// StateDir returns ~/.config/n8nctl (or the platform equivalent via
// os.UserConfigDir), creating it with owner-only permissions if absent.
func StateDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "n8nctl")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// ResolveStorePaths fills in StoreConfig's file paths under dir, leaving
// any already-set (e.g. by a test or --config override) untouched.
func ResolveStorePaths(store *StoreConfig, dir string) {
	if store.ConfigDir == "" {
		store.ConfigDir = dir
	}
	if store.CatalogPath == "" {
		store.CatalogPath = filepath.Join(dir, "catalog.db")
	}
	if store.VersionsPath == "" {
		store.VersionsPath = filepath.Join(dir, "versions.db")
	}
	if store.BackupsDir == "" {
		store.BackupsDir = filepath.Join(dir, "backups")
	}
}

// YAMLPath is the default location of the optional config file.
func YAMLPath(dir string) string {
	return filepath.Join(dir, "config.yaml")
}
