// Package appctx wires the ambient pieces (config, catalog, version
// store, control-plane client) that almost every cli/cmd/* subcommand
// needs, so each command file stays focused on its own flags and output
// shape.
package appctx

import (
	"context"
	"fmt"
	"time"

	"github.com/n8nctl/n8nctl/internal/catalog"
	"github.com/n8nctl/n8nctl/internal/controlplane"
	"github.com/n8nctl/n8nctl/internal/controlplane/resty"
	"github.com/n8nctl/n8nctl/internal/lifecycle"
	"github.com/n8nctl/n8nctl/internal/versionstore"
	"github.com/n8nctl/n8nctl/pkg/config"
	"github.com/spf13/cobra"
)

// App bundles the resources a subcommand's RunE typically needs. Close
// releases them in order: flush version store, then
// close the catalog store.
type App struct {
	Config     *config.Config
	Catalog    *catalog.Store
	Versions   *versionstore.Store
	ctrlPlane  controlplane.ControlPlane
	catalogErr error
}

// Open resolves the Manager attached to cmd's context and opens the
// catalog/version stores it points at. A catalog open failure is deferred
// (recorded, not returned) so commands that don't touch the catalog still
// work when its file is unavailable; callers that need it call
// RequireCatalog. A version-store open failure is returned at once as a
// config error, together with the partly filled App.
func Open(cmd *cobra.Command) (*App, error) {
	ctx := cmd.Context()
	mgr := config.FromContext(ctx)
	if mgr == nil || mgr.Get() == nil {
		return nil, lifecycle.NewCLIError("CONFIG_ERROR", lifecycle.ExitConfigError,
			"configuration was not loaded", "this is a bug in command wiring, not user input", nil)
	}
	cfg := mgr.Get()

	app := &App{Config: cfg}

	cat, err := catalog.Open(ctx, cfg.Store.CatalogPath)
	if err != nil {
		app.catalogErr = err
	} else {
		app.Catalog = cat
	}

	vs, err := versionstore.Open(ctx, cfg.Store.VersionsPath, cfg.Store.ConfigDir)
	if err != nil {
		return app, lifecycle.NewCLIError("CONFIG_ERROR", lifecycle.ExitConfigError,
			"failed to open version store", "check that "+cfg.Store.VersionsPath+" is writable", err)
	}
	app.Versions = vs

	return app, nil
}

// RequireCatalog returns the deferred catalog-open error, if any,
// wrapped as a CLIError, for commands that cannot proceed without it.
func (a *App) RequireCatalog() error {
	if a.catalogErr != nil {
		return lifecycle.NewCLIError("CONFIG_ERROR", lifecycle.ExitConfigError,
			"failed to open node catalog", "check that "+a.Config.Store.CatalogPath+" is readable", a.catalogErr)
	}
	return nil
}

// ControlPlane lazily builds the resty-backed collaborator client from
// config. Commands that never talk to the remote instance never pay for it.
func (a *App) ControlPlane() (controlplane.ControlPlane, error) {
	if a.ctrlPlane != nil {
		return a.ctrlPlane, nil
	}
	timeout := a.Config.ControlPlane.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client, err := resty.New(resty.Config{
		BaseURL:           a.Config.ControlPlane.BaseURL,
		APIKey:            a.Config.ControlPlane.APIKey.Value(),
		Timeout:           timeout,
		RequestsPerSecond: a.Config.ControlPlane.RequestsPerSecond,
		Burst:             a.Config.ControlPlane.Burst,
	})
	if err != nil {
		return nil, lifecycle.NewCLIError("CONFIG_ERROR", lifecycle.ExitConfigError,
			"invalid control-plane configuration", "set --base-url or control_plane.base_url in config.yaml", err)
	}
	a.ctrlPlane = client
	return client, nil
}

// Close releases resources in cleanup order: flush the version
// store, then close the catalog store.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if a.Versions != nil {
		if err := a.Versions.Close(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("appctx: close version store: %w", err)
		}
	}
	if a.Catalog != nil {
		if err := a.Catalog.Close(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("appctx: close catalog: %w", err)
		}
	}
	return firstErr
}

// JSONMode reports whether --json was passed.
func JSONMode(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
