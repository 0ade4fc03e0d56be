// Command n8nctl is the entry point for the n8n workflow companion CLI.
package main

import (
	"context"
	"os"

	"github.com/n8nctl/n8nctl/cli"
	"github.com/n8nctl/n8nctl/internal/lifecycle"
)

func main() {
	os.Exit(run())
}

// run wires the signal/cleanup contract around the cobra command
// tree: SIGINT/SIGTERM/SIGHUP cancel the in-flight command's context and
// exit with the matching code (130/143) without waiting for the command
// to unwind on its own. Per-command resource cleanup (catalog/version
// store) happens inside cli/cmd/appctx.App.Close, called by every
// subcommand's own defer; Runner only owns the process-wide signal path.
func run() int {
	runner := lifecycle.NewRunner()
	ctx, exitCh := runner.WithSignals(context.Background())

	root := cli.RootCmd()

	done := make(chan int, 1)
	go func() {
		done <- cli.MapExitCode(root.ExecuteContext(ctx))
	}()

	select {
	case code := <-exitCh:
		return int(code)
	case code := <-done:
		return code
	}
}
