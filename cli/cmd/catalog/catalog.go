// Package catalogcmd implements `n8nctl catalog`.
package catalogcmd

import (
	"fmt"
	"strings"

	"github.com/n8nctl/n8nctl/cli/cmd/appctx"
	"github.com/n8nctl/n8nctl/cli/helpers"
	"github.com/n8nctl/n8nctl/internal/catalog"
	"github.com/n8nctl/n8nctl/internal/lifecycle"
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the local node catalog",
	}
	cmd.AddCommand(newGetCommand(), newSearchCommand())
	return cmd
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <nodeType>",
		Short: "Look up a node definition by type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args[0])
		},
	}
}

func runGet(cmd *cobra.Command, nodeType string) error {
	ctx := cmd.Context()
	app, err := appctx.Open(cmd)
	if err != nil {
		return err
	}
	defer app.Close(ctx)
	if err := app.RequireCatalog(); err != nil {
		return err
	}

	def, err := app.Catalog.Get(ctx, nodeType)
	if err != nil {
		return lifecycle.NewCLIError("CATALOG_ERROR", lifecycle.ExitDataError, "catalog lookup failed", "", err)
	}
	if def == nil {
		return lifecycle.NewCLIError("UNKNOWN_NODE_TYPE", lifecycle.ExitDataError,
			fmt.Sprintf("no catalog entry for %q", nodeType), "check the node type spelling, e.g. n8n-nodes-base.httpRequest", nil)
	}

	if appctx.JSONMode(cmd) {
		f := helpers.NewJSONFormatter(true)
		return f.Write(cmd.OutOrStdout(), def)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (%s)\n", def.DisplayName, def.NodeType)
	fmt.Fprintf(w, "  category: %s\n", def.Category)
	if def.Description != "" {
		fmt.Fprintf(w, "  %s\n", def.Description)
	}
	fmt.Fprintf(w, "  properties: %d, operations: %d, credentials: %d\n",
		len(def.Properties), len(def.Operations), len(def.Credentials))
	return nil
}

func newSearchCommand() *cobra.Command {
	var mode string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the node catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], mode, limit)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "OR", "match mode: OR|AND|FUZZY")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results to return")
	return cmd
}

type searchOutput struct {
	Query   string                  `json:"query"`
	Mode    string                  `json:"mode"`
	Results []catalog.SearchResult `json:"results"`
}

func runSearch(cmd *cobra.Command, query, mode string, limit int) error {
	ctx := cmd.Context()
	app, err := appctx.Open(cmd)
	if err != nil {
		return err
	}
	defer app.Close(ctx)
	if err := app.RequireCatalog(); err != nil {
		return err
	}

	searchMode := catalog.SearchMode(strings.ToUpper(mode))
	switch searchMode {
	case catalog.SearchOR, catalog.SearchAND, catalog.SearchFuzzy:
	default:
		return lifecycle.NewCLIError("INVALID_SEARCH_MODE", lifecycle.ExitUsageError,
			fmt.Sprintf("unknown search mode %q", mode), "use one of OR|AND|FUZZY", nil)
	}

	results, err := app.Catalog.Search(ctx, query, searchMode, limit)
	if err != nil {
		return lifecycle.NewCLIError("CATALOG_ERROR", lifecycle.ExitDataError, "catalog search failed", "", err)
	}

	out := searchOutput{Query: query, Mode: string(searchMode), Results: orEmptyResults(results)}
	if appctx.JSONMode(cmd) {
		f := helpers.NewJSONFormatter(true)
		return f.Write(cmd.OutOrStdout(), out)
	}
	w := cmd.OutOrStdout()
	if len(out.Results) == 0 {
		fmt.Fprintln(w, "no matches")
		return nil
	}
	for _, r := range out.Results {
		fmt.Fprintf(w, "  %-40s %.1f  %s\n", r.Definition.NodeType, r.Score, r.Definition.DisplayName)
	}
	return nil
}

func orEmptyResults(r []catalog.SearchResult) []catalog.SearchResult {
	if r == nil {
		return []catalog.SearchResult{}
	}
	return r
}
