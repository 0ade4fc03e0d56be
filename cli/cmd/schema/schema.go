// Package schemacmd implements `n8nctl schema`.
package schemacmd

import (
	"encoding/json"
	"os"

	ischema "github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonschema"
	"github.com/n8nctl/n8nctl/cli/helpers"
	"github.com/n8nctl/n8nctl/internal/lifecycle"
	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Dump and validate against generated JSON Schema documents",
	}
	cmd.AddCommand(newWorkflowCommand())
	cmd.AddCommand(newValidateCommand())
	return cmd
}

func workflowSchema() *ischema.Schema {
	reflector := &ischema.Reflector{
		DoNotReference: false,
		ExpandedStruct: true,
	}
	return reflector.Reflect(&workflow.Workflow{})
}

func newWorkflowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "workflow",
		Short: "Dump the JSON Schema for the on-disk Workflow document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := helpers.NewJSONFormatter(true)
			return f.Write(cmd.OutOrStdout(), workflowSchema())
		},
	}
}

type validateIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type validateOutput struct {
	File   string          `json:"file"`
	Valid  bool            `json:"valid"`
	Issues []validateIssue `json:"issues"`
}

// newValidateCommand checks a raw workflow document against the
// generated JSON Schema using a draft-2020-12 compiler, ahead of (and
// independent from) the domain-specific semantic checks `n8nctl
// validate` runs. It catches documents that are structurally malformed
// JSON Schema-wise (wrong types, missing required keys) before the
// rest of the pipeline ever builds a workflow.Workflow out of them.
func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a raw workflow document against the generated JSON Schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
}

func runValidate(cmd *cobra.Command, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lifecycle.NewCLIError("MISSING_INPUT", lifecycle.ExitMissingInput,
				"workflow file not found", "check the path passed to `schema validate`", err)
		}
		return lifecycle.NewCLIError("IO_ERROR", lifecycle.ExitIOError,
			"failed to read workflow file", "check file permissions", err)
	}

	schemaJSON, err := json.Marshal(workflowSchema())
	if err != nil {
		return lifecycle.NewCLIError("INTERNAL_ERROR", lifecycle.ExitDataError,
			"failed to marshal generated schema", "", err)
	}
	compiler := jsonschema.NewCompiler()
	compiled, err := compiler.Compile(schemaJSON)
	if err != nil {
		return lifecycle.NewCLIError("INTERNAL_ERROR", lifecycle.ExitDataError,
			"failed to compile generated schema", "", err)
	}

	instance, err := jsonschema.FromJSONString(string(raw))
	if err != nil {
		return lifecycle.NewCLIError("PARSE_ERROR", lifecycle.ExitDataError,
			"workflow file is not valid JSON", "fix the JSON syntax before validating", err)
	}

	result := compiled.Validate(instance)
	out := validateOutput{File: path, Valid: result.IsValid()}
	if !result.IsValid() {
		for field, e := range result.ToList().Errors {
			out.Issues = append(out.Issues, validateIssue{Field: field, Message: e})
		}
	}

	f := helpers.NewJSONFormatter(true)
	if err := f.Write(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if !out.Valid {
		return lifecycle.NewCLIError("SCHEMA_VALIDATION_FAILED", lifecycle.ExitDataError,
			"workflow document does not conform to the generated schema",
			"inspect the issues array and fix the document's structure", nil)
	}
	return nil
}
