package autofix

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/n8nctl/n8nctl/internal/registry"
	"github.com/n8nctl/n8nctl/internal/validator"
	"github.com/n8nctl/n8nctl/internal/workflow"
)

// acceptedOnError are the literals the error-output-config generator
// normalizes toward.
var acceptedOnError = map[string]bool{
	"stopWorkflow":          true,
	"continueRegularOutput": true,
	"continueErrorOutput":   true,
}

// genExpressionFormat implements fix generator 1.
func genExpressionFormat(_ context.Context, wf *workflow.Workflow, issues []validator.ValidationIssue, _ CatalogReader, _ Options) ([]FixOperation, error) {
	var fixes []FixOperation
	for _, issue := range issues {
		if issue.Code != validator.CodeExpressionMissingPrefix {
			continue
		}
		fixes = append(fixes, FixOperation{
			NodeName: issue.Location.NodeName, NodeID: issue.Location.NodeID,
			FixType: FixExpressionFormat, Field: issue.Location.Path,
			Before: issue.Context["value"], After: issue.Context["expected"],
			Confidence:  ConfidenceHigh,
			Description: fmt.Sprintf("prepend \"=\" to the expression at %s", issue.Location.Path),
		})
	}
	return fixes, nil
}

// genSwitchOptions implements fix generator 2: If/Switch v3+
// structural cleanups.
func genSwitchOptions(_ context.Context, wf *workflow.Workflow, _ []validator.ValidationIssue, _ CatalogReader, _ Options) ([]FixOperation, error) {
	var fixes []FixOperation
	for _, n := range wf.Nodes {
		local := strings.ToLower(localName(n.Type))
		if local != "if" && local != "switch" {
			continue
		}
		if n.TypeVersion < 3 {
			continue
		}

		if opts, ok := n.Parameters["options"]; ok {
			if m, isObj := opts.Object(); isObj && len(m) == 0 {
				fixes = append(fixes, FixOperation{
					NodeName: n.Name, NodeID: n.ID, FixType: FixSwitchOptions,
					Field: "parameters.options", Before: map[string]any{}, After: nil,
					Confidence: ConfidenceHigh, Description: fmt.Sprintf("remove empty options on %q", n.Name),
				})
			}
		}

		if rules, ok := n.Parameters["rules"]; ok {
			if ruleObj, isObj := rules.Object(); isObj {
				if fb, hasFallback := ruleObj["fallbackOutput"]; hasFallback {
					fixes = append(fixes, FixOperation{
						NodeName: n.Name, NodeID: n.ID, FixType: FixSwitchOptions,
						Field: "parameters.rules.fallbackOutput", Before: fb.Raw(), After: nil,
						Confidence: ConfidenceHigh, Description: fmt.Sprintf("move fallbackOutput on %q into options", n.Name),
					})
				}
				fixes = append(fixes, conditionDefaultFixes(n, ruleObj)...)
			}
		}

		if local == "switch" && n.TypeVersion >= 3.2 {
			fixes = append(fixes, FixOperation{
				NodeName: n.Name, NodeID: n.ID, FixType: FixSwitchOptions,
				Field: "parameters.options.version", Before: nil, After: float64(2),
				Confidence: ConfidenceHigh, Description: fmt.Sprintf("set options.version=2 on %q", n.Name),
			})
		}
	}
	return fixes, nil
}

func conditionDefaultFixes(n *workflow.Node, ruleObj map[string]workflow.Value) []FixOperation {
	values, ok := ruleObj["values"]
	if !ok {
		return nil
	}
	arr, ok := values.Array()
	if !ok {
		return nil
	}
	var fixes []FixOperation
	for i, rule := range arr {
		ruleFields, ok := rule.Object()
		if !ok {
			continue
		}
		conditions, ok := ruleFields["conditions"]
		if !ok {
			continue
		}
		condObj, ok := conditions.Object()
		if !ok {
			continue
		}
		condList, ok := condObj["conditions"]
		if !ok {
			continue
		}
		condArr, ok := condList.Array()
		if !ok {
			continue
		}
		for j, cond := range condArr {
			condFields, ok := cond.Object()
			if !ok {
				continue
			}
			defaults := []struct {
				key string
				val any
			}{
				{"caseSensitive", true},
				{"leftValue", ""},
				{"typeValidation", "strict"},
			}
			for _, d := range defaults {
				if _, present := condFields[d.key]; !present {
					field := fmt.Sprintf("parameters.rules.values[%d].conditions.conditions[%d].%s", i, j, d.key)
					fixes = append(fixes, FixOperation{
						NodeName: n.Name, NodeID: n.ID, FixType: FixSwitchOptions,
						Field: field, Before: nil, After: d.val,
						Confidence: ConfidenceHigh, Description: fmt.Sprintf("fill default %s on %q", d.key, n.Name),
					})
				}
			}
		}
	}
	return fixes
}

// genWebhookMissingPath implements fix generator 3: it fills in a missing
// webhook path from the node's webhookId, and separately regenerates any
// webhookId that collides with one already seen earlier in the workflow,
// updating the path parameter on the regenerated node to match the new id.
func genWebhookMissingPath(_ context.Context, wf *workflow.Workflow, _ []validator.ValidationIssue, _ CatalogReader, _ Options) ([]FixOperation, error) {
	var fixes []FixOperation
	seenWebhookIDs := make(map[string]bool)
	for _, n := range wf.Nodes {
		if n.WebhookID != "" {
			if seenWebhookIDs[n.WebhookID] {
				newID := uuid.NewString()
				fixes = append(fixes, FixOperation{
					NodeName: n.Name, NodeID: n.ID, FixType: FixWebhookMissingPath,
					Field: "webhookId", Before: n.WebhookID, After: newID,
					Confidence: ConfidenceHigh,
					Description: fmt.Sprintf(
						"regenerate duplicate webhookId on %q (collides with an earlier node)", n.Name),
				})
				fixes = append(fixes, FixOperation{
					NodeName: n.Name, NodeID: n.ID, FixType: FixWebhookMissingPath,
					Field: "parameters.path", Before: pathParam(n), After: newID,
					Confidence:  ConfidenceHigh,
					Description: fmt.Sprintf("update webhook path on %q to match its regenerated webhookId", n.Name),
				})
				continue
			}
			seenWebhookIDs[n.WebhookID] = true
		}

		if strings.ToLower(localName(n.Type)) != "webhook" {
			continue
		}
		if s, isStr := pathParam(n).(string); isStr && s != "" {
			continue
		}
		if n.WebhookID == "" {
			continue
		}
		fixes = append(fixes, FixOperation{
			NodeName: n.Name, NodeID: n.ID, FixType: FixWebhookMissingPath,
			Field: "parameters.path", Before: "", After: n.WebhookID,
			Confidence: ConfidenceHigh, Description: fmt.Sprintf("set webhook path on %q to its webhookId", n.Name),
		})
	}
	return fixes, nil
}

// pathParam returns n.Parameters["path"] as a plain value (or nil if
// absent/not a string), for use as a FixOperation's Before value.
func pathParam(n *workflow.Node) any {
	v, ok := n.Parameters["path"]
	if !ok {
		return nil
	}
	s, isStr := v.String()
	if !isStr {
		return nil
	}
	return s
}

// genNodeTypeCorrection implements fix generator 4, gated by C7
// auto-fixability already decided by the validator's UNKNOWN_NODE_TYPE
// suggestion.
func genNodeTypeCorrection(_ context.Context, _ *workflow.Workflow, issues []validator.ValidationIssue, _ CatalogReader, _ Options) ([]FixOperation, error) {
	var fixes []FixOperation
	for _, issue := range issues {
		if issue.Code != validator.CodeUnknownNodeType {
			continue
		}
		for _, s := range issue.Suggestions {
			if !s.AutoFixable {
				continue
			}
			fixes = append(fixes, FixOperation{
				NodeName: issue.Location.NodeName, NodeID: issue.Location.NodeID,
				FixType: FixNodeTypeCorrection, Field: "type",
				Before: issue.Location.NodeType, After: s.Value,
				Confidence:  ConfidenceHigh,
				Description: fmt.Sprintf("correct node type on %q to %s", issue.Location.NodeName, s.Value),
			})
			break
		}
	}
	return fixes, nil
}

// genTypeVersionCorrection implements fix generator 5.
func genTypeVersionCorrection(ctx context.Context, wf *workflow.Workflow, _ []validator.ValidationIssue, cat CatalogReader, _ Options) ([]FixOperation, error) {
	var fixes []FixOperation
	for _, n := range wf.Nodes {
		def, err := cat.Get(ctx, n.Type)
		if err != nil {
			return nil, err
		}
		if def == nil || !def.IsVersioned {
			continue
		}
		if n.TypeVersion > def.Version {
			fixes = append(fixes, FixOperation{
				NodeName: n.Name, NodeID: n.ID, FixType: FixTypeVersionCorrect,
				Field: "typeVersion", Before: n.TypeVersion, After: def.Version,
				Confidence:  ConfidenceMedium,
				Description: fmt.Sprintf("clamp typeVersion on %q to catalog max %.2g", n.Name, def.Version),
			})
		}
	}
	return fixes, nil
}

// genErrorOutputConfig implements fix generator 6.
func genErrorOutputConfig(_ context.Context, wf *workflow.Workflow, _ []validator.ValidationIssue, _ CatalogReader, _ Options) ([]FixOperation, error) {
	var fixes []FixOperation
	for _, n := range wf.Nodes {
		v, ok := n.Parameters["onError"]
		if !ok {
			continue
		}
		s, isStr := v.String()
		if !isStr || acceptedOnError[s] {
			continue
		}
		fixes = append(fixes, FixOperation{
			NodeName: n.Name, NodeID: n.ID, FixType: FixErrorOutputConfig,
			Field: "parameters.onError", Before: s, After: "stopWorkflow",
			Confidence:  ConfidenceMedium,
			Description: fmt.Sprintf("normalize onError on %q to a recognized value", n.Name),
		})
	}
	return fixes, nil
}

// genTypeVersionUpgrade implements fix generator 7: only runs when
// opts.UpgradeVersions is set or FixTypeVersionUpgrade was explicitly
// requested.
func genTypeVersionUpgrade(ctx context.Context, wf *workflow.Workflow, _ []validator.ValidationIssue, cat CatalogReader, opts Options) ([]FixOperation, error) {
	if !opts.UpgradeVersions && !containsFixType(opts.FixTypes, FixTypeVersionUpgrade) {
		return nil, nil
	}
	var fixes []FixOperation
	for _, n := range wf.Nodes {
		def, err := cat.Get(ctx, n.Type)
		if err != nil {
			return nil, err
		}
		if def == nil || !def.IsVersioned || n.TypeVersion >= def.Version {
			continue
		}
		fixes = append(fixes, FixOperation{
			NodeName: n.Name, NodeID: n.ID, FixType: FixTypeVersionUpgrade,
			Field: "typeVersion", Before: n.TypeVersion, After: def.Version,
			Confidence:  ConfidenceMedium,
			Description: fmt.Sprintf("raise typeVersion on %q to catalog current %.2g", n.Name, def.Version),
		})
	}
	return fixes, nil
}

// genVersionMigration implements fix generator 8: informational
// only, built from the registry's breaking-change hints for every
// typeversion-upgrade proposed above. MUST NEVER be applied.
func genVersionMigration(_ context.Context, wf *workflow.Workflow, _ []validator.ValidationIssue, _ CatalogReader, upgrades []FixOperation) ([]FixOperation, error) {
	var fixes []FixOperation
	for _, up := range upgrades {
		n := wf.NodeByName(up.NodeName)
		if n == nil {
			continue
		}
		before := fmt.Sprintf("%v", up.Before)
		after := fmt.Sprintf("%v", up.After)
		changes := registry.ChangesFor(n.Type, before, after)
		for _, c := range changes {
			fixes = append(fixes, FixOperation{
				NodeName: up.NodeName, NodeID: up.NodeID, FixType: FixVersionMigration,
				Field: "typeVersion", Before: before, After: after,
				Confidence:  ConfidenceLow,
				Description: fmt.Sprintf("%s: %s", c.PropertyName, c.MigrationHint),
			})
		}
	}
	return fixes, nil
}

func containsFixType(types []FixType, want FixType) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
