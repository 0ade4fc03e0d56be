package autofix

import (
	"strings"

	"github.com/n8nctl/n8nctl/internal/workflow"
)

// applyBatch mutates wf in place for every fix in the batch except
// version-migration, which is informational only and must never be
// applied.
func applyBatch(wf *workflow.Workflow, fixes []FixOperation) {
	for _, f := range fixes {
		if f.FixType == FixVersionMigration {
			continue
		}
		n := wf.NodeByName(f.NodeName)
		if n == nil {
			continue
		}
		applyOne(n, f)
	}
}

func applyOne(n *workflow.Node, f FixOperation) {
	switch f.FixType {
	case FixExpressionFormat:
		setParam(n, f.Field, f.After)
	case FixWebhookMissingPath:
		if f.Field == "webhookId" {
			if s, ok := f.After.(string); ok {
				n.WebhookID = s
			}
			return
		}
		setParam(n, f.Field, f.After)
	case FixNodeTypeCorrection:
		if s, ok := f.After.(string); ok {
			n.Type = s
		}
	case FixTypeVersionCorrect, FixTypeVersionUpgrade:
		n.TypeVersion = toFloat(f.After)
	case FixErrorOutputConfig:
		setParam(n, f.Field, f.After)
	case FixSwitchOptions:
		applySwitchOptionsFix(n, f)
	}
}

func applySwitchOptionsFix(n *workflow.Node, f FixOperation) {
	switch {
	case f.Field == "parameters.options" && f.After == nil:
		delete(n.Parameters, "options")
	case f.Field == "parameters.rules.fallbackOutput":
		ensureOptionsMap(n)["fallbackOutput"] = workflow.NewValue(f.Before)
		if rules, ok := n.Parameters["rules"]; ok {
			if m, isObj := rules.Object(); isObj {
				delete(m, "fallbackOutput")
			}
		}
	case f.Field == "parameters.options.version":
		ensureOptionsMap(n)["version"] = workflow.NewValue(f.After)
	default:
		setParam(n, f.Field, f.After)
	}
}

func ensureOptionsMap(n *workflow.Node) map[string]workflow.Value {
	if n.Parameters == nil {
		n.Parameters = map[string]workflow.Value{}
	}
	existing, ok := n.Parameters["options"]
	if ok {
		if m, isObj := existing.Object(); isObj {
			return m
		}
	}
	v := workflow.NewValue(map[string]any{})
	n.Parameters["options"] = v
	m, _ := v.Object()
	return m
}

// setParam sets a dotted/indexed path under node.Parameters. Every path
// this engine produces either already exists up to its final segment or
// is a single top-level key, so the setter only needs to auto-vivify an
// empty object for a missing top-level key.
func setParam(n *workflow.Node, field string, value any) {
	trimmed := strings.TrimPrefix(field, "parameters.")
	if trimmed == field {
		return
	}
	path, err := workflow.ParsePath(trimmed)
	if err != nil || len(path) == 0 {
		return
	}
	if n.Parameters == nil {
		n.Parameters = map[string]workflow.Value{}
	}
	setInMap(n.Parameters, path, workflow.NewValue(value))
}

func setInMap(m map[string]workflow.Value, path workflow.Path, val workflow.Value) {
	if len(path) == 1 {
		seg := path[0]
		if !seg.IsIdx {
			m[seg.Field] = val
		}
		return
	}
	seg := path[0]
	if seg.IsIdx {
		return
	}
	child, ok := m[seg.Field]
	if !ok {
		m[seg.Field] = workflow.NewValue(map[string]any{})
		child = m[seg.Field]
	}
	setInValue(child, path[1:], val)
}

func setInValue(v workflow.Value, path workflow.Path, val workflow.Value) {
	seg := path[0]
	if seg.IsIdx {
		arr, ok := v.Array()
		if !ok || seg.Index < 0 || seg.Index >= len(arr) {
			return
		}
		if len(path) == 1 {
			arr[seg.Index] = val
			return
		}
		setInValue(arr[seg.Index], path[1:], val)
		return
	}
	obj, ok := v.Object()
	if !ok {
		return
	}
	setInMap(obj, path, val)
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	default:
		return 0
	}
}
