package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/n8nctl/n8nctl/internal/catalog"
	"github.com/n8nctl/n8nctl/internal/similarity"
	"github.com/n8nctl/n8nctl/internal/workflow"
)

// minSuggestConfidence gates when an UNKNOWN_NODE_TYPE warning carries a
// suggestion.
const minSuggestConfidence = 0.5

func validateNodeConfig(ctx context.Context, wf *workflow.Workflow, cat CatalogReader, profile Profile, loc *locatorAdapter) ([]ValidationIssue, error) {
	var issues []ValidationIssue

	defs := make(map[string]*catalog.NodeDefinition, len(wf.Nodes))
	for i, n := range wf.Nodes {
		def, err := cat.Get(ctx, n.Type)
		if err != nil {
			return nil, fmt.Errorf("validator: resolve node type %q: %w", n.Type, err)
		}
		if def == nil {
			issue := issueAt(CodeUnknownNodeType, SeverityWarning,
				fmt.Sprintf("node %q has unknown type %q", n.Name, n.Type),
				Location{NodeName: n.Name, NodeID: n.ID, NodeType: n.Type, NodeIndex: i, Path: fmt.Sprintf("nodes[%d].type", i)}, loc)
			if s := bestSuggestion(ctx, cat, n.Type); s != nil && s.Confidence >= minSuggestConfidence {
				issue.Suggestions = append(issue.Suggestions, Suggestion{
					Value: s.NodeType, Confidence: s.Confidence, Reason: s.Reason,
					AutoFixable: similarity.IsAutoFixable(*s),
				})
			}
			issues = append(issues, issue)
			continue
		}
		defs[n.Name] = def

		issues = append(issues, validatePropertySet(n, i, *def, profile, loc)...)
		issues = append(issues, validateExpressionFormat(n, i, loc)...)
		issues = append(issues, validateSecurity(n, i, *def, loc)...)
		issues = append(issues, validateBestPractice(n, i, *def, loc)...)
	}

	issues = append(issues, validateAITopology(wf, defs, loc)...)

	return issues, nil
}

func bestSuggestion(ctx context.Context, cat CatalogReader, unknownType string) *similarity.Suggestion {
	all, err := cat.All(ctx)
	if err != nil || len(all) == 0 {
		return nil
	}
	candidates := make([]similarity.Candidate, len(all))
	for i, d := range all {
		candidates[i] = similarity.Candidate{NodeType: d.NodeType, DisplayName: d.DisplayName}
	}
	suggestions := similarity.Suggest(unknownType, candidates, 1)
	if len(suggestions) == 0 {
		return nil
	}
	return &suggestions[0]
}

// validatePropertySet computes the active
// property set via displayOptions.show/hide, then check required presence,
// primitive type, option membership, and resourceLocator shape.
func validatePropertySet(n *workflow.Node, nodeIdx int, def catalog.NodeDefinition, profile Profile, loc *locatorAdapter) []ValidationIssue {
	var issues []ValidationIssue
	base := Location{NodeName: n.Name, NodeID: n.ID, NodeType: n.Type, NodeIndex: nodeIdx}

	for _, prop := range def.Properties {
		if !isPropertyActive(prop, n.Parameters) {
			continue
		}
		path := fmt.Sprintf("nodes[%d].parameters.%s", nodeIdx, prop.Name)
		val, present := n.Parameters[prop.Name]

		if prop.Required && (!present || isEmptyValue(val)) {
			issues = append(issues, issueAt(CodeMissingRequiredProperty, SeverityError,
				fmt.Sprintf("node %q is missing required property %q", n.Name, prop.Name),
				withPath(base, path), loc))
			continue
		}
		if !present {
			continue
		}

		if prop.Type == catalog.PropResourceLocator {
			issues = append(issues, validateResourceLocator(n, nodeIdx, prop, val, loc)...)
			continue
		}

		if mismatch, want := typeMismatch(prop.Type, val); mismatch {
			issues = append(issues, issueAt(CodeTypeMismatch, typeMismatchSeverity(profile),
				fmt.Sprintf("node %q property %q should be %s", n.Name, prop.Name, want),
				withPath(base, path), loc))
		}

		if prop.Type == catalog.PropOptions || prop.Type == catalog.PropMultiOptions {
			if !optionAllowed(prop, val) {
				issues = append(issues, issueAt(CodeInvalidOption, SeverityError,
					fmt.Sprintf("node %q property %q has a value outside its allowed options", n.Name, prop.Name),
					withPath(base, path), loc))
			}
		}
	}
	return issues
}

func typeMismatchSeverity(profile Profile) Severity {
	if profile == ProfileStrict {
		return SeverityError
	}
	if profile == ProfileMinimal {
		return SeverityWarning
	}
	return SeverityError
}

func validateResourceLocator(n *workflow.Node, nodeIdx int, prop catalog.PropertySchema, val workflow.Value, loc *locatorAdapter) []ValidationIssue {
	path := fmt.Sprintf("nodes[%d].parameters.%s", nodeIdx, prop.Name)
	base := Location{NodeName: n.Name, NodeID: n.ID, NodeType: n.Type, NodeIndex: nodeIdx, Path: path}
	obj, ok := val.Object()
	if !ok {
		return []ValidationIssue{issueAt(CodeTypeMismatch, SeverityError,
			fmt.Sprintf("node %q property %q must be a resourceLocator object", n.Name, prop.Name), base, loc)}
	}
	mode, _ := obj["mode"].String()
	switch mode {
	case "id", "name", "url":
	default:
		return []ValidationIssue{issueAt(CodeInvalidOption, SeverityError,
			fmt.Sprintf("node %q property %q has invalid resourceLocator mode %q", n.Name, prop.Name, mode), base, loc)}
	}
	if _, present := obj["value"]; !present {
		return []ValidationIssue{issueAt(CodeMissingRequiredProperty, SeverityError,
			fmt.Sprintf("node %q property %q is missing resourceLocator value", n.Name, prop.Name), base, loc)}
	}
	return nil
}

// isPropertyActive applies displayOptions.show/hide against the node's
// current parameters.
func isPropertyActive(prop catalog.PropertySchema, params map[string]workflow.Value) bool {
	for key, allowed := range prop.DisplayShow {
		actual, ok := params[key]
		if !ok || !valueInAny(actual, allowed) {
			return false
		}
	}
	for key, hidden := range prop.DisplayHide {
		actual, ok := params[key]
		if ok && valueInAny(actual, hidden) {
			return false
		}
	}
	return true
}

func valueInAny(v workflow.Value, candidates []any) bool {
	raw := v.Raw()
	for _, c := range candidates {
		if fmt.Sprintf("%v", raw) == fmt.Sprintf("%v", c) {
			return true
		}
	}
	return false
}

func isEmptyValue(v workflow.Value) bool {
	switch v.Kind() {
	case workflow.KindNull:
		return true
	case workflow.KindString:
		s, _ := v.String()
		return s == ""
	default:
		return false
	}
}

func typeMismatch(propType catalog.PropertyType, v workflow.Value) (bool, string) {
	switch propType {
	case catalog.PropString, catalog.PropJSON:
		if v.Kind() != workflow.KindString {
			return true, "a string"
		}
	case catalog.PropNumber:
		if v.Kind() != workflow.KindNumber {
			return true, "a number"
		}
	case catalog.PropBoolean:
		if v.Kind() != workflow.KindBool {
			return true, "a boolean"
		}
	case catalog.PropCollection, catalog.PropFixedCollection:
		if v.Kind() != workflow.KindObject && v.Kind() != workflow.KindArray {
			return true, "a collection"
		}
	}
	return false, ""
}

func optionAllowed(prop catalog.PropertySchema, v workflow.Value) bool {
	if len(prop.Options) == 0 {
		return true
	}
	check := func(val workflow.Value) bool {
		raw := val.Raw()
		for _, opt := range prop.Options {
			if fmt.Sprintf("%v", raw) == fmt.Sprintf("%v", opt.Value) {
				return true
			}
		}
		return false
	}
	if prop.Type == catalog.PropMultiOptions {
		arr, ok := v.Array()
		if !ok {
			return false
		}
		for _, item := range arr {
			if !check(item) {
				return false
			}
		}
		return true
	}
	return check(v)
}

// validateExpressionFormat walks every string value in a node's parameter
// tree looking for `{{ }}` expressions missing their leading `=`.
func validateExpressionFormat(n *workflow.Node, nodeIdx int, loc *locatorAdapter) []ValidationIssue {
	var issues []ValidationIssue
	base := Location{NodeName: n.Name, NodeID: n.ID, NodeType: n.Type, NodeIndex: nodeIdx}
	var walk func(v workflow.Value, path string)
	walk = func(v workflow.Value, path string) {
		switch v.Kind() {
		case workflow.KindString:
			s, _ := v.String()
			checkExpressionString(s, path, base, loc, &issues)
		case workflow.KindArray:
			arr, _ := v.Array()
			for i, item := range arr {
				walk(item, fmt.Sprintf("%s[%d]", path, i))
			}
		case workflow.KindObject:
			obj, _ := v.Object()
			for k, item := range obj {
				walk(item, path+"."+k)
			}
		}
	}
	for key, val := range n.Parameters {
		walk(val, fmt.Sprintf("nodes[%d].parameters.%s", nodeIdx, key))
	}
	return issues
}

func checkExpressionString(s, path string, base Location, loc *locatorAdapter, issues *[]ValidationIssue) {
	if strings.HasPrefix(s, "=") {
		return
	}
	if strings.HasPrefix(s, "{{") {
		issue := issueAt(CodeExpressionMissingPrefix, SeverityError,
			fmt.Sprintf("value at %s uses expression syntax without the leading \"=\"", path),
			withPath(base, path), loc)
		issue.Context = map[string]any{"value": s, "expected": "=" + s}
		issue.Suggestions = []Suggestion{{Value: "=" + s, Confidence: 1, Reason: "prepend the expression marker", AutoFixable: true}}
		*issues = append(*issues, issue)
		return
	}
	if idx := strings.Index(s, "{{"); idx > 0 {
		issue := issueAt(CodeExpressionMixedLiteral, SeverityWarning,
			fmt.Sprintf("value at %s mixes literal text with an embedded expression", path),
			withPath(base, path), loc)
		issue.Context = map[string]any{"value": s}
		*issues = append(*issues, issue)
	}
}

// validateSecurity flags raw eval/exec calls in Code-node source.
func validateSecurity(n *workflow.Node, nodeIdx int, def catalog.NodeDefinition, loc *locatorAdapter) []ValidationIssue {
	if !strings.EqualFold(localName(n.Type), "code") {
		return nil
	}
	var issues []ValidationIssue
	for _, key := range []string{"jsCode", "pythonCode"} {
		val, ok := n.Parameters[key]
		if !ok {
			continue
		}
		s, ok := val.String()
		if !ok {
			continue
		}
		if strings.Contains(s, "eval(") || strings.Contains(s, "exec(") {
			issues = append(issues, issueAt(CodeEnhancedSecurity, SeverityWarning,
				fmt.Sprintf("node %q uses eval/exec, review for injection risk", n.Name),
				Location{NodeName: n.Name, NodeID: n.ID, NodeType: n.Type, NodeIndex: nodeIdx,
					Path: fmt.Sprintf("nodes[%d].parameters.%s", nodeIdx, key)}, loc))
		}
	}
	return issues
}

// validateBestPractice emits informational hints.
func validateBestPractice(n *workflow.Node, nodeIdx int, def catalog.NodeDefinition, loc *locatorAdapter) []ValidationIssue {
	if !isAgentType(n.Type) {
		return nil
	}
	var issues []ValidationIssue
	base := Location{NodeName: n.Name, NodeID: n.ID, NodeType: n.Type, NodeIndex: nodeIdx}
	if s, ok := n.Parameters["systemMessage"]; !ok || isEmptyValue(s) {
		issues = append(issues, issueAt(CodeMissingSystemMessage, SeverityInfo,
			fmt.Sprintf("agent %q has no systemMessage set", n.Name), base, loc))
	}
	return issues
}

func localName(nodeType string) string {
	if i := strings.LastIndex(nodeType, "."); i >= 0 {
		return nodeType[i+1:]
	}
	return nodeType
}

func isAgentType(nodeType string) bool {
	return strings.Contains(strings.ToLower(localName(nodeType)), "agent")
}
