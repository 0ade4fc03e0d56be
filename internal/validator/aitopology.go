package validator

import (
	"fmt"
	"strings"

	"github.com/n8nctl/n8nctl/internal/catalog"
	"github.com/n8nctl/n8nctl/internal/workflow"
)

const (
	connTypeLanguageModel = "ai_languageModel"
	connTypeMemory        = "ai_memory"
	connTypeOutputParser  = "ai_outputParser"
	connTypeTool          = "ai_tool"
	connTypeMain          = "main"
)

// validateAITopology runs the AI-specific checks once per workflow using
// the reverse connection index.
func validateAITopology(wf *workflow.Workflow, defs map[string]*catalog.NodeDefinition, loc *locatorAdapter) []ValidationIssue {
	var issues []ValidationIssue
	reverse := wf.Reverse()

	for idx, n := range wf.Nodes {
		base := Location{NodeName: n.Name, NodeID: n.ID, NodeType: n.Type, NodeIndex: idx}

		if isAgentType(n.Type) {
			inbound := reverse[n.Name]
			modelCount := countByType(inbound, connTypeLanguageModel)
			switch {
			case modelCount == 0:
				issues = append(issues, issueAt(CodeMissingLanguageModel, SeverityError,
					fmt.Sprintf("agent %q has no connected language model", n.Name), base, loc))
			case modelCount > 2:
				issues = append(issues, issueAt(CodeTooManyLanguageModels, SeverityError,
					fmt.Sprintf("agent %q has %d connected language models, at most 2 are supported", n.Name, modelCount), base, loc))
			}

			if needsFallback(n) && modelCount == 1 {
				issues = append(issues, issueAt(CodeFallbackMissingSecondModel, SeverityError,
					fmt.Sprintf("agent %q enables fallback but has only one language model", n.Name), base, loc))
			}

			if promptType, _ := stringParam(n, "promptType"); promptType == "define" {
				if text, ok := stringParam(n, "text"); !ok || text == "" {
					issues = append(issues, issueAt(CodeMissingPromptText, SeverityError,
						fmt.Sprintf("agent %q has promptType=define but an empty prompt text", n.Name), base, loc))
				}
			}

			if boolParam(n, "hasOutputParser") && countByType(inbound, connTypeOutputParser) == 0 {
				issues = append(issues, issueAt(CodeMissingOutputParser, SeverityError,
					fmt.Sprintf("agent %q sets hasOutputParser but has no connected output parser", n.Name), base, loc))
			}

			if countByType(inbound, connTypeMemory) > 1 {
				issues = append(issues, issueAt(CodeMultipleMemoryConnections, SeverityError,
					fmt.Sprintf("agent %q has more than one memory connection", n.Name), base, loc))
			}

			if countByType(inbound, connTypeTool) == 0 {
				issues = append(issues, issueAt(CodeNoConnectedTools, SeverityInfo,
					fmt.Sprintf("agent %q has no connected tools", n.Name), base, loc))
			}
		}

		if isChatTriggerType(n.Type) && isStreamingMode(n) {
			if !mainOutputsTerminateAtAgent(wf, n.Name) {
				issues = append(issues, issueAt(CodeStreamingWrongTarget, SeverityError,
					fmt.Sprintf("chat trigger %q streams but its main output does not terminate at an agent", n.Name), base, loc))
			}
		}

		if def, ok := defs[n.Name]; ok && def.IsAITool {
			if t, present := stringParam(n, "toolDescription"); !present || t == "" {
				issues = append(issues, issueAt(CodeMissingToolDescription, SeverityWarning,
					fmt.Sprintf("tool %q has no toolDescription", n.Name), base, loc))
			}
		}
	}
	return issues
}

func countByType(edges []workflow.ReverseEdge, connType string) int {
	count := 0
	for _, e := range edges {
		if e.SourceType == connType {
			count++
		}
	}
	return count
}

func needsFallback(n *workflow.Node) bool { return boolParam(n, "needsFallback") }

func boolParam(n *workflow.Node, key string) bool {
	v, ok := n.Parameters[key]
	if !ok {
		return false
	}
	b, _ := v.Bool()
	return b
}

func stringParam(n *workflow.Node, key string) (string, bool) {
	v, ok := n.Parameters[key]
	if !ok {
		return "", false
	}
	return v.String()
}

func isChatTriggerType(nodeType string) bool {
	return strings.Contains(strings.ToLower(localName(nodeType)), "chattrigger")
}

func isStreamingMode(n *workflow.Node) bool {
	mode, _ := stringParam(n, "responseMode")
	return mode == "streaming"
}

// mainOutputsTerminateAtAgent walks the main-connection graph from
// sourceName until it finds a node with no further main outputs, and
// reports whether that terminal node is an agent.
func mainOutputsTerminateAtAgent(wf *workflow.Workflow, sourceName string) bool {
	visited := map[string]bool{}
	var walk func(name string) bool
	walk = func(name string) bool {
		if visited[name] {
			return false
		}
		visited[name] = true
		group, ok := wf.Connections[name]
		if !ok {
			return isAgentType(nodeTypeOf(wf, name))
		}
		slots, ok := group[connTypeMain]
		if !ok || len(slots) == 0 {
			return isAgentType(nodeTypeOf(wf, name))
		}
		for _, slot := range slots {
			for _, target := range slot.Targets {
				if walk(target.Node) {
					return true
				}
			}
		}
		return false
	}
	return walk(sourceName)
}

func nodeTypeOf(wf *workflow.Workflow, name string) string {
	if n := wf.NodeByName(name); n != nil {
		return n.Type
	}
	return ""
}
