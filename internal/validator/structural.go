package validator

import (
	"fmt"

	"github.com/n8nctl/n8nctl/internal/workflow"
)

// validateStructural runs the C5 checks. wf is assumed already reindexed by
// the caller (Reindex happens once up front in Validate).
func validateStructural(wf *workflow.Workflow, loc *locatorAdapter) []ValidationIssue {
	var issues []ValidationIssue

	if wf.Nodes == nil {
		issues = append(issues, issueAt(CodeMissingProperty, SeverityError,
			"workflow is missing required field \"nodes\"", Location{Path: "nodes"}, loc))
	}
	if wf.Connections == nil {
		issues = append(issues, issueAt(CodeMissingProperty, SeverityError,
			"workflow is missing required field \"connections\"", Location{Path: "connections"}, loc))
	}

	seenNames := make(map[string]int)
	for i, n := range wf.Nodes {
		path := fmt.Sprintf("nodes[%d]", i)
		loc2 := Location{NodeName: n.Name, NodeID: n.ID, NodeType: n.Type, NodeIndex: i, Path: path}

		if n.Name == "" {
			issues = append(issues, issueAt(CodeMissingNodeName, SeverityWarning,
				"node is missing a name and one will be auto-generated on save", loc2, loc))
		} else if prev, dup := seenNames[n.Name]; dup {
			issues = append(issues, issueAt(CodeDuplicateNodeName, SeverityError,
				fmt.Sprintf("node name %q is already used by nodes[%d]", n.Name, prev), loc2, loc))
		} else {
			seenNames[n.Name] = i
		}

		if n.Type == "" {
			issues = append(issues, issueAt(CodeMissingProperty, SeverityError,
				"node is missing required field \"type\"", withPath(loc2, path+".type"), loc))
		}
		if n.TypeVersion == 0 {
			issues = append(issues, issueAt(CodeMissingProperty, SeverityError,
				"node is missing required field \"typeVersion\"", withPath(loc2, path+".typeVersion"), loc))
		}
	}

	issues = append(issues, validateConnections(wf, loc)...)

	if wf.Active {
		issues = append(issues, validateTriggerPresence(wf, loc)...)
	}

	return issues
}

func validateConnections(wf *workflow.Workflow, loc *locatorAdapter) []ValidationIssue {
	var issues []ValidationIssue
	for source, group := range wf.Connections {
		sourceIdx := wf.NodeIndex(source)
		if sourceIdx < 0 {
			issues = append(issues, issueAt(CodeConnectionDangling, SeverityWarning,
				fmt.Sprintf("connection source %q does not refer to an existing node", source),
				Location{NodeName: source, Path: "connections." + source}, loc))
			continue
		}
		sourceDisabled := wf.Nodes[sourceIdx].Disabled
		for connType, slots := range group {
			for slotIdx, slot := range slots {
				for targetIdx, target := range slot.Targets {
					path := fmt.Sprintf("connections.%s.%s[%d][%d]", source, connType, slotIdx, targetIdx)
					targetNodeIdx := wf.NodeIndex(target.Node)
					if targetNodeIdx < 0 {
						issues = append(issues, issueAt(CodeConnectionDangling, SeverityWarning,
							fmt.Sprintf("connection target %q does not refer to an existing node", target.Node),
							Location{NodeName: source, NodeIndex: sourceIdx, Path: path}, loc))
						continue
					}
					if sourceDisabled || wf.Nodes[targetNodeIdx].Disabled {
						issues = append(issues, issueAt(CodeConnectionDangling, SeverityWarning,
							fmt.Sprintf("connection between %q and %q touches a disabled node", source, target.Node),
							Location{NodeName: source, NodeIndex: sourceIdx, Path: path}, loc))
					}
				}
			}
		}
	}
	return issues
}

func validateTriggerPresence(wf *workflow.Workflow, loc *locatorAdapter) []ValidationIssue {
	for _, n := range wf.Nodes {
		if !n.Disabled && workflow.IsActivatableTrigger(n.Type) {
			return nil
		}
	}
	return []ValidationIssue{issueAt(CodeNoTriggerWhenActive, SeverityError,
		"workflow is active but contains no activatable trigger node", Location{Path: "active"}, loc)}
}

func withPath(l Location, path string) Location {
	l.Path = path
	return l
}
