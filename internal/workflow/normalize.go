package workflow

import "strings"

const (
	legacyBasePrefix   = "n8n-nodes-base."
	shortBasePrefix    = "nodes-base."
	legacyLangchainPkg = "@n8n/n8n-nodes-langchain."
	shortLangchainPkg  = "nodes-langchain."
)

// NormalizeNodeType rewrites a node type into its short canonical form
// It accepts legacy (`n8n-nodes-base.X`), scoped
// (`@n8n/n8n-nodes-langchain.X`), and already-short forms, and is
// idempotent: Normalize(Normalize(t)) == Normalize(t).
func NormalizeNodeType(nodeType string) string {
	switch {
	case strings.HasPrefix(nodeType, legacyBasePrefix):
		return shortBasePrefix + strings.TrimPrefix(nodeType, legacyBasePrefix)
	case strings.HasPrefix(nodeType, legacyLangchainPkg):
		return shortLangchainPkg + strings.TrimPrefix(nodeType, legacyLangchainPkg)
	case strings.HasPrefix(nodeType, shortBasePrefix), strings.HasPrefix(nodeType, shortLangchainPkg):
		return nodeType
	default:
		return nodeType
	}
}

// DisplayNodeType renders a short-form node type the way the control plane
// expects it: nodes-base.* gets the legacy n8n-nodes-base. prefix restored.
func DisplayNodeType(nodeType string) string {
	if strings.HasPrefix(nodeType, shortBasePrefix) {
		return legacyBasePrefix + strings.TrimPrefix(nodeType, shortBasePrefix)
	}
	return nodeType
}

// IsTrigger reports whether a node type is a trigger, by name classification.
func IsTrigger(nodeType string) bool {
	lower := strings.ToLower(localName(nodeType))
	if strings.Contains(lower, "trigger") {
		return true
	}
	if strings.Contains(lower, "webhook") && !strings.Contains(lower, "respond") {
		return true
	}
	switch lower {
	case "start", "manualtrigger", "formtrigger":
		return true
	}
	return false
}

// IsActivatableTrigger reports whether a trigger node type can cause the
// control plane to activate a workflow (excludes sub-workflow triggers).
func IsActivatableTrigger(nodeType string) bool {
	if !IsTrigger(nodeType) {
		return false
	}
	return !strings.Contains(strings.ToLower(localName(nodeType)), "executeworkflow")
}

// localName returns the part of a node type after the package prefix, so
// trigger classification is insensitive to which package a type lives in.
func localName(nodeType string) string {
	if i := strings.LastIndex(nodeType, "."); i >= 0 {
		return nodeType[i+1:]
	}
	return nodeType
}
