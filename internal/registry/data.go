package registry

import "github.com/n8nctl/n8nctl/internal/workflow"

// changes is the static, compiled-in set of breaking changes tracked
// across the node types this tool knows about. Real deployments would
// regenerate this table from n8n release notes; it is seeded here with
// the changes exercised by the validator and auto-fix test scenarios.
// Entries are written with the legacy/scoped node-type spelling n8n's own
// release notes use; init() below normalizes them to short form.
var changes = []BreakingChange{
	{
		NodeType: "n8n-nodes-base.httpRequest", FromVersion: "1", ToVersion: "2",
		PropertyName: "responseFormat", ChangeType: ChangeRenamed,
		IsBreaking: true, Severity: SeverityMedium, AutoMigratable: true,
		MigrationHint: "responseFormat was renamed to options.response.response.responseFormat",
	},
	{
		NodeType: "n8n-nodes-base.httpRequest", FromVersion: "2", ToVersion: "3",
		PropertyName: "authentication", ChangeType: ChangeDefaultChanged,
		IsBreaking: false, Severity: SeverityLow, AutoMigratable: false,
		MigrationHint: "default authentication changed from \"none\" to \"predefinedCredentialType\"",
	},
	{
		NodeType: "n8n-nodes-base.httpRequest", FromVersion: "3", ToVersion: "4",
		PropertyName: "options.redirect", ChangeType: ChangeAdded,
		IsBreaking: false, Severity: SeverityLow, AutoMigratable: false,
		MigrationHint: "new options.redirect group controls redirect following explicitly",
	},
	{
		NodeType: "n8n-nodes-base.httpRequest", FromVersion: "4", ToVersion: "4.2",
		PropertyName: "options.response.response.neverError", ChangeType: ChangeAdded,
		IsBreaking: false, Severity: SeverityLow, AutoMigratable: false,
		MigrationHint: "neverError option added to suppress throwing on non-2xx status codes",
	},
	{
		NodeType: "n8n-nodes-base.set", FromVersion: "1", ToVersion: "2",
		PropertyName: "values", ChangeType: ChangeRenamed,
		IsBreaking: true, Severity: SeverityHigh, AutoMigratable: true,
		MigrationHint: "values was restructured into the assignments collection",
	},
	{
		NodeType: "n8n-nodes-base.set", FromVersion: "2", ToVersion: "3",
		PropertyName: "options.dotNotation", ChangeType: ChangeRemoved,
		IsBreaking: true, Severity: SeverityMedium, AutoMigratable: false,
		MigrationHint: "dot notation is always enabled; remove references to the removed toggle",
	},
	{
		NodeType: "n8n-nodes-base.switch", FromVersion: "1", ToVersion: "2",
		PropertyName: "rules.rules", ChangeType: ChangeTypeChanged,
		IsBreaking: true, Severity: SeverityMedium, AutoMigratable: true,
		MigrationHint: "rules moved from a flat array to rules.values with explicit output indices",
	},
	{
		NodeType: "n8n-nodes-base.switch", FromVersion: "2", ToVersion: "3",
		PropertyName: "options.fallbackOutput", ChangeType: ChangeAdded,
		IsBreaking: false, Severity: SeverityLow, AutoMigratable: false,
		MigrationHint: "fallbackOutput option added for unmatched input routing",
	},
	{
		NodeType: "n8n-nodes-base.webhook", FromVersion: "1", ToVersion: "1.1",
		PropertyName: "responseMode", ChangeType: ChangeSemanticChanged,
		IsBreaking: false, Severity: SeverityLow, AutoMigratable: false,
		MigrationHint: "\"lastNode\" responseMode now requires an explicit Respond to Webhook node",
	},
	{
		NodeType: "n8n-nodes-base.webhook", FromVersion: "1.1", ToVersion: "2",
		PropertyName: "options.allowedOrigins", ChangeType: ChangeAdded,
		IsBreaking: false, Severity: SeverityLow, AutoMigratable: false,
		MigrationHint: "allowedOrigins CORS option added, defaults to \"*\"",
	},
	{
		NodeType: "n8n-nodes-base.code", FromVersion: "1", ToVersion: "2",
		PropertyName: "mode", ChangeType: ChangeAdded,
		IsBreaking: false, Severity: SeverityLow, AutoMigratable: false,
		MigrationHint: "mode added to distinguish \"runOnceForAllItems\" from \"runOnceForEachItem\"",
	},
	{
		NodeType: "n8n-nodes-base.merge", FromVersion: "1", ToVersion: "2",
		PropertyName: "mode", ChangeType: ChangeRenamed,
		IsBreaking: true, Severity: SeverityMedium, AutoMigratable: true,
		MigrationHint: "\"mergeByIndex\"/\"mergeByKey\" consolidated under mode=\"combine\" with combinationMode",
	},
	{
		NodeType: "n8n-nodes-base.merge", FromVersion: "2", ToVersion: "3",
		PropertyName: "numberInputs", ChangeType: ChangeDefaultChanged,
		IsBreaking: false, Severity: SeverityLow, AutoMigratable: false,
		MigrationHint: "default numberInputs changed from 2 to 2 (explicit), no longer inferred",
	},
	{
		NodeType: "@n8n/n8n-nodes-langchain.agent", FromVersion: "1", ToVersion: "1.5",
		PropertyName: "hasOutputParser", ChangeType: ChangeAdded,
		IsBreaking: false, Severity: SeverityLow, AutoMigratable: false,
		MigrationHint: "hasOutputParser flag added to gate the ai_outputParser connection slot",
	},
	{
		NodeType: "@n8n/n8n-nodes-langchain.agent", FromVersion: "1.5", ToVersion: "2",
		PropertyName: "promptType", ChangeType: ChangeTypeChanged,
		IsBreaking: true, Severity: SeverityMedium, AutoMigratable: true,
		MigrationHint: "promptType moved from a free-text field to an enum of \"auto\"/\"define\"",
	},
}

// latest maps a node type to the highest typeVersion this registry
// tracks, derived once at init from the changes table.
var latest = map[string]string{}

// tracked maps a node type to its ordered (ascending) list of tracked
// typeVersions, derived once at init from the changes table.
var tracked = map[string][]string{}

func init() {
	// The table above is written with the node types n8n itself documents
	// breaking changes against (legacy/scoped form). Every real workflow
	// that reaches this registry has already been normalized to short form
	// by workflow.Parse, so the registry's own keys are normalized once
	// here to match at lookup time instead of requiring every call site to
	// remember to do it.
	for i := range changes {
		changes[i].NodeType = workflow.NormalizeNodeType(changes[i].NodeType)
	}

	seen := map[string]map[string]bool{}
	for _, c := range changes {
		if seen[c.NodeType] == nil {
			seen[c.NodeType] = map[string]bool{}
		}
		seen[c.NodeType][c.FromVersion] = true
		seen[c.NodeType][c.ToVersion] = true
	}
	for nodeType, versions := range seen {
		list := make([]string, 0, len(versions))
		for v := range versions {
			list = append(list, v)
		}
		sortVersions(list)
		tracked[nodeType] = list
		latest[nodeType] = list[len(list)-1]
	}
}
