package validator

// Issue codes from the structure, type, config, version, AI, and security
// sections of the error taxonomy. Diff and collaborator codes live in
// their own packages.
const (
	CodeMissingProperty     = "MISSING_PROPERTY"
	CodeMissingNodeName     = "MISSING_NODE_NAME"
	CodeDuplicateNodeName   = "DUPLICATE_NODE_NAME"
	CodeConnectionDangling  = "CONNECTION_DANGLING"
	CodeNoTriggerWhenActive = "NO_TRIGGER_WHEN_ACTIVE"

	CodeUnknownNodeType       = "UNKNOWN_NODE_TYPE"
	CodeInvalidNodeTypeFormat = "INVALID_NODE_TYPE_FORMAT"

	CodeMissingRequiredProperty = "MISSING_REQUIRED_PROPERTY"
	CodeInvalidOption           = "INVALID_OPTION"
	CodeTypeMismatch            = "TYPE_MISMATCH"
	CodeExpressionMissingPrefix = "EXPRESSION_MISSING_PREFIX"
	CodeExpressionMixedLiteral  = "EXPRESSION_MIXED_LITERAL"

	CodeOutdatedTypeVersion   = "OUTDATED_TYPE_VERSION"
	CodeTypeVersionExceedsMax = "TYPEVERSION_EXCEEDS_MAX"
	CodeBreakingChange        = "BREAKING_CHANGE"

	CodeMissingLanguageModel       = "MISSING_LANGUAGE_MODEL"
	CodeTooManyLanguageModels      = "TOO_MANY_LANGUAGE_MODELS"
	CodeFallbackMissingSecondModel = "FALLBACK_MISSING_SECOND_MODEL"
	CodeMissingPromptText          = "MISSING_PROMPT_TEXT"
	CodeStreamingWrongTarget       = "STREAMING_WRONG_TARGET"
	CodeStreamingWithMainOutput    = "STREAMING_WITH_MAIN_OUTPUT"
	CodeMissingOutputParser        = "MISSING_OUTPUT_PARSER"
	CodeMultipleMemoryConnections  = "MULTIPLE_MEMORY_CONNECTIONS"
	CodeMissingToolDescription     = "MISSING_TOOL_DESCRIPTION"

	CodeEnhancedSecurity = "ENHANCED_SECURITY"

	// Best-practice info hints — not part of the closed error
	// taxonomy, but structured the same way as every other issue.
	CodeMissingSystemMessage = "MISSING_SYSTEM_MESSAGE"
	CodeNoConnectedTools     = "NO_CONNECTED_TOOLS"

	// Strict-profile-only hints.
	CodeMissingOptionalProperty   = "MISSING_OPTIONAL_PROPERTY"
	CodeMissingNodeDescription    = "MISSING_NODE_DESCRIPTION"
)
