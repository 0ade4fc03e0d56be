package validator

// minimalKeepCodes are the only codes a "minimal" profile retains, beyond
// the general error/warning/info split.
var minimalKeepCodes = map[string]bool{
	CodeMissingProperty:         true,
	CodeMissingRequiredProperty: true,
	CodeTypeMismatch:            true,
	CodeInvalidOption:           true,
	CodeEnhancedSecurity:        true,
}

// runtimeBlockingWarnings are warnings that "runtime" keeps alongside all
// errors, because they would break execution even though they are not
// hard structural errors.
var runtimeBlockingWarnings = map[string]bool{
	CodeUnknownNodeType:        true,
	CodeMissingToolDescription: true,
	CodeNoConnectedTools:       true,
}

// strictExtraCodes are the strict-only warning codes. No check emits
// either code and keepForProfile does not consult this set, so "strict"
// keeps the same issues as "ai-friendly".
var strictExtraCodes = map[string]bool{
	CodeMissingOptionalProperty: true,
	CodeMissingNodeDescription:  true,
}

// applyProfile filters the collected issue set for the active profile.
func applyProfile(issues []ValidationIssue, profile Profile) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range issues {
		if keepForProfile(issue, profile) {
			out = append(out, issue)
		}
	}
	return out
}

func keepForProfile(issue ValidationIssue, profile Profile) bool {
	switch profile {
	case ProfileMinimal:
		return issue.Severity == SeverityError && minimalKeepCodes[issue.Code]
	case ProfileRuntime:
		if issue.Severity == SeverityError {
			return true
		}
		if issue.Severity == SeverityWarning {
			return runtimeBlockingWarnings[issue.Code]
		}
		return false
	case ProfileAIFriendly:
		return true
	case ProfileStrict:
		return true
	default:
		return true
	}
}
