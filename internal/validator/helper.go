package validator

import "github.com/n8nctl/n8nctl/internal/locator"

// locatorAdapter wraps an optional *locator.Locator so every check site can
// call issueAt without nil-checking; a nil inner locator simply yields no
// source location.
type locatorAdapter struct {
	inner *locator.Locator
}

func newLocatorAdapter(l *locator.Locator) *locatorAdapter {
	return &locatorAdapter{inner: l}
}

func (a *locatorAdapter) locate(path string) (*locator.SourceLocation, *locator.SourceSnippet) {
	if a == nil || a.inner == nil {
		return nil, nil
	}
	sl, ss, ok := a.inner.Locate(path)
	if !ok {
		return nil, nil
	}
	return sl, ss
}

func issueAt(code string, sev Severity, message string, loc Location, la *locatorAdapter) ValidationIssue {
	issue := ValidationIssue{Code: code, Severity: sev, Message: message, Location: loc}
	if loc.Path != "" {
		issue.SourceLocation, issue.SourceSnippet = la.locate(loc.Path)
	}
	return issue
}
