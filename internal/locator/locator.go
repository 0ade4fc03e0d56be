// Package locator implements the Issue Locator (C4): mapping logical
// workflow paths to source {line,col} and a highlighted source snippet,
// when raw source text and its PathIndex are available.
package locator

import (
	"strings"

	"github.com/n8nctl/n8nctl/internal/workflow"
)

// SourceLocation is the located range for an issue.
type SourceLocation struct {
	Line    int `json:"line"`
	Col     int `json:"col"`
	EndLine int `json:"endLine,omitempty"`
	EndCol  int `json:"endCol,omitempty"`
	Offset  int `json:"offset,omitempty"`
	Length  int `json:"length,omitempty"`
}

// SourceSnippet is a contiguous block of source lines with one highlighted.
type SourceSnippet struct {
	Lines         []string `json:"lines"`
	StartLine     int      `json:"startLine"`
	HighlightLine int      `json:"highlightLine"`
}

// contextLines is the number of lines shown above/below the target.
const contextLines = 2

// Locator resolves logical paths against a parsed source's PathIndex.
type Locator struct {
	source string
	index  workflow.PathIndex
	lines  []string
}

// New builds a Locator from a parse result. If source/index are empty, the
// returned Locator degrades gracefully: Locate always returns (nil, nil,
// false).
func New(source string, index workflow.PathIndex) *Locator {
	var lines []string
	if source != "" {
		lines = strings.Split(source, "\n")
	}
	return &Locator{source: source, index: index, lines: lines}
}

// Locate resolves a logical path string (e.g. "nodes[3].parameters.url") to
// a source location and snippet. It reports ok=false when no raw text was
// available or the path was not found — callers omit sourceLocation and
// sourceSnippet from the issue in that case.
func (l *Locator) Locate(path string) (*SourceLocation, *SourceSnippet, bool) {
	if l == nil || l.index == nil {
		return nil, nil, false
	}
	span, ok := l.index[path]
	if !ok {
		span, ok = l.nearestAncestor(path)
		if !ok {
			return nil, nil, false
		}
	}
	loc := &SourceLocation{
		Line:    span.Line,
		Col:     span.Col,
		EndLine: span.EndLine,
		EndCol:  span.EndCol,
		Offset:  span.Offset,
		Length:  span.Length,
	}
	snippet := l.snippet(span.Line)
	return loc, snippet, true
}

// nearestAncestor walks a dotted/indexed path upward (stripping the last
// segment repeatedly) looking for the closest indexed ancestor, so issues
// about a property that the scanner never visited (e.g. a path computed by
// a validator rather than literally present in source) still get a useful
// approximate location.
func (l *Locator) nearestAncestor(path string) (workflow.Span, bool) {
	for {
		cut := lastSeparator(path)
		if cut < 0 {
			return workflow.Span{}, false
		}
		path = path[:cut]
		if path == "" {
			return workflow.Span{}, false
		}
		if span, ok := l.index[path]; ok {
			return span, true
		}
	}
}

func lastSeparator(path string) int {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' || path[i] == '[' {
			return i
		}
	}
	return -1
}

func (l *Locator) snippet(highlightLine int) *SourceSnippet {
	if len(l.lines) == 0 {
		return nil
	}
	start := highlightLine - contextLines
	if start < 1 {
		start = 1
	}
	end := highlightLine + contextLines
	if end > len(l.lines) {
		end = len(l.lines)
	}
	var out []string
	for i := start; i <= end; i++ {
		out = append(out, l.lines[i-1])
	}
	return &SourceSnippet{Lines: out, StartLine: start, HighlightLine: highlightLine}
}
