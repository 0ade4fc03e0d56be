package workflow

import (
	"encoding/json"
	"fmt"
)

// ParseOptions controls the tolerant parse fallback chain.
type ParseOptions struct {
	// Repair enables stage 2: textual repair then strict reparse.
	Repair bool
	// AcceptJSObject enables stage 3: a tolerant JS-object-literal parse.
	AcceptJSObject bool
}

// ParseResult bundles the parsed workflow with the PathIndex the Issue
// Locator needs to map logical paths back to source positions, and records
// which stage succeeded.
type ParseResult struct {
	Workflow *Workflow
	Index    PathIndex
	Source   string
	Repaired bool
	Stage    string // "strict", "repaired", or "js-object"
}

// ErrCode classifies a parse failure from the closed error taxonomy.
type ErrCode string

const (
	ErrParseError   ErrCode = "PARSE_ERROR"
	ErrInvalidJSON  ErrCode = "INVALID_JSON"
	ErrRepairFailed ErrCode = "REPAIR_FAILED"
)

// ParseFailure is the error returned when every enabled stage fails.
type ParseFailure struct {
	Code ErrCode
	Scan *ScanError
}

func (e *ParseFailure) Error() string {
	if e.Scan != nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Scan.Error())
	}
	return string(e.Code)
}

func (e *ParseFailure) Unwrap() error {
	if e.Scan != nil {
		return e.Scan
	}
	return nil
}

// Parse runs the three-stage fallback parser over raw workflow text,
// materializes the ReverseConnectionIndex, and normalizes
// every node's type.
func Parse(raw string, opts ParseOptions) (*ParseResult, error) {
	val, idx, err := scan(raw, false)
	stage := "strict"
	if err != nil {
		firstErr := err
		if opts.Repair {
			repaired := repairText(raw)
			val, idx, err = scan(repaired, false)
			stage = "repaired"
			if err == nil {
				raw = repaired
			}
		}
		if err != nil && opts.AcceptJSObject {
			val, idx, err = scan(raw, true)
			stage = "js-object"
		}
		if err != nil {
			code := ErrParseError
			if !opts.Repair && !opts.AcceptJSObject {
				code = ErrInvalidJSON
			} else if opts.Repair {
				code = ErrRepairFailed
			}
			var scanErr *ScanError
			if se, ok := firstErr.(*ScanError); ok {
				scanErr = se
			} else if se, ok := err.(*ScanError); ok {
				scanErr = se
			}
			return nil, &ParseFailure{Code: code, Scan: scanErr}
		}
	}

	data, err := json.Marshal(val.Raw())
	if err != nil {
		return nil, &ParseFailure{Code: ErrParseError}
	}
	wf := &Workflow{}
	if err := json.Unmarshal(data, wf); err != nil {
		return nil, &ParseFailure{Code: ErrParseError}
	}
	normalizeNodeTypes(wf)
	wf.Reindex()

	return &ParseResult{
		Workflow: wf,
		Index:    idx,
		Source:   raw,
		Repaired: stage != "strict",
		Stage:    stage,
	}, nil
}

func normalizeNodeTypes(wf *Workflow) {
	for _, n := range wf.Nodes {
		n.Type = NormalizeNodeType(n.Type)
	}
}

// Serialize renders a workflow back to canonical JSON text (used by the
// round-trip tests and by the version store / control-plane update paths).
func Serialize(wf *Workflow) (string, error) {
	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
