// Package diff implements the Diff Engine (C10): applies an ordered batch
// of tagged workflow operations with validate-only, atomic, and
// continue-on-error execution semantics.
package diff

import (
	"encoding/json"
	"fmt"
)

// OpType is the closed set of 17 diff operation tags.
type OpType string

const (
	OpAddNode               OpType = "addNode"
	OpRemoveNode            OpType = "removeNode"
	OpUpdateNode            OpType = "updateNode"
	OpMoveNode              OpType = "moveNode"
	OpEnableNode            OpType = "enableNode"
	OpDisableNode           OpType = "disableNode"
	OpAddConnection         OpType = "addConnection"
	OpRemoveConnection      OpType = "removeConnection"
	OpRewireConnection      OpType = "rewireConnection"
	OpCleanStaleConnections OpType = "cleanStaleConnections"
	OpReplaceConnections    OpType = "replaceConnections"
	OpUpdateSettings        OpType = "updateSettings"
	OpUpdateName            OpType = "updateName"
	OpAddTag                OpType = "addTag"
	OpRemoveTag             OpType = "removeTag"
	OpActivateWorkflow      OpType = "activateWorkflow"
	OpDeactivateWorkflow    OpType = "deactivateWorkflow"
)

// ConnectionRef names one connection endpoint.
type ConnectionRef struct {
	Source      string `json:"source,omitempty"`
	SourceType  string `json:"sourceType,omitempty"`
	SourceIndex int    `json:"sourceIndex,omitempty"`
	Target      string `json:"target"`
	TargetIndex int    `json:"targetIndex"`
}

// DiffOperation is a tagged variant over the 17 operation payloads.
// UnmarshalJSON decodes every field present in the payload and checks the
// ones Type requires; the engine reads only the fields relevant to Type.
type DiffOperation struct {
	Type OpType `json:"type"`

	NodeName   string          `json:"name,omitempty"`
	NodeID     string          `json:"nodeId,omitempty"`
	Node       json.RawMessage `json:"node,omitempty"`
	Allow      bool            `json:"allowOverwrite,omitempty"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Position   *[2]float64     `json:"position,omitempty"`

	Connection  *ConnectionRef  `json:"connection,omitempty"`
	NewTarget   *ConnectionRef  `json:"newTarget,omitempty"`
	Connections json.RawMessage `json:"connections,omitempty"`

	Settings json.RawMessage `json:"settings,omitempty"`
	Name     string          `json:"newName,omitempty"`
	Tag      string          `json:"tag,omitempty"`
}

// UnmarshalJSON dispatches on the "type" discriminator, validating that
// the payload carries the fields its tag requires.
func (op *DiffOperation) UnmarshalJSON(data []byte) error {
	type alias DiffOperation
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("diff: decode operation: %w", err)
	}
	*op = DiffOperation(a)
	switch op.Type {
	case OpAddNode:
		if len(op.Node) == 0 {
			return fmt.Errorf("diff: %s requires \"node\"", op.Type)
		}
	case OpRemoveNode, OpMoveNode, OpEnableNode, OpDisableNode, OpUpdateNode:
		if op.NodeName == "" && op.NodeID == "" {
			return fmt.Errorf("diff: %s requires \"name\" or \"nodeId\"", op.Type)
		}
	case OpAddConnection, OpRemoveConnection:
		if op.Connection == nil {
			return fmt.Errorf("diff: %s requires \"connection\"", op.Type)
		}
	case OpRewireConnection:
		if op.Connection == nil || op.NewTarget == nil {
			return fmt.Errorf("diff: %s requires \"connection\" and \"newTarget\"", op.Type)
		}
	case OpReplaceConnections:
		if op.NodeName == "" || len(op.Connections) == 0 {
			return fmt.Errorf("diff: %s requires \"name\" and \"connections\"", op.Type)
		}
	case OpUpdateSettings:
		if len(op.Settings) == 0 {
			return fmt.Errorf("diff: %s requires \"settings\"", op.Type)
		}
	case OpUpdateName:
		if op.Name == "" {
			return fmt.Errorf("diff: %s requires \"newName\"", op.Type)
		}
	case OpAddTag, OpRemoveTag:
		if op.Tag == "" {
			return fmt.Errorf("diff: %s requires \"tag\"", op.Type)
		}
	case OpCleanStaleConnections, OpActivateWorkflow, OpDeactivateWorkflow:
		// no required fields
	default:
		return fmt.Errorf("diff: %w: %q", ErrInvalidOperationType, op.Type)
	}
	return nil
}

// DiffRequest is the input to Apply.
type DiffRequest struct {
	WorkflowID      string          `json:"workflowId"`
	Operations      []DiffOperation `json:"operations"`
	ValidateOnly    bool            `json:"validateOnly,omitempty"`
	ContinueOnError bool            `json:"continueOnError,omitempty"`
	SkipValidation  bool            `json:"skipValidation,omitempty"`
}

// OpFailure records one operation's failure in continue-on-error mode.
type OpFailure struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// OpValidity is one per-operation result when ValidateOnly is set.
type OpValidity struct {
	Index int    `json:"index"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}
