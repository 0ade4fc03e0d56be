package diff

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/n8nctl/n8nctl/internal/validator"
	"github.com/n8nctl/n8nctl/internal/workflow"
)

// Validator is the subset of validator.Validate the engine needs to
// re-validate a workflow after a successful batch at the runtime profile.
// Declared locally so tests can substitute a
// fake without pulling in a catalog.
type Validator func(ctx context.Context, wf *workflow.Workflow) (validator.Result, error)

// Result is the outcome of Apply.
type Result struct {
	Success           bool               `json:"success"`
	Workflow          *workflow.Workflow `json:"workflow,omitempty"`
	OperationsApplied int                `json:"operationsApplied"`
	Failed            []OpFailure        `json:"failed,omitempty"`
	Warnings          []string           `json:"warnings,omitempty"`
	Validities        []OpValidity       `json:"validities,omitempty"`
	ShouldActivate    bool               `json:"-"`
	ShouldDeactivate  bool               `json:"-"`
	Validation        *validator.Result  `json:"validation,omitempty"`
	Error             *ResultError       `json:"error,omitempty"`
}

// ResultError is the {code,message,details?} shape for a failed diff.
type ResultError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// opError pairs a failure with the index of the operation that produced
// it, so continue-on-error mode can keep going past it.
type opError struct {
	index int
	err   error
}

func (e *opError) Error() string { return e.err.Error() }
func (e *opError) Unwrap() error { return e.err }

// Apply executes req.Operations against wf. wf itself is never mutated: Apply always works against a
// clone and only the returned Result.Workflow carries the outcome.
func Apply(ctx context.Context, wf *workflow.Workflow, req DiffRequest, validate Validator) (Result, error) {
	if req.ValidateOnly {
		return applyValidateOnly(wf, req), nil
	}
	if req.ContinueOnError {
		return applyContinueOnError(ctx, wf, req, validate)
	}
	return applyAtomic(ctx, wf, req, validate)
}

// applyValidateOnly runs each operation in order against one accumulating
// working copy without ever returning it, recording per-operation
// validity.
func applyValidateOnly(wf *workflow.Workflow, req DiffRequest) Result {
	working := wf.Clone()
	validities := make([]OpValidity, 0, len(req.Operations))
	allValid := true
	for i, op := range req.Operations {
		if err := applyOne(working, op); err != nil {
			validities = append(validities, OpValidity{Index: i, Valid: false, Error: err.Error()})
			allValid = false
			continue
		}
		validities = append(validities, OpValidity{Index: i, Valid: true})
	}
	return Result{Success: allValid, Validities: validities}
}

// applyAtomic applies every operation to a working copy; the first
// failure aborts the whole batch and the original workflow is returned
// unchanged (default continueOnError=false semantics).
func applyAtomic(ctx context.Context, wf *workflow.Workflow, req DiffRequest, validate Validator) (Result, error) {
	working := wf.Clone()
	var shouldActivate, shouldDeactivate bool
	for i, op := range req.Operations {
		act, deact, err := applyOneWithActivation(working, op)
		if err != nil {
			return Result{
				Success:  false,
				Workflow: wf,
				Error: &ResultError{
					Code:    opErrorCode(err),
					Message: fmt.Sprintf("operation %d (%s) failed: %s", i, op.Type, err),
				},
			}, nil
		}
		if act {
			shouldActivate = true
		}
		if deact {
			shouldDeactivate = true
		}
	}
	return finalizeSuccess(ctx, working, len(req.Operations), nil, nil, shouldActivate, shouldDeactivate, req, validate)
}

// applyContinueOnError applies every operation to a working copy, skipping
// (but recording) failures instead of aborting.
func applyContinueOnError(
	ctx context.Context,
	wf *workflow.Workflow,
	req DiffRequest,
	validate Validator,
) (Result, error) {
	working := wf.Clone()
	var failed []OpFailure
	var warnings []string
	var shouldActivate, shouldDeactivate bool
	applied := 0
	for i, op := range req.Operations {
		act, deact, err := applyOneWithActivation(working, op)
		if err != nil {
			failed = append(failed, OpFailure{Index: i, Message: err.Error()})
			warnings = append(warnings, fmt.Sprintf("operation %d (%s) skipped: %s", i, op.Type, err))
			continue
		}
		applied++
		if act {
			shouldActivate = true
		}
		if deact {
			shouldDeactivate = true
		}
	}
	return finalizeSuccess(ctx, working, applied, failed, warnings, shouldActivate, shouldDeactivate, req, validate)
}

// finalizeSuccess re-validates the working copy (unless skipped) and
// assembles the final Result.
func finalizeSuccess(
	ctx context.Context,
	working *workflow.Workflow,
	applied int,
	failed []OpFailure,
	warnings []string,
	shouldActivate, shouldDeactivate bool,
	req DiffRequest,
	validate Validator,
) (Result, error) {
	working.Reindex()
	res := Result{
		Success:           true,
		Workflow:          working,
		OperationsApplied: applied,
		Failed:            failed,
		Warnings:          warnings,
		ShouldActivate:    shouldActivate,
		ShouldDeactivate:  shouldDeactivate,
	}
	if req.SkipValidation || validate == nil {
		return res, nil
	}
	vres, err := validate(ctx, working)
	if err != nil {
		return Result{}, fmt.Errorf("diff: re-validate: %w", err)
	}
	res.Validation = &vres
	if !vres.Valid {
		res.Success = false
		res.Error = &ResultError{
			Code:    "VALIDATION_REJECTED",
			Message: "updated workflow failed re-validation",
			Details: vres.Errors(),
		}
	}
	return res, nil
}

func opErrorCode(err error) string {
	switch {
	case isErr(err, ErrInvalidOperationType):
		return CodeInvalidOperationType
	case isErr(err, ErrTargetNodeMissing):
		return CodeTargetNodeMissing
	case isErr(err, ErrNameCollision):
		return CodeNameCollision
	case isErr(err, ErrConnectionTargetMissing):
		return CodeConnectionTargetMissing
	default:
		return "DIFF_OPERATION_FAILED"
	}
}

func isErr(err, target error) bool {
	for err != nil {
		if err == target {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// applyOne dispatches a single operation against working, ignoring any
// activation side-effect (used by validate-only mode).
func applyOne(working *workflow.Workflow, op DiffOperation) error {
	_, _, err := applyOneWithActivation(working, op)
	return err
}

// applyOneWithActivation dispatches a single operation, returning whether
// it set the pending-activate / pending-deactivate flags.
func applyOneWithActivation(working *workflow.Workflow, op DiffOperation) (activate, deactivate bool, err error) {
	working.Reindex()
	switch op.Type {
	case OpAddNode:
		return false, false, opAddNode(working, op)
	case OpRemoveNode:
		return false, false, opRemoveNode(working, op)
	case OpUpdateNode:
		return false, false, opUpdateNode(working, op)
	case OpMoveNode:
		return false, false, opMoveNode(working, op)
	case OpEnableNode:
		return false, false, opSetDisabled(working, op, false)
	case OpDisableNode:
		return false, false, opSetDisabled(working, op, true)
	case OpAddConnection:
		return false, false, opAddConnection(working, *op.Connection)
	case OpRemoveConnection:
		return false, false, opRemoveConnection(working, *op.Connection)
	case OpRewireConnection:
		return false, false, opRewireConnection(working, op)
	case OpCleanStaleConnections:
		return false, false, opCleanStaleConnections(working)
	case OpReplaceConnections:
		return false, false, opReplaceConnections(working, op)
	case OpUpdateSettings:
		return false, false, opUpdateSettings(working, op)
	case OpUpdateName:
		working.Name = op.Name
		return false, false, nil
	case OpAddTag:
		return false, false, opAddTag(working, op.Tag)
	case OpRemoveTag:
		return false, false, opRemoveTag(working, op.Tag)
	case OpActivateWorkflow:
		return true, false, nil
	case OpDeactivateWorkflow:
		return false, true, nil
	default:
		return false, false, fmt.Errorf("%w: %q", ErrInvalidOperationType, op.Type)
	}
}

func findNode(wf *workflow.Workflow, name, id string) *workflow.Node {
	if id != "" {
		for _, n := range wf.Nodes {
			if n.ID == id {
				return n
			}
		}
		return nil
	}
	return wf.NodeByName(name)
}

func opAddNode(wf *workflow.Workflow, op DiffOperation) error {
	var n workflow.Node
	if err := json.Unmarshal(op.Node, &n); err != nil {
		return fmt.Errorf("diff: decode node payload: %w", err)
	}
	if existing := wf.NodeByName(n.Name); existing != nil {
		if !op.Allow {
			return fmt.Errorf("%w: node %q already exists", ErrNameCollision, n.Name)
		}
		*existing = n
		return nil
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.Type = workflow.NormalizeNodeType(n.Type)
	wf.Nodes = append(wf.Nodes, &n)
	return nil
}

func opRemoveNode(wf *workflow.Workflow, op DiffOperation) error {
	n := findNode(wf, op.NodeName, op.NodeID)
	if n == nil {
		return fmt.Errorf("%w: %q", ErrTargetNodeMissing, op.NodeName)
	}
	idx := wf.NodeIndex(n.Name)
	wf.Nodes = append(wf.Nodes[:idx], wf.Nodes[idx+1:]...)
	delete(wf.Connections, n.Name)
	removeConnectionsTo(wf, n.Name)
	return nil
}

// removeConnectionsTo strips every target reference to nodeName from
// every source's ConnectionGroup, used by removeNode and
// cleanStaleConnections.
func removeConnectionsTo(wf *workflow.Workflow, nodeName string) {
	for src, group := range wf.Connections {
		for connType, slots := range group {
			for i, slot := range slots {
				filtered := slot.Targets[:0]
				for _, t := range slot.Targets {
					if t.Node != nodeName {
						filtered = append(filtered, t)
					}
				}
				slots[i].Targets = filtered
			}
			group[connType] = slots
		}
		wf.Connections[src] = group
	}
}

func opUpdateNode(wf *workflow.Workflow, op DiffOperation) error {
	n := findNode(wf, op.NodeName, op.NodeID)
	if n == nil {
		return fmt.Errorf("%w: %q", ErrTargetNodeMissing, op.NodeName)
	}
	if len(op.Parameters) == 0 {
		return nil
	}
	var patch map[string]workflow.Value
	if err := json.Unmarshal(op.Parameters, &patch); err != nil {
		return fmt.Errorf("diff: decode parameters patch: %w", err)
	}
	if n.Parameters == nil {
		n.Parameters = map[string]workflow.Value{}
	}
	for k, v := range patch {
		n.Parameters[k] = v
	}
	return nil
}

func opMoveNode(wf *workflow.Workflow, op DiffOperation) error {
	n := findNode(wf, op.NodeName, op.NodeID)
	if n == nil {
		return fmt.Errorf("%w: %q", ErrTargetNodeMissing, op.NodeName)
	}
	if op.Position == nil {
		return fmt.Errorf("diff: moveNode requires \"position\"")
	}
	n.Position = *op.Position
	return nil
}

func opSetDisabled(wf *workflow.Workflow, op DiffOperation, disabled bool) error {
	n := findNode(wf, op.NodeName, op.NodeID)
	if n == nil {
		return fmt.Errorf("%w: %q", ErrTargetNodeMissing, op.NodeName)
	}
	n.Disabled = disabled
	return nil
}

func opAddConnection(wf *workflow.Workflow, ref ConnectionRef) error {
	if wf.NodeByName(ref.Source) == nil {
		return fmt.Errorf("%w: source %q", ErrTargetNodeMissing, ref.Source)
	}
	if wf.NodeByName(ref.Target) == nil {
		return fmt.Errorf("%w: target %q", ErrConnectionTargetMissing, ref.Target)
	}
	connType := ref.SourceType
	if connType == "" {
		connType = "main"
	}
	if wf.Connections == nil {
		wf.Connections = map[string]workflow.ConnectionGroup{}
	}
	group, ok := wf.Connections[ref.Source]
	if !ok {
		group = workflow.ConnectionGroup{}
	}
	slots := group[connType]
	for len(slots) <= ref.SourceIndex {
		slots = append(slots, workflow.ConnectionSlot{})
	}
	slots[ref.SourceIndex].Targets = append(slots[ref.SourceIndex].Targets, workflow.ConnectionTarget{
		Node:  ref.Target,
		Type:  connType,
		Index: ref.TargetIndex,
	})
	group[connType] = slots
	wf.Connections[ref.Source] = group
	return nil
}

func opRemoveConnection(wf *workflow.Workflow, ref ConnectionRef) error {
	connType := ref.SourceType
	if connType == "" {
		connType = "main"
	}
	group, ok := wf.Connections[ref.Source]
	if !ok {
		return fmt.Errorf("%w: no connections from %q", ErrTargetNodeMissing, ref.Source)
	}
	slots := group[connType]
	if ref.SourceIndex < 0 || ref.SourceIndex >= len(slots) {
		return fmt.Errorf("%w: no output slot %d on %q", ErrTargetNodeMissing, ref.SourceIndex, ref.Source)
	}
	targets := slots[ref.SourceIndex].Targets
	filtered := targets[:0]
	removed := false
	for _, t := range targets {
		if t.Node == ref.Target && t.Index == ref.TargetIndex {
			removed = true
			continue
		}
		filtered = append(filtered, t)
	}
	if !removed {
		return fmt.Errorf("%w: connection %s -> %s not found", ErrConnectionTargetMissing, ref.Source, ref.Target)
	}
	slots[ref.SourceIndex].Targets = filtered
	group[connType] = slots
	wf.Connections[ref.Source] = group
	return nil
}

// opRewireConnection is an atomic remove+add: a failure in either half
// leaves the prior state untouched.
func opRewireConnection(wf *workflow.Workflow, op DiffOperation) error {
	before := wf.Clone()
	if err := opRemoveConnection(wf, *op.Connection); err != nil {
		return err
	}
	if err := opAddConnection(wf, *op.NewTarget); err != nil {
		*wf = *before
		return err
	}
	return nil
}

// opCleanStaleConnections removes every connection whose endpoints are
// missing or disabled.
func opCleanStaleConnections(wf *workflow.Workflow) error {
	exists := func(name string) bool {
		n := wf.NodeByName(name)
		return n != nil && !n.Disabled
	}
	for src, group := range wf.Connections {
		if !exists(src) {
			delete(wf.Connections, src)
			continue
		}
		for connType, slots := range group {
			for i, slot := range slots {
				filtered := slot.Targets[:0]
				for _, t := range slot.Targets {
					if exists(t.Node) {
						filtered = append(filtered, t)
					}
				}
				slots[i].Targets = filtered
			}
			group[connType] = slots
		}
		wf.Connections[src] = group
	}
	return nil
}

func opReplaceConnections(wf *workflow.Workflow, op DiffOperation) error {
	n := wf.NodeByName(op.NodeName)
	if n == nil {
		return fmt.Errorf("%w: %q", ErrTargetNodeMissing, op.NodeName)
	}
	var group workflow.ConnectionGroup
	if err := json.Unmarshal(op.Connections, &group); err != nil {
		return fmt.Errorf("diff: decode connections: %w", err)
	}
	for _, slots := range group {
		for _, slot := range slots {
			for _, t := range slot.Targets {
				if wf.NodeByName(t.Node) == nil {
					return fmt.Errorf("%w: %q", ErrConnectionTargetMissing, t.Node)
				}
			}
		}
	}
	if wf.Connections == nil {
		wf.Connections = map[string]workflow.ConnectionGroup{}
	}
	wf.Connections[op.NodeName] = group
	return nil
}

func opUpdateSettings(wf *workflow.Workflow, op DiffOperation) error {
	var patch map[string]workflow.Value
	if err := json.Unmarshal(op.Settings, &patch); err != nil {
		return fmt.Errorf("diff: decode settings patch: %w", err)
	}
	if wf.Settings == nil {
		wf.Settings = map[string]workflow.Value{}
	}
	for k, v := range patch {
		if existing, ok := wf.Settings[k]; ok {
			wf.Settings[k] = workflow.MergeValues(existing, v)
		} else {
			wf.Settings[k] = v
		}
	}
	return nil
}

func opAddTag(wf *workflow.Workflow, tag string) error {
	for _, t := range wf.Tags {
		if t == tag {
			return nil
		}
	}
	wf.Tags = append(wf.Tags, tag)
	return nil
}

func opRemoveTag(wf *workflow.Workflow, tag string) error {
	filtered := wf.Tags[:0]
	for _, t := range wf.Tags {
		if t != tag {
			filtered = append(filtered, t)
		}
	}
	wf.Tags = filtered
	return nil
}
