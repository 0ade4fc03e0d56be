package diff

import "errors"

// Diff error codes from the closed taxonomy.
const (
	CodeInvalidOperationType    = "INVALID_OPERATION_TYPE"
	CodeTargetNodeMissing       = "TARGET_NODE_MISSING"
	CodeNameCollision           = "NAME_COLLISION"
	CodeConnectionTargetMissing = "CONNECTION_TARGET_MISSING"
)

var (
	ErrInvalidOperationType    = errors.New(CodeInvalidOperationType)
	ErrTargetNodeMissing       = errors.New(CodeTargetNodeMissing)
	ErrNameCollision           = errors.New(CodeNameCollision)
	ErrConnectionTargetMissing = errors.New(CodeConnectionTargetMissing)
)
