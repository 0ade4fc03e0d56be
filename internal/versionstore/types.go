// Package versionstore implements the Version Store (C11): a local
// durable store of workflow snapshots keyed by (workflowId, versionNumber),
// supporting list, get, compare, prune, delete, stats, and crash-safe
// restore.
package versionstore

import "github.com/n8nctl/n8nctl/internal/workflow"

// Trigger is the closed set of reasons a version snapshot was taken.
type Trigger string

const (
	TriggerFullUpdate    Trigger = "full_update"
	TriggerPartialUpdate Trigger = "partial_update"
	TriggerAutofix       Trigger = "autofix"
	TriggerManual        Trigger = "manual"
)

// Record is a VersionRecord: one durable snapshot of a workflow at a
// point in time. VersionNumber is strictly increasing per WorkflowID
// (strictly increasing per workflow).
type Record struct {
	ID            string             `json:"id"`
	WorkflowID    string             `json:"workflowId"`
	VersionNumber int                `json:"versionNumber"`
	Trigger       Trigger            `json:"trigger"`
	CreatedAt     string             `json:"createdAt"`
	WorkflowName  string             `json:"workflowName"`
	Snapshot      *workflow.Workflow `json:"snapshot"`
	FixTypes      []string           `json:"fixTypes,omitempty"`
	Metadata      map[string]string  `json:"metadata,omitempty"`
}

// CompareResult is the output of Compare.
type CompareResult struct {
	AddedNodes        []string        `json:"addedNodes"`
	RemovedNodes      []string        `json:"removedNodes"`
	ModifiedNodes     []string        `json:"modifiedNodes"`
	ConnectionChanges int             `json:"connectionChanges"`
	SettingChanges    map[string]bool `json:"settingChanges"`
}

// WorkflowStats summarizes one workflow's footprint in Stats.
type WorkflowStats struct {
	WorkflowID   string `json:"workflowId"`
	VersionCount int    `json:"versionCount"`
	ApproxSize   int64  `json:"approxSize"`
}

// Stats is the output of Stats.
type Stats struct {
	TotalVersions int             `json:"totalVersions"`
	TotalSize     int64           `json:"totalSize"`
	PerWorkflow   []WorkflowStats `json:"perWorkflow"`
}

// RestoreResult is the outcome of Restore.
type RestoreResult struct {
	PreRestoreBackup *Record            `json:"preRestoreBackup"`
	RestoredVersion  *Record            `json:"restoredVersion"`
	Workflow         *workflow.Workflow `json:"workflow"`
}
