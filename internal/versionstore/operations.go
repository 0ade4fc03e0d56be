package versionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mohae/deepcopy"
	"github.com/n8nctl/n8nctl/internal/workflow"
)

// ErrNotFound is returned when a version id or workflow has no record.
var ErrNotFound = errors.New("versionstore: not found")

// CreateBackup snapshots wf under the next version number for workflowID
// and persists it, serializing writers per workflowId.
// Strictly increasing version numbers per workflow is
// enforced by computing the next number inside the same locked section
// as the insert.
func (s *Store) CreateBackup(
	ctx context.Context,
	workflowID string,
	snapshot *workflow.Workflow,
	trigger Trigger,
	metadata map[string]string,
) (Record, error) {
	var rec Record
	err := s.withWorkflowLock(ctx, workflowID, func() error {
		cloned, ok := deepcopy.Copy(snapshot).(*workflow.Workflow)
		if !ok {
			return fmt.Errorf("versionstore: snapshot deep copy returned unexpected type")
		}
		next, err := s.nextVersionNumber(ctx, workflowID)
		if err != nil {
			return err
		}
		rec = Record{
			ID:            uuid.NewString(),
			WorkflowID:    workflowID,
			VersionNumber: next,
			Trigger:       trigger,
			CreatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
			WorkflowName:  cloned.Name,
			Snapshot:      cloned,
			Metadata:      metadata,
		}
		return s.insert(ctx, rec)
	})
	return rec, err
}

func (s *Store) nextVersionNumber(ctx context.Context, workflowID string) (int, error) {
	var maxVersion sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(version_number) FROM versions WHERE workflow_id = ?", workflowID).Scan(&maxVersion)
	if err != nil {
		return 0, fmt.Errorf("versionstore: query max version: %w", err)
	}
	if !maxVersion.Valid {
		return 1, nil
	}
	return int(maxVersion.Int64) + 1, nil
}

func (s *Store) insert(ctx context.Context, rec Record) error {
	snapshotJSON, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return fmt.Errorf("versionstore: encode snapshot: %w", err)
	}
	var fixTypesJSON, metadataJSON []byte
	if rec.FixTypes != nil {
		if fixTypesJSON, err = json.Marshal(rec.FixTypes); err != nil {
			return fmt.Errorf("versionstore: encode fix types: %w", err)
		}
	}
	if rec.Metadata != nil {
		if metadataJSON, err = json.Marshal(rec.Metadata); err != nil {
			return fmt.Errorf("versionstore: encode metadata: %w", err)
		}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO versions (id, workflow_id, version_number, trigger, created_at, workflow_name, snapshot, fix_types, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.WorkflowID, rec.VersionNumber, string(rec.Trigger), rec.CreatedAt, rec.WorkflowName,
		string(snapshotJSON), nullableString(fixTypesJSON), nullableString(metadataJSON))
	if err != nil {
		return fmt.Errorf("versionstore: insert version: %w", err)
	}
	return nil
}

func nullableString(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

const selectColumns = `id, workflow_id, version_number, trigger, created_at, workflow_name, snapshot, fix_types, metadata`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var rec Record
	var triggerStr, snapshotJSON string
	var fixTypesJSON, metadataJSON sql.NullString
	if err := row.Scan(&rec.ID, &rec.WorkflowID, &rec.VersionNumber, &triggerStr, &rec.CreatedAt,
		&rec.WorkflowName, &snapshotJSON, &fixTypesJSON, &metadataJSON); err != nil {
		return Record{}, err
	}
	rec.Trigger = Trigger(triggerStr)
	var wf workflow.Workflow
	if err := json.Unmarshal([]byte(snapshotJSON), &wf); err != nil {
		return Record{}, fmt.Errorf("versionstore: decode snapshot: %w", err)
	}
	rec.Snapshot = &wf
	if fixTypesJSON.Valid {
		if err := json.Unmarshal([]byte(fixTypesJSON.String), &rec.FixTypes); err != nil {
			return Record{}, fmt.Errorf("versionstore: decode fix types: %w", err)
		}
	}
	if metadataJSON.Valid {
		if err := json.Unmarshal([]byte(metadataJSON.String), &rec.Metadata); err != nil {
			return Record{}, fmt.Errorf("versionstore: decode metadata: %w", err)
		}
	}
	return rec, nil
}

// ListVersions returns versions for workflowID, newest first, capped at
// limit (0 = unbounded).
func (s *Store) ListVersions(ctx context.Context, workflowID string, limit int) ([]Record, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM versions WHERE workflow_id = ? ORDER BY version_number DESC", selectColumns)
	args := []any{workflowID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("versionstore: list versions: %w", err)
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns a single version record by id.
func (s *Store) Get(ctx context.Context, versionID string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM versions WHERE id = ?", selectColumns), versionID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("versionstore: get version: %w", err)
	}
	return rec, nil
}

// getByNumber returns the record for workflowID at versionNumber, or the
// latest version if versionNumber is 0.
func (s *Store) getByNumber(ctx context.Context, workflowID string, versionNumber int) (Record, error) {
	var row *sql.Row
	if versionNumber > 0 {
		row = s.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT %s FROM versions WHERE workflow_id = ? AND version_number = ?", selectColumns),
			workflowID, versionNumber)
	} else {
		row = s.db.QueryRowContext(ctx,
			fmt.Sprintf(
				"SELECT %s FROM versions WHERE workflow_id = ? ORDER BY version_number DESC LIMIT 1", selectColumns),
			workflowID)
	}
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("versionstore: get version by number: %w", err)
	}
	return rec, nil
}

// DeleteVersion removes a single version record.
func (s *Store) DeleteVersion(ctx context.Context, versionID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM versions WHERE id = ?", versionID)
	if err != nil {
		return fmt.Errorf("versionstore: delete version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("versionstore: delete version rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllVersions removes every version recorded for workflowID.
func (s *Store) DeleteAllVersions(ctx context.Context, workflowID string) error {
	return s.withWorkflowLock(ctx, workflowID, func() error {
		_, err := s.db.ExecContext(ctx, "DELETE FROM versions WHERE workflow_id = ?", workflowID)
		if err != nil {
			return fmt.Errorf("versionstore: delete all versions: %w", err)
		}
		return nil
	})
}

// Compare diffs the snapshots of two version records.
func Compare(v1, v2 Record) CompareResult {
	res := CompareResult{SettingChanges: map[string]bool{}}
	before := nodeSetByName(v1.Snapshot)
	after := nodeSetByName(v2.Snapshot)
	for name, n := range after {
		old, existed := before[name]
		if !existed {
			res.AddedNodes = append(res.AddedNodes, name)
			continue
		}
		if !nodesEqual(old, n) {
			res.ModifiedNodes = append(res.ModifiedNodes, name)
		}
	}
	for name := range before {
		if _, stillExists := after[name]; !stillExists {
			res.RemovedNodes = append(res.RemovedNodes, name)
		}
	}
	sort.Strings(res.AddedNodes)
	sort.Strings(res.RemovedNodes)
	sort.Strings(res.ModifiedNodes)
	res.ConnectionChanges = countConnectionChanges(v1.Snapshot, v2.Snapshot)
	diffSettings(v1.Snapshot, v2.Snapshot, res.SettingChanges)
	return res
}

func nodeSetByName(wf *workflow.Workflow) map[string]*workflow.Node {
	out := map[string]*workflow.Node{}
	if wf == nil {
		return out
	}
	for _, n := range wf.Nodes {
		out[n.Name] = n
	}
	return out
}

func nodesEqual(a, b *workflow.Node) bool {
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return string(aj) == string(bj)
}

func countConnectionChanges(a, b *workflow.Workflow) int {
	aj, _ := json.Marshal(connectionsOf(a))
	bj, _ := json.Marshal(connectionsOf(b))
	if string(aj) == string(bj) {
		return 0
	}
	return connectionEdgeCountDiff(a, b)
}

func connectionsOf(wf *workflow.Workflow) map[string]workflow.ConnectionGroup {
	if wf == nil {
		return nil
	}
	return wf.Connections
}

// connectionEdgeCountDiff counts how many edges differ between two
// connection maps by symmetric-difference over their string forms; exact
// enough to surface "something changed" without claiming edge identity.
func connectionEdgeCountDiff(a, b *workflow.Workflow) int {
	edgesA := edgeSet(a)
	edgesB := edgeSet(b)
	changes := 0
	for e := range edgesA {
		if !edgesB[e] {
			changes++
		}
	}
	for e := range edgesB {
		if !edgesA[e] {
			changes++
		}
	}
	return changes
}

func edgeSet(wf *workflow.Workflow) map[string]bool {
	out := map[string]bool{}
	if wf == nil {
		return out
	}
	for src, group := range wf.Connections {
		for connType, slots := range group {
			for i, slot := range slots {
				for _, t := range slot.Targets {
					out[fmt.Sprintf("%s|%s|%d|%s|%d", src, connType, i, t.Node, t.Index)] = true
				}
			}
		}
	}
	return out
}

func diffSettings(a, b *workflow.Workflow, out map[string]bool) {
	aSettings := settingsOf(a)
	bSettings := settingsOf(b)
	for k, v := range bSettings {
		old, existed := aSettings[k]
		if !existed || !valueEqual(old, v) {
			out[k] = true
		}
	}
	for k := range aSettings {
		if _, ok := bSettings[k]; !ok {
			out[k] = true
		}
	}
}

func valueEqual(a, b workflow.Value) bool {
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return string(aj) == string(bj)
}

func settingsOf(wf *workflow.Workflow) map[string]workflow.Value {
	if wf == nil {
		return nil
	}
	return wf.Settings
}

// Prune keeps only the `keep` newest versions for workflowID, deleting
// the rest.
func (s *Store) Prune(ctx context.Context, workflowID string, keep int) (int, error) {
	var deleted int
	err := s.withWorkflowLock(ctx, workflowID, func() error {
		rows, err := s.db.QueryContext(ctx,
			"SELECT id FROM versions WHERE workflow_id = ? ORDER BY version_number DESC", workflowID)
		if err != nil {
			return fmt.Errorf("versionstore: prune query: %w", err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
		if keep < 0 {
			keep = 0
		}
		if len(ids) <= keep {
			return nil
		}
		toDelete := ids[keep:]
		for _, id := range toDelete {
			if _, err := s.db.ExecContext(ctx, "DELETE FROM versions WHERE id = ?", id); err != nil {
				return fmt.Errorf("versionstore: prune delete %s: %w", id, err)
			}
			deleted++
		}
		return nil
	})
	return deleted, err
}

// Stats summarizes the whole store.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT workflow_id, COUNT(*), COALESCE(SUM(LENGTH(snapshot)), 0)
		FROM versions GROUP BY workflow_id ORDER BY workflow_id`)
	if err != nil {
		return Stats{}, fmt.Errorf("versionstore: stats: %w", err)
	}
	defer rows.Close()
	var out Stats
	for rows.Next() {
		var ws WorkflowStats
		if err := rows.Scan(&ws.WorkflowID, &ws.VersionCount, &ws.ApproxSize); err != nil {
			return Stats{}, err
		}
		out.PerWorkflow = append(out.PerWorkflow, ws)
		out.TotalVersions += ws.VersionCount
		out.TotalSize += ws.ApproxSize
	}
	return out, rows.Err()
}
