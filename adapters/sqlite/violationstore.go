package sqlite

import (
	"context"
	"time"

	"github.com/specgate/specgate/ports"
)

// ViolationStore implements ports.ViolationStore using SQLite.
type ViolationStore struct {
	db *DB
}

// NewViolationStore creates a new SQLite violation store.
func NewViolationStore(db *DB) *ViolationStore {
	return &ViolationStore{db: db}
}

// Record stores one violation.
func (s *ViolationStore) Record(ctx context.Context, v ports.ContractViolation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contract_violations
			(id, request_id, method, path, template, module, operation_id, status, kind, detail, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ID, v.RequestID, v.Method, v.Path, v.Template, v.Module, v.OperationID,
		v.Status, v.Kind, v.Detail, v.OccurredAt.UTC())
	return err
}

// List returns the most recent violations, newest first.
func (s *ViolationStore) List(ctx context.Context, limit int) ([]ports.ContractViolation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, method, path, template, module, operation_id, status, kind, detail, occurred_at
		FROM contract_violations
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.ContractViolation
	for rows.Next() {
		var v ports.ContractViolation
		if err := rows.Scan(&v.ID, &v.RequestID, &v.Method, &v.Path, &v.Template,
			&v.Module, &v.OperationID, &v.Status, &v.Kind, &v.Detail, &v.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CountSince returns the number of violations recorded at or after t.
func (s *ViolationStore) CountSince(ctx context.Context, t time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM contract_violations WHERE occurred_at >= ?
	`, t.UTC()).Scan(&n)
	return n, err
}

// Purge removes violations older than t.
func (s *ViolationStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM contract_violations WHERE occurred_at < ?
	`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Ensure interface compliance.
var _ ports.ViolationStore = (*ViolationStore)(nil)
