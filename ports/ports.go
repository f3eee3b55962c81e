// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Audit Ports
// -----------------------------------------------------------------------------

// ContractViolation is one audited response-contract failure. Violations are
// observability records only; the response the client received was already
// delivered unchanged when the record is written.
type ContractViolation struct {
	ID          string
	RequestID   string
	Method      string
	Path        string
	Template    string
	Module      string
	OperationID string
	Status      int

	// Kind distinguishes schema failures from statuses the document never
	// declared ("schema" or "unspecified_status").
	Kind string

	// Detail is the period-joined violation message, empty for
	// unspecified-status records.
	Detail string

	OccurredAt time.Time
}

// Violation kinds stored by ViolationStore.
const (
	ViolationKindSchema            = "schema"
	ViolationKindUnspecifiedStatus = "unspecified_status"
)

// ViolationStore persists contract violations for later inspection.
type ViolationStore interface {
	// Record stores one violation.
	Record(ctx context.Context, v ContractViolation) error

	// List returns the most recent violations, newest first.
	List(ctx context.Context, limit int) ([]ContractViolation, error)

	// CountSince returns the number of violations recorded at or after t.
	CountSince(ctx context.Context, t time.Time) (int64, error)

	// Purge removes violations older than t and reports how many were removed.
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// -----------------------------------------------------------------------------
// Metrics Ports
// -----------------------------------------------------------------------------

// Metrics records request-level measurements. Implementations must be safe
// for concurrent use.
type Metrics interface {
	// RecordRequest observes one completed request.
	RecordRequest(method, template string, status int, duration time.Duration)

	// RecordViolation counts a response-contract violation.
	RecordViolation(method, template string, status int)

	// RecordUnspecifiedStatus counts a response status the document does not
	// declare.
	RecordUnspecifiedStatus(method, template string, status int)

	// RecordSpecReload counts one document reload attempt.
	RecordSpecReload(ok bool)
}
