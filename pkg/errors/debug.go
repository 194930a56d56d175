package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Postgres failure classes the money paths can hit while holding wallet row
// locks. Deadlocks and serialization failures are safe to retry once the
// transaction has rolled back; everything else is a real fault.
const (
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
)

// ErrorDump flattens an error chain into the fields worth logging for a
// failed request. Ledger and settlement writes run multi-statement
// transactions, so the driver-level detail (violated constraint, lock
// conflicts) usually carries the diagnosis.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
	PGHint       string `json:"pg_hint,omitempty"`

	Retryable bool `json:"retryable,omitempty"`
}

// Dump walks the chain and pulls out the platform code plus any Postgres
// driver detail, whichever driver (pgx or lib/pq) raised it.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}

	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
		d.PGHint = pgxErr.Hint
		d.Retryable = isRetryableCode(pgxErr.Code)
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
		d.PGHint = pqErr.Hint
		d.Retryable = isRetryableCode(string(pqErr.Code))
		return d
	}

	return d
}

func isRetryableCode(code string) bool {
	return code == pgDeadlockDetected || code == pgSerializationFailure
}
