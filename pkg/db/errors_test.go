package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolationPostgres(t *testing.T) {
	violation := &pgconn.PgError{Code: pgUniqueViolationCode, ConstraintName: "uq_wallets_event_phone"}

	if !IsUniqueViolation(violation, "") {
		t.Error("unique violation without a constraint filter should match")
	}
	if !IsUniqueViolation(violation, "uq_wallets_event_phone") {
		t.Error("unique violation should match its own constraint")
	}
	if IsUniqueViolation(violation, "uq_stalls_event_phone") {
		t.Error("unique violation must not match a different constraint")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Error("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(fmt.Errorf("wrap: %w", violation), "uq_wallets_event_phone") != true {
		t.Error("wrapped unique violation should still match")
	}
}

func TestIsUniqueViolationFallbackRequiresNamedConstraint(t *testing.T) {
	other := errors.New(`duplicate key value violates unique constraint "uq_stalls_event_phone"`)

	if IsUniqueViolation(other, "uq_wallets_event_phone") {
		t.Error("a violation of another constraint must not match the requested one")
	}
	if !IsUniqueViolation(other, "uq_stalls_event_phone") {
		t.Error("fallback should match the named constraint in the message")
	}
	if !IsUniqueViolation(other, "") {
		t.Error("fallback without a constraint filter should match generic unique text")
	}
	if IsUniqueViolation(errors.New("connection refused"), "") {
		t.Error("unrelated errors are not unique violations")
	}
	if IsUniqueViolation(nil, "uq_wallets_event_phone") {
		t.Error("nil error is never a violation")
	}
}
