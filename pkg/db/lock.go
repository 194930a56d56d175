package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate appends a row-level exclusive lock to the query. Callers must hold
// the lock across the whole read-modify-write span, inside an open
// transaction. sqlite (used by repository tests) has no row locks; its
// single-writer model already serializes the span.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
