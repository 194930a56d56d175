package models

import (
	"time"

	"github.com/google/uuid"
)

// Cashier handles cash top-ups and refunds for one event.
type Cashier struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID      uuid.UUID `gorm:"column:event_id;type:uuid;not null;uniqueIndex:uq_cashiers_event_name"`
	Name         string    `gorm:"column:name;not null;uniqueIndex:uq_cashiers_event_name"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
