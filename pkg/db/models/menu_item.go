package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/festpay/festpay-backend/pkg/enums"
)

// MenuItem is a stall-scoped sellable item. Items referenced by historical
// order items are never hard-deleted, only soft-disabled via Available.
type MenuItem struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StallID    uuid.UUID         `gorm:"column:stall_id;type:uuid;not null"`
	Name       string            `gorm:"column:name;not null"`
	PriceCents int64             `gorm:"column:price_cents;not null"`
	Available  bool              `gorm:"column:available;not null;default:true"`
	Dietary    enums.DietaryType `gorm:"column:dietary;type:dietary_type;not null;default:'none'"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
