package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem captures the name/price snapshot of each line at order time, so
// later menu edits never change what was sold.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	MenuItemID     *uuid.UUID `gorm:"column:menu_item_id;type:uuid"`
	Name           string     `gorm:"column:name;not null"`
	UnitPriceCents int64      `gorm:"column:unit_price_cents;not null"`
	Qty            int        `gorm:"column:qty;not null"`
	TotalCents     int64      `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
