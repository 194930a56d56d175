package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is the immutable settlement record derived 1:1 from an order.
// OrganizerShareCents + StallShareCents equals TotalCents exactly; the stall
// share is derived by subtraction so rounding never leaks a cent.
type Transaction struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex:uq_transactions_order"`
	TotalCents          int64           `gorm:"column:total_cents;not null"`
	CommissionRate      decimal.Decimal `gorm:"column:commission_rate;type:numeric(6,4);not null"`
	OrganizerShareCents int64           `gorm:"column:organizer_share_cents;not null"`
	StallShareCents     int64           `gorm:"column:stall_share_cents;not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
}
