package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/festpay/festpay-backend/pkg/enums"
)

// Order is one checkout at a stall. WalletID is nil for cash walk-up orders.
// TotalCents always equals the sum of its items' line totals.
type Order struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID      uuid.UUID         `gorm:"column:event_id;type:uuid;not null"`
	StallID      uuid.UUID         `gorm:"column:stall_id;type:uuid;not null"`
	WalletID     *uuid.UUID        `gorm:"column:wallet_id;type:uuid"`
	CustomerName *string           `gorm:"column:customer_name"`
	PaymentType  enums.PaymentType `gorm:"column:payment_type;type:payment_type;not null"`
	Status       enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'PENDING'"`
	TotalCents   int64             `gorm:"column:total_cents;not null"`
	CompletedAt  *time.Time        `gorm:"column:completed_at"`
	Items        []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
