package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/festpay/festpay-backend/pkg/enums"
)

// Wallet holds one visitor's prepaid balance for one event, keyed by the
// (event, phone) pair. BalanceCents never goes negative; every mutation runs
// under a row lock held across the read-modify-write span. Wallets are kept
// after a full refund (status ENDED) for audit.
type Wallet struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID      uuid.UUID          `gorm:"column:event_id;type:uuid;not null;uniqueIndex:uq_wallets_event_phone"`
	VisitorPhone string             `gorm:"column:visitor_phone;not null;uniqueIndex:uq_wallets_event_phone"`
	VisitorName  *string            `gorm:"column:visitor_name"`
	MembershipID *string            `gorm:"column:membership_id"`
	BalanceCents int64              `gorm:"column:balance_cents;not null;default:0"`
	Status       enums.WalletStatus `gorm:"column:status;type:wallet_status;not null;default:'ACTIVE'"`
	PinHash      string             `gorm:"column:pin_hash;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
