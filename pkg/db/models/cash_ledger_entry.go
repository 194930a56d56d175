package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/festpay/festpay-backend/pkg/enums"
)

// CashLedgerEntry records an immutable cash movement against a wallet,
// attributed to the cashier who handled it. Entries are append-only; the sum
// of TOPUP minus REFUND amounts, combined with purchase debits, must always
// reconcile to the wallet balance.
type CashLedgerEntry struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID    uuid.UUID             `gorm:"column:wallet_id;type:uuid;not null"`
	CashierID   uuid.UUID             `gorm:"column:cashier_id;type:uuid;not null"`
	Type        enums.LedgerEntryType `gorm:"column:type;type:ledger_entry_type;not null"`
	AmountCents int64                 `gorm:"column:amount_cents;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
