package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stall is a vendor inside one event. CommissionRate is the fraction of each
// sale retained by the organizer; it is fixed at creation and snapshotted onto
// every Transaction, so editing it never rewrites settled history.
type Stall struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID        uuid.UUID       `gorm:"column:event_id;type:uuid;not null;uniqueIndex:uq_stalls_event_phone"`
	Name           string          `gorm:"column:name;not null"`
	OwnerPhone     string          `gorm:"column:owner_phone;not null;uniqueIndex:uq_stalls_event_phone"`
	CommissionRate decimal.Decimal `gorm:"column:commission_rate;type:numeric(6,4);not null"`
	PasswordHash   string          `gorm:"column:password_hash;not null"`
	TempPassword   bool            `gorm:"column:temp_password;not null;default:true"`
	Description    *string         `gorm:"column:description"`
	LogoURL        *string         `gorm:"column:logo_url"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
