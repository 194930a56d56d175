package models

import (
	"time"

	"github.com/google/uuid"
)

// Event scopes stalls, cashiers, and wallets to one organizer-run occasion.
type Event struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizerID uuid.UUID `gorm:"column:organizer_id;type:uuid;not null"`
	Name        string    `gorm:"column:name;not null"`
	Currency    string    `gorm:"column:currency;type:text;not null;default:'USD'"`
	LogoURL     *string   `gorm:"column:logo_url"`
	BannerURL   *string   `gorm:"column:banner_url"`
	ThemeColor  *string   `gorm:"column:theme_color"`
	Active      bool      `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
