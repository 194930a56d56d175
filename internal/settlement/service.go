package settlement

import (
	"context"
	"fmt"

	"github.com/festpay/festpay-backend/pkg/db/models"
	"github.com/festpay/festpay-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service converts a purchase into an immutable revenue split record.
type Service interface {
	Settle(ctx context.Context, tx *gorm.DB, order *models.Order, rate decimal.Decimal) (*models.Transaction, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Transaction, error)
}

type service struct {
	db      *gorm.DB
	metrics *metrics.PlatformMetrics
}

// NewService wires the settlement engine.
func NewService(db *gorm.DB, m *metrics.PlatformMetrics) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &service{db: db, metrics: m}, nil
}

// Settle computes the organizer/stall split for the order and persists the
// transaction inside the caller's database transaction. The rate is the
// stall's commission rate snapshotted at sale time; later rate edits never
// touch rows written here.
func (s *service) Settle(ctx context.Context, tx *gorm.DB, order *models.Order, rate decimal.Decimal) (*models.Transaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("settlement requires an open transaction")
	}
	if order == nil || order.ID == uuid.Nil {
		return nil, fmt.Errorf("order is required")
	}

	organizerShare, stallShare, err := Split(order.TotalCents, rate)
	if err != nil {
		return nil, err
	}

	record := &models.Transaction{
		OrderID:             order.ID,
		TotalCents:          order.TotalCents,
		CommissionRate:      rate,
		OrganizerShareCents: organizerShare,
		StallShareCents:     stallShare,
	}

	if err := tx.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	s.metrics.IncSettled()
	return record, nil
}

func (s *service) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Transaction, error) {
	var record models.Transaction
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}
