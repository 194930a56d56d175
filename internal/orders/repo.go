package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/pkg/db/models"
	"github.com/festpay/festpay-backend/pkg/enums"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListLiveByStall(ctx context.Context, stallID uuid.UUID) ([]models.Order, error)
	CompletePending(ctx context.Context, stallID, orderID uuid.UUID, at time.Time) (bool, error)
	FindStall(ctx context.Context, stallID uuid.UUID) (*models.Stall, error)
	FindMenuItems(ctx context.Context, stallID uuid.UUID, ids []uuid.UUID) ([]models.MenuItem, error)
}

type repository struct {
	conn *gorm.DB
}

func NewRepository(conn *gorm.DB) Repository {
	return &repository{conn: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{conn: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.conn.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.conn.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListLiveByStall(ctx context.Context, stallID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.conn.WithContext(ctx).
		Preload("Items").
		Where("stall_id = ? AND status = ?", stallID, enums.OrderStatusPending).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

// CompletePending flips a PENDING order to COMPLETED with a guarded update.
// It reports false when the order was already completed or does not belong
// to the stall, without touching the row.
func (r *repository) CompletePending(ctx context.Context, stallID, orderID uuid.UUID, at time.Time) (bool, error) {
	res := r.conn.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND stall_id = ? AND status = ?", orderID, stallID, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":       enums.OrderStatusCompleted,
			"completed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindStall(ctx context.Context, stallID uuid.UUID) (*models.Stall, error) {
	var stall models.Stall
	if err := r.conn.WithContext(ctx).First(&stall, "id = ?", stallID).Error; err != nil {
		return nil, err
	}
	return &stall, nil
}

func (r *repository) FindMenuItems(ctx context.Context, stallID uuid.UUID, ids []uuid.UUID) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.conn.WithContext(ctx).
		Where("stall_id = ? AND id IN ?", stallID, ids).
		Find(&items).Error
	return items, err
}
