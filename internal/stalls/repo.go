package stalls

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/pkg/db/models"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Stall, error)
	FindByEventPhone(ctx context.Context, eventID uuid.UUID, phone string) (*models.Stall, error)
	Save(ctx context.Context, stall *models.Stall) error

	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	FindMenuItem(ctx context.Context, stallID, itemID uuid.UUID) (*models.MenuItem, error)
	SaveMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, item *models.MenuItem) error
	ListMenu(ctx context.Context, stallID uuid.UUID, availableOnly bool) ([]models.MenuItem, error)
	CountOrderItemRefs(ctx context.Context, menuItemID uuid.UUID) (int64, error)
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

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Stall, error) {
	var stall models.Stall
	if err := r.conn.WithContext(ctx).First(&stall, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &stall, nil
}

func (r *repository) FindByEventPhone(ctx context.Context, eventID uuid.UUID, phone string) (*models.Stall, error) {
	var stall models.Stall
	err := r.conn.WithContext(ctx).
		First(&stall, "event_id = ? AND owner_phone = ?", eventID, phone).Error
	if err != nil {
		return nil, err
	}
	return &stall, nil
}

func (r *repository) Save(ctx context.Context, stall *models.Stall) error {
	return r.conn.WithContext(ctx).Save(stall).Error
}

func (r *repository) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return r.conn.WithContext(ctx).Create(item).Error
}

func (r *repository) FindMenuItem(ctx context.Context, stallID, itemID uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.conn.WithContext(ctx).
		First(&item, "id = ? AND stall_id = ?", itemID, stallID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) SaveMenuItem(ctx context.Context, item *models.MenuItem) error {
	return r.conn.WithContext(ctx).Save(item).Error
}

func (r *repository) DeleteMenuItem(ctx context.Context, item *models.MenuItem) error {
	return r.conn.WithContext(ctx).Delete(item).Error
}

func (r *repository) ListMenu(ctx context.Context, stallID uuid.UUID, availableOnly bool) ([]models.MenuItem, error) {
	query := r.conn.WithContext(ctx).Where("stall_id = ?", stallID)
	if availableOnly {
		query = query.Where("available = ?", true)
	}
	var items []models.MenuItem
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *repository) CountOrderItemRefs(ctx context.Context, menuItemID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("menu_item_id = ?", menuItemID).
		Count(&count).Error
	return count, err
}
