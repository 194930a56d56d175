package events

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/pkg/db/models"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateEvent(ctx context.Context, event *models.Event) error
	FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	SaveEvent(ctx context.Context, event *models.Event) error
	ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error)

	CreateStall(ctx context.Context, stall *models.Stall) error
	FindStall(ctx context.Context, eventID, stallID uuid.UUID) (*models.Stall, error)
	SaveStall(ctx context.Context, stall *models.Stall) error
	ListStalls(ctx context.Context, eventID uuid.UUID) ([]models.Stall, error)
	CountStallOrders(ctx context.Context, stallID uuid.UUID) (int64, error)
	DeleteStall(ctx context.Context, stall *models.Stall) error

	CreateCashier(ctx context.Context, cashier *models.Cashier) error
	FindCashier(ctx context.Context, eventID, cashierID uuid.UUID) (*models.Cashier, error)
	SaveCashier(ctx context.Context, cashier *models.Cashier) error
	ListCashiers(ctx context.Context, eventID uuid.UUID) ([]models.Cashier, error)
	CountCashierLedgerEntries(ctx context.Context, cashierID uuid.UUID) (int64, error)
	DeleteCashier(ctx context.Context, cashier *models.Cashier) error
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

func (r *repository) CreateEvent(ctx context.Context, event *models.Event) error {
	return r.conn.WithContext(ctx).Create(event).Error
}

func (r *repository) FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.conn.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) SaveEvent(ctx context.Context, event *models.Event) error {
	return r.conn.WithContext(ctx).Save(event).Error
}

func (r *repository) ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error) {
	var events []models.Event
	err := r.conn.WithContext(ctx).
		Where("organizer_id = ?", organizerID).
		Order("created_at DESC").
		Find(&events).Error
	return events, err
}

func (r *repository) CreateStall(ctx context.Context, stall *models.Stall) error {
	return r.conn.WithContext(ctx).Create(stall).Error
}

func (r *repository) FindStall(ctx context.Context, eventID, stallID uuid.UUID) (*models.Stall, error) {
	var stall models.Stall
	err := r.conn.WithContext(ctx).
		First(&stall, "id = ? AND event_id = ?", stallID, eventID).Error
	if err != nil {
		return nil, err
	}
	return &stall, nil
}

func (r *repository) SaveStall(ctx context.Context, stall *models.Stall) error {
	return r.conn.WithContext(ctx).Save(stall).Error
}

func (r *repository) ListStalls(ctx context.Context, eventID uuid.UUID) ([]models.Stall, error) {
	var stalls []models.Stall
	err := r.conn.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("name ASC").
		Find(&stalls).Error
	return stalls, err
}

func (r *repository) CountStallOrders(ctx context.Context, stallID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.Order{}).
		Where("stall_id = ?", stallID).
		Count(&count).Error
	return count, err
}

func (r *repository) DeleteStall(ctx context.Context, stall *models.Stall) error {
	return r.conn.WithContext(ctx).Delete(stall).Error
}

func (r *repository) CreateCashier(ctx context.Context, cashier *models.Cashier) error {
	return r.conn.WithContext(ctx).Create(cashier).Error
}

func (r *repository) FindCashier(ctx context.Context, eventID, cashierID uuid.UUID) (*models.Cashier, error) {
	var cashier models.Cashier
	err := r.conn.WithContext(ctx).
		First(&cashier, "id = ? AND event_id = ?", cashierID, eventID).Error
	if err != nil {
		return nil, err
	}
	return &cashier, nil
}

func (r *repository) SaveCashier(ctx context.Context, cashier *models.Cashier) error {
	return r.conn.WithContext(ctx).Save(cashier).Error
}

func (r *repository) ListCashiers(ctx context.Context, eventID uuid.UUID) ([]models.Cashier, error) {
	var cashiers []models.Cashier
	err := r.conn.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("name ASC").
		Find(&cashiers).Error
	return cashiers, err
}

func (r *repository) CountCashierLedgerEntries(ctx context.Context, cashierID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.CashLedgerEntry{}).
		Where("cashier_id = ?", cashierID).
		Count(&count).Error
	return count, err
}

func (r *repository) DeleteCashier(ctx context.Context, cashier *models.Cashier) error {
	return r.conn.WithContext(ctx).Delete(cashier).Error
}
