package auth

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/pkg/db/models"
)

type Repository interface {
	CreateOrganizer(ctx context.Context, organizer *models.Organizer) error
	FindOrganizerByEmail(ctx context.Context, email string) (*models.Organizer, error)
	FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindStallByEventPhone(ctx context.Context, eventID uuid.UUID, phone string) (*models.Stall, error)
	FindCashierByEventName(ctx context.Context, eventID uuid.UUID, name string) (*models.Cashier, error)
}

type repository struct {
	conn *gorm.DB
}

func NewRepository(conn *gorm.DB) Repository {
	return &repository{conn: conn}
}

func (r *repository) CreateOrganizer(ctx context.Context, organizer *models.Organizer) error {
	return r.conn.WithContext(ctx).Create(organizer).Error
}

func (r *repository) FindOrganizerByEmail(ctx context.Context, email string) (*models.Organizer, error) {
	var organizer models.Organizer
	if err := r.conn.WithContext(ctx).First(&organizer, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &organizer, nil
}

func (r *repository) FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.conn.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) FindStallByEventPhone(ctx context.Context, eventID uuid.UUID, phone string) (*models.Stall, error) {
	var stall models.Stall
	err := r.conn.WithContext(ctx).
		First(&stall, "event_id = ? AND owner_phone = ?", eventID, phone).Error
	if err != nil {
		return nil, err
	}
	return &stall, nil
}

func (r *repository) FindCashierByEventName(ctx context.Context, eventID uuid.UUID, name string) (*models.Cashier, error) {
	var cashier models.Cashier
	err := r.conn.WithContext(ctx).
		First(&cashier, "event_id = ? AND name = ?", eventID, name).Error
	if err != nil {
		return nil, err
	}
	return &cashier, nil
}
