package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/pkg/config"
	"github.com/festpay/festpay-backend/pkg/db"
	"github.com/festpay/festpay-backend/pkg/db/models"
	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
	"github.com/festpay/festpay-backend/pkg/security"
)

const (
	stallPhoneConstraint  = "uq_stalls_event_phone"
	cashierNameConstraint = "uq_cashiers_event_name"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the organizer's provisioning surface: events, their stalls and
// cashiers. Stall and cashier credentials are generated here and surfaced
// exactly once in the creation response.
type Service interface {
	CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error)
	UpdateEvent(ctx context.Context, input UpdateEventInput) (*models.Event, error)
	GetEvent(ctx context.Context, organizerID, eventID uuid.UUID) (*models.Event, error)
	ListEvents(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error)

	CreateStall(ctx context.Context, input CreateStallInput) (*ProvisionedStall, error)
	UpdateStall(ctx context.Context, input UpdateStallInput) (*models.Stall, error)
	ListStalls(ctx context.Context, organizerID, eventID uuid.UUID) ([]models.Stall, error)
	DeleteStall(ctx context.Context, organizerID, eventID, stallID uuid.UUID) error
	ResetStallPassword(ctx context.Context, organizerID, eventID, stallID uuid.UUID) (string, error)

	CreateCashier(ctx context.Context, input CreateCashierInput) (*ProvisionedCashier, error)
	ListCashiers(ctx context.Context, organizerID, eventID uuid.UUID) ([]models.Cashier, error)
	DeleteCashier(ctx context.Context, organizerID, eventID, cashierID uuid.UUID) error
	ResetCashierPassword(ctx context.Context, organizerID, eventID, cashierID uuid.UUID) (string, error)
}

type CreateEventInput struct {
	OrganizerID uuid.UUID
	Name        string
	Currency    string
	LogoURL     *string
	BannerURL   *string
	ThemeColor  *string
}

// UpdateEventInput carries partial edits; nil fields are left untouched.
type UpdateEventInput struct {
	OrganizerID uuid.UUID
	EventID     uuid.UUID
	Name        *string
	LogoURL     *string
	BannerURL   *string
	ThemeColor  *string
	Active      *bool
}

type CreateStallInput struct {
	OrganizerID    uuid.UUID
	EventID        uuid.UUID
	Name           string
	OwnerPhone     string
	CommissionRate decimal.Decimal
	Description    *string
}

type UpdateStallInput struct {
	OrganizerID uuid.UUID
	EventID     uuid.UUID
	StallID     uuid.UUID
	Name        *string
	Description *string
}

type CreateCashierInput struct {
	OrganizerID uuid.UUID
	EventID     uuid.UUID
	Name        string
}

// ProvisionedStall pairs the created stall with its one-time password.
type ProvisionedStall struct {
	Stall        *models.Stall
	TempPassword string
}

// ProvisionedCashier pairs the created cashier with its one-time password.
type ProvisionedCashier struct {
	Cashier      *models.Cashier
	TempPassword string
}

type service struct {
	tx          txRunner
	repo        Repository
	passwordCfg config.PasswordConfig
}

func NewService(tx txRunner, repo Repository, passwordCfg config.PasswordConfig) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("event repository required")
	}
	return &service{tx: tx, repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event name is required")
	}
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency must be a 3-letter code")
	}

	event := &models.Event{
		OrganizerID: input.OrganizerID,
		Name:        input.Name,
		Currency:    currency,
		LogoURL:     input.LogoURL,
		BannerURL:   input.BannerURL,
		ThemeColor:  input.ThemeColor,
		Active:      true,
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) UpdateEvent(ctx context.Context, input UpdateEventInput) (*models.Event, error) {
	event, err := s.GetEvent(ctx, input.OrganizerID, input.EventID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "event name is required")
		}
		event.Name = *input.Name
	}
	if input.LogoURL != nil {
		event.LogoURL = input.LogoURL
	}
	if input.BannerURL != nil {
		event.BannerURL = input.BannerURL
	}
	if input.ThemeColor != nil {
		event.ThemeColor = input.ThemeColor
	}
	if input.Active != nil {
		event.Active = *input.Active
	}

	if err := s.repo.SaveEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// GetEvent enforces ownership: an event is visible only to its organizer.
func (s *service) GetEvent(ctx context.Context, organizerID, eventID uuid.UUID) (*models.Event, error) {
	event, err := s.repo.FindEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
	}
	return event, nil
}

func (s *service) ListEvents(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error) {
	return s.repo.ListEventsByOrganizer(ctx, organizerID)
}

func (s *service) CreateStall(ctx context.Context, input CreateStallInput) (*ProvisionedStall, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stall name is required")
	}
	if input.OwnerPhone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner phone is required")
	}
	if input.CommissionRate.IsNegative() || input.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be between 0 and 1")
	}
	if _, err := s.GetEvent(ctx, input.OrganizerID, input.EventID); err != nil {
		return nil, err
	}

	password, err := security.GenerateTempPassword(s.passwordCfg.TempPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("generate stall password: %w", err)
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, fmt.Errorf("hash stall password: %w", err)
	}

	stall := &models.Stall{
		EventID:        input.EventID,
		Name:           input.Name,
		OwnerPhone:     input.OwnerPhone,
		CommissionRate: input.CommissionRate,
		PasswordHash:   hash,
		TempPassword:   true,
		Description:    input.Description,
	}
	if err := s.repo.CreateStall(ctx, stall); err != nil {
		if db.IsUniqueViolation(err, stallPhoneConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a stall with this phone already exists for the event")
		}
		return nil, err
	}
	return &ProvisionedStall{Stall: stall, TempPassword: password}, nil
}

func (s *service) UpdateStall(ctx context.Context, input UpdateStallInput) (*models.Stall, error) {
	if _, err := s.GetEvent(ctx, input.OrganizerID, input.EventID); err != nil {
		return nil, err
	}

	stall, err := s.repo.FindStall(ctx, input.EventID, input.StallID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stall not found")
		}
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stall name is required")
		}
		stall.Name = *input.Name
	}
	if input.Description != nil {
		stall.Description = input.Description
	}

	if err := s.repo.SaveStall(ctx, stall); err != nil {
		return nil, err
	}
	return stall, nil
}

func (s *service) ListStalls(ctx context.Context, organizerID, eventID uuid.UUID) ([]models.Stall, error) {
	if _, err := s.GetEvent(ctx, organizerID, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListStalls(ctx, eventID)
}

// DeleteStall removes a stall only while it has no orders. A stall with
// sales history is permanent record and must stay.
func (s *service) DeleteStall(ctx context.Context, organizerID, eventID, stallID uuid.UUID) error {
	if _, err := s.GetEvent(ctx, organizerID, eventID); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		stall, err := repo.FindStall(ctx, eventID, stallID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "stall not found")
			}
			return err
		}

		orders, err := repo.CountStallOrders(ctx, stall.ID)
		if err != nil {
			return err
		}
		if orders > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "stall has order history and cannot be deleted")
		}
		return repo.DeleteStall(ctx, stall)
	})
}

func (s *service) ResetStallPassword(ctx context.Context, organizerID, eventID, stallID uuid.UUID) (string, error) {
	if _, err := s.GetEvent(ctx, organizerID, eventID); err != nil {
		return "", err
	}

	stall, err := s.repo.FindStall(ctx, eventID, stallID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "stall not found")
		}
		return "", err
	}

	password, err := security.GenerateTempPassword(s.passwordCfg.TempPasswordLength)
	if err != nil {
		return "", fmt.Errorf("generate stall password: %w", err)
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return "", fmt.Errorf("hash stall password: %w", err)
	}

	stall.PasswordHash = hash
	stall.TempPassword = true
	if err := s.repo.SaveStall(ctx, stall); err != nil {
		return "", err
	}
	return password, nil
}

func (s *service) CreateCashier(ctx context.Context, input CreateCashierInput) (*ProvisionedCashier, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cashier name is required")
	}
	if _, err := s.GetEvent(ctx, input.OrganizerID, input.EventID); err != nil {
		return nil, err
	}

	password, err := security.GenerateTempPassword(s.passwordCfg.TempPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("generate cashier password: %w", err)
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, fmt.Errorf("hash cashier password: %w", err)
	}

	cashier := &models.Cashier{
		EventID:      input.EventID,
		Name:         input.Name,
		PasswordHash: hash,
	}
	if err := s.repo.CreateCashier(ctx, cashier); err != nil {
		if db.IsUniqueViolation(err, cashierNameConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a cashier with this name already exists for the event")
		}
		return nil, err
	}
	return &ProvisionedCashier{Cashier: cashier, TempPassword: password}, nil
}

func (s *service) ListCashiers(ctx context.Context, organizerID, eventID uuid.UUID) ([]models.Cashier, error) {
	if _, err := s.GetEvent(ctx, organizerID, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListCashiers(ctx, eventID)
}

// DeleteCashier removes a cashier only while they have no ledger entries.
func (s *service) DeleteCashier(ctx context.Context, organizerID, eventID, cashierID uuid.UUID) error {
	if _, err := s.GetEvent(ctx, organizerID, eventID); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cashier, err := repo.FindCashier(ctx, eventID, cashierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cashier not found")
			}
			return err
		}

		entries, err := repo.CountCashierLedgerEntries(ctx, cashier.ID)
		if err != nil {
			return err
		}
		if entries > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cashier has ledger history and cannot be deleted")
		}
		return repo.DeleteCashier(ctx, cashier)
	})
}

func (s *service) ResetCashierPassword(ctx context.Context, organizerID, eventID, cashierID uuid.UUID) (string, error) {
	if _, err := s.GetEvent(ctx, organizerID, eventID); err != nil {
		return "", err
	}

	cashier, err := s.repo.FindCashier(ctx, eventID, cashierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "cashier not found")
		}
		return "", err
	}

	password, err := security.GenerateTempPassword(s.passwordCfg.TempPasswordLength)
	if err != nil {
		return "", fmt.Errorf("generate cashier password: %w", err)
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return "", fmt.Errorf("hash cashier password: %w", err)
	}

	cashier.PasswordHash = hash
	if err := s.repo.SaveCashier(ctx, cashier); err != nil {
		return "", err
	}
	return password, nil
}
