package stalls

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/pkg/config"
	"github.com/festpay/festpay-backend/pkg/db/models"
	"github.com/festpay/festpay-backend/pkg/enums"
	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
	"github.com/festpay/festpay-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers the stall-facing surface: menu management and the stall's
// own credential. Stall provisioning lives with the organizer service.
type Service interface {
	Get(ctx context.Context, stallID uuid.UUID) (*models.Stall, error)
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (*models.Stall, error)
	ChangePassword(ctx context.Context, stallID uuid.UUID, current, next string) error

	CreateMenuItem(ctx context.Context, input MenuItemInput) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, stallID, itemID uuid.UUID, input MenuItemUpdate) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, stallID, itemID uuid.UUID) error
	ListMenu(ctx context.Context, stallID uuid.UUID, availableOnly bool) ([]models.MenuItem, error)
}

// MenuItemInput creates one sellable item on a stall's menu.
type MenuItemInput struct {
	StallID    uuid.UUID
	Name       string
	PriceCents int64
	Dietary    enums.DietaryType
}

// MenuItemUpdate carries partial edits; nil fields are left untouched.
type MenuItemUpdate struct {
	Name       *string
	PriceCents *int64
	Available  *bool
	Dietary    *enums.DietaryType
}

// UpdateProfileInput carries stall self-service profile edits.
type UpdateProfileInput struct {
	StallID     uuid.UUID
	Description *string
	LogoURL     *string
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
		return nil, fmt.Errorf("stall repository required")
	}
	return &service{tx: tx, repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) Get(ctx context.Context, stallID uuid.UUID) (*models.Stall, error) {
	stall, err := s.repo.FindByID(ctx, stallID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stall not found")
		}
		return nil, err
	}
	return stall, nil
}

func (s *service) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*models.Stall, error) {
	stall, err := s.Get(ctx, input.StallID)
	if err != nil {
		return nil, err
	}
	if input.Description != nil {
		stall.Description = input.Description
	}
	if input.LogoURL != nil {
		stall.LogoURL = input.LogoURL
	}
	if err := s.repo.Save(ctx, stall); err != nil {
		return nil, err
	}
	return stall, nil
}

// ChangePassword replaces the stall credential and clears the temporary
// password flag set at provisioning time.
func (s *service) ChangePassword(ctx context.Context, stallID uuid.UUID, current, next string) error {
	if len(next) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	stall, err := s.Get(ctx, stallID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(current, stall.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	hash, err := security.HashPassword(next, s.passwordCfg)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	stall.PasswordHash = hash
	stall.TempPassword = false
	return s.repo.Save(ctx, stall)
}

func (s *service) CreateMenuItem(ctx context.Context, input MenuItemInput) (*models.MenuItem, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	dietary := input.Dietary
	if dietary == "" {
		dietary = enums.DietaryTypeNone
	}
	if !dietary.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown dietary type")
	}

	item := &models.MenuItem{
		StallID:    input.StallID,
		Name:       input.Name,
		PriceCents: input.PriceCents,
		Available:  true,
		Dietary:    dietary,
	}
	if err := s.repo.CreateMenuItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) UpdateMenuItem(ctx context.Context, stallID, itemID uuid.UUID, input MenuItemUpdate) (*models.MenuItem, error) {
	item, err := s.repo.FindMenuItem(ctx, stallID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
		}
		item.Name = *input.Name
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		item.PriceCents = *input.PriceCents
	}
	if input.Available != nil {
		item.Available = *input.Available
	}
	if input.Dietary != nil {
		if !input.Dietary.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown dietary type")
		}
		item.Dietary = *input.Dietary
	}

	if err := s.repo.SaveMenuItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteMenuItem removes an item only when no sold order line references it.
// Referenced items must be disabled instead, so sales history stays intact.
func (s *service) DeleteMenuItem(ctx context.Context, stallID, itemID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindMenuItem(ctx, stallID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
			}
			return err
		}

		refs, err := repo.CountOrderItemRefs(ctx, item.ID)
		if err != nil {
			return err
		}
		if refs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "menu item has sales history, disable it instead")
		}
		return repo.DeleteMenuItem(ctx, item)
	})
}

func (s *service) ListMenu(ctx context.Context, stallID uuid.UUID, availableOnly bool) ([]models.MenuItem, error) {
	return s.repo.ListMenu(ctx, stallID, availableOnly)
}
