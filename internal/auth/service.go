package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/internal/wallets"
	pkgauth "github.com/festpay/festpay-backend/pkg/auth"
	"github.com/festpay/festpay-backend/pkg/config"
	"github.com/festpay/festpay-backend/pkg/db"
	"github.com/festpay/festpay-backend/pkg/db/models"
	"github.com/festpay/festpay-backend/pkg/enums"
	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
	"github.com/festpay/festpay-backend/pkg/security"
)

const organizerEmailConstraint = "uq_organizers_email"

// Service authenticates all four actor kinds and mints role-tagged tokens.
// Event-scoped logins carry the event branding snapshot inside the token so
// stall, cashier, and visitor clients can theme themselves without another
// request.
type Service interface {
	RegisterOrganizer(ctx context.Context, input RegisterOrganizerInput) (*LoginResult, error)
	LoginOrganizer(ctx context.Context, email, password string) (*LoginResult, error)
	LoginStall(ctx context.Context, eventID uuid.UUID, phone, password string) (*LoginResult, error)
	LoginCashier(ctx context.Context, eventID uuid.UUID, name, password string) (*LoginResult, error)
	LoginVisitor(ctx context.Context, eventID uuid.UUID, phone, pin string) (*LoginResult, error)
	Logout(ctx context.Context, accessID string) error
}

type RegisterOrganizerInput struct {
	Email    string
	Name     string
	Password string
}

// LoginResult carries the signed token plus role-specific context for the
// client shell. TempPassword is set for stalls still on their provisioning
// credential.
type LoginResult struct {
	Token        string
	Role         enums.ActorRole
	SubjectID    uuid.UUID
	EventID      *uuid.UUID
	Branding     *pkgauth.Branding
	TempPassword bool
}

// SessionStore is the session lifecycle surface the auth service needs.
type SessionStore interface {
	Start(ctx context.Context, accessID string) error
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	repo        Repository
	sessions    SessionStore
	walletSvc   wallets.Service
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

func NewService(
	repo Repository,
	sessions SessionStore,
	walletSvc wallets.Service,
	jwtCfg config.JWTConfig,
	passwordCfg config.PasswordConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auth repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if walletSvc == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	return &service{
		repo:        repo,
		sessions:    sessions,
		walletSvc:   walletSvc,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		now:         time.Now,
	}, nil
}

func (s *service) RegisterOrganizer(ctx context.Context, input RegisterOrganizerInput) (*LoginResult, error) {
	if input.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	organizer := &models.Organizer{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
	}
	if err := s.repo.CreateOrganizer(ctx, organizer); err != nil {
		if db.IsUniqueViolation(err, organizerEmailConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
		return nil, err
	}

	return s.issue(ctx, pkgauth.AccessTokenPayload{
		SubjectID: organizer.ID,
		Role:      enums.ActorRoleOrganizer,
	}, false)
}

func (s *service) LoginOrganizer(ctx context.Context, email, password string) (*LoginResult, error) {
	organizer, err := s.repo.FindOrganizerByEmail(ctx, email)
	if err != nil {
		return nil, invalidCredentials(err)
	}
	if err := s.checkPassword(password, organizer.PasswordHash); err != nil {
		return nil, err
	}

	return s.issue(ctx, pkgauth.AccessTokenPayload{
		SubjectID: organizer.ID,
		Role:      enums.ActorRoleOrganizer,
	}, false)
}

func (s *service) LoginStall(ctx context.Context, eventID uuid.UUID, phone, password string) (*LoginResult, error) {
	event, err := s.activeEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	stall, err := s.repo.FindStallByEventPhone(ctx, eventID, phone)
	if err != nil {
		return nil, invalidCredentials(err)
	}
	if err := s.checkPassword(password, stall.PasswordHash); err != nil {
		return nil, err
	}

	return s.issue(ctx, pkgauth.AccessTokenPayload{
		SubjectID: stall.ID,
		EventID:   &event.ID,
		Role:      enums.ActorRoleStall,
		Branding:  brandingFor(event),
	}, stall.TempPassword)
}

func (s *service) LoginCashier(ctx context.Context, eventID uuid.UUID, name, password string) (*LoginResult, error) {
	event, err := s.activeEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	cashier, err := s.repo.FindCashierByEventName(ctx, eventID, name)
	if err != nil {
		return nil, invalidCredentials(err)
	}
	if err := s.checkPassword(password, cashier.PasswordHash); err != nil {
		return nil, err
	}

	return s.issue(ctx, pkgauth.AccessTokenPayload{
		SubjectID: cashier.ID,
		EventID:   &event.ID,
		Role:      enums.ActorRoleCashier,
		Branding:  brandingFor(event),
	}, false)
}

func (s *service) LoginVisitor(ctx context.Context, eventID uuid.UUID, phone, pin string) (*LoginResult, error) {
	event, err := s.activeEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletSvc.VerifyPIN(ctx, eventID, phone, pin)
	if err != nil {
		var coded *pkgerrors.Error
		if errors.As(err, &coded) && coded.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}

	return s.issue(ctx, pkgauth.AccessTokenPayload{
		SubjectID: wallet.ID,
		EventID:   &event.ID,
		Role:      enums.ActorRoleVisitor,
		Branding:  brandingFor(event),
	}, false)
}

// Logout revokes the session so the token stops working before its expiry.
func (s *service) Logout(ctx context.Context, accessID string) error {
	return s.sessions.Revoke(ctx, accessID)
}

func (s *service) issue(ctx context.Context, payload pkgauth.AccessTokenPayload, tempPassword bool) (*LoginResult, error) {
	payload.JTI = uuid.NewString()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), payload)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}
	if err := s.sessions.Start(ctx, payload.JTI); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start session")
	}

	return &LoginResult{
		Token:        token,
		Role:         payload.Role,
		SubjectID:    payload.SubjectID,
		EventID:      payload.EventID,
		Branding:     payload.Branding,
		TempPassword: tempPassword,
	}, nil
}

func (s *service) activeEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	event, err := s.repo.FindEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, err
	}
	if !event.Active {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "event is not active")
	}
	return event, nil
}

func (s *service) checkPassword(password, hash string) error {
	ok, err := security.VerifyPassword(password, hash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return nil
}

func invalidCredentials(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return err
}

func brandingFor(event *models.Event) *pkgauth.Branding {
	return &pkgauth.Branding{
		EventName:  event.Name,
		LogoURL:    event.LogoURL,
		BannerURL:  event.BannerURL,
		ThemeColor: event.ThemeColor,
	}
}
