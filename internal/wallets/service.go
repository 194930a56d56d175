package wallets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/pkg/config"
	"github.com/festpay/festpay-backend/pkg/db"
	"github.com/festpay/festpay-backend/pkg/db/models"
	"github.com/festpay/festpay-backend/pkg/enums"
	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
	"github.com/festpay/festpay-backend/pkg/metrics"
	"github.com/festpay/festpay-backend/pkg/security"
)

const walletPhoneConstraint = "uq_wallets_event_phone"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service serializes every balance-affecting operation per wallet: each one
// locks the wallet row (or creates it) and holds the lock across the whole
// read-modify-write span, so concurrent cashier and visitor actions on the
// same wallet apply in some serial order and never corrupt the balance.
type Service interface {
	TopUp(ctx context.Context, input TopUpInput) (*TopUpResult, error)
	Refund(ctx context.Context, input RefundInput) (*RefundResult, error)
	Debit(ctx context.Context, tx *gorm.DB, walletID uuid.UUID, amountCents int64) (*models.Wallet, error)
	SelfRegister(ctx context.Context, input SelfRegisterInput) (*models.Wallet, error)
	Get(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error)
	VerifyPIN(ctx context.Context, eventID uuid.UUID, phone, pin string) (*models.Wallet, error)
}

// TopUpInput carries one cashier top-up action.
type TopUpInput struct {
	EventID      uuid.UUID
	VisitorPhone string
	AmountCents  int64
	VisitorName  *string
	MembershipID *string
	CashierID    uuid.UUID
}

// TopUpResult reports the post-top-up state. PlaintextPIN is set only when
// the wallet was created by this call; it is never retrievable again.
type TopUpResult struct {
	WalletID        uuid.UUID
	NewBalanceCents int64
	PlaintextPIN    string
	Created         bool
}

// RefundInput identifies the wallet a cashier is cashing out.
type RefundInput struct {
	EventID      uuid.UUID
	VisitorPhone string
	CashierID    uuid.UUID
}

// RefundResult reports the amount handed back in cash.
type RefundResult struct {
	WalletID      uuid.UUID
	RefundedCents int64
}

// SelfRegisterInput carries a visitor-initiated wallet registration.
type SelfRegisterInput struct {
	EventID      uuid.UUID
	VisitorPhone string
	VisitorName  *string
	PIN          string
}

type service struct {
	tx          txRunner
	repo        Repository
	passwordCfg config.PasswordConfig
	metrics     *metrics.PlatformMetrics
}

// NewService builds the wallet ledger engine.
func NewService(tx txRunner, repo Repository, passwordCfg config.PasswordConfig, m *metrics.PlatformMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	return &service{tx: tx, repo: repo, passwordCfg: passwordCfg, metrics: m}, nil
}

// TopUp increases a wallet balance by a cash deposit, creating the wallet on
// first contact. The wallet row lock, the balance update, and the ledger
// append commit as one unit.
func (s *service) TopUp(ctx context.Context, input TopUpInput) (*TopUpResult, error) {
	if err := validateTopUp(input); err != nil {
		s.metrics.ObserveLedgerOp("topup", "rejected")
		return nil, err
	}

	result, err := s.topUpOnce(ctx, input)
	if err != nil && db.IsUniqueViolation(err, walletPhoneConstraint) {
		// Lost the wallet-creation race. The unique violation aborted the
		// whole transaction, so rerun it; this time the winner's row exists
		// and gets locked like any other top-up.
		result, err = s.topUpOnce(ctx, input)
	}
	if err != nil {
		s.metrics.ObserveLedgerOp("topup", "failed")
		return nil, err
	}
	s.metrics.ObserveLedgerOp("topup", "ok")
	return result, nil
}

func (s *service) topUpOnce(ctx context.Context, input TopUpInput) (*TopUpResult, error) {
	var result *TopUpResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		wallet, err := repo.LockByEventPhone(ctx, input.EventID, input.VisitorPhone)
		switch {
		case err == nil:
			wallet.BalanceCents += input.AmountCents
			wallet.Status = enums.WalletStatusActive
			coalesceIdentity(wallet, input.VisitorName, input.MembershipID)
			if err := repo.Save(ctx, wallet); err != nil {
				return err
			}
			result = &TopUpResult{
				WalletID:        wallet.ID,
				NewBalanceCents: wallet.BalanceCents,
			}

		case errors.Is(err, gorm.ErrRecordNotFound):
			pin, err := security.GeneratePIN(s.passwordCfg.PinLength)
			if err != nil {
				return fmt.Errorf("generate wallet pin: %w", err)
			}
			hash, err := security.HashPassword(pin, s.passwordCfg)
			if err != nil {
				return fmt.Errorf("hash wallet pin: %w", err)
			}
			wallet = &models.Wallet{
				EventID:      input.EventID,
				VisitorPhone: input.VisitorPhone,
				VisitorName:  input.VisitorName,
				MembershipID: input.MembershipID,
				BalanceCents: input.AmountCents,
				Status:       enums.WalletStatusActive,
				PinHash:      hash,
			}
			if err := repo.Create(ctx, wallet); err != nil {
				return err
			}
			result = &TopUpResult{
				WalletID:        wallet.ID,
				NewBalanceCents: wallet.BalanceCents,
				PlaintextPIN:    pin,
				Created:         true,
			}

		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock wallet")
		}

		return repo.AppendLedgerEntry(ctx, &models.CashLedgerEntry{
			WalletID:    result.WalletID,
			CashierID:   input.CashierID,
			Type:        enums.LedgerEntryTypeTopup,
			AmountCents: input.AmountCents,
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Refund zeroes the wallet, marks it ENDED, and records the cash handed back.
// A wallet without usable balance fails without any mutation.
func (s *service) Refund(ctx context.Context, input RefundInput) (*RefundResult, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	if input.VisitorPhone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "visitor phone is required")
	}
	if input.CashierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cashier id is required")
	}

	var result *RefundResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		wallet, err := repo.LockByEventPhone(ctx, input.EventID, input.VisitorPhone)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "no balance to refund")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock wallet")
		}
		if wallet.Status != enums.WalletStatusActive || wallet.BalanceCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no balance to refund")
		}

		refunded := wallet.BalanceCents
		wallet.BalanceCents = 0
		wallet.Status = enums.WalletStatusEnded
		if err := repo.Save(ctx, wallet); err != nil {
			return err
		}

		if err := repo.AppendLedgerEntry(ctx, &models.CashLedgerEntry{
			WalletID:    wallet.ID,
			CashierID:   input.CashierID,
			Type:        enums.LedgerEntryTypeRefund,
			AmountCents: refunded,
		}); err != nil {
			return err
		}

		result = &RefundResult{WalletID: wallet.ID, RefundedCents: refunded}
		return nil
	})
	if err != nil {
		s.metrics.ObserveLedgerOp("refund", "failed")
		return nil, err
	}
	s.metrics.ObserveLedgerOp("refund", "ok")
	return result, nil
}

// Debit decrements the wallet balance inside the caller's transaction. The
// purchase flow composes it with order and settlement writes so all four
// effects commit or roll back together.
func (s *service) Debit(ctx context.Context, tx *gorm.DB, walletID uuid.UUID, amountCents int64) (*models.Wallet, error) {
	if tx == nil {
		return nil, fmt.Errorf("debit requires an open transaction")
	}
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	repo := s.repo.WithTx(tx)
	wallet, err := repo.LockByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock wallet")
	}
	if wallet.Status != enums.WalletStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "wallet is not active")
	}
	if wallet.BalanceCents < amountCents {
		s.metrics.ObserveLedgerOp("debit", "insufficient")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient balance")
	}

	wallet.BalanceCents -= amountCents
	if err := repo.Save(ctx, wallet); err != nil {
		return nil, err
	}
	s.metrics.ObserveLedgerOp("debit", "ok")
	return wallet, nil
}

// SelfRegister creates a zero-balance wallet with a visitor-chosen PIN.
func (s *service) SelfRegister(ctx context.Context, input SelfRegisterInput) (*models.Wallet, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	if input.VisitorPhone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "visitor phone is required")
	}
	if len(input.PIN) < s.passwordCfg.PinLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pin is too short")
	}

	hash, err := security.HashPassword(input.PIN, s.passwordCfg)
	if err != nil {
		return nil, fmt.Errorf("hash wallet pin: %w", err)
	}

	wallet := &models.Wallet{
		EventID:      input.EventID,
		VisitorPhone: input.VisitorPhone,
		VisitorName:  input.VisitorName,
		Status:       enums.WalletStatusActive,
		PinHash:      hash,
	}
	if err := s.repo.Create(ctx, wallet); err != nil {
		if db.IsUniqueViolation(err, walletPhoneConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a wallet already exists for this phone")
		}
		return nil, err
	}
	return wallet, nil
}

func (s *service) Get(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error) {
	wallet, err := s.repo.FindByEventPhone(ctx, eventID, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return nil, err
	}
	return wallet, nil
}

// VerifyPIN checks the wallet credential and returns the wallet on success.
func (s *service) VerifyPIN(ctx context.Context, eventID uuid.UUID, phone, pin string) (*models.Wallet, error) {
	wallet, err := s.Get(ctx, eventID, phone)
	if err != nil {
		return nil, err
	}
	ok, err := security.VerifyPassword(pin, wallet.PinHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify pin")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return wallet, nil
}

func validateTopUp(input TopUpInput) error {
	if input.EventID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	if input.VisitorPhone == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "visitor phone is required")
	}
	if input.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.CashierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cashier id is required")
	}
	return nil
}

// coalesceIdentity fills identity fields that are still empty; values already
// captured are never overwritten by later top-ups.
func coalesceIdentity(wallet *models.Wallet, name, membership *string) {
	if wallet.VisitorName == nil && name != nil && *name != "" {
		wallet.VisitorName = name
	}
	if wallet.MembershipID == nil && membership != nil && *membership != "" {
		wallet.MembershipID = membership
	}
}
