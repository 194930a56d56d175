package wallets

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/pkg/config"
	"github.com/festpay/festpay-backend/pkg/db/models"
	"github.com/festpay/festpay-backend/pkg/enums"
	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
	"github.com/festpay/festpay-backend/pkg/security"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	lockByEventPhone  func(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error)
	lockByID          func(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	findByEventPhone  func(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error)
	create            func(ctx context.Context, wallet *models.Wallet) error
	save              func(ctx context.Context, wallet *models.Wallet) error
	appendLedgerEntry func(ctx context.Context, entry *models.CashLedgerEntry) error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) LockByEventPhone(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error) {
	if s.lockByEventPhone == nil {
		panic("LockByEventPhone not implemented")
	}
	return s.lockByEventPhone(ctx, eventID, phone)
}

func (s *stubRepo) LockByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	if s.lockByID == nil {
		panic("LockByID not implemented")
	}
	return s.lockByID(ctx, id)
}

func (s *stubRepo) FindByEventPhone(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error) {
	if s.findByEventPhone == nil {
		panic("FindByEventPhone not implemented")
	}
	return s.findByEventPhone(ctx, eventID, phone)
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	panic("FindByID not implemented")
}

func (s *stubRepo) Create(ctx context.Context, wallet *models.Wallet) error {
	if s.create == nil {
		panic("Create not implemented")
	}
	return s.create(ctx, wallet)
}

func (s *stubRepo) Save(ctx context.Context, wallet *models.Wallet) error {
	if s.save == nil {
		panic("Save not implemented")
	}
	return s.save(ctx, wallet)
}

func (s *stubRepo) AppendLedgerEntry(ctx context.Context, entry *models.CashLedgerEntry) error {
	if s.appendLedgerEntry == nil {
		panic("AppendLedgerEntry not implemented")
	}
	return s.appendLedgerEntry(ctx, entry)
}

func (s *stubRepo) ListLedgerByWallet(ctx context.Context, walletID uuid.UUID) ([]models.CashLedgerEntry, error) {
	panic("ListLedgerByWallet not implemented")
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		PinLength:          4,
		TempPasswordLength: 10,
		ArgonMemoryKB:      8,
		ArgonTime:          1,
		ArgonParallelism:   1,
		ArgonSaltLen:       8,
		ArgonKeyLen:        16,
	}
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(stubTxRunner{}, repo, testPasswordConfig(), nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func wantCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("error code = %s, want %s (%v)", appErr.Code(), code, err)
	}
}

func TestTopUpCreatesWalletWithOneTimePIN(t *testing.T) {
	eventID := uuid.New()
	cashierID := uuid.New()
	walletID := uuid.New()

	var created *models.Wallet
	var ledger []*models.CashLedgerEntry
	repo := &stubRepo{
		lockByEventPhone: func(ctx context.Context, gotEvent uuid.UUID, phone string) (*models.Wallet, error) {
			return nil, gorm.ErrRecordNotFound
		},
		create: func(ctx context.Context, wallet *models.Wallet) error {
			wallet.ID = walletID
			created = wallet
			return nil
		},
		appendLedgerEntry: func(ctx context.Context, entry *models.CashLedgerEntry) error {
			ledger = append(ledger, entry)
			return nil
		},
	}
	svc := newTestService(t, repo)

	name := "Ada"
	result, err := svc.TopUp(context.Background(), TopUpInput{
		EventID:      eventID,
		VisitorPhone: "+4915112345678",
		AmountCents:  2500,
		VisitorName:  &name,
		CashierID:    cashierID,
	})
	if err != nil {
		t.Fatalf("TopUp: %v", err)
	}

	if !result.Created {
		t.Error("expected Created=true for first contact")
	}
	if len(result.PlaintextPIN) != 4 {
		t.Errorf("plaintext pin length = %d, want 4", len(result.PlaintextPIN))
	}
	if result.NewBalanceCents != 2500 {
		t.Errorf("balance = %d, want 2500", result.NewBalanceCents)
	}
	if created == nil || created.Status != enums.WalletStatusActive {
		t.Fatal("expected active wallet to be created")
	}
	if created.PinHash == "" || created.PinHash == result.PlaintextPIN {
		t.Error("pin must be stored hashed")
	}
	if len(ledger) != 1 || ledger[0].Type != enums.LedgerEntryTypeTopup || ledger[0].AmountCents != 2500 {
		t.Fatalf("unexpected ledger entries: %+v", ledger)
	}
	if ledger[0].WalletID != walletID || ledger[0].CashierID != cashierID {
		t.Error("ledger entry not attributed to wallet and cashier")
	}
}

func TestTopUpAddsToExistingWallet(t *testing.T) {
	eventID := uuid.New()
	existing := &models.Wallet{
		ID:           uuid.New(),
		EventID:      eventID,
		VisitorPhone: "+4915112345678",
		BalanceCents: 1000,
		Status:       enums.WalletStatusEnded,
	}

	var saved *models.Wallet
	repo := &stubRepo{
		lockByEventPhone: func(ctx context.Context, gotEvent uuid.UUID, phone string) (*models.Wallet, error) {
			return existing, nil
		},
		save: func(ctx context.Context, wallet *models.Wallet) error {
			saved = wallet
			return nil
		},
		appendLedgerEntry: func(ctx context.Context, entry *models.CashLedgerEntry) error {
			return nil
		},
	}
	svc := newTestService(t, repo)

	name := "Ada"
	result, err := svc.TopUp(context.Background(), TopUpInput{
		EventID:      eventID,
		VisitorPhone: existing.VisitorPhone,
		AmountCents:  500,
		VisitorName:  &name,
		CashierID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("TopUp: %v", err)
	}

	if result.Created {
		t.Error("expected Created=false for existing wallet")
	}
	if result.PlaintextPIN != "" {
		t.Error("existing wallet must not get a new pin")
	}
	if result.NewBalanceCents != 1500 {
		t.Errorf("balance = %d, want 1500", result.NewBalanceCents)
	}
	if saved == nil || saved.Status != enums.WalletStatusActive {
		t.Error("top-up must reactivate an ended wallet")
	}
	if saved.VisitorName == nil || *saved.VisitorName != "Ada" {
		t.Error("expected missing visitor name to be filled in")
	}
}

func TestTopUpDoesNotOverwriteCapturedIdentity(t *testing.T) {
	original := "Grace"
	existing := &models.Wallet{
		ID:           uuid.New(),
		EventID:      uuid.New(),
		VisitorPhone: "+4915112345678",
		VisitorName:  &original,
		BalanceCents: 100,
		Status:       enums.WalletStatusActive,
	}
	repo := &stubRepo{
		lockByEventPhone: func(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error) {
			return existing, nil
		},
		save:              func(ctx context.Context, wallet *models.Wallet) error { return nil },
		appendLedgerEntry: func(ctx context.Context, entry *models.CashLedgerEntry) error { return nil },
	}
	svc := newTestService(t, repo)

	other := "Ada"
	_, err := svc.TopUp(context.Background(), TopUpInput{
		EventID:      existing.EventID,
		VisitorPhone: existing.VisitorPhone,
		AmountCents:  100,
		VisitorName:  &other,
		CashierID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("TopUp: %v", err)
	}
	if *existing.VisitorName != "Grace" {
		t.Errorf("visitor name = %q, want the originally captured value", *existing.VisitorName)
	}
}

func TestTopUpRetriesAfterCreationRace(t *testing.T) {
	eventID := uuid.New()
	winner := &models.Wallet{
		ID:           uuid.New(),
		EventID:      eventID,
		VisitorPhone: "+4915112345678",
		BalanceCents: 0,
		Status:       enums.WalletStatusActive,
	}

	lockCalls := 0
	repo := &stubRepo{
		lockByEventPhone: func(ctx context.Context, gotEvent uuid.UUID, phone string) (*models.Wallet, error) {
			lockCalls++
			if lockCalls == 1 {
				return nil, gorm.ErrRecordNotFound
			}
			return winner, nil
		},
		create: func(ctx context.Context, wallet *models.Wallet) error {
			return errors.New(`duplicate key value violates unique constraint "uq_wallets_event_phone"`)
		},
		save:              func(ctx context.Context, wallet *models.Wallet) error { return nil },
		appendLedgerEntry: func(ctx context.Context, entry *models.CashLedgerEntry) error { return nil },
	}
	svc := newTestService(t, repo)

	result, err := svc.TopUp(context.Background(), TopUpInput{
		EventID:      eventID,
		VisitorPhone: winner.VisitorPhone,
		AmountCents:  700,
		CashierID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("TopUp after race: %v", err)
	}
	if lockCalls != 2 {
		t.Errorf("lock calls = %d, want 2", lockCalls)
	}
	if result.Created {
		t.Error("retry must land on the winner's wallet, not create one")
	}
	if result.NewBalanceCents != 700 {
		t.Errorf("balance = %d, want 700", result.NewBalanceCents)
	}
}

func TestTopUpRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t, &stubRepo{})

	cases := []struct {
		name  string
		input TopUpInput
	}{
		{"missing event", TopUpInput{VisitorPhone: "+49151", AmountCents: 100, CashierID: uuid.New()}},
		{"missing phone", TopUpInput{EventID: uuid.New(), AmountCents: 100, CashierID: uuid.New()}},
		{"zero amount", TopUpInput{EventID: uuid.New(), VisitorPhone: "+49151", CashierID: uuid.New()}},
		{"negative amount", TopUpInput{EventID: uuid.New(), VisitorPhone: "+49151", AmountCents: -10, CashierID: uuid.New()}},
		{"missing cashier", TopUpInput{EventID: uuid.New(), VisitorPhone: "+49151", AmountCents: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.TopUp(context.Background(), tc.input)
			wantCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestRefundCashesOutFullBalance(t *testing.T) {
	wallet := &models.Wallet{
		ID:           uuid.New(),
		EventID:      uuid.New(),
		VisitorPhone: "+4915112345678",
		BalanceCents: 1350,
		Status:       enums.WalletStatusActive,
	}

	var saved *models.Wallet
	var entry *models.CashLedgerEntry
	repo := &stubRepo{
		lockByEventPhone: func(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error) {
			return wallet, nil
		},
		save: func(ctx context.Context, w *models.Wallet) error {
			saved = w
			return nil
		},
		appendLedgerEntry: func(ctx context.Context, e *models.CashLedgerEntry) error {
			entry = e
			return nil
		},
	}
	svc := newTestService(t, repo)

	result, err := svc.Refund(context.Background(), RefundInput{
		EventID:      wallet.EventID,
		VisitorPhone: wallet.VisitorPhone,
		CashierID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}

	if result.RefundedCents != 1350 {
		t.Errorf("refunded = %d, want 1350", result.RefundedCents)
	}
	if saved.BalanceCents != 0 || saved.Status != enums.WalletStatusEnded {
		t.Errorf("wallet after refund: balance=%d status=%s, want 0/ENDED", saved.BalanceCents, saved.Status)
	}
	if entry == nil || entry.Type != enums.LedgerEntryTypeRefund || entry.AmountCents != 1350 {
		t.Fatalf("unexpected ledger entry: %+v", entry)
	}
}

func TestRefundRejectsUnusableWallets(t *testing.T) {
	cases := []struct {
		name   string
		wallet *models.Wallet
		err    error
	}{
		{"unknown wallet", nil, gorm.ErrRecordNotFound},
		{"ended wallet", &models.Wallet{BalanceCents: 100, Status: enums.WalletStatusEnded}, nil},
		{"zero balance", &models.Wallet{BalanceCents: 0, Status: enums.WalletStatusActive}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			saveCalled := false
			repo := &stubRepo{
				lockByEventPhone: func(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error) {
					return tc.wallet, tc.err
				},
				save: func(ctx context.Context, wallet *models.Wallet) error {
					saveCalled = true
					return nil
				},
			}
			svc := newTestService(t, repo)

			_, err := svc.Refund(context.Background(), RefundInput{
				EventID:      uuid.New(),
				VisitorPhone: "+49151",
				CashierID:    uuid.New(),
			})
			wantCode(t, err, pkgerrors.CodeStateConflict)
			if saveCalled {
				t.Error("rejected refund must not mutate the wallet")
			}
		})
	}
}

func TestDebitRejectsInsufficientBalance(t *testing.T) {
	wallet := &models.Wallet{
		ID:           uuid.New(),
		BalanceCents: 300,
		Status:       enums.WalletStatusActive,
	}
	saveCalled := false
	repo := &stubRepo{
		lockByID: func(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
			return wallet, nil
		},
		save: func(ctx context.Context, w *models.Wallet) error {
			saveCalled = true
			return nil
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.Debit(context.Background(), &gorm.DB{}, wallet.ID, 301)
	wantCode(t, err, pkgerrors.CodeStateConflict)
	if saveCalled {
		t.Error("failed debit must not save the wallet")
	}
	if wallet.BalanceCents != 300 {
		t.Errorf("balance = %d, want untouched 300", wallet.BalanceCents)
	}
}

func TestDebitDecrementsBalance(t *testing.T) {
	wallet := &models.Wallet{
		ID:           uuid.New(),
		BalanceCents: 300,
		Status:       enums.WalletStatusActive,
	}
	repo := &stubRepo{
		lockByID: func(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
			return wallet, nil
		},
		save: func(ctx context.Context, w *models.Wallet) error { return nil },
	}
	svc := newTestService(t, repo)

	updated, err := svc.Debit(context.Background(), &gorm.DB{}, wallet.ID, 300)
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if updated.BalanceCents != 0 {
		t.Errorf("balance = %d, want 0", updated.BalanceCents)
	}
}

func TestDebitRejectsInactiveWallet(t *testing.T) {
	repo := &stubRepo{
		lockByID: func(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
			return &models.Wallet{ID: id, BalanceCents: 500, Status: enums.WalletStatusEnded}, nil
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.Debit(context.Background(), &gorm.DB{}, uuid.New(), 100)
	wantCode(t, err, pkgerrors.CodeStateConflict)
}

func TestSelfRegisterRejectsDuplicatePhone(t *testing.T) {
	repo := &stubRepo{
		create: func(ctx context.Context, wallet *models.Wallet) error {
			return errors.New(`duplicate key value violates unique constraint "uq_wallets_event_phone"`)
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.SelfRegister(context.Background(), SelfRegisterInput{
		EventID:      uuid.New(),
		VisitorPhone: "+4915112345678",
		PIN:          "1234",
	})
	wantCode(t, err, pkgerrors.CodeConflict)
}

func TestVerifyPIN(t *testing.T) {
	hash, err := security.HashPassword("1234", testPasswordConfig())
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	wallet := &models.Wallet{
		ID:           uuid.New(),
		EventID:      uuid.New(),
		VisitorPhone: "+4915112345678",
		PinHash:      hash,
		Status:       enums.WalletStatusActive,
	}
	repo := &stubRepo{
		findByEventPhone: func(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error) {
			return wallet, nil
		},
	}
	svc := newTestService(t, repo)

	got, err := svc.VerifyPIN(context.Background(), wallet.EventID, wallet.VisitorPhone, "1234")
	if err != nil {
		t.Fatalf("VerifyPIN: %v", err)
	}
	if got.ID != wallet.ID {
		t.Error("expected the matching wallet back")
	}

	_, err = svc.VerifyPIN(context.Background(), wallet.EventID, wallet.VisitorPhone, "9999")
	wantCode(t, err, pkgerrors.CodeUnauthorized)
}
