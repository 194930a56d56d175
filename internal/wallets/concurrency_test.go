package wallets

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/pkg/db/models"
	"github.com/festpay/festpay-backend/pkg/enums"
	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
)

// memWalletStore backs the concurrency tests with real mutual exclusion: a
// short mutex guards the fields, and rowMu plays the wallet row lock, held
// from Lock/Create until the owning transaction ends. Insert races surface
// as unique-violation errors the way the database reports them.
type memWalletStore struct {
	mu      sync.Mutex
	rowMu   sync.Mutex
	owner   *gorm.DB
	wallet  *models.Wallet
	creates int
	entries []models.CashLedgerEntry
}

func (s *memWalletStore) lockRow(tx *gorm.DB) {
	s.rowMu.Lock()
	s.mu.Lock()
	s.owner = tx
	s.mu.Unlock()
}

func (s *memWalletStore) releaseRow(tx *gorm.DB) {
	s.mu.Lock()
	held := s.owner == tx && tx != nil
	if held {
		s.owner = nil
	}
	s.mu.Unlock()
	if held {
		s.rowMu.Unlock()
	}
}

func (s *memWalletStore) holdsRow(tx *gorm.DB) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner == tx && tx != nil
}

// lockingTxRunner hands every transaction a distinct handle and releases the
// row lock when the transaction function returns, commit or rollback alike.
type lockingTxRunner struct {
	store *memWalletStore
}

func (r *lockingTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := new(gorm.DB)
	err := fn(tx)
	r.store.releaseRow(tx)
	return err
}

type memWalletRepo struct {
	store *memWalletStore
	tx    *gorm.DB
}

func (r *memWalletRepo) WithTx(tx *gorm.DB) Repository {
	return &memWalletRepo{store: r.store, tx: tx}
}

func (r *memWalletRepo) LockByEventPhone(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error) {
	r.store.mu.Lock()
	missing := r.store.wallet == nil
	r.store.mu.Unlock()
	if missing {
		return nil, gorm.ErrRecordNotFound
	}

	r.store.lockRow(r.tx)
	r.store.mu.Lock()
	wallet := r.store.wallet
	r.store.mu.Unlock()
	if wallet == nil {
		// Created and rolled back between the check and the lock.
		r.store.releaseRow(r.tx)
		return nil, gorm.ErrRecordNotFound
	}
	return wallet, nil
}

func (r *memWalletRepo) Create(ctx context.Context, wallet *models.Wallet) error {
	r.store.lockRow(r.tx)
	r.store.mu.Lock()
	if r.store.wallet != nil {
		r.store.mu.Unlock()
		r.store.releaseRow(r.tx)
		return errors.New(`duplicate key value violates unique constraint "uq_wallets_event_phone"`)
	}
	wallet.ID = uuid.New()
	r.store.wallet = wallet
	r.store.creates++
	r.store.mu.Unlock()
	return nil
}

func (r *memWalletRepo) Save(ctx context.Context, wallet *models.Wallet) error {
	if !r.store.holdsRow(r.tx) {
		return errors.New("save without holding the wallet row lock")
	}
	return nil
}

func (r *memWalletRepo) AppendLedgerEntry(ctx context.Context, entry *models.CashLedgerEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry.ID = uuid.New()
	r.store.entries = append(r.store.entries, *entry)
	return nil
}

func (r *memWalletRepo) ListLedgerByWallet(ctx context.Context, walletID uuid.UUID) ([]models.CashLedgerEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entries := make([]models.CashLedgerEntry, len(r.store.entries))
	copy(entries, r.store.entries)
	return entries, nil
}

func (r *memWalletRepo) LockByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	panic("LockByID not implemented")
}

func (r *memWalletRepo) FindByEventPhone(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error) {
	panic("FindByEventPhone not implemented")
}

func (r *memWalletRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	panic("FindByID not implemented")
}

func newConcurrentService(t *testing.T, store *memWalletStore) Service {
	t.Helper()
	svc, err := NewService(&lockingTxRunner{store: store}, &memWalletRepo{store: store}, testPasswordConfig(), nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestConcurrentTopUpsCreateOneWallet(t *testing.T) {
	const (
		workers = 16
		amount  = int64(250)
	)

	store := &memWalletStore{}
	svc := newConcurrentService(t, store)
	eventID := uuid.New()
	cashierID := uuid.New()

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.TopUp(context.Background(), TopUpInput{
				EventID:      eventID,
				VisitorPhone: "+4915551234567",
				AmountCents:  amount,
				CashierID:    cashierID,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("top-up %d failed: %v", i, err)
		}
	}
	if store.creates != 1 {
		t.Errorf("wallet created %d times, want 1", store.creates)
	}
	if got := store.wallet.BalanceCents; got != workers*amount {
		t.Errorf("final balance = %d, want %d", got, workers*amount)
	}
	if len(store.entries) != workers {
		t.Errorf("ledger entries = %d, want %d", len(store.entries), workers)
	}
	for _, entry := range store.entries {
		if entry.Type != enums.LedgerEntryTypeTopup || entry.AmountCents != amount {
			t.Fatalf("unexpected ledger entry %+v", entry)
		}
	}
}

func TestConcurrentTopUpsAndRefundsNeverTearBalance(t *testing.T) {
	const (
		topUps      = 8
		refunds     = 3
		topUpAmount = int64(100)
		openingBal  = int64(1000)
	)

	store := &memWalletStore{
		wallet: &models.Wallet{
			ID:           uuid.New(),
			EventID:      uuid.New(),
			VisitorPhone: "+4915551234567",
			BalanceCents: openingBal,
			Status:       enums.WalletStatusActive,
		},
	}
	svc := newConcurrentService(t, store)
	eventID := store.wallet.EventID
	cashierID := uuid.New()

	topUpErrs := make([]error, topUps)
	refundErrs := make([]error, refunds)
	var wg sync.WaitGroup
	for i := 0; i < topUps; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, topUpErrs[i] = svc.TopUp(context.Background(), TopUpInput{
				EventID:      eventID,
				VisitorPhone: "+4915551234567",
				AmountCents:  topUpAmount,
				CashierID:    cashierID,
			})
		}(i)
	}
	for i := 0; i < refunds; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, refundErrs[i] = svc.Refund(context.Background(), RefundInput{
				EventID:      eventID,
				VisitorPhone: "+4915551234567",
				CashierID:    cashierID,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range topUpErrs {
		if err != nil {
			t.Fatalf("top-up %d failed: %v", i, err)
		}
	}
	// A refund that lands on an already emptied wallet is a legitimate
	// state conflict, not a torn write.
	for _, err := range refundErrs {
		if err != nil {
			wantCode(t, err, pkgerrors.CodeStateConflict)
		}
	}

	var toppedUp, refunded int64
	for _, entry := range store.entries {
		switch entry.Type {
		case enums.LedgerEntryTypeTopup:
			toppedUp += entry.AmountCents
		case enums.LedgerEntryTypeRefund:
			refunded += entry.AmountCents
		}
	}
	if toppedUp != topUps*topUpAmount {
		t.Errorf("topped up %d, want %d", toppedUp, topUps*topUpAmount)
	}
	if got := store.wallet.BalanceCents; got != openingBal+toppedUp-refunded {
		t.Errorf("final balance = %d, want %d", got, openingBal+toppedUp-refunded)
	}
	if store.wallet.BalanceCents < 0 {
		t.Error("balance went negative")
	}
}
