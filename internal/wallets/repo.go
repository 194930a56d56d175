package wallets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/pkg/db"
	"github.com/festpay/festpay-backend/pkg/db/models"
)

// Repository manages wallet rows and their append-only cash ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockByEventPhone(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	FindByEventPhone(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	Create(ctx context.Context, wallet *models.Wallet) error
	Save(ctx context.Context, wallet *models.Wallet) error
	AppendLedgerEntry(ctx context.Context, entry *models.CashLedgerEntry) error
	ListLedgerByWallet(ctx context.Context, walletID uuid.UUID) ([]models.CashLedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockByEventPhone loads the wallet for (event, phone) under an exclusive row
// lock. Must run inside a transaction; the lock is held until commit/rollback.
func (r *repository) LockByEventPhone(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("event_id = ? AND visitor_phone = ?", eventID, phone).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// LockByID loads the wallet by primary key under an exclusive row lock.
func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindByEventPhone(ctx context.Context, eventID uuid.UUID, phone string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).
		Where("event_id = ? AND visitor_phone = ?", eventID, phone).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).First(&wallet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) Create(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

func (r *repository) Save(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Save(wallet).Error
}

func (r *repository) AppendLedgerEntry(ctx context.Context, entry *models.CashLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListLedgerByWallet(ctx context.Context, walletID uuid.UUID) ([]models.CashLedgerEntry, error) {
	var entries []models.CashLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
