package reports

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/pkg/db/models"
	"github.com/festpay/festpay-backend/pkg/enums"
	"github.com/festpay/festpay-backend/pkg/pagination"
)

// StallSalesRow is one stall's aggregated settlement totals.
type StallSalesRow struct {
	StallID             uuid.UUID `gorm:"column:stall_id"`
	StallName           string    `gorm:"column:stall_name"`
	OrderCount          int64     `gorm:"column:order_count"`
	GrossCents          int64     `gorm:"column:gross_cents"`
	OrganizerShareCents int64     `gorm:"column:organizer_share_cents"`
	StallShareCents     int64     `gorm:"column:stall_share_cents"`
}

type Repository interface {
	SumLedgerByType(ctx context.Context, eventID uuid.UUID, entryType enums.LedgerEntryType) (int64, error)
	SumOutstandingBalances(ctx context.Context, eventID uuid.UUID) (int64, error)
	SumSalesByPayment(ctx context.Context, eventID uuid.UUID, payment enums.PaymentType) (int64, int64, error)
	SumOrganizerShare(ctx context.Context, eventID uuid.UUID) (int64, error)
	StallSales(ctx context.Context, eventID uuid.UUID) ([]StallSalesRow, error)
	CashierLedger(ctx context.Context, cashierID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.CashLedgerEntry, error)
}

type repository struct {
	conn *gorm.DB
}

func NewRepository(conn *gorm.DB) Repository {
	return &repository{conn: conn}
}

func (r *repository) SumLedgerByType(ctx context.Context, eventID uuid.UUID, entryType enums.LedgerEntryType) (int64, error) {
	var total int64
	err := r.conn.WithContext(ctx).
		Model(&models.CashLedgerEntry{}).
		Joins("JOIN wallets ON wallets.id = cash_ledger_entries.wallet_id").
		Where("wallets.event_id = ? AND cash_ledger_entries.type = ?", eventID, entryType).
		Select("COALESCE(SUM(cash_ledger_entries.amount_cents), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) SumOutstandingBalances(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var total int64
	err := r.conn.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("event_id = ? AND status = ?", eventID, enums.WalletStatusActive).
		Select("COALESCE(SUM(balance_cents), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) SumSalesByPayment(ctx context.Context, eventID uuid.UUID, payment enums.PaymentType) (int64, int64, error) {
	var row struct {
		Count int64 `gorm:"column:order_count"`
		Total int64 `gorm:"column:total_cents"`
	}
	err := r.conn.WithContext(ctx).
		Model(&models.Order{}).
		Where("event_id = ? AND payment_type = ?", eventID, payment).
		Select("COUNT(*) AS order_count, COALESCE(SUM(total_cents), 0) AS total_cents").
		Scan(&row).Error
	return row.Count, row.Total, err
}

func (r *repository) SumOrganizerShare(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var total int64
	err := r.conn.WithContext(ctx).
		Model(&models.Transaction{}).
		Joins("JOIN orders ON orders.id = transactions.order_id").
		Where("orders.event_id = ?", eventID).
		Select("COALESCE(SUM(transactions.organizer_share_cents), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) StallSales(ctx context.Context, eventID uuid.UUID) ([]StallSalesRow, error) {
	var rows []StallSalesRow
	err := r.conn.WithContext(ctx).
		Model(&models.Transaction{}).
		Joins("JOIN orders ON orders.id = transactions.order_id").
		Joins("JOIN stalls ON stalls.id = orders.stall_id").
		Where("orders.event_id = ?", eventID).
		Select(`stalls.id AS stall_id,
			stalls.name AS stall_name,
			COUNT(*) AS order_count,
			COALESCE(SUM(transactions.total_cents), 0) AS gross_cents,
			COALESCE(SUM(transactions.organizer_share_cents), 0) AS organizer_share_cents,
			COALESCE(SUM(transactions.stall_share_cents), 0) AS stall_share_cents`).
		Group("stalls.id, stalls.name").
		Order("gross_cents DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CashierLedger(ctx context.Context, cashierID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.CashLedgerEntry, error) {
	query := r.conn.WithContext(ctx).
		Where("cashier_id = ?", cashierID)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var entries []models.CashLedgerEntry
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
