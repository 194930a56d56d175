package reports

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/festpay/festpay-backend/pkg/db/models"
	"github.com/festpay/festpay-backend/pkg/enums"
	"github.com/festpay/festpay-backend/pkg/pagination"
)

// EventSummary is the organizer's money reconciliation view. CashCollected
// minus CashRefunded minus WalletSales should always equal Outstanding while
// wallets remain active.
type EventSummary struct {
	EventID            uuid.UUID `json:"event_id"`
	CashCollectedCents int64     `json:"cash_collected_cents"`
	CashRefundedCents  int64     `json:"cash_refunded_cents"`
	WalletOrderCount   int64     `json:"wallet_order_count"`
	WalletSalesCents   int64     `json:"wallet_sales_cents"`
	CashOrderCount     int64     `json:"cash_order_count"`
	CashSalesCents     int64     `json:"cash_sales_cents"`
	CommissionCents    int64     `json:"commission_cents"`
	OutstandingCents   int64     `json:"outstanding_cents"`
}

// CashierLedgerPage is one page of a cashier's shift log, newest first.
type CashierLedgerPage struct {
	Entries    []models.CashLedgerEntry `json:"entries"`
	NextCursor string                   `json:"next_cursor,omitempty"`
}

type Service interface {
	EventSummary(ctx context.Context, eventID uuid.UUID) (*EventSummary, error)
	StallSales(ctx context.Context, eventID uuid.UUID) ([]StallSalesRow, error)
	CashierLedger(ctx context.Context, cashierID uuid.UUID, params pagination.Params) (*CashierLedgerPage, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("report repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) EventSummary(ctx context.Context, eventID uuid.UUID) (*EventSummary, error) {
	summary := &EventSummary{EventID: eventID}

	var err error
	if summary.CashCollectedCents, err = s.repo.SumLedgerByType(ctx, eventID, enums.LedgerEntryTypeTopup); err != nil {
		return nil, err
	}
	if summary.CashRefundedCents, err = s.repo.SumLedgerByType(ctx, eventID, enums.LedgerEntryTypeRefund); err != nil {
		return nil, err
	}
	if summary.WalletOrderCount, summary.WalletSalesCents, err = s.repo.SumSalesByPayment(ctx, eventID, enums.PaymentTypeWallet); err != nil {
		return nil, err
	}
	if summary.CashOrderCount, summary.CashSalesCents, err = s.repo.SumSalesByPayment(ctx, eventID, enums.PaymentTypeCash); err != nil {
		return nil, err
	}
	if summary.CommissionCents, err = s.repo.SumOrganizerShare(ctx, eventID); err != nil {
		return nil, err
	}
	if summary.OutstandingCents, err = s.repo.SumOutstandingBalances(ctx, eventID); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *service) StallSales(ctx context.Context, eventID uuid.UUID) ([]StallSalesRow, error) {
	return s.repo.StallSales(ctx, eventID)
}

func (s *service) CashierLedger(ctx context.Context, cashierID uuid.UUID, params pagination.Params) (*CashierLedgerPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	entries, err := s.repo.CashierLedger(ctx, cashierID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, err
	}

	page := &CashierLedgerPage{Entries: entries}
	if len(entries) > limit {
		page.Entries = entries[:limit]
		last := page.Entries[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}
