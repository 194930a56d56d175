package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/internal/dispatch"
	"github.com/festpay/festpay-backend/internal/settlement"
	"github.com/festpay/festpay-backend/internal/wallets"
	"github.com/festpay/festpay-backend/pkg/db/models"
	"github.com/festpay/festpay-backend/pkg/enums"
	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
	"github.com/festpay/festpay-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the order lifecycle. A wallet purchase is one transaction:
// the debit, the order with its item snapshots, and the settlement record
// commit together or not at all. Dispatch to the stall display happens only
// after the commit succeeds.
type Service interface {
	Purchase(ctx context.Context, input PurchaseInput) (*models.Order, error)
	CreateManual(ctx context.Context, input ManualOrderInput) (*models.Order, error)
	Complete(ctx context.Context, stallID, orderID uuid.UUID) (*models.Order, error)
	ListLive(ctx context.Context, stallID uuid.UUID) ([]models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// LineInput selects one menu item and a quantity.
type LineInput struct {
	MenuItemID uuid.UUID
	Qty        int
}

// PurchaseInput is a visitor checkout paid from their wallet.
type PurchaseInput struct {
	EventID      uuid.UUID
	StallID      uuid.UUID
	VisitorPhone string
	PIN          string
	Lines        []LineInput
}

// ManualOrderInput is a cash walk-up order entered by the stall itself.
type ManualOrderInput struct {
	EventID      uuid.UUID
	StallID      uuid.UUID
	CustomerName *string
	Lines        []LineInput
}

type service struct {
	tx         txRunner
	repo       Repository
	wallets    wallets.Service
	settlement settlement.Service
	broker     dispatch.Broker
	logg       *logger.Logger
}

func NewService(
	tx txRunner,
	repo Repository,
	walletSvc wallets.Service,
	settlementSvc settlement.Service,
	broker dispatch.Broker,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if walletSvc == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if settlementSvc == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	if broker == nil {
		return nil, fmt.Errorf("dispatch broker required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:         tx,
		repo:       repo,
		wallets:    walletSvc,
		settlement: settlementSvc,
		broker:     broker,
		logg:       logg,
	}, nil
}

// Purchase checks the wallet PIN, then debits, creates the order, and
// settles in one transaction. An insufficient balance rolls everything back.
func (s *service) Purchase(ctx context.Context, input PurchaseInput) (*models.Order, error) {
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}
	if input.VisitorPhone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "visitor phone is required")
	}

	wallet, err := s.wallets.VerifyPIN(ctx, input.EventID, input.VisitorPhone, input.PIN)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		stall, items, err := s.loadStallAndItems(ctx, repo, input.EventID, input.StallID, input.Lines)
		if err != nil {
			return err
		}

		built := buildOrder(stall, items, input.Lines)
		built.WalletID = &wallet.ID
		built.PaymentType = enums.PaymentTypeWallet
		built.CustomerName = wallet.VisitorName

		if _, err := s.wallets.Debit(ctx, tx, wallet.ID, built.TotalCents); err != nil {
			return err
		}
		if err := repo.Create(ctx, built); err != nil {
			return err
		}
		if _, err := s.settlement.Settle(ctx, tx, built, stall.CommissionRate); err != nil {
			return err
		}

		order = built
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broker.Publish(ctx, dispatch.NewOrderEvent(order))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":    order.ID.String(),
		"stall_id":    order.StallID.String(),
		"total_cents": order.TotalCents,
	}), "wallet order placed")
	return order, nil
}

// CreateManual records a cash walk-up order. It bypasses the wallet ledger
// but still settles commission, so stall and organizer totals stay complete.
func (s *service) CreateManual(ctx context.Context, input ManualOrderInput) (*models.Order, error) {
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		stall, items, err := s.loadStallAndItems(ctx, repo, input.EventID, input.StallID, input.Lines)
		if err != nil {
			return err
		}

		built := buildOrder(stall, items, input.Lines)
		built.PaymentType = enums.PaymentTypeCash
		built.CustomerName = input.CustomerName

		if err := repo.Create(ctx, built); err != nil {
			return err
		}
		if _, err := s.settlement.Settle(ctx, tx, built, stall.CommissionRate); err != nil {
			return err
		}

		order = built
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broker.Publish(ctx, dispatch.NewOrderEvent(order))
	return order, nil
}

// Complete marks an order served. Repeated calls are safe: only the first
// transition emits a removal event, later ones return the final state.
func (s *service) Complete(ctx context.Context, stallID, orderID uuid.UUID) (*models.Order, error) {
	transitioned, err := s.repo.CompletePending(ctx, stallID, orderID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	if order.StallID != stallID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	if transitioned {
		s.broker.Publish(ctx, dispatch.OrderRemovedEvent(stallID, orderID))
	}
	return order, nil
}

func (s *service) ListLive(ctx context.Context, stallID uuid.UUID) ([]models.Order, error) {
	return s.repo.ListLiveByStall(ctx, stallID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *service) loadStallAndItems(
	ctx context.Context,
	repo Repository,
	eventID, stallID uuid.UUID,
	lines []LineInput,
) (*models.Stall, map[uuid.UUID]models.MenuItem, error) {
	stall, err := repo.FindStall(ctx, stallID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "stall not found")
		}
		return nil, nil, err
	}
	if stall.EventID != eventID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "stall not found")
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.MenuItemID)
	}
	found, err := repo.FindMenuItems(ctx, stallID, ids)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[uuid.UUID]models.MenuItem, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}
	for _, line := range lines {
		item, ok := byID[line.MenuItemID]
		if !ok {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item not found for this stall")
		}
		if !item.Available {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("menu item %q is unavailable", item.Name))
		}
	}
	return stall, byID, nil
}

// buildOrder snapshots the menu name and price onto each line, so later menu
// edits never change what was sold.
func buildOrder(stall *models.Stall, items map[uuid.UUID]models.MenuItem, lines []LineInput) *models.Order {
	order := &models.Order{
		EventID: stall.EventID,
		StallID: stall.ID,
		Status:  enums.OrderStatusPending,
	}
	for _, line := range lines {
		item := items[line.MenuItemID]
		lineTotal := item.PriceCents * int64(line.Qty)
		menuItemID := item.ID
		order.Items = append(order.Items, models.OrderItem{
			MenuItemID:     &menuItemID,
			Name:           item.Name,
			UnitPriceCents: item.PriceCents,
			Qty:            line.Qty,
			TotalCents:     lineTotal,
		})
		order.TotalCents += lineTotal
	}
	return order
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	for _, line := range lines {
		if line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if line.MenuItemID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "menu item id is required")
		}
	}
	return nil
}
