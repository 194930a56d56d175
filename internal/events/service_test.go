package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/pkg/config"
	"github.com/festpay/festpay-backend/pkg/db/models"
	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
	"github.com/festpay/festpay-backend/pkg/security"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	createEvent               func(ctx context.Context, event *models.Event) error
	findEvent                 func(ctx context.Context, id uuid.UUID) (*models.Event, error)
	saveEvent                 func(ctx context.Context, event *models.Event) error
	createStall               func(ctx context.Context, stall *models.Stall) error
	findStall                 func(ctx context.Context, eventID, stallID uuid.UUID) (*models.Stall, error)
	saveStall                 func(ctx context.Context, stall *models.Stall) error
	countStallOrders          func(ctx context.Context, stallID uuid.UUID) (int64, error)
	deleteStall               func(ctx context.Context, stall *models.Stall) error
	createCashier             func(ctx context.Context, cashier *models.Cashier) error
	findCashier               func(ctx context.Context, eventID, cashierID uuid.UUID) (*models.Cashier, error)
	saveCashier               func(ctx context.Context, cashier *models.Cashier) error
	countCashierLedgerEntries func(ctx context.Context, cashierID uuid.UUID) (int64, error)
	deleteCashier             func(ctx context.Context, cashier *models.Cashier) error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) CreateEvent(ctx context.Context, event *models.Event) error {
	if s.createEvent == nil {
		panic("CreateEvent not implemented")
	}
	return s.createEvent(ctx, event)
}

func (s *stubRepo) FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if s.findEvent == nil {
		panic("FindEvent not implemented")
	}
	return s.findEvent(ctx, id)
}

func (s *stubRepo) SaveEvent(ctx context.Context, event *models.Event) error {
	if s.saveEvent == nil {
		panic("SaveEvent not implemented")
	}
	return s.saveEvent(ctx, event)
}

func (s *stubRepo) ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error) {
	panic("ListEventsByOrganizer not implemented")
}

func (s *stubRepo) CreateStall(ctx context.Context, stall *models.Stall) error {
	if s.createStall == nil {
		panic("CreateStall not implemented")
	}
	return s.createStall(ctx, stall)
}

func (s *stubRepo) FindStall(ctx context.Context, eventID, stallID uuid.UUID) (*models.Stall, error) {
	if s.findStall == nil {
		panic("FindStall not implemented")
	}
	return s.findStall(ctx, eventID, stallID)
}

func (s *stubRepo) SaveStall(ctx context.Context, stall *models.Stall) error {
	if s.saveStall == nil {
		panic("SaveStall not implemented")
	}
	return s.saveStall(ctx, stall)
}

func (s *stubRepo) ListStalls(ctx context.Context, eventID uuid.UUID) ([]models.Stall, error) {
	panic("ListStalls not implemented")
}

func (s *stubRepo) CountStallOrders(ctx context.Context, stallID uuid.UUID) (int64, error) {
	if s.countStallOrders == nil {
		panic("CountStallOrders not implemented")
	}
	return s.countStallOrders(ctx, stallID)
}

func (s *stubRepo) DeleteStall(ctx context.Context, stall *models.Stall) error {
	if s.deleteStall == nil {
		panic("DeleteStall not implemented")
	}
	return s.deleteStall(ctx, stall)
}

func (s *stubRepo) CreateCashier(ctx context.Context, cashier *models.Cashier) error {
	if s.createCashier == nil {
		panic("CreateCashier not implemented")
	}
	return s.createCashier(ctx, cashier)
}

func (s *stubRepo) FindCashier(ctx context.Context, eventID, cashierID uuid.UUID) (*models.Cashier, error) {
	if s.findCashier == nil {
		panic("FindCashier not implemented")
	}
	return s.findCashier(ctx, eventID, cashierID)
}

func (s *stubRepo) SaveCashier(ctx context.Context, cashier *models.Cashier) error {
	if s.saveCashier == nil {
		panic("SaveCashier not implemented")
	}
	return s.saveCashier(ctx, cashier)
}

func (s *stubRepo) ListCashiers(ctx context.Context, eventID uuid.UUID) ([]models.Cashier, error) {
	panic("ListCashiers not implemented")
}

func (s *stubRepo) CountCashierLedgerEntries(ctx context.Context, cashierID uuid.UUID) (int64, error) {
	if s.countCashierLedgerEntries == nil {
		panic("CountCashierLedgerEntries not implemented")
	}
	return s.countCashierLedgerEntries(ctx, cashierID)
}

func (s *stubRepo) DeleteCashier(ctx context.Context, cashier *models.Cashier) error {
	if s.deleteCashier == nil {
		panic("DeleteCashier not implemented")
	}
	return s.deleteCashier(ctx, cashier)
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
	svc, err := NewService(stubTxRunner{}, repo, testPasswordConfig())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func wantCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error with code %s, got %v", code, err)
	}
	if appErr.Code() != code {
		t.Fatalf("error code = %s, want %s (%v)", appErr.Code(), code, err)
	}
}

func ownedEvent(organizerID uuid.UUID) *models.Event {
	return &models.Event{
		ID:          uuid.New(),
		OrganizerID: organizerID,
		Name:        "Summer Fest",
		Currency:    "EUR",
		Active:      true,
	}
}

func TestGetEventHidesForeignEvents(t *testing.T) {
	organizerID := uuid.New()
	event := ownedEvent(organizerID)
	repo := &stubRepo{
		findEvent: func(ctx context.Context, id uuid.UUID) (*models.Event, error) {
			return event, nil
		},
	}
	svc := newTestService(t, repo)

	got, err := svc.GetEvent(context.Background(), organizerID, event.ID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if got.ID != event.ID {
		t.Error("expected the owned event back")
	}

	_, err = svc.GetEvent(context.Background(), uuid.New(), event.ID)
	wantCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateStallReturnsTempPasswordOnce(t *testing.T) {
	organizerID := uuid.New()
	event := ownedEvent(organizerID)

	var created *models.Stall
	repo := &stubRepo{
		findEvent: func(ctx context.Context, id uuid.UUID) (*models.Event, error) {
			return event, nil
		},
		createStall: func(ctx context.Context, stall *models.Stall) error {
			stall.ID = uuid.New()
			created = stall
			return nil
		},
	}
	svc := newTestService(t, repo)

	provisioned, err := svc.CreateStall(context.Background(), CreateStallInput{
		OrganizerID:    organizerID,
		EventID:        event.ID,
		Name:           "Grill Stand",
		OwnerPhone:     "+4915112345678",
		CommissionRate: decimal.RequireFromString("0.15"),
	})
	if err != nil {
		t.Fatalf("CreateStall: %v", err)
	}

	if len(provisioned.TempPassword) != 10 {
		t.Errorf("temp password length = %d, want 10", len(provisioned.TempPassword))
	}
	if created == nil || !created.TempPassword {
		t.Error("stall must be flagged as having a temporary password")
	}
	if created.PasswordHash == provisioned.TempPassword {
		t.Error("password must be stored hashed")
	}
	ok, err := security.VerifyPassword(provisioned.TempPassword, created.PasswordHash)
	if err != nil || !ok {
		t.Errorf("temp password must verify against stored hash (ok=%v err=%v)", ok, err)
	}
}

func TestCreateStallValidatesCommissionRate(t *testing.T) {
	organizerID := uuid.New()
	event := ownedEvent(organizerID)
	repo := &stubRepo{
		findEvent: func(ctx context.Context, id uuid.UUID) (*models.Event, error) {
			return event, nil
		},
	}
	svc := newTestService(t, repo)

	for _, rate := range []string{"-0.01", "1.01"} {
		_, err := svc.CreateStall(context.Background(), CreateStallInput{
			OrganizerID:    organizerID,
			EventID:        event.ID,
			Name:           "Grill Stand",
			OwnerPhone:     "+49151",
			CommissionRate: decimal.RequireFromString(rate),
		})
		wantCode(t, err, pkgerrors.CodeValidation)
	}
}

func TestCreateStallConflictOnDuplicatePhone(t *testing.T) {
	organizerID := uuid.New()
	event := ownedEvent(organizerID)
	repo := &stubRepo{
		findEvent: func(ctx context.Context, id uuid.UUID) (*models.Event, error) {
			return event, nil
		},
		createStall: func(ctx context.Context, stall *models.Stall) error {
			return errors.New(`duplicate key value violates unique constraint "uq_stalls_event_phone"`)
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.CreateStall(context.Background(), CreateStallInput{
		OrganizerID:    organizerID,
		EventID:        event.ID,
		Name:           "Grill Stand",
		OwnerPhone:     "+49151",
		CommissionRate: decimal.RequireFromString("0.10"),
	})
	wantCode(t, err, pkgerrors.CodeConflict)
}

func TestDeleteStallBlockedByOrderHistory(t *testing.T) {
	organizerID := uuid.New()
	event := ownedEvent(organizerID)
	stall := &models.Stall{ID: uuid.New(), EventID: event.ID}

	deleted := false
	repo := &stubRepo{
		findEvent: func(ctx context.Context, id uuid.UUID) (*models.Event, error) {
			return event, nil
		},
		findStall: func(ctx context.Context, eventID, stallID uuid.UUID) (*models.Stall, error) {
			return stall, nil
		},
		countStallOrders: func(ctx context.Context, stallID uuid.UUID) (int64, error) {
			return 12, nil
		},
		deleteStall: func(ctx context.Context, st *models.Stall) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(t, repo)

	err := svc.DeleteStall(context.Background(), organizerID, event.ID, stall.ID)
	wantCode(t, err, pkgerrors.CodeConflict)
	if deleted {
		t.Error("stall with orders must not be deleted")
	}
}

func TestDeleteCashierBlockedByLedgerHistory(t *testing.T) {
	organizerID := uuid.New()
	event := ownedEvent(organizerID)
	cashier := &models.Cashier{ID: uuid.New(), EventID: event.ID, Name: "Gate A"}

	repo := &stubRepo{
		findEvent: func(ctx context.Context, id uuid.UUID) (*models.Event, error) {
			return event, nil
		},
		findCashier: func(ctx context.Context, eventID, cashierID uuid.UUID) (*models.Cashier, error) {
			return cashier, nil
		},
		countCashierLedgerEntries: func(ctx context.Context, cashierID uuid.UUID) (int64, error) {
			return 1, nil
		},
	}
	svc := newTestService(t, repo)

	err := svc.DeleteCashier(context.Background(), organizerID, event.ID, cashier.ID)
	wantCode(t, err, pkgerrors.CodeConflict)
}

func TestResetStallPasswordFlagsTemp(t *testing.T) {
	organizerID := uuid.New()
	event := ownedEvent(organizerID)
	stall := &models.Stall{ID: uuid.New(), EventID: event.ID, PasswordHash: "old", TempPassword: false}

	repo := &stubRepo{
		findEvent: func(ctx context.Context, id uuid.UUID) (*models.Event, error) {
			return event, nil
		},
		findStall: func(ctx context.Context, eventID, stallID uuid.UUID) (*models.Stall, error) {
			return stall, nil
		},
		saveStall: func(ctx context.Context, st *models.Stall) error { return nil },
	}
	svc := newTestService(t, repo)

	password, err := svc.ResetStallPassword(context.Background(), organizerID, event.ID, stall.ID)
	if err != nil {
		t.Fatalf("ResetStallPassword: %v", err)
	}
	if password == "" {
		t.Fatal("expected a fresh temp password")
	}
	if !stall.TempPassword {
		t.Error("reset must flag the password as temporary")
	}
	ok, err := security.VerifyPassword(password, stall.PasswordHash)
	if err != nil || !ok {
		t.Errorf("new password must verify against stored hash (ok=%v err=%v)", ok, err)
	}
}

func TestCreateEventDefaultsCurrency(t *testing.T) {
	repo := &stubRepo{
		createEvent: func(ctx context.Context, event *models.Event) error {
			event.ID = uuid.New()
			return nil
		},
	}
	svc := newTestService(t, repo)

	event, err := svc.CreateEvent(context.Background(), CreateEventInput{
		OrganizerID: uuid.New(),
		Name:        "Autumn Market",
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if event.Currency != "USD" {
		t.Errorf("currency = %s, want default USD", event.Currency)
	}
	if !event.Active {
		t.Error("new events start active")
	}

	_, err = svc.CreateEvent(context.Background(), CreateEventInput{OrganizerID: uuid.New(), Name: "X", Currency: "EURO"})
	wantCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateEventAppliesPartialEdits(t *testing.T) {
	organizerID := uuid.New()
	event := ownedEvent(organizerID)
	repo := &stubRepo{
		findEvent: func(ctx context.Context, id uuid.UUID) (*models.Event, error) {
			return event, nil
		},
		saveEvent: func(ctx context.Context, ev *models.Event) error { return nil },
	}
	svc := newTestService(t, repo)

	inactive := false
	theme := "#ff6600"
	updated, err := svc.UpdateEvent(context.Background(), UpdateEventInput{
		OrganizerID: organizerID,
		EventID:     event.ID,
		ThemeColor:  &theme,
		Active:      &inactive,
	})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if updated.Active {
		t.Error("event must be deactivated")
	}
	if updated.ThemeColor == nil || *updated.ThemeColor != theme {
		t.Error("theme color must be updated")
	}
	if updated.Name != "Summer Fest" {
		t.Error("untouched fields must survive")
	}
}
