package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/festpay/festpay-backend/api/responses"
	"github.com/festpay/festpay-backend/api/validators"
	"github.com/festpay/festpay-backend/internal/orders"
	"github.com/festpay/festpay-backend/internal/stalls"
	"github.com/festpay/festpay-backend/internal/wallets"
	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
	"github.com/festpay/festpay-backend/pkg/logger"
)

type visitorRegisterRequest struct {
	EventID string  `json:"event_id" validate:"required,uuid"`
	Phone   string  `json:"phone" validate:"required"`
	Name    *string `json:"name,omitempty"`
	PIN     string  `json:"pin" validate:"required,min=4"`
}

type purchaseLine struct {
	MenuItemID string `json:"menu_item_id" validate:"required,uuid"`
	Qty        int    `json:"qty" validate:"required,gt=0"`
}

type purchaseRequest struct {
	StallID string         `json:"stall_id" validate:"required,uuid"`
	PIN     string         `json:"pin" validate:"required"`
	Lines   []purchaseLine `json:"lines" validate:"required,min=1,dive"`
}

// VisitorRegister opens a zero-balance wallet ahead of the first top-up.
func VisitorRegister(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body visitorRegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, _ := uuid.Parse(body.EventID)

		wallet, err := svc.SelfRegister(r.Context(), wallets.SelfRegisterInput{
			EventID:      eventID,
			VisitorPhone: body.Phone,
			VisitorName:  body.Name,
			PIN:          body.PIN,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"wallet_id":     wallet.ID,
			"balance_cents": wallet.BalanceCents,
		})
	}
}

// VisitorWallet returns the caller's own balance and status.
func VisitorWallet(svc wallets.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		walletID, _, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wallet, err := svc.FindByID(r.Context(), walletID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"wallet_id":     wallet.ID,
			"phone":         wallet.VisitorPhone,
			"name":          wallet.VisitorName,
			"balance_cents": wallet.BalanceCents,
			"status":        wallet.Status,
		})
	}
}

// VisitorMenu lists a stall's available items for browsing before purchase.
func VisitorMenu(svc stalls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stallID, err := validators.ParsePathUUID(chi.URLParam(r, "stallId"), "stallId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListMenu(r.Context(), stallID, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// VisitorPurchase pays for a stall order from the caller's wallet.
func VisitorPurchase(svc orders.Service, walletRepo wallets.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		walletID, eventID, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body purchaseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stallID, _ := uuid.Parse(body.StallID)

		wallet, err := walletRepo.FindByID(r.Context(), walletID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]orders.LineInput, 0, len(body.Lines))
		for _, line := range body.Lines {
			itemID, _ := uuid.Parse(line.MenuItemID)
			lines = append(lines, orders.LineInput{MenuItemID: itemID, Qty: line.Qty})
		}

		order, err := svc.Purchase(r.Context(), orders.PurchaseInput{
			EventID:      eventID,
			StallID:      stallID,
			VisitorPhone: wallet.VisitorPhone,
			PIN:          body.PIN,
			Lines:        lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
