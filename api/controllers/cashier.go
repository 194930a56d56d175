package controllers

import (
	"net/http"

	"github.com/festpay/festpay-backend/api/responses"
	"github.com/festpay/festpay-backend/api/validators"
	"github.com/festpay/festpay-backend/internal/reports"
	"github.com/festpay/festpay-backend/internal/wallets"
	"github.com/festpay/festpay-backend/pkg/logger"
	"github.com/festpay/festpay-backend/pkg/pagination"
)

type topUpRequest struct {
	Phone        string  `json:"phone" validate:"required"`
	AmountCents  int64   `json:"amount_cents" validate:"required,gt=0"`
	Name         *string `json:"name,omitempty"`
	MembershipID *string `json:"membership_id,omitempty"`
}

type refundRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// CashierTopUp accepts cash and credits the visitor's wallet, creating it on
// first contact. The one-time PIN is included only on creation.
func CashierTopUp(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cashierID, eventID, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body topUpRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.TopUp(r.Context(), wallets.TopUpInput{
			EventID:      eventID,
			VisitorPhone: body.Phone,
			AmountCents:  body.AmountCents,
			VisitorName:  body.Name,
			MembershipID: body.MembershipID,
			CashierID:    cashierID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := map[string]any{
			"wallet_id":     result.WalletID,
			"balance_cents": result.NewBalanceCents,
		}
		if result.Created {
			payload["pin"] = result.PlaintextPIN
		}
		responses.WriteSuccess(w, payload)
	}
}

// CashierRefund cashes out the full remaining balance and ends the wallet.
func CashierRefund(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cashierID, eventID, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body refundRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Refund(r.Context(), wallets.RefundInput{
			EventID:      eventID,
			VisitorPhone: body.Phone,
			CashierID:    cashierID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"wallet_id":      result.WalletID,
			"refunded_cents": result.RefundedCents,
		})
	}
}

// CashierLedger returns the caller's own shift log, newest first.
func CashierLedger(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cashierID, _, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.CashierLedger(r.Context(), cashierID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
