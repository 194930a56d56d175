package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/festpay/festpay-backend/api/responses"
	"github.com/festpay/festpay-backend/api/validators"
	"github.com/festpay/festpay-backend/internal/dispatch"
	"github.com/festpay/festpay-backend/internal/orders"
	"github.com/festpay/festpay-backend/internal/stalls"
	"github.com/festpay/festpay-backend/pkg/config"
	"github.com/festpay/festpay-backend/pkg/enums"
	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
	"github.com/festpay/festpay-backend/pkg/logger"
)

type manualOrderRequest struct {
	CustomerName *string        `json:"customer_name,omitempty"`
	Lines        []purchaseLine `json:"lines" validate:"required,min=1,dive"`
}

type menuItemCreateRequest struct {
	Name       string `json:"name" validate:"required"`
	PriceCents int64  `json:"price_cents" validate:"required,gt=0"`
	Dietary    string `json:"dietary,omitempty"`
}

type menuItemUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	PriceCents *int64  `json:"price_cents,omitempty"`
	Available  *bool   `json:"available,omitempty"`
	Dietary    *string `json:"dietary,omitempty"`
}

type stallProfileRequest struct {
	Description *string `json:"description,omitempty"`
	LogoURL     *string `json:"logo_url,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// StallLiveOrders returns the pending queue for the caller's display.
func StallLiveOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stallID, _, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		live, err := svc.ListLive(r.Context(), stallID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, live)
	}
}

// StallOrdersStream pushes kitchen display events over server-sent events.
// Clients reconcile missed events by refetching the live queue on reconnect.
func StallOrdersStream(broker dispatch.Broker, cfg config.DispatchConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stallID, _, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		events, cancel := broker.Subscribe(r.Context(), stallID)
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		heartbeat := time.NewTicker(cfg.StreamHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-heartbeat.C:
				fmt.Fprint(w, ": keepalive\n\n")
				flusher.Flush()
			case event, open := <-events:
				if !open {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					if logg != nil {
						logg.Error(r.Context(), "dispatch.encode", err)
					}
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
				flusher.Flush()
			}
		}
	}
}

// StallManualOrder records a cash walk-up sale entered at the stall.
func StallManualOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stallID, eventID, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body manualOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]orders.LineInput, 0, len(body.Lines))
		for _, line := range body.Lines {
			itemID, _ := uuid.Parse(line.MenuItemID)
			lines = append(lines, orders.LineInput{MenuItemID: itemID, Qty: line.Qty})
		}

		order, err := svc.CreateManual(r.Context(), orders.ManualOrderInput{
			EventID:      eventID,
			StallID:      stallID,
			CustomerName: body.CustomerName,
			Lines:        lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// StallCompleteOrder marks an order served. Safe to retry.
func StallCompleteOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stallID, _, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Complete(r.Context(), stallID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func StallMenuList(svc stalls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stallID, _, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListMenu(r.Context(), stallID, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func StallMenuCreate(svc stalls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stallID, _, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body menuItemCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateMenuItem(r.Context(), stalls.MenuItemInput{
			StallID:    stallID,
			Name:       body.Name,
			PriceCents: body.PriceCents,
			Dietary:    enums.DietaryType(body.Dietary),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func StallMenuUpdate(svc stalls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stallID, _, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body menuItemUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		update := stalls.MenuItemUpdate{
			Name:       body.Name,
			PriceCents: body.PriceCents,
			Available:  body.Available,
		}
		if body.Dietary != nil {
			dietary := enums.DietaryType(*body.Dietary)
			update.Dietary = &dietary
		}

		item, err := svc.UpdateMenuItem(r.Context(), stallID, itemID, update)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func StallMenuDelete(svc stalls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stallID, _, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteMenuItem(r.Context(), stallID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func StallUpdateProfile(svc stalls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stallID, _, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body stallProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stall, err := svc.UpdateProfile(r.Context(), stalls.UpdateProfileInput{
			StallID:     stallID,
			Description: body.Description,
			LogoURL:     body.LogoURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stall)
	}
}

// StallChangePassword replaces the provisioning credential with one the stall
// owner chose.
func StallChangePassword(svc stalls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stallID, _, err := actorIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body changePasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ChangePassword(r.Context(), stallID, body.CurrentPassword, body.NewPassword); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "password_changed"})
	}
}
