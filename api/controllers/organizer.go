package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/festpay/festpay-backend/api/responses"
	"github.com/festpay/festpay-backend/api/validators"
	"github.com/festpay/festpay-backend/internal/events"
	"github.com/festpay/festpay-backend/internal/reports"
	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
	"github.com/festpay/festpay-backend/pkg/logger"
)

type createEventRequest struct {
	Name       string  `json:"name" validate:"required"`
	Currency   string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	LogoURL    *string `json:"logo_url,omitempty"`
	BannerURL  *string `json:"banner_url,omitempty"`
	ThemeColor *string `json:"theme_color,omitempty"`
}

type updateEventRequest struct {
	Name       *string `json:"name,omitempty"`
	LogoURL    *string `json:"logo_url,omitempty"`
	BannerURL  *string `json:"banner_url,omitempty"`
	ThemeColor *string `json:"theme_color,omitempty"`
	Active     *bool   `json:"active,omitempty"`
}

type createStallRequest struct {
	Name           string  `json:"name" validate:"required"`
	OwnerPhone     string  `json:"owner_phone" validate:"required"`
	CommissionRate string  `json:"commission_rate" validate:"required"`
	Description    *string `json:"description,omitempty"`
}

type updateStallRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type createCashierRequest struct {
	Name string `json:"name" validate:"required"`
}

func OrganizerCreateEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, err := subjectID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createEventRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.CreateEvent(r.Context(), events.CreateEventInput{
			OrganizerID: organizerID,
			Name:        body.Name,
			Currency:    body.Currency,
			LogoURL:     body.LogoURL,
			BannerURL:   body.BannerURL,
			ThemeColor:  body.ThemeColor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, event)
	}
}

func OrganizerListEvents(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, err := subjectID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListEvents(r.Context(), organizerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func OrganizerGetEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, eventID, err := organizerEventIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.GetEvent(r.Context(), organizerID, eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, event)
	}
}

func OrganizerUpdateEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, eventID, err := organizerEventIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateEventRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.UpdateEvent(r.Context(), events.UpdateEventInput{
			OrganizerID: organizerID,
			EventID:     eventID,
			Name:        body.Name,
			LogoURL:     body.LogoURL,
			BannerURL:   body.BannerURL,
			ThemeColor:  body.ThemeColor,
			Active:      body.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, event)
	}
}

func OrganizerCreateStall(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, eventID, err := organizerEventIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createStallRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rate, err := decimal.NewFromString(body.CommissionRate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be a decimal string"))
			return
		}

		provisioned, err := svc.CreateStall(r.Context(), events.CreateStallInput{
			OrganizerID:    organizerID,
			EventID:        eventID,
			Name:           body.Name,
			OwnerPhone:     body.OwnerPhone,
			CommissionRate: rate,
			Description:    body.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"stall":         provisioned.Stall,
			"temp_password": provisioned.TempPassword,
		})
	}
}

func OrganizerListStalls(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, eventID, err := organizerEventIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListStalls(r.Context(), organizerID, eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func OrganizerUpdateStall(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, eventID, err := organizerEventIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stallID, err := validators.ParsePathUUID(chi.URLParam(r, "stallId"), "stallId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateStallRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stall, err := svc.UpdateStall(r.Context(), events.UpdateStallInput{
			OrganizerID: organizerID,
			EventID:     eventID,
			StallID:     stallID,
			Name:        body.Name,
			Description: body.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stall)
	}
}

func OrganizerDeleteStall(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, eventID, err := organizerEventIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stallID, err := validators.ParsePathUUID(chi.URLParam(r, "stallId"), "stallId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteStall(r.Context(), organizerID, eventID, stallID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func OrganizerResetStallPassword(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, eventID, err := organizerEventIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stallID, err := validators.ParsePathUUID(chi.URLParam(r, "stallId"), "stallId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		password, err := svc.ResetStallPassword(r.Context(), organizerID, eventID, stallID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"temp_password": password})
	}
}

func OrganizerCreateCashier(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, eventID, err := organizerEventIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createCashierRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		provisioned, err := svc.CreateCashier(r.Context(), events.CreateCashierInput{
			OrganizerID: organizerID,
			EventID:     eventID,
			Name:        body.Name,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"cashier":       provisioned.Cashier,
			"temp_password": provisioned.TempPassword,
		})
	}
}

func OrganizerListCashiers(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, eventID, err := organizerEventIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListCashiers(r.Context(), organizerID, eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func OrganizerDeleteCashier(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, eventID, err := organizerEventIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cashierID, err := validators.ParsePathUUID(chi.URLParam(r, "cashierId"), "cashierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCashier(r.Context(), organizerID, eventID, cashierID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func OrganizerResetCashierPassword(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, eventID, err := organizerEventIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cashierID, err := validators.ParsePathUUID(chi.URLParam(r, "cashierId"), "cashierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		password, err := svc.ResetCashierPassword(r.Context(), organizerID, eventID, cashierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"temp_password": password})
	}
}

// OrganizerEventSummary is the reconciliation report for one event.
func OrganizerEventSummary(eventSvc events.Service, reportSvc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, eventID, err := organizerEventIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := eventSvc.GetEvent(r.Context(), organizerID, eventID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := reportSvc.EventSummary(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// OrganizerStallSales breaks settlement down per stall.
func OrganizerStallSales(eventSvc events.Service, reportSvc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, eventID, err := organizerEventIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := eventSvc.GetEvent(r.Context(), organizerID, eventID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := reportSvc.StallSales(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func organizerEventIDs(r *http.Request) (organizerID, eventID uuid.UUID, err error) {
	organizerID, err = subjectID(r)
	if err != nil {
		return
	}
	eventID, err = validators.ParsePathUUID(chi.URLParam(r, "eventId"), "eventId")
	return
}
