package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/festpay/festpay-backend/api/middleware"
	"github.com/festpay/festpay-backend/api/responses"
	"github.com/festpay/festpay-backend/api/validators"
	"github.com/festpay/festpay-backend/internal/auth"
	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
	"github.com/festpay/festpay-backend/pkg/logger"
)

type organizerRegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2"`
	Password string `json:"password" validate:"required,min=8"`
}

type organizerLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type stallLoginRequest struct {
	EventID  string `json:"event_id" validate:"required,uuid"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type cashierLoginRequest struct {
	EventID  string `json:"event_id" validate:"required,uuid"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type visitorLoginRequest struct {
	EventID string `json:"event_id" validate:"required,uuid"`
	Phone   string `json:"phone" validate:"required"`
	PIN     string `json:"pin" validate:"required"`
}

func loginResponse(result *auth.LoginResult) map[string]any {
	payload := map[string]any{
		"token":      result.Token,
		"role":       string(result.Role),
		"subject_id": result.SubjectID,
	}
	if result.EventID != nil {
		payload["event_id"] = *result.EventID
	}
	if result.Branding != nil {
		payload["branding"] = result.Branding
	}
	if result.TempPassword {
		payload["temp_password"] = true
	}
	return payload
}

// OrganizerRegister creates an organizer account and logs it in.
func OrganizerRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body organizerRegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RegisterOrganizer(r.Context(), auth.RegisterOrganizerInput{
			Email:    body.Email,
			Name:     body.Name,
			Password: body.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, loginResponse(result))
	}
}

func OrganizerLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body organizerLoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.LoginOrganizer(r.Context(), body.Email, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loginResponse(result))
	}
}

func StallLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body stallLoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, _ := uuid.Parse(body.EventID)

		result, err := svc.LoginStall(r.Context(), eventID, body.Phone, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loginResponse(result))
	}
}

func CashierLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body cashierLoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, _ := uuid.Parse(body.EventID)

		result, err := svc.LoginCashier(r.Context(), eventID, body.Name, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loginResponse(result))
	}
}

func VisitorLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body visitorLoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, _ := uuid.Parse(body.EventID)

		result, err := svc.LoginVisitor(r.Context(), eventID, body.Phone, body.PIN)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loginResponse(result))
	}
}

// Logout revokes the caller's session. The token's jti comes from the auth
// middleware having already validated it.
func Logout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessID := middleware.AccessIDFromContext(r.Context())
		if accessID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
			return
		}
		if err := svc.Logout(r.Context(), accessID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
