package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/festpay/festpay-backend/api/middleware"
	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
)

// actorIDs extracts the authenticated subject and event scope seeded by the
// auth middleware. Event-scoped roles always carry both.
func actorIDs(r *http.Request) (subjectID, eventID uuid.UUID, err error) {
	subjectID, err = uuid.Parse(middleware.SubjectIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	eventID, err = uuid.Parse(middleware.EventIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing event scope")
	}
	return subjectID, eventID, nil
}

// subjectID extracts just the authenticated subject, for organizer routes
// that carry no event scope in the token.
func subjectID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(middleware.SubjectIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return id, nil
}
