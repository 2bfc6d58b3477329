package http

import (
	"errors"
	"net/http"

	"myexpense/internal/charts"
	"myexpense/internal/core"
	"myexpense/internal/ledger"
	"myexpense/internal/log"
	"myexpense/internal/session"
)

// statusFor maps a domain error to its HTTP status and the message shown to
// the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, ledger.ErrInvalidTheme):
		return http.StatusUnprocessableEntity, "invalid theme"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "transaction not found"
	case errors.Is(err, charts.ErrNoData):
		return http.StatusNotFound, "no data to chart"
	case errors.Is(err, ledger.ErrOperationInFlight):
		return http.StatusConflict, "another operation is in progress"
	case errors.Is(err, session.ErrNotConfirmed):
		return http.StatusBadRequest, "deletion not confirmed"
	case errors.Is(err, ledger.ErrMedium):
		return http.StatusBadGateway, "storage backend unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeError logs err at a level matching its status and writes the error
// body. Validation failures carry the rejected field.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		s.events.LogError(r.Context(), "Request failed", err, op, nil)
	} else {
		logger.WarnContext(r.Context(), "Request rejected",
			log.FieldOperation, op,
			log.FieldStatusCode, status,
			log.FieldError, err.Error(),
		)
	}

	var verr *core.ValidationError
	if errors.As(err, &verr) {
		FieldError(verr.Field, msg).Write(w)
		return
	}
	ErrorResponse(status, msg).Write(w)
}
