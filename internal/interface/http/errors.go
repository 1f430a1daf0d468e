package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
	"github.com/intern-hub/progress-ledger/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeError maps err onto a status code and error envelope.
//
//	NotFound                      → 404
//	Conflict                      → 409
//	InvalidInput, validator       → 400
//	LimitExceeded                 → 422
//	body over the size limit      → 413
//	anything else                 → 500, logged
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeJSONError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
		return
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "validation_failed", "Request validation failed", fields)
		return
	}

	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, r, http.StatusNotFound, "not_found", message(err))
	case shared.IsConflict(err):
		writeJSONError(w, r, http.StatusConflict, "conflict", message(err))
	case shared.IsInvalidInput(err):
		writeJSONError(w, r, http.StatusBadRequest, "invalid_input", message(err))
	case shared.IsLimitExceeded(err):
		writeJSONError(w, r, http.StatusUnprocessableEntity, "limit_exceeded", message(err))
	default:
		logger.FromContext(r.Context()).Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Err(err),
		)
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// message returns the human-readable part of a domain error.
func message(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}
