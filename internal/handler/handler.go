package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"rental-storefront/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// response is a successful facade reply; its fields are merged next to "ok".
type response map[string]any

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeOK writes {"ok": true, ...fields}.
func writeOK(w http.ResponseWriter, fields response) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["ok"] = true
	writeJSON(w, http.StatusOK, body)
}

// writeError maps err onto an {"ok": false} reply. Domain and validation
// errors keep their message and code; anything else is reported as an
// internal error.
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("handler error")
	} else {
		logger.Warn().Err(err).Int("status", status).Str("code", body.Code).Msg("request rejected")
	}
	writeJSON(w, status, body)
}

func errorResponse(err error) (int, model.ErrorResponse) {
	var problems *model.ValidationError
	if errors.As(err, &problems) {
		return http.StatusUnprocessableEntity, model.ErrorResponse{
			Error:   model.ErrCheckoutIncomplete.Message,
			Code:    model.ErrCodeCheckoutIncomplete,
			Details: problems.Problems,
		}
	}

	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		details := make([]model.FieldProblem, len(invalid))
		for i, fe := range invalid {
			details[i] = model.FieldProblem{Field: fe.Namespace(), Message: "failed " + fe.Tag() + " check"}
		}
		return http.StatusBadRequest, model.ErrorResponse{
			Error:   "Invalid payload",
			Code:    model.ErrCodeInvalidPayload,
			Details: details,
		}
	}

	var de *model.DomainError
	if errors.As(err, &de) {
		return statusFor(de.Code), model.ErrorResponse{Error: err.Error(), Code: de.Code}
	}

	return http.StatusInternalServerError, model.ErrorResponse{
		Error: "internal error",
		Code:  model.ErrCodeInternalError,
	}
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeEquipmentNotFound, model.ErrCodeCategoryNotFound:
		return http.StatusNotFound
	case model.ErrCodeDateUnavailable, model.ErrCodeBookingInProgress:
		return http.StatusConflict
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeCheckoutIncomplete:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
