package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"carrental/internal/domain"

	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrCarNotFound, http.StatusNotFound, "car_not_found"},
	{domain.ErrBookingNotFound, http.StatusNotFound, "booking_not_found"},
	{domain.ErrDuplicateName, http.StatusConflict, "duplicate_name"},
	{domain.ErrDuplicateEmail, http.StatusConflict, "duplicate_email"},
	{domain.ErrIllegalTransition, http.StatusConflict, "illegal_transition"},
	{domain.ErrOutOfInventory, http.StatusConflict, "out_of_inventory"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{domain.ErrInvalidDateRange, http.StatusBadRequest, "invalid_date_range"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{domain.ErrSessionRequired, http.StatusUnauthorized, "session_required"},
}

// statusFor maps a domain error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, status, code, "internal error")
		return
	}
	writeError(w, status, code, err.Error())
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message, Code: code})
}
