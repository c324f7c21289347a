package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gurrammuni/jithu-bank/internal/ledger"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	JSON(w, code, ErrorResponse{Error: message})
}

// respondLedgerError maps engine errors to HTTP statuses, keeping each error
// kind's distinct message.
func respondLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrDuplicateUsername):
		RespondWithError(w, http.StatusConflict, ledger.ErrDuplicateUsername.Error())
	case errors.Is(err, ledger.ErrInvalidAmount):
		RespondWithError(w, http.StatusBadRequest, ledger.ErrInvalidAmount.Error())
	case errors.Is(err, ledger.ErrInvalidCredential):
		RespondWithError(w, http.StatusUnauthorized, ledger.ErrInvalidCredential.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		RespondWithError(w, http.StatusBadRequest, ledger.ErrInsufficientFunds.Error())
	case errors.Is(err, ledger.ErrInsufficientBalance):
		RespondWithError(w, http.StatusBadRequest, ledger.ErrInsufficientBalance.Error())
	case errors.Is(err, ledger.ErrRecipientNotFound):
		RespondWithError(w, http.StatusNotFound, ledger.ErrRecipientNotFound.Error())
	case errors.Is(err, ledger.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, ledger.ErrNotFound.Error())
	case errors.Is(err, ledger.ErrStoreUnavailable):
		RespondWithError(w, http.StatusServiceUnavailable, ledger.ErrStoreUnavailable.Error())
	default:
		RespondWithError(w, http.StatusInternalServerError, "internal error")
	}
}
