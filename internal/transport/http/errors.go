package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/myron98980/halloween-party-app/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeValidationFailed    = "validation_failed"
	codeInvalidID           = "invalid_id"
	codeBuyerNameRequired   = "buyer_name_required"
	codeInvalidTicketNumber = "invalid_ticket_number"
	codeInvalidTicketType   = "invalid_ticket_type"
	codeInvalidStatus       = "invalid_status"
	codeEmptyBatch          = "empty_batch"
	codeDuplicateTicket     = "duplicate_ticket"
	codeTicketNotFound      = "ticket_not_found"
	codeUnauthorized        = "unauthorized"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeTicketError maps ticket service errors to an HTTP status and code.
func writeTicketError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTicketNotFound):
		writeError(w, http.StatusNotFound, codeTicketNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusNotFound, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrDuplicateTicket):
		writeError(w, http.StatusConflict, codeDuplicateTicket, err.Error())
	case errors.Is(err, domain.ErrBuyerNameRequired):
		writeError(w, http.StatusBadRequest, codeBuyerNameRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidTicketNumber):
		writeError(w, http.StatusBadRequest, codeInvalidTicketNumber, err.Error())
	case errors.Is(err, domain.ErrInvalidTicketType):
		writeError(w, http.StatusBadRequest, codeInvalidTicketType, err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, codeInvalidStatus, err.Error())
	case errors.Is(err, domain.ErrEmptyBatch):
		writeError(w, http.StatusBadRequest, codeEmptyBatch, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
