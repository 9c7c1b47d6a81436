package domain

import "errors"

var (
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrDuplicateTicket     = errors.New("ticket number already registered")
	ErrBuyerNameRequired   = errors.New("buyer name required")
	ErrInvalidTicketNumber = errors.New("ticket number must have exactly 6 digits")
	ErrInvalidTicketType   = errors.New("invalid ticket type")
	ErrInvalidStatus       = errors.New("invalid payment status")
	ErrEmptyBatch          = errors.New("at least one ticket required")
	ErrInvalidID           = errors.New("invalid id")
)
