package domain

import (
	"fmt"
	"strings"
	"time"
)

type TicketType string

const (
	TipoVIP     TicketType = "VIP"
	TipoGeneral TicketType = "GEN"
)

type PaymentStatus string

const (
	EstadoPagado   PaymentStatus = "PAGADO"
	EstadoPorPagar PaymentStatus = "POR_PAGAR"
	EstadoGratis   PaymentStatus = "GRATIS"
)

// Prices in PEN. Fixed for the event, never stored on the record.
const (
	PrecioVIP     = 40
	PrecioGeneral = 25
)

const numeroSuffixLen = 6

// Ticket is the sole entity: one sold (or reserved) party ticket.
type Ticket struct {
	ID                string
	Tipo              TicketType
	NumeroTicket      string
	Estado            PaymentStatus
	NombreComprador   string
	ContactoComprador string
	VendedorNombre    string
	FechaRegistro     time.Time
}

// Monto returns the derived monetary value: the ticket price when paid,
// zero otherwise.
func (t Ticket) Monto() int {
	if t.Estado != EstadoPagado {
		return 0
	}
	if t.Tipo == TipoVIP {
		return PrecioVIP
	}
	return PrecioGeneral
}

func (tt TicketType) Valid() bool {
	return tt == TipoVIP || tt == TipoGeneral
}

func (ps PaymentStatus) Valid() bool {
	return ps == EstadoPagado || ps == EstadoPorPagar || ps == EstadoGratis
}

// FormatNumero composes the human-facing ticket code `{tipo}-{6 digits}`.
func FormatNumero(tipo TicketType, suffix string) string {
	return fmt.Sprintf("%s-%s", tipo, suffix)
}

// ValidNumeroSuffix reports whether the suffix is exactly six digits.
func ValidNumeroSuffix(suffix string) bool {
	if len(suffix) != numeroSuffixLen {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NumeroSuffix returns the digits after the type prefix of a ticket code.
func NumeroSuffix(numero string) string {
	_, suffix, ok := strings.Cut(numero, "-")
	if !ok {
		return ""
	}
	return suffix
}
