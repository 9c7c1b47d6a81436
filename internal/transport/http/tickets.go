package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/myron98980/halloween-party-app/internal/app"
	"github.com/myron98980/halloween-party-app/internal/domain"
)

var validate = validator.New()

// TicketWriter is the minimal interface needed by the mutating ticket
// endpoints.
type TicketWriter interface {
	CreateBatch(ctx context.Context, in app.CreateBatchInput) ([]domain.Ticket, error)
	UpdateTicket(ctx context.Context, id string, in app.UpdateTicketInput) (domain.Ticket, error)
	DeleteTicket(ctx context.Context, id string) error
}

// TicketDirectory serves the searchable ticket listing from the live
// in-memory projection.
type TicketDirectory interface {
	List(search string) []domain.Ticket
}

// HandleCreateTickets returns the handler for registering a batch of
// tickets sharing one buyer. The seller name comes from the session,
// never from the payload.
func HandleCreateTickets(svc TicketWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "not authenticated")
			return
		}

		var req createTicketsRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
			return
		}

		entries := make([]app.TicketEntry, 0, len(req.Tickets))
		for _, entry := range req.Tickets {
			entries = append(entries, app.TicketEntry{
				NumeroSuffix: entry.Numero,
				Estado:       domain.PaymentStatus(entry.Estado),
			})
		}

		tickets, err := svc.CreateBatch(r.Context(), app.CreateBatchInput{
			Tipo:              domain.TicketType(req.Tipo),
			Tickets:           entries,
			NombreComprador:   req.NombreComprador,
			ContactoComprador: req.ContactoComprador,
			VendedorNombre:    identity.Nombre,
		})
		if err != nil {
			writeTicketError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(ticketResponses(tickets))
	}
}

// HandleUpdateTicket returns the handler for editing one ticket.
func HandleUpdateTicket(svc TicketWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req updateTicketRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
			return
		}

		ticket, err := svc.UpdateTicket(r.Context(), id, app.UpdateTicketInput{
			Tipo:              domain.TicketType(req.Tipo),
			NumeroSuffix:      req.Numero,
			Estado:            domain.PaymentStatus(req.Estado),
			NombreComprador:   req.NombreComprador,
			ContactoComprador: req.ContactoComprador,
		})
		if err != nil {
			writeTicketError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toTicketResponse(ticket))
	}
}

// HandleDeleteTicket returns the handler for removing one ticket.
func HandleDeleteTicket(svc TicketWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := svc.DeleteTicket(r.Context(), id); err != nil {
			writeTicketError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleListTickets returns the handler for the searchable listing.
// Search filters by buyer name or ticket code, case-insensitively.
func HandleListTickets(dir TicketDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tickets := dir.List(r.URL.Query().Get("search"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ticketResponses(tickets))
	}
}

type createTicketsRequest struct {
	Tipo              string               `json:"tipo" validate:"required,oneof=VIP GEN"`
	Tickets           []ticketEntryPayload `json:"tickets" validate:"required,min=1,dive"`
	NombreComprador   string               `json:"nombreComprador" validate:"required"`
	ContactoComprador string               `json:"contactoComprador"`
}

type ticketEntryPayload struct {
	Numero string `json:"numero" validate:"required,len=6,numeric"`
	Estado string `json:"estado" validate:"required,oneof=PAGADO POR_PAGAR GRATIS"`
}

type updateTicketRequest struct {
	Tipo              string `json:"tipo" validate:"required,oneof=VIP GEN"`
	Numero            string `json:"numero" validate:"required,len=6,numeric"`
	Estado            string `json:"estado" validate:"required,oneof=PAGADO POR_PAGAR GRATIS"`
	NombreComprador   string `json:"nombreComprador" validate:"required"`
	ContactoComprador string `json:"contactoComprador"`
}

type ticketResponse struct {
	ID                string    `json:"id"`
	Tipo              string    `json:"tipo"`
	NumeroTicket      string    `json:"numeroTicket"`
	Estado            string    `json:"estado"`
	NombreComprador   string    `json:"nombreComprador"`
	ContactoComprador string    `json:"contactoComprador"`
	VendedorNombre    string    `json:"vendedorNombre"`
	FechaRegistro     time.Time `json:"fechaRegistro"`
	Monto             int       `json:"monto"`
}

func toTicketResponse(t domain.Ticket) ticketResponse {
	return ticketResponse{
		ID:                t.ID,
		Tipo:              string(t.Tipo),
		NumeroTicket:      t.NumeroTicket,
		Estado:            string(t.Estado),
		NombreComprador:   t.NombreComprador,
		ContactoComprador: t.ContactoComprador,
		VendedorNombre:    t.VendedorNombre,
		FechaRegistro:     t.FechaRegistro,
		Monto:             t.Monto(),
	}
}

func ticketResponses(tickets []domain.Ticket) []ticketResponse {
	resp := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		resp = append(resp, toTicketResponse(t))
	}
	return resp
}
