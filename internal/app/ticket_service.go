package app

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/myron98980/halloween-party-app/internal/clock"
	"github.com/myron98980/halloween-party-app/internal/domain"
)

type TicketRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateTicket(ctx context.Context, ticket domain.Ticket) error
	GetTicket(ctx context.Context, id string) (domain.Ticket, error)
	FindByNumero(ctx context.Context, numero string) (*domain.Ticket, error)
	UpdateTicket(ctx context.Context, ticket domain.Ticket) error
	DeleteTicket(ctx context.Context, id string) error
	ListTickets(ctx context.Context) ([]domain.Ticket, error)
}

// ChangePublisher receives the record-store notifications emitted after
// every committed write.
type ChangePublisher interface {
	PublishChange(change domain.Change)
	PublishSnapshot(tickets []domain.Ticket)
}

type TicketService struct {
	repo      TicketRepository
	clock     clock.Clock
	publisher ChangePublisher
	logger    *logrus.Logger
}

func NewTicketService(repo TicketRepository, clk clock.Clock, publisher ChangePublisher, logger *logrus.Logger) *TicketService {
	return &TicketService{
		repo:      repo,
		clock:     clk,
		publisher: publisher,
		logger:    logger,
	}
}

// TicketEntry is one ticket of a batch: the six-digit suffix plus its
// individual payment status.
type TicketEntry struct {
	NumeroSuffix string
	Estado       domain.PaymentStatus
}

type CreateBatchInput struct {
	Tipo              domain.TicketType
	Tickets           []TicketEntry
	NombreComprador   string
	ContactoComprador string
	VendedorNombre    string
}

// CreateBatch registers N tickets sharing buyer, contact and type. The
// batch either commits entirely or not at all: any duplicate code aborts
// before the first insert, and the surrounding transaction covers the
// inserts themselves.
func (s *TicketService) CreateBatch(ctx context.Context, in CreateBatchInput) ([]domain.Ticket, error) {
	if !in.Tipo.Valid() {
		return nil, domain.ErrInvalidTicketType
	}
	if strings.TrimSpace(in.NombreComprador) == "" {
		return nil, domain.ErrBuyerNameRequired
	}
	if len(in.Tickets) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	for _, entry := range in.Tickets {
		if !domain.ValidNumeroSuffix(entry.NumeroSuffix) {
			return nil, domain.ErrInvalidTicketNumber
		}
		if !entry.Estado.Valid() {
			return nil, domain.ErrInvalidStatus
		}
	}

	now := s.clock.Now()
	created := make([]domain.Ticket, 0, len(in.Tickets))

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		for _, entry := range in.Tickets {
			numero := domain.FormatNumero(in.Tipo, entry.NumeroSuffix)
			existing, err := s.repo.FindByNumero(txCtx, numero)
			if err != nil {
				return err
			}
			if existing != nil {
				return domain.ErrDuplicateTicket
			}
		}

		for _, entry := range in.Tickets {
			ticket := domain.Ticket{
				ID:                uuid.NewString(),
				Tipo:              in.Tipo,
				NumeroTicket:      domain.FormatNumero(in.Tipo, entry.NumeroSuffix),
				Estado:            entry.Estado,
				NombreComprador:   strings.ToUpper(strings.TrimSpace(in.NombreComprador)),
				ContactoComprador: in.ContactoComprador,
				VendedorNombre:    in.VendedorNombre,
				FechaRegistro:     now,
			}
			if err := s.repo.CreateTicket(txCtx, ticket); err != nil {
				return err
			}
			created = append(created, ticket)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range created {
		ticket := created[i]
		s.publisher.PublishChange(domain.Change{Kind: domain.ChangeCreated, After: &ticket})
	}
	s.publishSnapshot(ctx)

	return created, nil
}

type UpdateTicketInput struct {
	Tipo              domain.TicketType
	NumeroSuffix      string
	Estado            domain.PaymentStatus
	NombreComprador   string
	ContactoComprador string
}

// UpdateTicket replaces the five editable fields of one ticket. The code
// is recomputed from tipo+suffix, so a type change retires the old code
// and takes a fresh one in the new prefix.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, in UpdateTicketInput) (domain.Ticket, error) {
	if !in.Tipo.Valid() {
		return domain.Ticket{}, domain.ErrInvalidTicketType
	}
	if !in.Estado.Valid() {
		return domain.Ticket{}, domain.ErrInvalidStatus
	}
	if strings.TrimSpace(in.NombreComprador) == "" {
		return domain.Ticket{}, domain.ErrBuyerNameRequired
	}
	if !domain.ValidNumeroSuffix(in.NumeroSuffix) {
		return domain.Ticket{}, domain.ErrInvalidTicketNumber
	}

	before, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		return domain.Ticket{}, err
	}

	numero := domain.FormatNumero(in.Tipo, in.NumeroSuffix)
	if numero != before.NumeroTicket {
		existing, err := s.repo.FindByNumero(ctx, numero)
		if err != nil {
			return domain.Ticket{}, err
		}
		if existing != nil {
			return domain.Ticket{}, domain.ErrDuplicateTicket
		}
	}

	// VendedorNombre and FechaRegistro are immutable after creation.
	after := before
	after.Tipo = in.Tipo
	after.NumeroTicket = numero
	after.Estado = in.Estado
	after.NombreComprador = strings.ToUpper(strings.TrimSpace(in.NombreComprador))
	after.ContactoComprador = in.ContactoComprador

	if err := s.repo.UpdateTicket(ctx, after); err != nil {
		return domain.Ticket{}, err
	}

	beforeCopy, afterCopy := before, after
	s.publisher.PublishChange(domain.Change{Kind: domain.ChangeUpdated, Before: &beforeCopy, After: &afterCopy})
	s.publishSnapshot(ctx)

	return after, nil
}

func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	before, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTicket(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishChange(domain.Change{Kind: domain.ChangeDeleted, Before: &before})
	s.publishSnapshot(ctx)
	return nil
}

func (s *TicketService) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	return s.repo.ListTickets(ctx)
}

// PublishInitialSnapshot primes snapshot subscribers with the current
// ticket set, so the aggregator is populated before the first write.
func (s *TicketService) PublishInitialSnapshot(ctx context.Context) error {
	tickets, err := s.repo.ListTickets(ctx)
	if err != nil {
		return err
	}
	s.publisher.PublishSnapshot(tickets)
	return nil
}

// publishSnapshot pushes the full current set to snapshot subscribers.
// The mirror of the just-committed write must not fail the caller, so a
// failed re-read is only logged.
func (s *TicketService) publishSnapshot(ctx context.Context) {
	tickets, err := s.repo.ListTickets(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to load tickets for snapshot notification")
		return
	}
	s.publisher.PublishSnapshot(tickets)
}
