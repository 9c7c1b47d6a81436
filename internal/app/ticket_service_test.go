package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/myron98980/halloween-party-app/internal/clock"
	"github.com/myron98980/halloween-party-app/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestTicketService_CreateBatch(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 10, 31, 20, 0, 0, 0, time.UTC)

	makeSvc := func(existing []domain.Ticket) (*TicketService, *fakeTicketRepo, *capturePublisher) {
		repo := newFakeTicketRepo(existing)
		pub := &capturePublisher{}
		svc := NewTicketService(repo, clock.NewFixed(now), pub, testLogger())
		return svc, repo, pub
	}

	t.Run("creates all tickets in the batch", func(t *testing.T) {
		svc, repo, pub := makeSvc(nil)

		created, err := svc.CreateBatch(context.Background(), CreateBatchInput{
			Tipo: domain.TipoVIP,
			Tickets: []TicketEntry{
				{NumeroSuffix: "000001", Estado: domain.EstadoPagado},
				{NumeroSuffix: "000002", Estado: domain.EstadoPorPagar},
			},
			NombreComprador:   "ana torres",
			ContactoComprador: "999-111-222",
			VendedorNombre:    "Maria Quispe",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(created) != 2 {
			t.Fatalf("expected 2 tickets, got %d", len(created))
		}
		if created[0].NumeroTicket != "VIP-000001" {
			t.Fatalf("expected VIP-000001, got %s", created[0].NumeroTicket)
		}
		if created[0].NombreComprador != "ANA TORRES" {
			t.Fatalf("expected upper-cased buyer, got %s", created[0].NombreComprador)
		}
		if created[0].VendedorNombre != "Maria Quispe" {
			t.Fatalf("unexpected seller %s", created[0].VendedorNombre)
		}
		if !created[0].FechaRegistro.Equal(now) {
			t.Fatalf("expected fecha %v, got %v", now, created[0].FechaRegistro)
		}
		if created[0].ID == "" || created[0].ID == created[1].ID {
			t.Fatalf("expected distinct non-empty ids, got %q and %q", created[0].ID, created[1].ID)
		}
		if len(repo.tickets) != 2 {
			t.Fatalf("expected 2 tickets stored, got %d", len(repo.tickets))
		}
		if got := pub.changeKinds(); len(got) != 2 || got[0] != domain.ChangeCreated {
			t.Fatalf("expected 2 created changes, got %v", got)
		}
		if len(pub.snapshots) != 1 {
			t.Fatalf("expected 1 snapshot, got %d", len(pub.snapshots))
		}
	})

	t.Run("duplicate code aborts entire batch", func(t *testing.T) {
		svc, repo, pub := makeSvc([]domain.Ticket{
			{ID: "existing", Tipo: domain.TipoVIP, NumeroTicket: "VIP-000002"},
		})

		_, err := svc.CreateBatch(context.Background(), CreateBatchInput{
			Tipo: domain.TipoVIP,
			Tickets: []TicketEntry{
				{NumeroSuffix: "000001", Estado: domain.EstadoPagado},
				{NumeroSuffix: "000002", Estado: domain.EstadoPagado},
				{NumeroSuffix: "000003", Estado: domain.EstadoPagado},
			},
			NombreComprador: "Luis",
			VendedorNombre:  "Maria",
		})
		if !errors.Is(err, domain.ErrDuplicateTicket) {
			t.Fatalf("expected ErrDuplicateTicket, got %v", err)
		}
		if len(repo.tickets) != 1 {
			t.Fatalf("expected zero new tickets, repo has %d", len(repo.tickets))
		}
		if len(pub.changes) != 0 || len(pub.snapshots) != 0 {
			t.Fatal("expected no notifications on aborted batch")
		}
	})

	t.Run("validation errors", func(t *testing.T) {
		tests := []struct {
			name string
			in   CreateBatchInput
			want error
		}{
			{
				name: "empty buyer",
				in: CreateBatchInput{
					Tipo:            domain.TipoGeneral,
					Tickets:         []TicketEntry{{NumeroSuffix: "000001", Estado: domain.EstadoPagado}},
					NombreComprador: "   ",
				},
				want: domain.ErrBuyerNameRequired,
			},
			{
				name: "short suffix",
				in: CreateBatchInput{
					Tipo:            domain.TipoGeneral,
					Tickets:         []TicketEntry{{NumeroSuffix: "123", Estado: domain.EstadoPagado}},
					NombreComprador: "Luis",
				},
				want: domain.ErrInvalidTicketNumber,
			},
			{
				name: "non-numeric suffix",
				in: CreateBatchInput{
					Tipo:            domain.TipoGeneral,
					Tickets:         []TicketEntry{{NumeroSuffix: "12a456", Estado: domain.EstadoPagado}},
					NombreComprador: "Luis",
				},
				want: domain.ErrInvalidTicketNumber,
			},
			{
				name: "empty batch",
				in: CreateBatchInput{
					Tipo:            domain.TipoGeneral,
					NombreComprador: "Luis",
				},
				want: domain.ErrEmptyBatch,
			},
			{
				name: "bad type",
				in: CreateBatchInput{
					Tipo:            "PREMIUM",
					Tickets:         []TicketEntry{{NumeroSuffix: "000001", Estado: domain.EstadoPagado}},
					NombreComprador: "Luis",
				},
				want: domain.ErrInvalidTicketType,
			},
			{
				name: "bad status",
				in: CreateBatchInput{
					Tipo:            domain.TipoGeneral,
					Tickets:         []TicketEntry{{NumeroSuffix: "000001", Estado: "REGALADO"}},
					NombreComprador: "Luis",
				},
				want: domain.ErrInvalidStatus,
			},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				svc, repo, _ := makeSvc(nil)
				_, err := svc.CreateBatch(context.Background(), tt.in)
				if !errors.Is(err, tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, err)
				}
				if len(repo.tickets) != 0 {
					t.Fatalf("expected no writes, repo has %d", len(repo.tickets))
				}
			})
		}
	})
}

func TestTicketService_UpdateTicket(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 10, 31, 20, 0, 0, 0, time.UTC)
	registered := now.Add(-48 * time.Hour)

	stored := domain.Ticket{
		ID:              "t1",
		Tipo:            domain.TipoGeneral,
		NumeroTicket:    "GEN-000500",
		Estado:          domain.EstadoPorPagar,
		NombreComprador: "CARLA",
		VendedorNombre:  "Maria",
		FechaRegistro:   registered,
	}

	makeSvc := func(existing []domain.Ticket) (*TicketService, *fakeTicketRepo, *capturePublisher) {
		repo := newFakeTicketRepo(existing)
		pub := &capturePublisher{}
		svc := NewTicketService(repo, clock.NewFixed(now), pub, testLogger())
		return svc, repo, pub
	}

	t.Run("updates fields keeping code", func(t *testing.T) {
		svc, repo, pub := makeSvc([]domain.Ticket{stored})

		updated, err := svc.UpdateTicket(context.Background(), "t1", UpdateTicketInput{
			Tipo:            domain.TipoGeneral,
			NumeroSuffix:    "000500",
			Estado:          domain.EstadoPagado,
			NombreComprador: "carla mendoza",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if updated.NumeroTicket != "GEN-000500" {
			t.Fatalf("expected code unchanged, got %s", updated.NumeroTicket)
		}
		if updated.Estado != domain.EstadoPagado {
			t.Fatalf("expected PAGADO, got %s", updated.Estado)
		}
		if updated.NombreComprador != "CARLA MENDOZA" {
			t.Fatalf("expected upper-cased buyer, got %s", updated.NombreComprador)
		}
		if !updated.FechaRegistro.Equal(registered) {
			t.Fatalf("expected original fecha preserved, got %v", updated.FechaRegistro)
		}
		if updated.VendedorNombre != "Maria" {
			t.Fatalf("expected seller immutable, got %s", updated.VendedorNombre)
		}
		if repo.tickets[0].Estado != domain.EstadoPagado {
			t.Fatal("expected repo updated")
		}
		kinds := pub.changeKinds()
		if len(kinds) != 1 || kinds[0] != domain.ChangeUpdated {
			t.Fatalf("expected one updated change, got %v", kinds)
		}
		change := pub.changes[0]
		if change.Before == nil || change.Before.Estado != domain.EstadoPorPagar {
			t.Fatalf("expected before snapshot with prior status, got %+v", change.Before)
		}
	})

	t.Run("type change regenerates code", func(t *testing.T) {
		svc, repo, pub := makeSvc([]domain.Ticket{stored})

		updated, err := svc.UpdateTicket(context.Background(), "t1", UpdateTicketInput{
			Tipo:            domain.TipoVIP,
			NumeroSuffix:    "000501",
			Estado:          domain.EstadoPorPagar,
			NombreComprador: "Carla",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if updated.NumeroTicket != "VIP-000501" {
			t.Fatalf("expected VIP-000501, got %s", updated.NumeroTicket)
		}
		if repo.tickets[0].NumeroTicket != "VIP-000501" {
			t.Fatal("expected repo to carry new code")
		}
		change := pub.changes[0]
		if change.Before.NumeroTicket != "GEN-000500" || change.After.NumeroTicket != "VIP-000501" {
			t.Fatalf("expected before/after codes, got %s -> %s", change.Before.NumeroTicket, change.After.NumeroTicket)
		}
	})

	t.Run("duplicate code rejected", func(t *testing.T) {
		other := domain.Ticket{ID: "t2", Tipo: domain.TipoVIP, NumeroTicket: "VIP-000501"}
		svc, repo, pub := makeSvc([]domain.Ticket{stored, other})

		_, err := svc.UpdateTicket(context.Background(), "t1", UpdateTicketInput{
			Tipo:            domain.TipoVIP,
			NumeroSuffix:    "000501",
			Estado:          domain.EstadoPorPagar,
			NombreComprador: "Carla",
		})
		if !errors.Is(err, domain.ErrDuplicateTicket) {
			t.Fatalf("expected ErrDuplicateTicket, got %v", err)
		}
		if repo.tickets[0].NumeroTicket != "GEN-000500" {
			t.Fatal("expected stored ticket unchanged")
		}
		if len(pub.changes) != 0 {
			t.Fatal("expected no change notification")
		}
	})

	t.Run("same code skips uniqueness check against itself", func(t *testing.T) {
		svc, _, _ := makeSvc([]domain.Ticket{stored})

		// The stored code maps to itself; no duplicate error even though
		// FindByNumero would return this very ticket.
		if _, err := svc.UpdateTicket(context.Background(), "t1", UpdateTicketInput{
			Tipo:            domain.TipoGeneral,
			NumeroSuffix:    "000500",
			Estado:          domain.EstadoGratis,
			NombreComprador: "Carla",
		}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		svc, _, _ := makeSvc(nil)
		_, err := svc.UpdateTicket(context.Background(), "missing", UpdateTicketInput{
			Tipo:            domain.TipoGeneral,
			NumeroSuffix:    "000500",
			Estado:          domain.EstadoPagado,
			NombreComprador: "Carla",
		})
		if !errors.Is(err, domain.ErrTicketNotFound) {
			t.Fatalf("expected ErrTicketNotFound, got %v", err)
		}
	})
}

func TestTicketService_DeleteTicket(t *testing.T) {
	t.Parallel()

	stored := domain.Ticket{ID: "t1", Tipo: domain.TipoVIP, NumeroTicket: "VIP-000123"}
	repo := newFakeTicketRepo([]domain.Ticket{stored})
	pub := &capturePublisher{}
	svc := NewTicketService(repo, clock.NewSystem(), pub, testLogger())

	if err := svc.DeleteTicket(context.Background(), "t1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(repo.tickets) != 0 {
		t.Fatalf("expected ticket removed, repo has %d", len(repo.tickets))
	}
	change := pub.changes[0]
	if change.Kind != domain.ChangeDeleted || change.Before == nil || change.Before.NumeroTicket != "VIP-000123" {
		t.Fatalf("expected deleted change with prior snapshot, got %+v", change)
	}

	if err := svc.DeleteTicket(context.Background(), "t1"); !errors.Is(err, domain.ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound on second delete, got %v", err)
	}
}

type fakeTicketRepo struct {
	tickets []domain.Ticket
	err     error
}

func newFakeTicketRepo(existing []domain.Ticket) *fakeTicketRepo {
	return &fakeTicketRepo{tickets: append([]domain.Ticket{}, existing...)}
}

func (f *fakeTicketRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// The fake applies writes immediately; a failing fn leaves earlier
	// writes visible, which the service's pre-check prevents in practice.
	snapshot := append([]domain.Ticket{}, f.tickets...)
	if err := fn(ctx); err != nil {
		f.tickets = snapshot
		return err
	}
	return nil
}

func (f *fakeTicketRepo) CreateTicket(_ context.Context, ticket domain.Ticket) error {
	if f.err != nil {
		return f.err
	}
	for _, t := range f.tickets {
		if t.NumeroTicket == ticket.NumeroTicket {
			return domain.ErrDuplicateTicket
		}
	}
	f.tickets = append(f.tickets, ticket)
	return nil
}

func (f *fakeTicketRepo) GetTicket(_ context.Context, id string) (domain.Ticket, error) {
	if f.err != nil {
		return domain.Ticket{}, f.err
	}
	for _, t := range f.tickets {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Ticket{}, domain.ErrTicketNotFound
}

func (f *fakeTicketRepo) FindByNumero(_ context.Context, numero string) (*domain.Ticket, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.tickets {
		if f.tickets[i].NumeroTicket == numero {
			t := f.tickets[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (f *fakeTicketRepo) UpdateTicket(_ context.Context, ticket domain.Ticket) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.tickets {
		if f.tickets[i].ID == ticket.ID {
			f.tickets[i] = ticket
			return nil
		}
	}
	return domain.ErrTicketNotFound
}

func (f *fakeTicketRepo) DeleteTicket(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.tickets {
		if f.tickets[i].ID == id {
			f.tickets = append(f.tickets[:i], f.tickets[i+1:]...)
			return nil
		}
	}
	return domain.ErrTicketNotFound
}

func (f *fakeTicketRepo) ListTickets(_ context.Context) ([]domain.Ticket, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Ticket{}, f.tickets...), nil
}

type capturePublisher struct {
	changes   []domain.Change
	snapshots [][]domain.Ticket
}

func (c *capturePublisher) PublishChange(change domain.Change) {
	c.changes = append(c.changes, change)
}

func (c *capturePublisher) PublishSnapshot(tickets []domain.Ticket) {
	c.snapshots = append(c.snapshots, tickets)
}

func (c *capturePublisher) changeKinds() []domain.ChangeKind {
	kinds := make([]domain.ChangeKind, 0, len(c.changes))
	for _, ch := range c.changes {
		kinds = append(kinds, ch.Kind)
	}
	return kinds
}
