package app

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/myron98980/halloween-party-app/internal/domain"
)

// Summary holds the dashboard counters derived from the full ticket set.
type Summary struct {
	TicketsVIP     int
	TicketsGeneral int
	TotalVendidos  int
	Pagados        int
	PorPagar       int
	Gratis         int
	TotalRecaudado int
}

// Aggregator keeps a live projection over the full ticket collection. It
// consumes full-result-set snapshots and recomputes the summary on each
// one; reads never observe a partially applied snapshot.
type Aggregator struct {
	logger *logrus.Logger

	mu      sync.RWMutex
	tickets []domain.Ticket
	summary Summary
}

func NewAggregator(logger *logrus.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Run consumes snapshots until the channel closes or ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context, snapshots <-chan []domain.Ticket) {
	for {
		select {
		case <-ctx.Done():
			return
		case tickets, ok := <-snapshots:
			if !ok {
				return
			}
			a.apply(tickets)
		}
	}
}

func (a *Aggregator) apply(tickets []domain.Ticket) {
	summary := BuildSummary(tickets)

	a.mu.Lock()
	a.tickets = append([]domain.Ticket(nil), tickets...)
	a.summary = summary
	a.mu.Unlock()

	a.logger.WithFields(logrus.Fields{
		"total":     summary.TotalVendidos,
		"recaudado": summary.TotalRecaudado,
		"vip":       summary.TicketsVIP,
		"general":   summary.TicketsGeneral,
	}).Debug("dashboard projection recomputed")
}

func (a *Aggregator) Summary() Summary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.summary
}

// List returns the current tickets sorted by registration date (newest
// first), optionally filtered by a case-insensitive substring match on
// buyer name or ticket code.
func (a *Aggregator) List(search string) []domain.Ticket {
	a.mu.RLock()
	tickets := append([]domain.Ticket(nil), a.tickets...)
	a.mu.RUnlock()

	return FilterTickets(tickets, search)
}

// BuildSummary is the pure projection over an arbitrary ticket set.
func BuildSummary(tickets []domain.Ticket) Summary {
	var s Summary
	for _, t := range tickets {
		switch t.Tipo {
		case domain.TipoVIP:
			s.TicketsVIP++
		case domain.TipoGeneral:
			s.TicketsGeneral++
		}
		switch t.Estado {
		case domain.EstadoPagado:
			s.Pagados++
		case domain.EstadoPorPagar:
			s.PorPagar++
		case domain.EstadoGratis:
			s.Gratis++
		}
		s.TotalRecaudado += t.Monto()
	}
	s.TotalVendidos = len(tickets)
	return s
}

// FilterTickets sorts by FechaRegistro descending (a zero timestamp
// sorts as oldest) and applies the search term.
func FilterTickets(tickets []domain.Ticket, search string) []domain.Ticket {
	sorted := append([]domain.Ticket(nil), tickets...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FechaRegistro.After(sorted[j].FechaRegistro)
	})

	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return sorted
	}

	filtered := sorted[:0]
	for _, t := range sorted {
		if strings.Contains(strings.ToLower(t.NombreComprador), term) ||
			strings.Contains(strings.ToLower(t.NumeroTicket), term) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
