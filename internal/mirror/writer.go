// Package mirror keeps the shared spreadsheet in sync with the ticket
// record store. The mirror is a best-effort, denormalized copy: sheet
// failures are logged and discarded, never propagated back to the write
// that triggered them.
package mirror

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/myron98980/halloween-party-app/internal/clock"
	"github.com/myron98980/halloween-party-app/internal/domain"
	"github.com/myron98980/halloween-party-app/internal/monitoring"
	"github.com/myron98980/halloween-party-app/internal/sheets"
)

const (
	TabVIP     = "Tickets VIP"
	TabGeneral = "Tickets General"

	// Deadline for handling a single notification.
	handlerTimeout = 60 * time.Second

	displayTimezone = "America/Lima"
	displayFormat   = "02/01/2006, 15:04:05"
)

// TabFor selects the sheet tab that carries rows for a ticket type.
func TabFor(tipo domain.TicketType) string {
	if tipo == domain.TipoVIP {
		return TabVIP
	}
	return TabGeneral
}

type Writer struct {
	api     sheets.API
	rows    *RowCache
	clock   clock.Clock
	logger  *logrus.Logger
	metrics *monitoring.Metrics
	tz      *time.Location
}

func NewWriter(api sheets.API, rows *RowCache, clk clock.Clock, logger *logrus.Logger, metrics *monitoring.Metrics) *Writer {
	tz, err := time.LoadLocation(displayTimezone)
	if err != nil {
		logger.WithError(err).Warnf("timezone %s unavailable, display timestamps fall back to UTC", displayTimezone)
		tz = time.UTC
	}
	return &Writer{
		api:     api,
		rows:    rows,
		clock:   clk,
		logger:  logger,
		metrics: metrics,
		tz:      tz,
	}
}

// Run consumes change notifications until the channel closes or ctx is
// cancelled. Each notification gets its own handler goroutine; handlers
// for different tickets may run concurrently.
func (w *Writer) Run(ctx context.Context, changes <-chan domain.Change) {
	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case change, ok := <-changes:
			if !ok {
				wg.Wait()
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.handle(ctx, change)
			}()
		}
	}
}

// handle dispatches one notification. All sheet errors stop here: the
// database change already committed and is never rolled back or retried.
func (w *Writer) handle(ctx context.Context, change domain.Change) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	var err error
	switch change.Kind {
	case domain.ChangeCreated:
		if change.After == nil {
			w.logger.Error("created notification without ticket data")
			return
		}
		err = w.HandleCreated(ctx, *change.After)
	case domain.ChangeUpdated:
		if change.Before == nil || change.After == nil {
			w.logger.Error("updated notification without before/after data")
			return
		}
		err = w.HandleUpdated(ctx, *change.Before, *change.After)
	case domain.ChangeDeleted:
		if change.Before == nil {
			w.logger.Error("deleted notification without ticket data")
			return
		}
		err = w.HandleDeleted(ctx, *change.Before)
	default:
		w.logger.WithField("kind", change.Kind).Error("unknown change kind")
		return
	}

	if err != nil {
		w.metrics.MirrorFailures.WithLabelValues(string(change.Kind)).Inc()
		w.logger.WithError(err).WithField("kind", change.Kind).
			Error("spreadsheet mirror update failed, discarding")
	}
}

// HandleCreated writes the ticket's row into its tab. A code with no
// pre-provisioned row is a logged no-op, not an error: the database
// record stands regardless.
func (w *Writer) HandleCreated(ctx context.Context, ticket domain.Ticket) error {
	w.logger.WithField("numero", ticket.NumeroTicket).Info("mirroring new ticket")
	return w.upsert(ctx, ticket, w.clock.Now())
}

// HandleUpdated reconciles an edit. A code change moves the ticket
// between rows (clear old, write new, "now" timestamp); an in-place edit
// overwrites the row keeping the original registration time on display.
func (w *Writer) HandleUpdated(ctx context.Context, before, after domain.Ticket) error {
	if before.NumeroTicket != after.NumeroTicket {
		w.logger.WithFields(logrus.Fields{
			"from": before.NumeroTicket,
			"to":   after.NumeroTicket,
		}).Info("ticket code changed, moving mirror row")

		if err := w.clear(ctx, before); err != nil {
			return err
		}
		// Not transactional with the clear above: a failure here leaves
		// the old row cleared and the new one unwritten.
		return w.upsert(ctx, after, w.clock.Now())
	}

	w.logger.WithField("numero", after.NumeroTicket).Info("mirroring ticket update")
	return w.upsert(ctx, after, before.FechaRegistro)
}

// HandleDeleted blanks the ticket's row. A missing row is a no-op.
func (w *Writer) HandleDeleted(ctx context.Context, ticket domain.Ticket) error {
	w.logger.WithField("numero", ticket.NumeroTicket).Info("clearing mirror row for deleted ticket")
	return w.clear(ctx, ticket)
}

func (w *Writer) upsert(ctx context.Context, ticket domain.Ticket, displayTime time.Time) error {
	tab := TabFor(ticket.Tipo)
	row, found, err := w.rows.Lookup(ctx, tab, ticket.NumeroTicket)
	if err != nil {
		return err
	}
	if !found {
		w.metrics.MirrorRowsMissing.WithLabelValues(tab).Inc()
		w.logger.WithFields(logrus.Fields{
			"numero": ticket.NumeroTicket,
			"tab":    tab,
		}).Warn("ticket has no pre-provisioned row in sheet, skipping")
		return nil
	}

	values := [sheets.MirrorWidth]string{
		ticket.VendedorNombre,
		w.formatTime(displayTime),
		ticket.NombreComprador,
		string(ticket.Estado),
		strconv.Itoa(ticket.Monto()),
	}
	if err := w.api.UpdateRow(ctx, tab, row, values); err != nil {
		return err
	}
	w.metrics.MirrorWrites.WithLabelValues("upsert").Inc()
	return nil
}

func (w *Writer) clear(ctx context.Context, ticket domain.Ticket) error {
	tab := TabFor(ticket.Tipo)
	row, found, err := w.rows.Lookup(ctx, tab, ticket.NumeroTicket)
	if err != nil {
		return err
	}
	if !found {
		w.metrics.MirrorRowsMissing.WithLabelValues(tab).Inc()
		w.logger.WithFields(logrus.Fields{
			"numero": ticket.NumeroTicket,
			"tab":    tab,
		}).Warn("no row to clear in sheet, skipping")
		return nil
	}

	if err := w.api.ClearRow(ctx, tab, row); err != nil {
		return err
	}
	w.metrics.MirrorWrites.WithLabelValues("clear").Inc()
	return nil
}

func (w *Writer) formatTime(t time.Time) string {
	return t.In(w.tz).Format(displayFormat)
}
