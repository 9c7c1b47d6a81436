package mirror

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/myron98980/halloween-party-app/internal/sheets"
)

// RowCache maps ticket codes to their 1-based sheet row per tab. It is a
// cached form of the column-A linear scan: hits are revalidated against
// the live cell before being trusted, so a stale entry can never send a
// write to the wrong row, and a miss falls back to a full rescan.
type RowCache struct {
	api    sheets.API
	logger *logrus.Logger

	mu   sync.Mutex
	tabs map[string]map[string]int
}

func NewRowCache(api sheets.API, logger *logrus.Logger) *RowCache {
	return &RowCache{
		api:    api,
		logger: logger,
		tabs:   make(map[string]map[string]int),
	}
}

// Lookup resolves the row carrying code in column A of tab. found is
// false when the sheet has no such row.
func (c *RowCache) Lookup(ctx context.Context, tab, code string) (row int, found bool, err error) {
	c.mu.Lock()
	cached, ok := c.tabs[tab][code]
	c.mu.Unlock()

	if ok {
		cell, err := c.api.ReadCell(ctx, tab, cached)
		if err == nil && cell == code {
			return cached, true, nil
		}
		// Stale or unreadable: fall through to a full rescan.
	}

	rows, err := c.rescan(ctx, tab)
	if err != nil {
		return 0, false, err
	}
	row, found = rows[code]
	return row, found, nil
}

// Refresh rescans the given tabs, replacing their cached maps.
func (c *RowCache) Refresh(ctx context.Context, tabs ...string) error {
	for _, tab := range tabs {
		if _, err := c.rescan(ctx, tab); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleRefresh registers a periodic Refresh of the given tabs on the
// cron runner.
func (c *RowCache) ScheduleRefresh(runner *cron.Cron, spec string, tabs ...string) error {
	_, err := runner.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		if err := c.Refresh(ctx, tabs...); err != nil {
			c.logger.WithError(err).Warn("periodic row cache refresh failed")
		}
	})
	return err
}

func (c *RowCache) rescan(ctx context.Context, tab string) (map[string]int, error) {
	column, err := c.api.ReadColumn(ctx, tab)
	if err != nil {
		return nil, err
	}

	rows := make(map[string]int, len(column))
	for i, cell := range column {
		if cell == "" {
			continue
		}
		// First occurrence wins on duplicate codes.
		if _, exists := rows[cell]; !exists {
			rows[cell] = i + 1
		}
	}

	c.mu.Lock()
	c.tabs[tab] = rows
	c.mu.Unlock()
	return rows, nil
}
