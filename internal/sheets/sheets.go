// Package sheets wraps the Google Sheets collaborator behind a small
// interface so the mirror writer can be tested without the network.
package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// MirrorWidth is the number of mirrored cells per row (columns B..F:
// seller, timestamp, buyer, status, amount).
const MirrorWidth = 5

// API is the subset of spreadsheet operations the mirror writer needs.
// Row numbers are 1-based sheet rows.
type API interface {
	// ReadColumn returns column A of the tab, top to bottom.
	ReadColumn(ctx context.Context, tab string) ([]string, error)
	// ReadCell returns the value of cell A{row} of the tab.
	ReadCell(ctx context.Context, tab string, row int) (string, error)
	// UpdateRow writes values into B{row}:F{row} with formula-evaluating
	// (USER_ENTERED) semantics.
	UpdateRow(ctx context.Context, tab string, row int, values [MirrorWidth]string) error
	// ClearRow writes five literal empty strings into B{row}:F{row}.
	ClearRow(ctx context.Context, tab string, row int) error
}

// Client talks to one fixed spreadsheet through the Sheets v4 API.
type Client struct {
	svc           *sheetsv4.Service
	spreadsheetID string
}

func NewClient(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	svc, err := sheetsv4.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (c *Client) ReadColumn(ctx context.Context, tab string) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", tab)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read column %s: %w", rng, err)
	}

	column := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			column = append(column, "")
			continue
		}
		column = append(column, fmt.Sprint(row[0]))
	}
	return column, nil
}

func (c *Client) ReadCell(ctx context.Context, tab string, row int) (string, error) {
	rng := fmt.Sprintf("%s!A%d", tab, row)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read cell %s: %w", rng, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", nil
	}
	return fmt.Sprint(resp.Values[0][0]), nil
}

func (c *Client) UpdateRow(ctx context.Context, tab string, row int, values [MirrorWidth]string) error {
	return c.writeRow(ctx, tab, row, values, "USER_ENTERED")
}

func (c *Client) ClearRow(ctx context.Context, tab string, row int) error {
	return c.writeRow(ctx, tab, row, [MirrorWidth]string{}, "RAW")
}

func (c *Client) writeRow(ctx context.Context, tab string, row int, values [MirrorWidth]string, inputOption string) error {
	rng := fmt.Sprintf("%s!B%d:F%d", tab, row, row)

	cells := make([]interface{}, MirrorWidth)
	for i, v := range values {
		cells[i] = v
	}

	_, err := c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, rng, &sheetsv4.ValueRange{Values: [][]interface{}{cells}}).
		ValueInputOption(inputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write row %s: %w", rng, err)
	}
	return nil
}
