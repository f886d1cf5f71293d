// Package sheets wraps the Google Sheets API as an append-only row store.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"agendasync/internal/domain"
	"agendasync/internal/observability"
)

// Client is the row store gateway. One instance is constructed at startup
// and shared by all requests; the Sheets API serializes writes on its side.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	sheetName     string
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewClient authenticates with the service-account credential and returns a
// gateway bound to one worksheet.
func NewClient(ctx context.Context, credentialsJSON []byte, spreadsheetID, sheetName string, metrics *observability.Metrics, logger *slog.Logger) (*Client, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		metrics:       metrics,
		logger:        logger,
	}, nil
}

// Append writes one row after the last non-empty row of the worksheet.
// No retry here: the webhook sender owns retry policy.
func (c *Client) Append(ctx context.Context, row domain.Row) error {
	values := make([]any, len(row))
	for i, cell := range row {
		values[i] = cell
	}

	start := time.Now()
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.rangeRef(), &sheetsapi.ValueRange{Values: [][]any{values}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	c.metrics.AppendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.StoreErrors.Inc()
		return fmt.Errorf("append row: %w", err)
	}

	c.logger.Debug("row appended", "sheet", c.sheetName, "columns", len(row))
	return nil
}

// List reads the whole worksheet. The first row is treated as the header;
// every following row becomes a record keyed by header cell, with short rows
// padded so every header key is present.
func (c *Client) List(ctx context.Context) ([]domain.StoredRecord, error) {
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, c.rangeRef()).
		Context(ctx).
		Do()
	if err != nil {
		c.metrics.StoreErrors.Inc()
		return nil, fmt.Errorf("read rows: %w", err)
	}

	if len(resp.Values) < 2 {
		return []domain.StoredRecord{}, nil
	}

	header := displayStrings(resp.Values[0])
	records := make([]domain.StoredRecord, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		cells := displayStrings(raw)
		rec := make(domain.StoredRecord, len(header))
		for i, name := range header {
			if i < len(cells) {
				rec[name] = cells[i]
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// CheckReadiness verifies the spreadsheet is reachable with the configured
// credential.
func (c *Client) CheckReadiness(ctx context.Context) error {
	_, err := c.svc.Spreadsheets.
		Get(c.spreadsheetID).
		Fields("spreadsheetId").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("spreadsheet unreachable: %w", err)
	}
	return nil
}

// rangeRef quotes the worksheet title so names with spaces stay valid A1
// notation.
func (c *Client) rangeRef() string {
	return "'" + strings.ReplaceAll(c.sheetName, "'", "''") + "'"
}

func displayStrings(raw []any) []string {
	out := make([]string, len(raw))
	for i, v := range raw {
		if s, ok := v.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}
