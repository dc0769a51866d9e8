// Package google appends export rows to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/darkha03/MyCount/internal/export"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ export.Appender = (*Client)(nil)

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}

	credentials, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func loadCredentials(opts Options) ([]byte, error) {
	if json := strings.TrimSpace(opts.CredentialsJSON); json != "" {
		return []byte(json), nil
	}
	if file := strings.TrimSpace(opts.CredentialsFile); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("missing Google credentials (set GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON)")
}

// Append writes the row after the last occupied line of the sheet and
// returns an A1-style reference to it.
func (c *Client) Append(ctx context.Context, row export.Row) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", c.sheetName, err)
	}
	nextRow := len(resp.Values) + 1

	euros := float64(row.AmountCents) / 100.0
	dataRange := fmt.Sprintf("%s!A%d:G%d", c.sheetName, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{{
		row.Date, row.PlanName, row.ExpenseName, row.Payer, euros, row.Participants, row.PlanHash,
	}}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", dataRange, err)
	}

	return dataRange, nil
}
