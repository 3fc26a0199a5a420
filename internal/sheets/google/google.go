// Package google mirrors expenses into a Google Sheets tab.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expenses/internal/core"
	"expenses/internal/log"
	ports "expenses/internal/sheets"
)

var _ ports.Mirror = (*Client)(nil)

// Config selects the sheet and the service account used to write it.
type Config struct {
	SpreadsheetID string
	SheetName     string
	// CredentialsJSON wins over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// New authenticates with the service account credentials named by cfg.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	return newWithOptions(ctx, cfg, logger,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

func newWithOptions(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		cfg.SheetName = "Expenses"
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", cfg.SpreadsheetID, "sheet", cfg.SheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		logger:        logger,
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Replace writes the header plus one row per expense, in list order, and
// then clears the rows left over from a longer list. The sheet is never
// empty in between, and a failed write leaves the previous mirror intact.
func (c *Client) Replace(ctx context.Context, items []core.Expense) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values := make([][]any, 0, len(items)+1)
	header := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, e := range items {
		values = append(values, ports.Row(e))
	}

	writeRange := a1Range(c.sheetName, fmt.Sprintf("A1:E%d", len(values)))
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", writeRange, err)
	}

	clearRange := a1Range(c.sheetName, fmt.Sprintf("A%d:E", len(values)+1))
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	c.logger.InfoContext(ctx, "Mirrored expenses to sheet",
		"sheet", c.sheetName,
		log.FieldCount, len(items))
	return nil
}

// a1Range quotes the sheet name so names with spaces or quotes are valid
// A1 notation.
func a1Range(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}
