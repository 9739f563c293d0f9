// Package google exports registry tables as Google Sheets spreadsheets,
// one spreadsheet per registry with one tab per table.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"tricount/internal/core"
	ports "tricount/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Credentials locates a service account key. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

type Client struct {
	svc      *gsheet.Service
	rowIndex bool
}

// Ensure interface conformance
var _ ports.WorkbookWriter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, creds Credentials, rowIndex bool) (*Client, error) {
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, rowIndex: rowIndex}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	credentialsJSON, err := loadCredentials(ctx, creds)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

func loadCredentials(ctx context.Context, creds Credentials) ([]byte, error) {
	inline := strings.TrimSpace(creds.JSON)
	file := strings.TrimSpace(creds.File)

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// WriteWorkbook creates a new spreadsheet titled name, fills one tab per
// table and returns the spreadsheet URL. dir has no meaning for Sheets and
// is only logged.
func (c *Client) WriteWorkbook(ctx context.Context, dir, name string, tables []core.Table) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(tables) == 0 {
		return "", errors.New("no tables to write")
	}

	created, err := c.svc.Spreadsheets.Create(newSpreadsheet(name, tables)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create spreadsheet %s: %w", name, err)
	}

	_, err = c.svc.Spreadsheets.Values.BatchUpdate(created.SpreadsheetId, valuesRequest(tables, c.rowIndex)).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write spreadsheet %s: %w", created.SpreadsheetId, err)
	}

	slog.InfoContext(ctx, "Spreadsheet written",
		"spreadsheet_id", created.SpreadsheetId,
		"title", name,
		"folder", dir)
	return created.SpreadsheetUrl, nil
}
