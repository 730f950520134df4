// Package google reads Google Sheets ranges as import tables.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/config"
	"fintrack/internal/importer"
)

var ErrNoCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")

// Config selects the spreadsheet and the credentials used to read it.
type Config struct {
	SpreadsheetID string
	// Sheet is the tab read when a range names no sheet.
	Sheet           string
	CredentialsJSON string
	CredentialsFile string
}

// Client reads values from one spreadsheet. It never writes.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

// FromAppConfig extracts the Sheets settings of the application config.
func FromAppConfig(c *config.Config) Config {
	return Config{
		SpreadsheetID:   strings.TrimSpace(c.GoogleSpreadsheetID),
		Sheet:           strings.TrimSpace(c.GoogleImportSheet),
		CredentialsJSON: strings.TrimSpace(c.GoogleServiceAccountJSON),
		CredentialsFile: strings.TrimSpace(c.GoogleServiceAccountFile),
	}
}

// New creates a read-only Sheets client. Options, when given, replace the
// credential lookup and the pooled HTTP client.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	base := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsReadonlyScope)}
	if len(opts) == 0 {
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		base = append(base,
			goption.WithCredentialsJSON(creds),
			goption.WithHTTPClient(newHTTPClientWithPooling()))
	}

	svc, err := gsheet.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets import source ready",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", cfg.Sheet)
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheet: cfg.Sheet}, nil
}

// credentials resolves inline JSON, then the configured file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func credentials(ctx context.Context, cfg Config) ([]byte, error) {
	file := cfg.CredentialsFile
	if cfg.CredentialsJSON == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case cfg.CredentialsJSON != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(cfg.CredentialsJSON), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(data))
		return data, nil
	default:
		return nil, ErrNoCredentials
	}
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API.
// Authentication is layered on top by the API option machinery.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// ReadValues returns the raw cells of rng. Numbers stay numbers and dates
// come back as serial day numbers, so the importer parses them the same way
// as XLSX cells.
func (c *Client) ReadValues(ctx context.Context, rng string) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	full, err := c.resolveRange(rng)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, full).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", full, err)
	}

	slog.InfoContext(ctx, "Read sheet range",
		"range", full,
		"rows", len(resp.Values),
		"duration_ms", time.Since(start).Milliseconds())
	return resp.Values, nil
}

// ReadTable reads rng and turns it into an import table whose first row is the header.
func (c *Client) ReadTable(ctx context.Context, rng string) (importer.Table, error) {
	values, err := c.ReadValues(ctx, rng)
	if err != nil {
		return importer.Table{}, err
	}
	if len(values) == 0 {
		return importer.Table{}, fmt.Errorf("range %q is empty", rng)
	}
	return importer.FromValues(values), nil
}

// SheetTitles lists the tabs of the spreadsheet in display order.
func (c *Client) SheetTitles(ctx context.Context) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	titles := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}
