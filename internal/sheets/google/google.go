package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"carteira/internal/core"
	applog "carteira/internal/log"
	ports "carteira/internal/sheets"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Sheets limits tab titles to 100 characters.
const maxTitleLen = 100

var ErrMissingCredentials = errors.New("missing service account credentials")

// Credentials selects the service account key. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

// Client mirrors each profile into its own tab of one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *applog.Logger

	mu       sync.Mutex
	sheetIDs map[string]int64
}

var _ ports.LedgerMirror = (*Client)(nil)

// New creates a client authenticated with a service account.
func New(ctx context.Context, spreadsheetID string, creds Credentials, logger *applog.Logger) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID string, logger *applog.Logger) *Client {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(applog.ComponentSheets),
		sheetIDs:      make(map[string]int64),
	}
}

func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(creds.JSON) != "":
		credentialsJSON = []byte(creds.JSON)
	case strings.TrimSpace(creds.File) != "":
		data, err := os.ReadFile(creds.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, ErrMissingCredentials
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// MirrorProfile clears the profile's tab, creating it if needed, and writes
// the header plus one row per entry.
func (c *Client) MirrorProfile(ctx context.Context, p core.Profile) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	title := TabTitle(p.Name)
	if err := c.ensureTab(ctx, title); err != nil {
		return err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, a1(title, "A:G"),
		&gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear tab %q: %w", title, err)
	}

	rows := ports.EncodeRows(p)
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1(title, "A1"),
		&gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write tab %q: %w", title, err)
	}

	c.logger.InfoContext(ctx, "Profile mirrored to Google Sheets",
		applog.FieldProfile, p.Name,
		"rows", len(rows)-1)
	return nil
}

// DeleteProfile removes the profile's tab if it exists.
func (c *Client) DeleteProfile(ctx context.Context, name string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	title := TabTitle(name)
	id, ok, err := c.lookupTab(ctx, title, true)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{DeleteSheet: &gsheet.DeleteSheetRequest{SheetId: id}}},
	}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete tab %q: %w", title, err)
	}

	c.mu.Lock()
	delete(c.sheetIDs, title)
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Profile tab deleted from Google Sheets", applog.FieldProfile, name)
	return nil
}

func (c *Client) ensureTab(ctx context.Context, title string) error {
	if _, ok, err := c.lookupTab(ctx, title, false); err != nil || ok {
		return err
	}

	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{AddSheet: &gsheet.AddSheetRequest{
			Properties: &gsheet.SheetProperties{Title: title},
		}}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add tab %q: %w", title, err)
	}

	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		c.mu.Lock()
		c.sheetIDs[title] = resp.Replies[0].AddSheet.Properties.SheetId
		c.mu.Unlock()
	}
	return nil
}

// lookupTab finds a tab id, from cache unless fresh is set. A cache miss
// always goes back to the API, since tabs can be added outside this client.
func (c *Client) lookupTab(ctx context.Context, title string, fresh bool) (int64, bool, error) {
	if !fresh {
		c.mu.Lock()
		id, ok := c.sheetIDs[title]
		c.mu.Unlock()
		if ok {
			return id, true, nil
		}
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields(googleapi.Field("sheets.properties(sheetId,title)")).
		Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("read spreadsheet: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sheetIDs = make(map[string]int64, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			c.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok := c.sheetIDs[title]
	return id, ok, nil
}

// TabTitle derives the tab title for a profile name.
func TabTitle(name string) string {
	title := strings.TrimSpace(name)
	if r := []rune(title); len(r) > maxTitleLen {
		title = string(r[:maxTitleLen])
	}
	return title
}

// a1 builds a quoted A1 range for a tab title.
func a1(title, rng string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!" + rng
}
