package sheets

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/constants"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/entity"
)

const (
	valueInputRaw         = "RAW"
	valueInputUserEntered = "USER_ENTERED"
)

// DepartmentHeader is the first row of every per-department sheet.
var DepartmentHeader = []interface{}{"№", "Наименование", "Количество", "Последнее обновление", "Кто обновил"}

// valuesAPI is the slice of the Sheets API the client needs.
type valuesAPI interface {
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng, inputOption string, rows [][]interface{}) error
	Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	AddSheet(ctx context.Context, spreadsheetID, title string) error
}

// Client talks to one spreadsheet (the intake/reading target) and can sync
// inventory into any spreadsheet by id.
type Client struct {
	api           valuesAPI
	spreadsheetID string
	loc           *time.Location
}

// NewClient builds a Sheets client from a service-account credential file.
func NewClient(ctx context.Context, credentialsFile, spreadsheetID string, loc *time.Location) (*Client, error) {
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsFile == "" {
		return nil, fmt.Errorf("google service account file is not configured")
	}
	srv, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return newClient(&serviceAPI{srv: srv}, spreadsheetID, loc), nil
}

func newClient(api valuesAPI, spreadsheetID string, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{api: api, spreadsheetID: strings.TrimSpace(spreadsheetID), loc: loc}
}

// ClearSheet empties columns A:Z of sheetName.
func (c *Client) ClearSheet(ctx context.Context, sheetName string) error {
	if c.spreadsheetID == "" {
		return fmt.Errorf("spreadsheet id is not configured")
	}
	return c.api.Clear(ctx, c.spreadsheetID, sheetName+"!A:Z")
}

// ReplaceSheet writes rows starting at A1 verbatim (no formula parsing).
func (c *Client) ReplaceSheet(ctx context.Context, sheetName string, rows [][]string) error {
	if c.spreadsheetID == "" {
		return fmt.Errorf("spreadsheet id is not configured")
	}
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}
	return c.api.Update(ctx, c.spreadsheetID, sheetName+"!A1", valueInputRaw, values)
}

// ReadSheet returns columns A:Z of sheetName as strings.
func (c *Client) ReadSheet(ctx context.Context, sheetName string) ([][]string, error) {
	if c.spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is not configured")
	}
	values, err := c.api.Get(ctx, c.spreadsheetID, sheetName+"!A:Z")
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = fmt.Sprint(v)
		}
	}
	return out, nil
}

// Sync writes one sheet per department plus the summary sheet, creating
// missing sheets first.
func (c *Client) Sync(ctx context.Context, spreadsheetID string, state entity.CityState) error {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		spreadsheetID = c.spreadsheetID
	}
	if spreadsheetID == "" {
		return fmt.Errorf("spreadsheet id is not configured")
	}
	if err := c.ensureSheets(ctx, spreadsheetID, state.Departments); err != nil {
		return fmt.Errorf("ensure sheets: %w", err)
	}
	for _, dept := range state.Departments {
		rows := DepartmentRows(dept, state, c.loc)
		if err := c.api.Update(ctx, spreadsheetID, dept.Name+"!A1", valueInputUserEntered, rows); err != nil {
			return fmt.Errorf("update sheet %q: %w", dept.Name, err)
		}
	}
	summary := entity.SummaryRows(state.Departments, state.Items, state.Quantities)
	if err := c.api.Update(ctx, spreadsheetID, constants.SummarySheetName+"!A1", valueInputUserEntered, summary); err != nil {
		return fmt.Errorf("update summary sheet: %w", err)
	}
	log.Printf("[sheets] synced %d departments to %s", len(state.Departments), spreadsheetID)
	return nil
}

func (c *Client) ensureSheets(ctx context.Context, spreadsheetID string, departments []entity.Department) error {
	titles, err := c.api.SheetTitles(ctx, spreadsheetID)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(titles))
	for _, t := range titles {
		existing[t] = true
	}
	wanted := []string{constants.SummarySheetName}
	for _, d := range departments {
		wanted = append(wanted, d.Name)
	}
	for _, title := range wanted {
		if existing[title] {
			continue
		}
		if err := c.api.AddSheet(ctx, spreadsheetID, title); err != nil {
			return fmt.Errorf("add sheet %q: %w", title, err)
		}
		existing[title] = true
	}
	return nil
}

// DepartmentRows builds the per-department sheet: header, then one numbered
// row per item with its count and last recorded change.
func DepartmentRows(dept entity.Department, state entity.CityState, loc *time.Location) [][]interface{} {
	if loc == nil {
		loc = time.Local
	}
	rows := [][]interface{}{DepartmentHeader}
	for i, item := range entity.ItemsIn(state.Items, dept.ID) {
		updated, by := "-", "-"
		if h, ok := entity.LastChange(state.History, dept.ID, item.ID); ok {
			updated = time.UnixMilli(h.Timestamp).In(loc).Format("02.01.2006 15:04:05")
			if strings.TrimSpace(h.UserName) != "" {
				by = h.UserName
			}
		}
		rows = append(rows, []interface{}{i + 1, item.Name, state.Quantities.Get(dept.ID, item.ID), updated, by})
	}
	return rows
}

// serviceAPI adapts *sheets.Service to valuesAPI.
type serviceAPI struct {
	srv *gsheets.Service
}

func (s *serviceAPI) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := s.srv.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (s *serviceAPI) Update(ctx context.Context, spreadsheetID, rng, inputOption string, rows [][]interface{}) error {
	_, err := s.srv.Spreadsheets.Values.Update(spreadsheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption(inputOption).
		Context(ctx).
		Do()
	return err
}

func (s *serviceAPI) Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceAPI) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	ss, err := s.srv.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (s *serviceAPI) AddSheet(ctx context.Context, spreadsheetID, title string) error {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: title},
			},
		}},
	}
	_, err := s.srv.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}
