package history

import (
	"bytes"
	"context"
	"fmt"

	"rental-manager/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Rent Increases"

// ExportHeader is the header row of the history workbook
var ExportHeader = []string{
	"Increase Date",
	"Property",
	"Old Amount",
	"New Amount",
	"Increase %",
	"Increase Type",
	"Applied At",
	"Notes",
}

var columnWidths = []float64{14, 30, 14, 14, 12, 16, 20, 40}

// Store reads the data the history views need
type Store interface {
	ListIncreaseHistory(ctx context.Context, userID, propertyID string, limit int) ([]models.RentIncreaseHistory, error)
	ListProperties(ctx context.Context, userID string) ([]models.Property, error)
}

// Entry is a history row labelled with its property name
type Entry struct {
	models.RentIncreaseHistory
	PropertyName string `json:"property_name"`
}

// Service lists and exports the rent increase audit trail
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns the account's applied increases, newest first
func (s *Service) List(ctx context.Context, userID, propertyID string, limit int) ([]Entry, error) {
	rows, err := s.store.ListIncreaseHistory(ctx, userID, propertyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list increase history: %w", err)
	}
	properties, err := s.store.ListProperties(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	names := make(map[string]string, len(properties))
	for _, p := range properties {
		names[p.ID] = p.Name
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{RentIncreaseHistory: row, PropertyName: names[row.PropertyID]})
	}
	return entries, nil
}

// Export renders the account's history as an XLSX workbook
func (s *Service) Export(ctx context.Context, userID, propertyID string) ([]byte, error) {
	entries, err := s.List(ctx, userID, propertyID, 0)
	if err != nil {
		return nil, err
	}
	return GenerateExport(entries)
}

// GenerateExport writes entries into a single-sheet workbook with a frozen, styled header
func GenerateExport(entries []Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(ExportHeader))
	for i, h := range ExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(ExportHeader), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			e.IncreaseDate.Format("2006-01-02"),
			e.PropertyName,
			e.OldAmount.InexactFloat64(),
			e.NewAmount.InexactFloat64(),
			e.IncreasePercentage.InexactFloat64(),
			string(e.IncreaseType),
			e.AppliedAt.UTC().Format("2006-01-02 15:04"),
			e.Notes,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
