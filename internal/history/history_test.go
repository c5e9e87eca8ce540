package history

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"rental-manager/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeStore struct {
	rows       []models.RentIncreaseHistory
	properties []models.Property
	err        error
	gotFilter  string
	gotLimit   int
}

func (f *fakeStore) ListIncreaseHistory(_ context.Context, _, propertyID string, limit int) ([]models.RentIncreaseHistory, error) {
	f.gotFilter, f.gotLimit = propertyID, limit
	return f.rows, f.err
}

func (f *fakeStore) ListProperties(context.Context, string) ([]models.Property, error) {
	return f.properties, nil
}

func sampleStore() *fakeStore {
	return &fakeStore{
		properties: []models.Property{{ID: "p1", Name: "Alder Court"}},
		rows: []models.RentIncreaseHistory{{
			ID:                 "h1",
			PropertyID:         "p1",
			OldAmount:          decimal.RequireFromString("800.00"),
			NewAmount:          decimal.RequireFromString("828.00"),
			IncreasePercentage: decimal.RequireFromString("3.5"),
			IncreaseType:       models.IncreaseTypeContractBased,
			IncreaseDate:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			AppliedAt:          time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC),
			Notes:              "annual increase",
		}, {
			ID:                 "h0",
			PropertyID:         "gone",
			OldAmount:          decimal.RequireFromString("700"),
			NewAmount:          decimal.RequireFromString("735"),
			IncreasePercentage: decimal.RequireFromString("5"),
			IncreaseType:       models.IncreaseTypeIndexTied,
			IncreaseDate:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			AppliedAt:          time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC),
		}},
	}
}

func TestList_LabelsProperties(t *testing.T) {
	store := sampleStore()
	svc := NewService(store)

	entries, err := svc.List(context.Background(), "user-1", "p1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Alder Court", entries[0].PropertyName)
	assert.Equal(t, "", entries[1].PropertyName)
	assert.Equal(t, "p1", store.gotFilter)
	assert.Equal(t, 10, store.gotLimit)
}

func TestList_StoreError(t *testing.T) {
	svc := NewService(&fakeStore{err: errors.New("db down")})
	_, err := svc.List(context.Background(), "user-1", "", 0)
	assert.ErrorContains(t, err, "failed to list increase history")
}

func TestExport_Workbook(t *testing.T) {
	svc := NewService(sampleStore())

	data, err := svc.Export(context.Background(), "user-1", "")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ExportHeader, rows[0])
	assert.Equal(t, []string{"2025-03-01", "Alder Court", "800", "828", "3.5", "contract_based", "2025-02-01 09:30", "annual increase"}, rows[1])
	assert.Equal(t, "2024-03-01", rows[2][0])

	panes, err := f.GetPanes(sheetName)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
}

func TestGenerateExport_Empty(t *testing.T) {
	data, err := GenerateExport(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
