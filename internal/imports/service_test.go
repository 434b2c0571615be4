package imports

import (
	"bytes"
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"bsm-backend/internal/models"
	"bsm-backend/internal/normalize"
	"bsm-backend/internal/records"
)

func setupImports(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.BusinessRecord{}, &models.ChangeLog{}, &models.ImportLog{}))
	store := &records.Service{DB: db}
	return &Service{DB: db, Store: store}, db
}

// workbook renders rows into an in-memory xlsx stream.
func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestImportFile_RoundTrip(t *testing.T) {
	svc, db := setupImports(t)
	ctx := context.Background()

	buf := workbook(t, [][]interface{}{
		{"企业名称", "借款金额（万元）", "借据状态", "业务年度"},
		{"Alpha", "100.5", "正常", "2024"},
		{"Beta", "200", "未放款", "2025"},
	})

	report, err := svc.ImportFile(ctx, records.Period{Year: 2025, Month: 1}, buf, "data_2025-01.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, report.InsertedCount)
	assert.Empty(t, report.Errors)

	var recs []models.BusinessRecord
	require.NoError(t, db.Order("company_name").Find(&recs).Error)
	require.Len(t, recs, 2)
	assert.Equal(t, "Alpha", recs[0].CompanyName)
	assert.Equal(t, models.LoanStatusNormal, recs[0].LoanStatus)
	require.NotNil(t, recs[0].BusinessYear)
	assert.Equal(t, 2024, *recs[0].BusinessYear)
	assert.Equal(t, models.LoanStatusNotDisbursed, recs[1].LoanStatus)
	assert.Equal(t, 2025, recs[0].SnapshotYear)
	assert.Equal(t, 1, recs[0].SnapshotMonth)
}

func TestImportPeriod_BlankCompanyNoted(t *testing.T) {
	svc, db := setupImports(t)
	ctx := context.Background()

	headers := []string{"company_name", "loan_amount"}
	rows := []normalize.Row{
		{"company_name": "Alpha", "loan_amount": "100"},
		{"company_name": "", "loan_amount": "50"},
	}
	report, err := svc.ImportPeriod(ctx, records.Period{Year: 2025, Month: 1}, headers, rows, "upload.xlsx")
	require.NoError(t, err)

	// The blank row is retained, not rejected.
	assert.Equal(t, 2, report.InsertedCount)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "row 3: blank company name", report.Errors[0])

	var count int64
	require.NoError(t, db.Model(&models.BusinessRecord{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestImportPeriod_WritesImportLog(t *testing.T) {
	svc, db := setupImports(t)

	headers := []string{"company_name"}
	rows := []normalize.Row{{"company_name": "Alpha"}}
	_, err := svc.ImportPeriod(context.Background(), records.Period{Year: 2025, Month: 1}, headers, rows, "jan.xlsx")
	require.NoError(t, err)

	var entry models.ImportLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, "jan.xlsx", entry.FileName)
	assert.Equal(t, 2025, entry.SnapshotYear)
	assert.Equal(t, 1, entry.SnapshotMonth)
	assert.Equal(t, 1, entry.InsertedCount)
	assert.JSONEq(t, "[]", string(entry.RowNotes))
}

func TestImportPeriod_ReimportReplaces(t *testing.T) {
	svc, db := setupImports(t)
	ctx := context.Background()
	period := records.Period{Year: 2025, Month: 1}
	headers := []string{"company_name", "loan_amount"}

	_, err := svc.ImportPeriod(ctx, period, headers,
		[]normalize.Row{{"company_name": "Alpha", "loan_amount": "100"}}, "v1.xlsx")
	require.NoError(t, err)
	_, err = svc.ImportPeriod(ctx, period, headers,
		[]normalize.Row{{"company_name": "Beta", "loan_amount": "75"}}, "v2.xlsx")
	require.NoError(t, err)

	var recs []models.BusinessRecord
	require.NoError(t, db.Find(&recs).Error)
	require.Len(t, recs, 1)
	assert.Equal(t, "Beta", recs[0].CompanyName)

	// Both imports are logged.
	var logs int64
	require.NoError(t, db.Model(&models.ImportLog{}).Count(&logs).Error)
	assert.EqualValues(t, 2, logs)
}

func TestImportPeriod_InvalidPeriod(t *testing.T) {
	svc, _ := setupImports(t)
	_, err := svc.ImportPeriod(context.Background(), records.Period{Year: 2025, Month: 13}, nil, nil, "bad.xlsx")
	assert.ErrorIs(t, err, records.ErrInvalidPeriod)
}

func TestParseWorkbook_PadsShortRowsKeepsBlankRows(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"company_name", "loan_amount", "loan_status"},
		{"Alpha"}, // short row padded with blanks
		{"", "", ""},
		{"Beta", "10", "正常"},
	})

	headers, rows, err := ParseWorkbook(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"company_name", "loan_amount", "loan_status"}, headers)
	require.Len(t, rows, 3)
	assert.Equal(t, "Alpha", rows[0]["company_name"])
	assert.Equal(t, "", rows[0]["loan_amount"])
	assert.True(t, rows[1].Blank())
	assert.Equal(t, "Beta", rows[2]["company_name"])
}

func TestImportFile_RowNotesMatchSheetRows(t *testing.T) {
	svc, db := setupImports(t)
	ctx := context.Background()

	// A blank line sits between two data rows; the note for the row after it
	// must carry the sheet row number, not a shifted index.
	buf := workbook(t, [][]interface{}{
		{"company_name", "loan_amount"},
		{"Alpha", "100"},
		{"", ""},
		{"", "50"},
	})

	report, err := svc.ImportFile(ctx, records.Period{Year: 2025, Month: 1}, buf, "data_2025-01.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, report.InsertedCount)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "row 4: blank company name", report.Errors[0])

	var count int64
	require.NoError(t, db.Model(&models.BusinessRecord{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestParseWorkbook_Unreadable(t *testing.T) {
	_, _, err := ParseWorkbook(bytes.NewBufferString("not an xlsx"))
	assert.ErrorIs(t, err, ErrUnreadableFile)
}

func TestExportPeriod_RoundTrip(t *testing.T) {
	svc, _ := setupImports(t)
	ctx := context.Background()

	headers := []string{"company_name", "loan_amount", "loan_status"}
	rows := []normalize.Row{
		{"company_name": "Beta", "loan_amount": "200", "loan_status": "正常"},
		{"company_name": "Alpha", "loan_amount": "100.5", "loan_status": "结清"},
	}
	_, err := svc.ImportPeriod(ctx, records.Period{Year: 2025, Month: 1}, headers, rows, "jan.xlsx")
	require.NoError(t, err)

	f, err := svc.ExportPeriod(ctx, records.Period{Year: 2025, Month: 1})
	require.NoError(t, err)
	defer f.Close()

	cells, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, cells, 3)
	assert.Equal(t, exportColumns, cells[0])
	// Rows come back ordered by company name.
	assert.Equal(t, "Alpha", cells[1][1])
	assert.Equal(t, "100.5", cells[1][2])
	assert.Equal(t, models.LoanStatusSettled, cells[1][10])
	assert.Equal(t, "Beta", cells[2][1])
}
