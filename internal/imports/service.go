// Package imports turns uploaded spreadsheets into snapshot periods: parse,
// normalize, replace-period, and log the outcome. Each file is one
// independent all-or-nothing unit; sibling files in the same upload are not
// affected by a failure.
package imports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bsm-backend/internal/models"
	"bsm-backend/internal/normalize"
	"bsm-backend/internal/records"
)

type Service struct {
	DB    *gorm.DB
	Store *records.Service
}

// ImportReport is the outcome of one file import.
type ImportReport struct {
	FileName      string         `json:"file_name"`
	Period        records.Period `json:"period"`
	InsertedCount int            `json:"inserted_count"`
	Errors        []string       `json:"errors"`
}

// ImportPeriod normalizes the raw rows and replaces the period in one unit of
// work. Rows are never rejected for cell-level problems (the normalizer
// coerces to safe defaults); row-level notes are collected for the import
// log. A storage failure rolls the period back and is surfaced loudly.
func (s *Service) ImportPeriod(ctx context.Context, period records.Period, headers []string, rows []normalize.Row, fileName string) (*ImportReport, error) {
	if !period.Valid() {
		return nil, records.ErrInvalidPeriod
	}

	cols := normalize.ResolveColumns(headers)
	report := &ImportReport{FileName: fileName, Period: period, Errors: []string{}}

	recs := make([]models.BusinessRecord, 0, len(rows))
	for i, row := range rows {
		// Blank rows are skipped here rather than during parsing, so i+2 is
		// the actual sheet row number even after a blank line.
		if row.Blank() {
			continue
		}
		rec := normalize.BuildRecord(cols, row, period.Year, period.Month)
		if rec.CompanyName == "" {
			// Retained but excluded from aggregation by grouping.
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: blank company name", i+2))
		}
		recs = append(recs, rec)
	}

	if err := s.Store.ReplacePeriod(ctx, period, recs); err != nil {
		return nil, err
	}
	report.InsertedCount = len(recs)

	s.writeLog(ctx, period, fileName, report)
	log.Info().Str("file", fileName).
		Int("year", period.Year).Int("month", period.Month).
		Int("inserted", report.InsertedCount).Int("notes", len(report.Errors)).
		Msg("Period imported")
	return report, nil
}

// ImportFile parses one workbook stream and imports it for the given period.
func (s *Service) ImportFile(ctx context.Context, period records.Period, r io.Reader, fileName string) (*ImportReport, error) {
	headers, rows, err := ParseWorkbook(r)
	if err != nil {
		return nil, err
	}
	return s.ImportPeriod(ctx, period, headers, rows, fileName)
}

// writeLog appends the import log row. A log failure does not fail the
// import itself.
func (s *Service) writeLog(ctx context.Context, period records.Period, fileName string, report *ImportReport) {
	notes, err := json.Marshal(report.Errors)
	if err != nil {
		notes = []byte("[]")
	}
	entry := models.ImportLog{
		SnapshotYear:  period.Year,
		SnapshotMonth: period.Month,
		FileName:      fileName,
		InsertedCount: report.InsertedCount,
		RowNotes:      datatypes.JSON(notes),
	}
	if err := s.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Error().Err(err).Str("file", fileName).Msg("Failed to write import log")
	}
}
