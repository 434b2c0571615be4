// Package records is the snapshot store: versioned BusinessRecord collections
// keyed by (snapshot_year, snapshot_month), with bulk period replacement,
// audited point updates and the change-history ledger.
package records

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"bsm-backend/internal/models"
)

type Service struct {
	DB *gorm.DB
}

// Period is one (year, month) snapshot coordinate.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (p Period) Valid() bool {
	return p.Year >= 1900 && p.Year <= 9999 && p.Month >= 1 && p.Month <= 12
}

// ReplacePeriod deletes every record of the given period and inserts the new
// batch as one transaction. Readers never observe a mix of old and new rows;
// a failed insert rolls the deletion back. Re-running with identical input
// yields the same aggregates but fresh record ids.
func (s *Service) ReplacePeriod(ctx context.Context, period Period, recs []models.BusinessRecord) error {
	if !period.Valid() {
		return ErrInvalidPeriod
	}
	for i := range recs {
		// Fresh identity on every run, and the snapshot coordinate is always
		// the caller's period regardless of what the normalizer was handed.
		recs[i].ID = uuid.Nil
		recs[i].SnapshotYear = period.Year
		recs[i].SnapshotMonth = period.Month
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snapshot_year = ? AND snapshot_month = ?", period.Year, period.Month).
			Delete(&models.BusinessRecord{}).Error; err != nil {
			return err
		}
		if len(recs) == 0 {
			return nil
		}
		return tx.CreateInBatches(recs, 200).Error
	})
	if err != nil {
		log.Error().Err(err).Int("year", period.Year).Int("month", period.Month).
			Msg("Period replacement rolled back")
		return &PersistenceError{Op: "period replacement", Err: err}
	}
	return nil
}

// GetRecord loads one record by id.
func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*models.BusinessRecord, error) {
	var rec models.BusinessRecord
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// DeleteRecord removes one record and cascades its change-log entries.
func (s *Service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.BusinessRecord
		if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return err
		}
		if err := tx.Where("record_id = ?", id).Delete(&models.ChangeLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&rec).Error
	})
}

// History returns the change-log entries for one record, newest first.
func (s *Service) History(ctx context.Context, recordID uuid.UUID) ([]models.ChangeLog, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.BusinessRecord{}).
		Where("id = ?", recordID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrRecordNotFound
	}
	var entries []models.ChangeLog
	if err := s.DB.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("changed_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListPeriods returns every distinct snapshot coordinate, newest first.
func (s *Service) ListPeriods(ctx context.Context) ([]Period, error) {
	var periods []Period
	if err := s.DB.WithContext(ctx).Model(&models.BusinessRecord{}).
		Distinct("snapshot_year AS year", "snapshot_month AS month").
		Order("year DESC, month DESC").
		Find(&periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}

// filterableFields whitelists the columns exposed to ListDistinctValues; the
// field name arrives from the HTTP layer and is never interpolated directly.
var filterableFields = map[string]string{
	"business_type":             "business_type",
	"cooperative_bank":          "cooperative_bank",
	"enterprise_classification": "enterprise_classification",
	"enterprise_size":           "enterprise_size",
	"loan_status":               "loan_status",
}

// ListDistinctValues returns the sorted distinct non-null values of a
// whitelisted field, for building filter UI.
func (s *Service) ListDistinctValues(ctx context.Context, field string) ([]string, error) {
	column, ok := filterableFields[field]
	if !ok {
		return nil, errors.New("Field is not filterable: " + field)
	}
	// NULLs are filtered in SQL: plucking them breaks the string scan, and a
	// null classification is "untracked", not a filter choice anyway. The
	// column name comes from the whitelist above, never from the caller.
	var values []string
	if err := s.DB.WithContext(ctx).Model(&models.BusinessRecord{}).
		Where(column+" IS NOT NULL").
		Distinct(column).Pluck(column, &values).Error; err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ListFilter narrows the paginated record listing.
type ListFilter struct {
	Period          *Period
	CompanyName     string // substring match
	BusinessType    string
	CooperativeBank string
	// TechEnterprise: nil = no filter, "true"/"false" = tracked value,
	// "N/A" = explicitly not tracked (null).
	TechEnterprise *string
}

// ListPage is one page of records.
type ListPage struct {
	Data        []models.BusinessRecord `json:"data"`
	CurrentPage int                     `json:"current_page"`
	Pages       int                     `json:"pages"`
	Total       int64                   `json:"total"`
}

// ListRecords returns a paginated, filtered record listing.
func (s *Service) ListRecords(ctx context.Context, page, perPage int, filter ListFilter) (*ListPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 500 {
		perPage = 50
	}
	q := s.DB.WithContext(ctx).Model(&models.BusinessRecord{})
	if filter.Period != nil {
		q = q.Where("snapshot_year = ? AND snapshot_month = ?", filter.Period.Year, filter.Period.Month)
	}
	if filter.CompanyName != "" {
		q = q.Where("company_name LIKE ?", "%"+filter.CompanyName+"%")
	}
	if filter.BusinessType != "" {
		q = q.Where("business_type = ?", filter.BusinessType)
	}
	if filter.CooperativeBank != "" {
		q = q.Where("cooperative_bank = ?", filter.CooperativeBank)
	}
	if filter.TechEnterprise != nil {
		switch *filter.TechEnterprise {
		case "N/A":
			q = q.Where("is_technology_enterprise IS NULL")
		case "true":
			q = q.Where("is_technology_enterprise = ?", true)
		case "false":
			q = q.Where("is_technology_enterprise = ?", false)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	var recs []models.BusinessRecord
	if err := q.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return &ListPage{Data: recs, CurrentPage: page, Pages: pages, Total: total}, nil
}
