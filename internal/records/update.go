package records

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bsm-backend/internal/models"
	"bsm-backend/internal/normalize"
)

// immutableFields are silently dropped from an update payload: never an
// error, never applied.
var immutableFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"snapshot_year":  true,
	"snapshot_month": true,
}

// FieldChange is one (field, old, new) triple of an update diff.
type FieldChange struct {
	Field    string
	OldValue *string
	NewValue *string
	apply    func(*models.BusinessRecord)
	column   interface{}
}

// UpdateRecord coerces the raw field changes per the declared field types
// (null-not-zero on this path, unlike bulk import), diffs them against an
// immutable load of the current row, and applies the changed fields together
// with one ChangeLog entry each, all in one transaction. A no-op update
// writes nothing, which makes the operation idempotent.
func (s *Service) UpdateRecord(ctx context.Context, id uuid.UUID, changes map[string]interface{}, changedBy string) (*models.BusinessRecord, error) {
	var updated *models.BusinessRecord
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.BusinessRecord
		if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return err
		}

		diff, err := computeDiff(&rec, changes)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		updates := make(map[string]interface{}, len(diff))
		for _, ch := range diff {
			ch.apply(&rec)
			updates[ch.Field] = ch.column
			entry := models.ChangeLog{
				RecordID:  rec.ID,
				FieldName: ch.Field,
				OldValue:  ch.OldValue,
				NewValue:  ch.NewValue,
				ChangedBy: changedBy,
				ChangedAt: now,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.BusinessRecord{}).Where("id = ?", rec.ID).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		updated = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// computeDiff coerces each requested change and compares it with the current
// value. The diff is computed wholly against the loaded snapshot, so it does
// not depend on application order; entries come back sorted by field name for
// a deterministic ledger.
func computeDiff(rec *models.BusinessRecord, changes map[string]interface{}) ([]FieldChange, error) {
	diff := make([]FieldChange, 0, len(changes))
	for field, raw := range changes {
		if immutableFields[field] {
			continue
		}
		ch, changed, err := diffField(rec, field, raw)
		if err != nil {
			return nil, err
		}
		if changed {
			diff = append(diff, ch)
		}
	}
	sort.Slice(diff, func(i, j int) bool { return diff[i].Field < diff[j].Field })
	return diff, nil
}

func diffField(rec *models.BusinessRecord, field string, raw interface{}) (FieldChange, bool, error) {
	if get, ok := decimalFields[field]; ok {
		ptr := get(rec)
		newVal := coerceNumeric(raw)
		if decimalEqual(*ptr, newVal) {
			return FieldChange{}, false, nil
		}
		return FieldChange{
			Field:    field,
			OldValue: decimalString(*ptr),
			NewValue: decimalString(newVal),
			apply:    func(r *models.BusinessRecord) { *get(r) = newVal },
			column:   newVal,
		}, true, nil
	}
	if get, ok := dateFields[field]; ok {
		ptr := get(rec)
		newVal := coerceDate(raw)
		if dateEqual(*ptr, newVal) {
			return FieldChange{}, false, nil
		}
		return FieldChange{
			Field:    field,
			OldValue: dateString(*ptr),
			NewValue: dateString(newVal),
			apply:    func(r *models.BusinessRecord) { *get(r) = newVal },
			column:   newVal,
		}, true, nil
	}
	if get, ok := boolFields[field]; ok {
		ptr := get(rec)
		newVal := coerceBool(raw)
		if boolEqual(*ptr, newVal) {
			return FieldChange{}, false, nil
		}
		return FieldChange{
			Field:    field,
			OldValue: boolString(*ptr),
			NewValue: boolString(newVal),
			apply:    func(r *models.BusinessRecord) { *get(r) = newVal },
			column:   newVal,
		}, true, nil
	}
	if get, ok := stringPtrFields[field]; ok {
		ptr := get(rec)
		newVal := coerceStringPtr(raw)
		if stringPtrEqual(*ptr, newVal) {
			return FieldChange{}, false, nil
		}
		return FieldChange{
			Field:    field,
			OldValue: *ptr,
			NewValue: newVal,
			apply:    func(r *models.BusinessRecord) { *get(r) = newVal },
			column:   newVal,
		}, true, nil
	}
	if get, ok := intFields[field]; ok {
		ptr := get(rec)
		newVal := coerceInt(raw)
		if intEqual(*ptr, newVal) {
			return FieldChange{}, false, nil
		}
		return FieldChange{
			Field:    field,
			OldValue: intString(*ptr),
			NewValue: intString(newVal),
			apply:    func(r *models.BusinessRecord) { *get(r) = newVal },
			column:   newVal,
		}, true, nil
	}
	switch field {
	case "company_name":
		newVal := strings.TrimSpace(coerceString(raw))
		if rec.CompanyName == newVal {
			return FieldChange{}, false, nil
		}
		old := rec.CompanyName
		return FieldChange{
			Field:    field,
			OldValue: &old,
			NewValue: &newVal,
			apply:    func(r *models.BusinessRecord) { r.CompanyName = newVal },
			column:   newVal,
		}, true, nil
	case "loan_status":
		newVal := normalize.LoanStatus(coerceString(raw))
		if rec.LoanStatus == newVal {
			return FieldChange{}, false, nil
		}
		old := rec.LoanStatus
		return FieldChange{
			Field:    field,
			OldValue: &old,
			NewValue: &newVal,
			apply:    func(r *models.BusinessRecord) { r.LoanStatus = newVal },
			column:   newVal,
		}, true, nil
	}
	return FieldChange{}, false, errors.New("Unknown field: " + field)
}

// Field accessor tables keep the diff generic without reflection.

var decimalFields = map[string]func(*models.BusinessRecord) **decimal.Decimal{
	"loan_amount":                   func(r *models.BusinessRecord) **decimal.Decimal { return &r.LoanAmount },
	"guarantee_amount":              func(r *models.BusinessRecord) **decimal.Decimal { return &r.GuaranteeAmount },
	"loan_interest_rate":            func(r *models.BusinessRecord) **decimal.Decimal { return &r.LoanInterestRate },
	"guarantee_fee_rate":            func(r *models.BusinessRecord) **decimal.Decimal { return &r.GuaranteeFeeRate },
	"outstanding_loan_balance":      func(r *models.BusinessRecord) **decimal.Decimal { return &r.OutstandingLoanBalance },
	"outstanding_guarantee_balance": func(r *models.BusinessRecord) **decimal.Decimal { return &r.OutstandingGuaranteeBalance },
}

var dateFields = map[string]func(*models.BusinessRecord) **time.Time{
	"loan_start_date":    func(r *models.BusinessRecord) **time.Time { return &r.LoanStartDate },
	"loan_due_date":      func(r *models.BusinessRecord) **time.Time { return &r.LoanDueDate },
	"settlement_date":    func(r *models.BusinessRecord) **time.Time { return &r.SettlementDate },
	"establishment_date": func(r *models.BusinessRecord) **time.Time { return &r.EstablishmentDate },
}

var boolFields = map[string]func(*models.BusinessRecord) **bool{
	"is_little_giant_enterprise": func(r *models.BusinessRecord) **bool { return &r.IsLittleGiantEnterprise },
	"is_srdi_sme":                func(r *models.BusinessRecord) **bool { return &r.IsSrdiSme },
	"is_high_tech_enterprise":    func(r *models.BusinessRecord) **bool { return &r.IsHighTechEnterprise },
	"is_innovative_sme":          func(r *models.BusinessRecord) **bool { return &r.IsInnovativeSme },
	"is_tech_based_sme":          func(r *models.BusinessRecord) **bool { return &r.IsTechBasedSme },
	"is_technology_enterprise":   func(r *models.BusinessRecord) **bool { return &r.IsTechnologyEnterprise },
}

var stringPtrFields = map[string]func(*models.BusinessRecord) **string{
	"enterprise_classification":   func(r *models.BusinessRecord) **string { return &r.EnterpriseClassification },
	"cooperative_bank":            func(r *models.BusinessRecord) **string { return &r.CooperativeBank },
	"business_type":               func(r *models.BusinessRecord) **string { return &r.BusinessType },
	"enterprise_size":             func(r *models.BusinessRecord) **string { return &r.EnterpriseSize },
	"enterprise_institution_type": func(r *models.BusinessRecord) **string { return &r.EnterpriseInstitutionType },
	"national_industry_main":      func(r *models.BusinessRecord) **string { return &r.NationalIndustryMain },
	"national_industry_major":     func(r *models.BusinessRecord) **string { return &r.NationalIndustryMajor },
	"qcc_industry_main":           func(r *models.BusinessRecord) **string { return &r.QccIndustryMain },
	"qcc_industry_major":          func(r *models.BusinessRecord) **string { return &r.QccIndustryMajor },
}

var intFields = map[string]func(*models.BusinessRecord) **int{
	"business_year": func(r *models.BusinessRecord) **int { return &r.BusinessYear },
}

// Coercions for the update path. Numeric and date coercion is parse-or-null
// here, never parse-or-zero.

func coerceNumeric(raw interface{}) *decimal.Decimal {
	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		d := decimal.NewFromFloat(v)
		return &d
	case int:
		d := decimal.NewFromInt(int64(v))
		return &d
	case string:
		return normalize.NumericOrNull(v)
	default:
		return nil
	}
}

func coerceDate(raw interface{}) *time.Time {
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	return normalize.DateOrNull(s)
}

func coerceBool(raw interface{}) *bool {
	switch v := raw.(type) {
	case nil:
		return nil
	case bool:
		b := v
		return &b
	case float64:
		b := v != 0
		return &b
	case string:
		return normalize.BoolOrNull(v)
	default:
		return nil
	}
}

func coerceInt(raw interface{}) *int {
	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		n := int(v)
		return &n
	case int:
		n := v
		return &n
	case string:
		return normalize.IntOrNull(v)
	default:
		return nil
	}
}

func coerceString(raw interface{}) string {
	s, _ := raw.(string)
	return s
}

func coerceStringPtr(raw interface{}) *string {
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	return normalize.StringOrNull(s)
}

// Value equality and stringification per declared type.

func decimalEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func dateEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func boolEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func boolString(b *bool) *string {
	if b == nil {
		return nil
	}
	s := strconv.FormatBool(*b)
	return &s
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func intEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func intString(n *int) *string {
	if n == nil {
		return nil
	}
	s := strconv.Itoa(*n)
	return &s
}
