// Package normalize converts raw spreadsheet rows, with arbitrary column
// naming and formatting, into canonical BusinessRecord values for one
// snapshot period.
package normalize

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bsm-backend/internal/models"
)

// Row is one raw tabular row keyed by source header (untrimmed, as read).
type Row map[string]string

// Blank reports whether every cell of the row is empty or whitespace.
func (r Row) Blank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Get returns the trimmed cell for a canonical field, empty when the column
// is absent or the cell blank.
func (r Row) Get(cm ColumnMap, f Field) string {
	header, ok := cm[f]
	if !ok {
		return ""
	}
	return strings.TrimSpace(r[header])
}

// BuildRecord maps one raw row into a BusinessRecord for the given snapshot
// period. It never rejects a row: missing financial figures become zero,
// missing dates become null, and a blank company name is accepted (downstream
// aggregation excludes it by grouping).
func BuildRecord(cm ColumnMap, row Row, year, month int) models.BusinessRecord {
	loanStart := DateOrNull(row.Get(cm, FieldLoanStartDate))

	return models.BusinessRecord{
		CompanyName:                 row.Get(cm, FieldCompanyName),
		LoanAmount:                  numericOrZeroPtr(row.Get(cm, FieldLoanAmount)),
		GuaranteeAmount:             numericOrZeroPtr(row.Get(cm, FieldGuaranteeAmount)),
		LoanStartDate:               loanStart,
		LoanDueDate:                 DateOrNull(row.Get(cm, FieldLoanDueDate)),
		LoanInterestRate:            numericOrZeroPtr(row.Get(cm, FieldLoanInterestRate)),
		GuaranteeFeeRate:            numericOrZeroPtr(row.Get(cm, FieldGuaranteeFeeRate)),
		OutstandingLoanBalance:      numericOrZeroPtr(row.Get(cm, FieldOutstandingLoanBalance)),
		OutstandingGuaranteeBalance: numericOrZeroPtr(row.Get(cm, FieldOutstandingGuaranteeBalance)),
		LoanStatus:                  LoanStatus(row.Get(cm, FieldLoanStatus)),
		SettlementDate:              DateOrNull(row.Get(cm, FieldSettlementDate)),
		EnterpriseClassification:    StringOrNull(row.Get(cm, FieldEnterpriseClassification)),
		CooperativeBank:             StringOrNull(row.Get(cm, FieldCooperativeBank)),
		SnapshotYear:                year,
		SnapshotMonth:               month,
		BusinessYear:                deriveBusinessYear(cm, row, loanStart, year),
		BusinessType:                StringOrNull(row.Get(cm, FieldBusinessType)),
		EnterpriseSize:              StringOrNull(row.Get(cm, FieldEnterpriseSize)),
		EstablishmentDate:           DateOrNull(row.Get(cm, FieldEstablishmentDate)),
		EnterpriseInstitutionType:   StringOrNull(row.Get(cm, FieldEnterpriseInstitutionType)),
		NationalIndustryMain:        StringOrNull(row.Get(cm, FieldNationalIndustryMain)),
		NationalIndustryMajor:       StringOrNull(row.Get(cm, FieldNationalIndustryMajor)),
		QccIndustryMain:             StringOrNull(row.Get(cm, FieldQccIndustryMain)),
		QccIndustryMajor:            StringOrNull(row.Get(cm, FieldQccIndustryMajor)),
		IsLittleGiantEnterprise:     boolTag(cm, row, FieldIsLittleGiantEnterprise),
		IsSrdiSme:                   boolTag(cm, row, FieldIsSrdiSme),
		IsHighTechEnterprise:        boolTag(cm, row, FieldIsHighTechEnterprise),
		IsInnovativeSme:             boolTag(cm, row, FieldIsInnovativeSme),
		IsTechBasedSme:              boolTag(cm, row, FieldIsTechBasedSme),
		IsTechnologyEnterprise:      boolTag(cm, row, FieldIsTechnologyEnterprise),
	}
}

// numericOrZeroPtr applies the bulk-import policy: the column always ends up
// non-null, zero when missing or unparseable.
func numericOrZeroPtr(s string) *decimal.Decimal {
	d := NumericOrZero(s)
	return &d
}

// boolTag distinguishes "not tracked" (column absent → null) from "tracked
// false" (column present, falsy cell).
func boolTag(cm ColumnMap, row Row, f Field) *bool {
	if !cm.Has(f) {
		return nil
	}
	return BoolOrNull(row.Get(cm, f))
}

// deriveBusinessYear implements the fallback chain: explicit column value,
// else the loan start year, else the snapshot year.
func deriveBusinessYear(cm ColumnMap, row Row, loanStart *time.Time, snapshotYear int) *int {
	if cm.Has(FieldBusinessYear) {
		if y := IntOrNull(row.Get(cm, FieldBusinessYear)); y != nil {
			return y
		}
	}
	if loanStart != nil {
		y := loanStart.Year()
		return &y
	}
	y := snapshotYear
	return &y
}
