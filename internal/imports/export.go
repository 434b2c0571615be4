package imports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"bsm-backend/internal/models"
	"bsm-backend/internal/records"
)

// exportColumns fixes the column order of an exported workbook.
var exportColumns = []string{
	"id", "company_name", "loan_amount", "guarantee_amount",
	"loan_start_date", "loan_due_date", "loan_interest_rate",
	"guarantee_fee_rate", "outstanding_loan_balance",
	"outstanding_guarantee_balance", "loan_status", "settlement_date",
	"enterprise_classification", "cooperative_bank", "snapshot_year",
	"snapshot_month", "business_year", "business_type", "enterprise_size",
	"establishment_date", "enterprise_institution_type",
	"national_industry_main", "national_industry_major",
	"qcc_industry_main", "qcc_industry_major",
	"is_little_giant_enterprise", "is_srdi_sme", "is_high_tech_enterprise",
	"is_innovative_sme", "is_tech_based_sme", "is_technology_enterprise",
	"created_at",
}

// ExportPeriod renders one snapshot period as a workbook. The caller owns
// closing/streaming the file.
func (s *Service) ExportPeriod(ctx context.Context, period records.Period) (*excelize.File, error) {
	var recs []models.BusinessRecord
	if err := s.DB.WithContext(ctx).
		Where("snapshot_year = ? AND snapshot_month = ?", period.Year, period.Month).
		Order("company_name").
		Find(&recs).Error; err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Sheet1"

	for col, header := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}
	for rowIdx := range recs {
		for col, value := range exportRow(&recs[rowIdx]) {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func exportRow(r *models.BusinessRecord) []interface{} {
	return []interface{}{
		r.ID.String(), r.CompanyName,
		decimalCell(r.LoanAmount), decimalCell(r.GuaranteeAmount),
		dateCell(r.LoanStartDate), dateCell(r.LoanDueDate),
		decimalCell(r.LoanInterestRate), decimalCell(r.GuaranteeFeeRate),
		decimalCell(r.OutstandingLoanBalance), decimalCell(r.OutstandingGuaranteeBalance),
		r.LoanStatus, dateCell(r.SettlementDate),
		strCell(r.EnterpriseClassification), strCell(r.CooperativeBank),
		r.SnapshotYear, r.SnapshotMonth, intCell(r.BusinessYear),
		strCell(r.BusinessType), strCell(r.EnterpriseSize),
		dateCell(r.EstablishmentDate), strCell(r.EnterpriseInstitutionType),
		strCell(r.NationalIndustryMain), strCell(r.NationalIndustryMajor),
		strCell(r.QccIndustryMain), strCell(r.QccIndustryMajor),
		boolCell(r.IsLittleGiantEnterprise), boolCell(r.IsSrdiSme),
		boolCell(r.IsHighTechEnterprise), boolCell(r.IsInnovativeSme),
		boolCell(r.IsTechBasedSme), boolCell(r.IsTechnologyEnterprise),
		r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func decimalCell(d *decimal.Decimal) interface{} {
	if d == nil {
		return ""
	}
	return d.String()
}

func dateCell(t *time.Time) interface{} {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func strCell(s *string) interface{} {
	if s == nil {
		return ""
	}
	return *s
}

func intCell(n *int) interface{} {
	if n == nil {
		return ""
	}
	return *n
}

func boolCell(b *bool) interface{} {
	if b == nil {
		return ""
	}
	return *b
}
