package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Canonical loan status values. Import normalizes source spreadsheet values
// (including the Chinese originals) onto these; unknown statuses pass through.
const (
	LoanStatusNormal       = "normal"
	LoanStatusSettled      = "settled"
	LoanStatusNotDisbursed = "not yet disbursed"
)

// BusinessRecord is one loan/guarantee business line inside one monthly
// snapshot. The snapshot coordinate (snapshot_year, snapshot_month) is fixed
// at creation; many records share a coordinate. Money and rate columns are
// nullable on purpose: bulk import fills them with zero, point updates may
// set them back to null (two distinct coercion policies, see normalize).
type BusinessRecord struct {
	ID                          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyName                 string           `gorm:"column:company_name;size:255" json:"company_name"`
	LoanAmount                  *decimal.Decimal `gorm:"column:loan_amount;type:decimal(18,4)" json:"loan_amount"`
	GuaranteeAmount             *decimal.Decimal `gorm:"column:guarantee_amount;type:decimal(18,4)" json:"guarantee_amount"`
	LoanStartDate               *time.Time       `gorm:"column:loan_start_date;type:date" json:"loan_start_date"`
	LoanDueDate                 *time.Time       `gorm:"column:loan_due_date;type:date" json:"loan_due_date"`
	LoanInterestRate            *decimal.Decimal `gorm:"column:loan_interest_rate;type:decimal(7,4)" json:"loan_interest_rate"`
	GuaranteeFeeRate            *decimal.Decimal `gorm:"column:guarantee_fee_rate;type:decimal(7,4)" json:"guarantee_fee_rate"`
	OutstandingLoanBalance      *decimal.Decimal `gorm:"column:outstanding_loan_balance;type:decimal(18,4)" json:"outstanding_loan_balance"`
	OutstandingGuaranteeBalance *decimal.Decimal `gorm:"column:outstanding_guarantee_balance;type:decimal(18,4)" json:"outstanding_guarantee_balance"`
	LoanStatus                  string           `gorm:"column:loan_status;size:50" json:"loan_status"`
	SettlementDate              *time.Time       `gorm:"column:settlement_date;type:date" json:"settlement_date"`
	EnterpriseClassification    *string          `gorm:"column:enterprise_classification;size:50" json:"enterprise_classification"`
	CooperativeBank             *string          `gorm:"column:cooperative_bank;size:100" json:"cooperative_bank"`
	SnapshotYear                int              `gorm:"column:snapshot_year;not null;index:idx_snapshot_period" json:"snapshot_year"`
	SnapshotMonth               int              `gorm:"column:snapshot_month;not null;index:idx_snapshot_period" json:"snapshot_month"`
	BusinessYear                *int             `gorm:"column:business_year" json:"business_year"`
	BusinessType                *string          `gorm:"column:business_type;size:100" json:"business_type"`
	EnterpriseSize              *string          `gorm:"column:enterprise_size;size:50" json:"enterprise_size"`
	EstablishmentDate           *time.Time       `gorm:"column:establishment_date;type:date" json:"establishment_date"`
	EnterpriseInstitutionType   *string          `gorm:"column:enterprise_institution_type;size:100" json:"enterprise_institution_type"`
	NationalIndustryMain        *string          `gorm:"column:national_industry_main;size:100" json:"national_industry_main"`
	NationalIndustryMajor       *string          `gorm:"column:national_industry_major;size:100" json:"national_industry_major"`
	QccIndustryMain             *string          `gorm:"column:qcc_industry_main;size:100" json:"qcc_industry_main"`
	QccIndustryMajor            *string          `gorm:"column:qcc_industry_major;size:100" json:"qcc_industry_major"`
	IsLittleGiantEnterprise     *bool            `gorm:"column:is_little_giant_enterprise" json:"is_little_giant_enterprise"`
	IsSrdiSme                   *bool            `gorm:"column:is_srdi_sme" json:"is_srdi_sme"`
	IsHighTechEnterprise        *bool            `gorm:"column:is_high_tech_enterprise" json:"is_high_tech_enterprise"`
	IsInnovativeSme             *bool            `gorm:"column:is_innovative_sme" json:"is_innovative_sme"`
	IsTechBasedSme              *bool            `gorm:"column:is_tech_based_sme" json:"is_tech_based_sme"`
	IsTechnologyEnterprise      *bool            `gorm:"column:is_technology_enterprise" json:"is_technology_enterprise"`
	CreatedAt                   time.Time        `gorm:"column:created_at" json:"created_at"`
}

func (BusinessRecord) TableName() string {
	return "business_records"
}

// BeforeCreate: never insert zero UUID for primary key; generate random when not set.
func (r *BusinessRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// LoanAmountOrZero treats a null loan amount as zero for aggregation.
func (r *BusinessRecord) LoanAmountOrZero() decimal.Decimal {
	return orZero(r.LoanAmount)
}

// GuaranteeAmountOrZero treats a null guarantee amount as zero for aggregation.
func (r *BusinessRecord) GuaranteeAmountOrZero() decimal.Decimal {
	return orZero(r.GuaranteeAmount)
}

// LoanBalanceOrZero treats a null outstanding loan balance as zero for aggregation.
func (r *BusinessRecord) LoanBalanceOrZero() decimal.Decimal {
	return orZero(r.OutstandingLoanBalance)
}

// GuaranteeBalanceOrZero treats a null outstanding guarantee balance as zero for aggregation.
func (r *BusinessRecord) GuaranteeBalanceOrZero() decimal.Decimal {
	return orZero(r.OutstandingGuaranteeBalance)
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
