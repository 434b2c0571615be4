// Package statistics computes aggregate metrics over one snapshot period and
// period-to-period comparisons. Aggregation happens in memory over the loaded
// period, which keeps the distinct-company and cohort rules in one place.
package statistics

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bsm-backend/internal/models"
)

type Service struct {
	DB *gorm.DB
}

// Filters narrows Summarize to a subset of a period. TechEnterprise is
// tri-state: nil = no filter, "true"/"false" = tracked value, "N/A" selects
// records where the flag was never tracked (null, not false).
type Filters struct {
	BusinessType    string
	CooperativeBank string
	TechEnterprise  *string
}

// StatBlock is the summary of one filtered snapshot period. Every field is
// zero for an empty set. In-force counts companies with a positive
// outstanding loan balance, with no condition on loan status (the
// balance-only rule).
type StatBlock struct {
	CumulativeLoanAmount      float64 `json:"cumulative_loan_amount"`
	CumulativeGuaranteeAmount float64 `json:"cumulative_guarantee_amount"`
	CumulativeCompanyCount    int     `json:"cumulative_company_count"`
	NewCompaniesThisYearCount int     `json:"new_companies_this_year_count"`
	NewCompaniesThisYearLoan  float64 `json:"new_companies_this_year_loan"`
	NewCompaniesThisYearGuar  float64 `json:"new_companies_this_year_guarantee"`
	InForceCompaniesCount     int     `json:"in_force_companies_count"`
	TotalLoanBalance          float64 `json:"total_loan_balance"`
	TotalGuaranteeBalance     float64 `json:"total_guarantee_balance"`
}

// Summarize computes the StatBlock for one period after applying the
// optional filters and the disbursement exclusion. The "new this year" cohort
// keys on the query year, not the snapshot year.
func (s *Service) Summarize(ctx context.Context, year, month int, filters Filters) (*StatBlock, error) {
	recs, err := s.loadPeriod(ctx, year, month, &filters)
	if err != nil {
		return nil, err
	}
	recs = excludeUndisbursed(recs)

	block := &StatBlock{}
	loanSum := decimal.Zero
	guarSum := decimal.Zero
	loanBalanceSum := decimal.Zero
	guarBalanceSum := decimal.Zero
	cohortLoan := decimal.Zero
	cohortGuar := decimal.Zero

	companies := map[string]bool{}
	cohortCompanies := map[string]bool{}
	inForceCompanies := map[string]bool{}

	for i := range recs {
		r := &recs[i]
		loanSum = loanSum.Add(r.LoanAmountOrZero())
		guarSum = guarSum.Add(r.GuaranteeAmountOrZero())
		loanBalanceSum = loanBalanceSum.Add(r.LoanBalanceOrZero())
		guarBalanceSum = guarBalanceSum.Add(r.GuaranteeBalanceOrZero())

		inCohort := r.BusinessYear != nil && *r.BusinessYear == year
		if inCohort {
			cohortLoan = cohortLoan.Add(r.LoanAmountOrZero())
			cohortGuar = cohortGuar.Add(r.GuaranteeAmountOrZero())
		}
		if r.CompanyName == "" {
			continue
		}
		companies[r.CompanyName] = true
		if inCohort {
			cohortCompanies[r.CompanyName] = true
		}
		if r.LoanBalanceOrZero().IsPositive() {
			inForceCompanies[r.CompanyName] = true
		}
	}

	block.CumulativeLoanAmount = loanSum.InexactFloat64()
	block.CumulativeGuaranteeAmount = guarSum.InexactFloat64()
	block.CumulativeCompanyCount = len(companies)
	block.NewCompaniesThisYearCount = len(cohortCompanies)
	block.NewCompaniesThisYearLoan = cohortLoan.InexactFloat64()
	block.NewCompaniesThisYearGuar = cohortGuar.InexactFloat64()
	block.InForceCompaniesCount = len(inForceCompanies)
	block.TotalLoanBalance = loanBalanceSum.InexactFloat64()
	block.TotalGuaranteeBalance = guarBalanceSum.InexactFloat64()
	return block, nil
}

// loadPeriod fetches one period within a single query; filters may be nil.
func (s *Service) loadPeriod(ctx context.Context, year, month int, filters *Filters) ([]models.BusinessRecord, error) {
	q := s.DB.WithContext(ctx).
		Where("snapshot_year = ? AND snapshot_month = ?", year, month)
	if filters != nil {
		if filters.BusinessType != "" {
			q = q.Where("business_type = ?", filters.BusinessType)
		}
		if filters.CooperativeBank != "" {
			q = q.Where("cooperative_bank = ?", filters.CooperativeBank)
		}
		if filters.TechEnterprise != nil {
			switch *filters.TechEnterprise {
			case "N/A":
				q = q.Where("is_technology_enterprise IS NULL")
			case "true":
				q = q.Where("is_technology_enterprise = ?", true)
			case "false":
				q = q.Where("is_technology_enterprise = ?", false)
			}
		}
	}
	var recs []models.BusinessRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// excludeUndisbursed drops rows whose loan has not been disbursed; those
// never count toward issued totals.
func excludeUndisbursed(recs []models.BusinessRecord) []models.BusinessRecord {
	out := recs[:0]
	for _, r := range recs {
		if r.LoanStatus != models.LoanStatusNotDisbursed {
			out = append(out, r)
		}
	}
	return out
}

// SlicerOption is one labelled value in the tech-enterprise option list.
type SlicerOption struct {
	Label string      `json:"label"`
	Value interface{} `json:"value"`
}

// SlicerOptions carries the filter-UI choices.
type SlicerOptions struct {
	BusinessTypes              []string       `json:"business_types"`
	CooperativeBanks           []string       `json:"cooperative_banks"`
	TechnologyEnterpriseValues []SlicerOption `json:"is_technology_enterprise_options"`
}
