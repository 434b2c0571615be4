package statistics

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"bsm-backend/internal/models"
)

// ZeroBaseSentinel is the percentage change reported for growth from a zero
// base. Finite on purpose: the result must stay serializable, so this is
// never Inf or NaN.
const ZeroBaseSentinel = 999999.0

// DataUnavailableError names the period that has no records.
type DataUnavailableError struct {
	Year  int
	Month int
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("Data not available for %04d-%02d", e.Year, e.Month)
}

// PeriodSummary is the independent summary block computed per compared
// period. The this-year cohort keys on the period's own year.
type PeriodSummary struct {
	TotalLoanAmount         float64 `json:"total_loan_amount"`
	TotalGuaranteeAmount    float64 `json:"total_guarantee_amount"`
	NewCompaniesLoan        float64 `json:"new_companies_this_year_loan"`
	NewCompaniesGuarantee   float64 `json:"new_companies_this_year_guarantee_amount"`
	TotalLoanBalance        float64 `json:"total_loan_balance"`
	TotalGuaranteeBalance   float64 `json:"total_guarantee_balance"`
	BusinessCount           int     `json:"business_count"`
	CompanyCount            int     `json:"company_count"`
	NewCompaniesThisYearCnt int     `json:"new_companies_this_year_count"`
}

// CompanyAnalysis is the set-difference part of a comparison. Name lists are
// sorted; NewCompanies carries the full period-B rows for drill-down.
type CompanyAnalysis struct {
	NewCompanies               []models.BusinessRecord `json:"new_companies"`
	LostCompanies              []string                `json:"lost_companies"`
	ContinuingCompanies        []string                `json:"continuing_companies"`
	NewCompaniesCount          int                     `json:"new_companies_count"`
	LostCompaniesCount         int                     `json:"lost_companies_count"`
	ContinuingCompaniesCount   int                     `json:"continuing_companies_count"`
	NewCompaniesLoan           float64                 `json:"new_companies_loan"`
	LostCompaniesLoan          float64                 `json:"lost_companies_loan"`
	ContinuingCompaniesLoanChg float64                 `json:"continuing_companies_loan_change"`
}

// ComparisonResult contrasts two snapshot periods.
type ComparisonResult struct {
	Summary1          PeriodSummary      `json:"summary1"`
	Summary2          PeriodSummary      `json:"summary2"`
	Changes           map[string]float64 `json:"changes"`
	PercentageChanges map[string]float64 `json:"percentage_changes"`
	CompanyAnalysis   CompanyAnalysis    `json:"company_analysis"`
}

// summaryFields fixes the delta/percentage field order and key set.
var summaryFields = []struct {
	key string
	get func(*PeriodSummary) float64
}{
	{"total_loan_amount", func(s *PeriodSummary) float64 { return s.TotalLoanAmount }},
	{"total_guarantee_amount", func(s *PeriodSummary) float64 { return s.TotalGuaranteeAmount }},
	{"new_companies_this_year_loan", func(s *PeriodSummary) float64 { return s.NewCompaniesLoan }},
	{"new_companies_this_year_guarantee_amount", func(s *PeriodSummary) float64 { return s.NewCompaniesGuarantee }},
	{"total_loan_balance", func(s *PeriodSummary) float64 { return s.TotalLoanBalance }},
	{"total_guarantee_balance", func(s *PeriodSummary) float64 { return s.TotalGuaranteeBalance }},
	{"business_count", func(s *PeriodSummary) float64 { return float64(s.BusinessCount) }},
	{"company_count", func(s *PeriodSummary) float64 { return float64(s.CompanyCount) }},
	{"new_companies_this_year_count", func(s *PeriodSummary) float64 { return float64(s.NewCompaniesThisYearCnt) }},
}

// Compare contrasts periodA against periodB: independent summaries, numeric
// deltas, percentage changes (zero base → sentinel) and the company-set
// analysis. Fails with DataUnavailableError naming whichever period has no
// records.
func (s *Service) Compare(ctx context.Context, yearA, monthA, yearB, monthB int) (*ComparisonResult, error) {
	recsA, err := s.loadPeriod(ctx, yearA, monthA, nil)
	if err != nil {
		return nil, err
	}
	recsA = excludeUndisbursed(recsA)
	if len(recsA) == 0 {
		return nil, &DataUnavailableError{Year: yearA, Month: monthA}
	}

	recsB, err := s.loadPeriod(ctx, yearB, monthB, nil)
	if err != nil {
		return nil, err
	}
	recsB = excludeUndisbursed(recsB)
	if len(recsB) == 0 {
		return nil, &DataUnavailableError{Year: yearB, Month: monthB}
	}

	summaryA := buildSummary(recsA, yearA)
	summaryB := buildSummary(recsB, yearB)

	changes := make(map[string]float64, len(summaryFields))
	pctChanges := make(map[string]float64, len(summaryFields))
	for _, f := range summaryFields {
		a, b := f.get(&summaryA), f.get(&summaryB)
		changes[f.key+"_change"] = b - a
		pctChanges[f.key] = percentageChange(a, b)
	}

	return &ComparisonResult{
		Summary1:          summaryA,
		Summary2:          summaryB,
		Changes:           changes,
		PercentageChanges: pctChanges,
		CompanyAnalysis:   buildCompanyAnalysis(recsA, recsB),
	}, nil
}

func buildSummary(recs []models.BusinessRecord, year int) PeriodSummary {
	loanSum := decimal.Zero
	guarSum := decimal.Zero
	loanBalanceSum := decimal.Zero
	guarBalanceSum := decimal.Zero
	cohortLoan := decimal.Zero
	cohortGuar := decimal.Zero
	companies := map[string]bool{}
	cohortCompanies := map[string]bool{}

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
		if r.CompanyName != "" {
			companies[r.CompanyName] = true
			if inCohort {
				cohortCompanies[r.CompanyName] = true
			}
		}
	}

	return PeriodSummary{
		TotalLoanAmount:         loanSum.InexactFloat64(),
		TotalGuaranteeAmount:    guarSum.InexactFloat64(),
		NewCompaniesLoan:        cohortLoan.InexactFloat64(),
		NewCompaniesGuarantee:   cohortGuar.InexactFloat64(),
		TotalLoanBalance:        loanBalanceSum.InexactFloat64(),
		TotalGuaranteeBalance:   guarBalanceSum.InexactFloat64(),
		BusinessCount:           len(recs),
		CompanyCount:            len(companies),
		NewCompaniesThisYearCnt: len(cohortCompanies),
	}
}

// percentageChange returns (b-a)/a*100, with the finite sentinel for growth
// from a zero base.
func percentageChange(a, b float64) float64 {
	if a == 0 {
		if b > 0 {
			return ZeroBaseSentinel
		}
		return 0
	}
	return (b - a) / a * 100
}

// buildCompanyAnalysis partitions the two company-name sets and sums issued
// loans per partition. Blank names never enter either set.
func buildCompanyAnalysis(recsA, recsB []models.BusinessRecord) CompanyAnalysis {
	setA := companySet(recsA)
	setB := companySet(recsB)

	var newNames, lostNames, continuingNames []string
	for name := range setB {
		if !setA[name] {
			newNames = append(newNames, name)
		}
	}
	for name := range setA {
		if setB[name] {
			continuingNames = append(continuingNames, name)
		} else {
			lostNames = append(lostNames, name)
		}
	}
	sort.Strings(newNames)
	sort.Strings(lostNames)
	sort.Strings(continuingNames)

	newSet := toSet(newNames)
	lostSet := toSet(lostNames)
	continuingSet := toSet(continuingNames)

	newRows := make([]models.BusinessRecord, 0)
	for _, r := range recsB {
		if newSet[r.CompanyName] {
			newRows = append(newRows, r)
		}
	}

	newLoan := loanSumFor(recsB, newSet)
	lostLoan := loanSumFor(recsA, lostSet)
	continuingA := loanSumFor(recsA, continuingSet)
	continuingB := loanSumFor(recsB, continuingSet)

	return CompanyAnalysis{
		NewCompanies:               newRows,
		LostCompanies:              lostNames,
		ContinuingCompanies:        continuingNames,
		NewCompaniesCount:          len(newNames),
		LostCompaniesCount:         len(lostNames),
		ContinuingCompaniesCount:   len(continuingNames),
		NewCompaniesLoan:           newLoan.InexactFloat64(),
		LostCompaniesLoan:          lostLoan.InexactFloat64(),
		ContinuingCompaniesLoanChg: continuingB.Sub(continuingA).InexactFloat64(),
	}
}

func companySet(recs []models.BusinessRecord) map[string]bool {
	set := make(map[string]bool, len(recs))
	for i := range recs {
		if recs[i].CompanyName != "" {
			set[recs[i].CompanyName] = true
		}
	}
	return set
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func loanSumFor(recs []models.BusinessRecord, names map[string]bool) decimal.Decimal {
	sum := decimal.Zero
	for i := range recs {
		if names[recs[i].CompanyName] {
			sum = sum.Add(recs[i].LoanAmountOrZero())
		}
	}
	return sum
}
