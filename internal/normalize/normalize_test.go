package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bsm-backend/internal/models"
)

func TestResolveColumns_ChineseHeaders(t *testing.T) {
	headers := []string{"企业名称", "借款金额（万元）", "借据状态", "合作银行", "高新技术企业"}
	cm := ResolveColumns(headers)

	assert.Equal(t, "企业名称", cm[FieldCompanyName])
	assert.Equal(t, "借款金额（万元）", cm[FieldLoanAmount])
	assert.Equal(t, "借据状态", cm[FieldLoanStatus])
	assert.Equal(t, "合作银行", cm[FieldCooperativeBank])
	assert.True(t, cm.Has(FieldIsHighTechEnterprise))
	assert.False(t, cm.Has(FieldIsTechnologyEnterprise))
	assert.False(t, cm.Has(FieldGuaranteeAmount))
}

func TestResolveColumns_CanonicalNamesCaseInsensitive(t *testing.T) {
	cm := ResolveColumns([]string{"Company_Name", "LOAN_AMOUNT", " loan_status "})

	assert.Equal(t, "Company_Name", cm[FieldCompanyName])
	assert.Equal(t, "LOAN_AMOUNT", cm[FieldLoanAmount])
	// The raw header is kept so row lookup hits the original key.
	assert.Equal(t, " loan_status ", cm[FieldLoanStatus])
}

func TestResolveColumns_HalfWidthParentheses(t *testing.T) {
	cm := ResolveColumns([]string{"借款金额(万元)", "担保金额(万元)"})
	assert.True(t, cm.Has(FieldLoanAmount))
	assert.True(t, cm.Has(FieldGuaranteeAmount))
}

func TestNumericOrZero(t *testing.T) {
	assert.True(t, NumericOrZero("").IsZero())
	assert.True(t, NumericOrZero("abc").IsZero())
	assert.True(t, NumericOrZero("1,234.5").Equal(decimal.NewFromFloat(1234.5)))
	assert.True(t, NumericOrZero("1.5%").Equal(decimal.NewFromFloat(1.5)))
}

func TestNumericOrNull(t *testing.T) {
	assert.Nil(t, NumericOrNull(""))
	assert.Nil(t, NumericOrNull("n/a"))
	d := NumericOrNull(" 100 ")
	require.NotNil(t, d)
	assert.True(t, d.Equal(decimal.NewFromInt(100)))
}

func TestDateOrNull(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"2023-01-15", "2023-01-15"},
		{"2023/1/5", "2023-01-05"},
		{"2023年1月5日", "2023-01-05"},
	} {
		got := DateOrNull(tc.in)
		require.NotNil(t, got, tc.in)
		assert.Equal(t, tc.want, got.Format("2006-01-02"), tc.in)
	}
	assert.Nil(t, DateOrNull(""))
	assert.Nil(t, DateOrNull("not a date"))
}

func TestDateOrNull_ExcelSerial(t *testing.T) {
	// 44927 = 2023-01-01 in the 1900 date system.
	got := DateOrNull("44927")
	require.NotNil(t, got)
	assert.Equal(t, "2023-01-01", got.Format("2006-01-02"))

	// Small integers are not treated as serial dates.
	assert.Nil(t, DateOrNull("12"))
}

func TestIntOrNull(t *testing.T) {
	want := 2023
	assert.Equal(t, &want, IntOrNull("2023"))
	assert.Equal(t, &want, IntOrNull("2023.0"))
	assert.Nil(t, IntOrNull(""))
	assert.Nil(t, IntOrNull("2023.5"))
}

func TestBoolOrNull(t *testing.T) {
	assert.Nil(t, BoolOrNull(""))
	for _, falsy := range []string{"0", "false", "no", "否", "无"} {
		v := BoolOrNull(falsy)
		require.NotNil(t, v, falsy)
		assert.False(t, *v, falsy)
	}
	for _, truthy := range []string{"1", "是", "yes", "符合"} {
		v := BoolOrNull(truthy)
		require.NotNil(t, v, truthy)
		assert.True(t, *v, truthy)
	}
}

func TestLoanStatus(t *testing.T) {
	assert.Equal(t, models.LoanStatusNotDisbursed, LoanStatus("未放款"))
	assert.Equal(t, models.LoanStatusNormal, LoanStatus("正常"))
	assert.Equal(t, models.LoanStatusSettled, LoanStatus("结清"))
	assert.Equal(t, models.LoanStatusSettled, LoanStatus("已结清"))
	assert.Equal(t, models.LoanStatusNormal, LoanStatus("Normal"))
	assert.Equal(t, "something else", LoanStatus(" something else "))
}

func TestBuildRecord_ZeroFillAndNullDates(t *testing.T) {
	cm := ResolveColumns([]string{"company_name", "loan_amount", "loan_start_date"})
	row := Row{"company_name": "Alpha", "loan_amount": "", "loan_start_date": ""}

	rec := BuildRecord(cm, row, 2025, 1)

	assert.Equal(t, "Alpha", rec.CompanyName)
	require.NotNil(t, rec.LoanAmount)
	assert.True(t, rec.LoanAmount.IsZero())
	require.NotNil(t, rec.GuaranteeAmount) // absent column still zero-fills
	assert.True(t, rec.GuaranteeAmount.IsZero())
	assert.Nil(t, rec.LoanStartDate)
	assert.Equal(t, 2025, rec.SnapshotYear)
	assert.Equal(t, 1, rec.SnapshotMonth)
}

func TestBuildRecord_BusinessYearFallbackChain(t *testing.T) {
	// Explicit column wins.
	cm := ResolveColumns([]string{"company_name", "business_year", "loan_start_date"})
	rec := BuildRecord(cm, Row{"company_name": "A", "business_year": "2022", "loan_start_date": "2021-05-01"}, 2025, 1)
	require.NotNil(t, rec.BusinessYear)
	assert.Equal(t, 2022, *rec.BusinessYear)

	// Blank column falls back to the loan start year.
	rec = BuildRecord(cm, Row{"company_name": "A", "business_year": "", "loan_start_date": "2021-05-01"}, 2025, 1)
	require.NotNil(t, rec.BusinessYear)
	assert.Equal(t, 2021, *rec.BusinessYear)

	// No column, no start date: snapshot year.
	cm = ResolveColumns([]string{"company_name"})
	rec = BuildRecord(cm, Row{"company_name": "A"}, 2025, 1)
	require.NotNil(t, rec.BusinessYear)
	assert.Equal(t, 2025, *rec.BusinessYear)
}

func TestBuildRecord_BooleanTagTriState(t *testing.T) {
	// Column absent: not tracked.
	cm := ResolveColumns([]string{"company_name"})
	rec := BuildRecord(cm, Row{"company_name": "A"}, 2025, 1)
	assert.Nil(t, rec.IsTechnologyEnterprise)

	// Column present, blank cell: still unknown.
	cm = ResolveColumns([]string{"company_name", "is_technology_enterprise"})
	rec = BuildRecord(cm, Row{"company_name": "A", "is_technology_enterprise": ""}, 2025, 1)
	assert.Nil(t, rec.IsTechnologyEnterprise)

	// Falsy cell: tracked false.
	rec = BuildRecord(cm, Row{"company_name": "A", "is_technology_enterprise": "否"}, 2025, 1)
	require.NotNil(t, rec.IsTechnologyEnterprise)
	assert.False(t, *rec.IsTechnologyEnterprise)

	// Anything else: tracked true.
	rec = BuildRecord(cm, Row{"company_name": "A", "is_technology_enterprise": "是"}, 2025, 1)
	require.NotNil(t, rec.IsTechnologyEnterprise)
	assert.True(t, *rec.IsTechnologyEnterprise)
}

func TestBuildRecord_NeverRejectsRows(t *testing.T) {
	cm := ResolveColumns([]string{"company_name", "loan_amount", "loan_status"})
	rec := BuildRecord(cm, Row{"company_name": "", "loan_amount": "garbage", "loan_status": "未放款"}, 2024, 6)

	assert.Equal(t, "", rec.CompanyName)
	require.NotNil(t, rec.LoanAmount)
	assert.True(t, rec.LoanAmount.IsZero())
	assert.Equal(t, models.LoanStatusNotDisbursed, rec.LoanStatus)
}

func TestRowGet_TrimsCells(t *testing.T) {
	cm := ResolveColumns([]string{"company_name"})
	row := Row{"company_name": "  Alpha  "}
	assert.Equal(t, "Alpha", row.Get(cm, FieldCompanyName))
	assert.Equal(t, "", row.Get(cm, FieldLoanAmount))
}
