package normalize

import "strings"

// Field is a canonical BusinessRecord field name (matches the JSON/DB name).
type Field string

const (
	FieldCompanyName                 Field = "company_name"
	FieldLoanAmount                  Field = "loan_amount"
	FieldGuaranteeAmount             Field = "guarantee_amount"
	FieldLoanStartDate               Field = "loan_start_date"
	FieldLoanDueDate                 Field = "loan_due_date"
	FieldLoanInterestRate            Field = "loan_interest_rate"
	FieldGuaranteeFeeRate            Field = "guarantee_fee_rate"
	FieldOutstandingLoanBalance      Field = "outstanding_loan_balance"
	FieldOutstandingGuaranteeBalance Field = "outstanding_guarantee_balance"
	FieldLoanStatus                  Field = "loan_status"
	FieldSettlementDate              Field = "settlement_date"
	FieldEnterpriseClassification    Field = "enterprise_classification"
	FieldCooperativeBank             Field = "cooperative_bank"
	FieldBusinessYear                Field = "business_year"
	FieldBusinessType                Field = "business_type"
	FieldEnterpriseSize              Field = "enterprise_size"
	FieldEstablishmentDate           Field = "establishment_date"
	FieldEnterpriseInstitutionType   Field = "enterprise_institution_type"
	FieldNationalIndustryMain        Field = "national_industry_main"
	FieldNationalIndustryMajor       Field = "national_industry_major"
	FieldQccIndustryMain             Field = "qcc_industry_main"
	FieldQccIndustryMajor            Field = "qcc_industry_major"
	FieldIsLittleGiantEnterprise     Field = "is_little_giant_enterprise"
	FieldIsSrdiSme                   Field = "is_srdi_sme"
	FieldIsHighTechEnterprise        Field = "is_high_tech_enterprise"
	FieldIsInnovativeSme             Field = "is_innovative_sme"
	FieldIsTechBasedSme              Field = "is_tech_based_sme"
	FieldIsTechnologyEnterprise      Field = "is_technology_enterprise"
)

// columnAliases maps each canonical field to the source headers it may appear
// under. The canonical name itself is always accepted; the Chinese entries are
// the headers used by the upstream monthly spreadsheets. Full-width and
// half-width parentheses both occur in the wild.
var columnAliases = map[Field][]string{
	FieldCompanyName:                 {"企业名称"},
	FieldLoanAmount:                  {"借款金额（万元）", "借款金额(万元)"},
	FieldGuaranteeAmount:             {"担保金额（万元）", "担保金额(万元)"},
	FieldLoanStartDate:               {"借款起始日"},
	FieldLoanDueDate:                 {"借款到期日"},
	FieldLoanInterestRate:            {"借款利率"},
	FieldGuaranteeFeeRate:            {"担保费率"},
	FieldOutstandingLoanBalance:      {"借款余额（万元）", "借款余额(万元)"},
	FieldOutstandingGuaranteeBalance: {"担保余额（万元）", "担保余额(万元)"},
	FieldLoanStatus:                  {"借据状态"},
	FieldSettlementDate:              {"结清日期"},
	FieldEnterpriseClassification:    {"企业划型"},
	FieldCooperativeBank:             {"合作银行"},
	FieldBusinessYear:                {"业务年度"},
	FieldBusinessType:                {"业务类型"},
	FieldEnterpriseSize:              {"企业规模"},
	FieldEstablishmentDate:           {"成立日期"},
	FieldEnterpriseInstitutionType:   {"企业（机构）类型", "企业(机构)类型"},
	FieldNationalIndustryMain:        {"国标行业门类"},
	FieldNationalIndustryMajor:       {"国标行业大类"},
	FieldQccIndustryMain:             {"企查查行业门类"},
	FieldQccIndustryMajor:            {"企查查行业大类"},
	FieldIsLittleGiantEnterprise:     {"专精特新“小巨人”企业", "专精特新\"小巨人\"企业"},
	FieldIsSrdiSme:                   {"专精特新中小企业"},
	FieldIsHighTechEnterprise:        {"高新技术企业"},
	FieldIsInnovativeSme:             {"创新型中小企业"},
	FieldIsTechBasedSme:              {"科技型中小企业"},
	FieldIsTechnologyEnterprise:      {"科技企业"},
}

// ColumnMap maps each canonical field to the header actually present in one
// import, resolved once per file rather than per row. Fields whose column is
// absent have no entry, which is how boolean tags distinguish "not tracked"
// from "tracked false".
type ColumnMap map[Field]string

// ResolveColumns matches trimmed source headers against the alias table.
// Lookup is case-insensitive for the ASCII canonical names. The first header
// matching a field wins.
func ResolveColumns(headers []string) ColumnMap {
	cm := make(ColumnMap)
	for _, raw := range headers {
		header := strings.TrimSpace(raw)
		if header == "" {
			continue
		}
		for field, aliases := range columnAliases {
			if _, done := cm[field]; done {
				continue
			}
			if strings.EqualFold(header, string(field)) || matchesAlias(header, aliases) {
				cm[field] = raw
			}
		}
	}
	return cm
}

// Has reports whether the import carried a column for the given field.
func (cm ColumnMap) Has(f Field) bool {
	_, ok := cm[f]
	return ok
}

func matchesAlias(header string, aliases []string) bool {
	for _, a := range aliases {
		if header == a {
			return true
		}
	}
	return false
}
