package statistics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"bsm-backend/internal/pkg/response"
	"bsm-backend/internal/records"
)

type Handlers struct {
	Service *Service
	Store   *records.Service
}

// Summary GET /api/v1/analysis/summary — StatBlock for one period.
func (h *Handlers) Summary(c *fiber.Ctx) error {
	year := c.QueryInt("year", 0)
	month := c.QueryInt("month", 0)
	if year == 0 || month == 0 {
		return response.Error(c, "year and month parameters are required", fiber.StatusBadRequest, nil)
	}

	filters := Filters{
		BusinessType:    c.Query("business_type"),
		CooperativeBank: c.Query("cooperative_bank"),
	}
	if v := c.Query("is_technology_enterprise"); v != "" && v != "all" {
		filters.TechEnterprise = &v
	}

	block, err := h.Service.Summarize(c.Context(), year, month, filters)
	if err != nil {
		return response.Error(c, "Failed to compute summary", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Summary computed", block)
}

// Compare GET /api/v1/analysis/compare — contrasts two periods given as
// year_month1/year_month2 ("YYYY-MM").
func (h *Handlers) Compare(c *fiber.Ctx) error {
	ym1 := c.Query("year_month1")
	ym2 := c.Query("year_month2")
	if ym1 == "" || ym2 == "" {
		return response.Error(c, "Both year_month1 and year_month2 are required", fiber.StatusBadRequest, nil)
	}
	periodA, err := parseYearMonth(ym1)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	periodB, err := parseYearMonth(ym2)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}

	result, err := h.Service.Compare(c.Context(), periodA.Year, periodA.Month, periodB.Year, periodB.Month)
	if err != nil {
		var unavailable *DataUnavailableError
		if errors.As(err, &unavailable) {
			return response.Error(c, unavailable.Error(), fiber.StatusNotFound, nil)
		}
		return response.Error(c, "Failed to compare periods", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Comparison computed", result)
}

// Slicers GET /api/v1/data/slicers — filter-UI options.
func (h *Handlers) Slicers(c *fiber.Ctx) error {
	businessTypes, err := h.Store.ListDistinctValues(c.Context(), "business_type")
	if err != nil {
		return response.Error(c, "Failed to fetch slicer options", fiber.StatusInternalServerError, nil)
	}
	banks, err := h.Store.ListDistinctValues(c.Context(), "cooperative_bank")
	if err != nil {
		return response.Error(c, "Failed to fetch slicer options", fiber.StatusInternalServerError, nil)
	}
	options := SlicerOptions{
		BusinessTypes:    businessTypes,
		CooperativeBanks: banks,
		TechnologyEnterpriseValues: []SlicerOption{
			{Label: "All", Value: "all"},
			{Label: "Yes", Value: true},
			{Label: "No", Value: false},
			{Label: "Not tracked", Value: "N/A"},
		},
	}
	return response.Success(c, "Slicer options fetched", options)
}

func parseYearMonth(s string) (records.Period, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return records.Period{}, fmt.Errorf("Invalid year-month: %s", s)
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return records.Period{}, fmt.Errorf("Invalid year-month: %s", s)
	}
	p := records.Period{Year: year, Month: month}
	if !p.Valid() {
		return records.Period{}, fmt.Errorf("Invalid year-month: %s", s)
	}
	return p, nil
}
