package records

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"bsm-backend/internal/middleware"
	"bsm-backend/internal/pkg/response"
)

type Handlers struct {
	Service *Service
}

// ListRecords GET /api/v1/data — paginated listing with optional filters.
func (h *Handlers) ListRecords(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 50)

	filter := ListFilter{
		CompanyName:     c.Query("company_name"),
		BusinessType:    c.Query("business_type"),
		CooperativeBank: c.Query("cooperative_bank"),
	}
	year := c.QueryInt("year", 0)
	month := c.QueryInt("month", 0)
	if year != 0 && month != 0 {
		filter.Period = &Period{Year: year, Month: month}
	}
	if v := c.Query("is_technology_enterprise"); v != "" && v != "all" {
		filter.TechEnterprise = &v
	}

	pageData, err := h.Service.ListRecords(c.Context(), page, perPage, filter)
	if err != nil {
		return response.Error(c, "Failed to fetch records", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Records fetched", pageData)
}

// UpdateRecord PUT /api/v1/data/:id — audited point update.
func (h *Handlers) UpdateRecord(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid record id", fiber.StatusBadRequest, nil)
	}
	var changes map[string]interface{}
	if err := c.BodyParser(&changes); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}

	rec, err := h.Service.UpdateRecord(c.Context(), id, changes, changedBy(c))
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return response.Error(c, ErrRecordNotFound.Error(), fiber.StatusNotFound, nil)
		}
		var pe *PersistenceError
		if errors.As(err, &pe) {
			return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
		}
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	return response.Success(c, "Record updated", rec)
}

// DeleteRecord DELETE /api/v1/data/:id — cascades the change history.
func (h *Handlers) DeleteRecord(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid record id", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.DeleteRecord(c.Context(), id); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return response.Error(c, ErrRecordNotFound.Error(), fiber.StatusNotFound, nil)
		}
		return response.Error(c, "Failed to delete record", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Data deleted successfully", nil)
}

// History GET /api/v1/data/:id/history — change ledger, newest first.
func (h *Handlers) History(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid record id", fiber.StatusBadRequest, nil)
	}
	entries, err := h.Service.History(c.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return response.Error(c, ErrRecordNotFound.Error(), fiber.StatusNotFound, nil)
		}
		return response.Error(c, "Failed to fetch history", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "History fetched", entries)
}

// ListPeriods GET /api/v1/data/periods — distinct snapshot coordinates.
func (h *Handlers) ListPeriods(c *fiber.Ctx) error {
	periods, err := h.Service.ListPeriods(c.Context())
	if err != nil {
		return response.Error(c, "Failed to fetch periods", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Periods fetched", periods)
}

// DistinctValues GET /api/v1/data/distinct/:field — sorted distinct values of
// one whitelisted field.
func (h *Handlers) DistinctValues(c *fiber.Ctx) error {
	values, err := h.Service.ListDistinctValues(c.Context(), c.Params("field"))
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	return response.Success(c, "Values fetched", values)
}

// changedBy resolves the audit author from the session user, falling back to
// "user" for unattributed changes.
func changedBy(c *fiber.Ctx) string {
	if m, ok := middleware.GetUser(c).(map[string]interface{}); ok {
		if name, ok := m["username"].(string); ok && name != "" {
			return name
		}
	}
	return "user"
}
