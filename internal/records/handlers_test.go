package records

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bsm-backend/internal/models"
)

func setupRecordsApp(t *testing.T) (*fiber.App, *Service) {
	t.Helper()
	store := setupStore(t)
	h := &Handlers{Service: store}
	app := fiber.New()
	app.Get("/data", h.ListRecords)
	app.Get("/data/periods", h.ListPeriods)
	app.Get("/data/distinct/:field", h.DistinctValues)
	app.Put("/data/:id", h.UpdateRecord)
	app.Delete("/data/:id", h.DeleteRecord)
	app.Get("/data/:id/history", h.History)
	return app, store
}

func TestUpdateHandler_InvalidID(t *testing.T) {
	app, _ := setupRecordsApp(t)

	body, _ := json.Marshal(map[string]interface{}{"loan_amount": 1})
	req := httptest.NewRequest("PUT", "/data/not-a-uuid", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpdateHandler_NotFound(t *testing.T) {
	app, _ := setupRecordsApp(t)

	body, _ := json.Marshal(map[string]interface{}{"loan_amount": 1})
	req := httptest.NewRequest("PUT", "/data/"+uuid.NewString(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var envelope struct {
		Status string `json:"status"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "error", envelope.Status)
	assert.Equal(t, "Data not found", envelope.Error.Message)
}

func TestUpdateHandler_UnknownFieldIsBadRequest(t *testing.T) {
	app, store := setupRecordsApp(t)
	require.NoError(t, store.ReplacePeriod(context.Background(), Period{2025, 1},
		[]models.BusinessRecord{record("Alpha", 2025, 1)}))
	var rec models.BusinessRecord
	require.NoError(t, store.DB.First(&rec).Error)

	body, _ := json.Marshal(map[string]interface{}{"bogus": 1})
	req := httptest.NewRequest("PUT", "/data/"+rec.ID.String(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDeleteHandler_Flow(t *testing.T) {
	app, store := setupRecordsApp(t)
	require.NoError(t, store.ReplacePeriod(context.Background(), Period{2025, 1},
		[]models.BusinessRecord{record("Alpha", 2025, 1)}))
	var rec models.BusinessRecord
	require.NoError(t, store.DB.First(&rec).Error)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/data/"+rec.ID.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/data/"+rec.ID.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHistoryHandler_NotFound(t *testing.T) {
	app, _ := setupRecordsApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/data/"+uuid.NewString()+"/history", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListPeriodsHandler(t *testing.T) {
	app, store := setupRecordsApp(t)
	require.NoError(t, store.ReplacePeriod(context.Background(), Period{2025, 1},
		[]models.BusinessRecord{record("Alpha", 2025, 1)}))

	resp, err := app.Test(httptest.NewRequest("GET", "/data/periods", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Data []Period `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, []Period{{2025, 1}}, envelope.Data)
}

func TestDistinctValuesHandler_BadField(t *testing.T) {
	app, _ := setupRecordsApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/data/distinct/loan_amount", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListRecordsHandler_Pagination(t *testing.T) {
	app, store := setupRecordsApp(t)
	require.NoError(t, store.ReplacePeriod(context.Background(), Period{2025, 1},
		[]models.BusinessRecord{record("Alpha", 2025, 1), record("Beta", 2025, 1), record("Gamma", 2025, 1)}))

	resp, err := app.Test(httptest.NewRequest("GET", "/data?page=2&per_page=2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Data ListPage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.EqualValues(t, 3, envelope.Data.Total)
	assert.Equal(t, 2, envelope.Data.CurrentPage)
	assert.Equal(t, 2, envelope.Data.Pages)
	assert.Len(t, envelope.Data.Data, 1)
}
