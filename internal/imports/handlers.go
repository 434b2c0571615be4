package imports

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
}

// Import POST /api/v1/data/import — multipart upload of one or more xlsx
// files. Each file is imported independently: one failing file reports its
// error without aborting its siblings. The period comes from the "year_month"
// form field (single file) or from each filename.
func (h *Handlers) Import(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return response.Error(c, "No file part", fiber.StatusBadRequest, nil)
	}
	files := form.File["file"]
	if len(files) == 0 {
		files = form.File["files"]
	}
	if len(files) == 0 {
		return response.Error(c, "No file part", fiber.StatusBadRequest, nil)
	}

	formPeriod, hasFormPeriod := records.Period{}, false
	if ym := c.FormValue("year_month"); ym != "" {
		p, err := parseYearMonth(ym)
		if err != nil {
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		}
		formPeriod, hasFormPeriod = p, true
	}
	if hasFormPeriod && len(files) > 1 {
		return response.Error(c, "year_month applies to a single file upload", fiber.StatusBadRequest, nil)
	}

	reports := make([]*ImportReport, 0, len(files))
	failures := make([]string, 0)
	for _, fh := range files {
		period := formPeriod
		if !hasFormPeriod {
			p, ok := ExtractPeriod(fh.Filename)
			if !ok {
				failures = append(failures, fmt.Sprintf("%s: cannot determine period from filename", fh.Filename))
				continue
			}
			period = p
		}
		src, err := fh.Open()
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		report, err := h.Service.ImportFile(c.Context(), period, src, fh.Filename)
		src.Close()
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		reports = append(reports, report)
	}

	if len(reports) == 0 && len(failures) > 0 {
		return response.Error(c, "Import failed", fiber.StatusInternalServerError, fiber.Map{
			"failures": failures,
		})
	}
	return response.Success(c, "Data imported successfully", fiber.Map{
		"reports":  reports,
		"failures": failures,
	})
}

// Export GET /api/v1/data/export — one period as an xlsx attachment.
func (h *Handlers) Export(c *fiber.Ctx) error {
	period := records.Period{Year: c.QueryInt("year", 0), Month: c.QueryInt("month", 0)}
	if !period.Valid() {
		return response.Error(c, "year and month parameters are required", fiber.StatusBadRequest, nil)
	}
	f, err := h.Service.ExportPeriod(c.Context(), period)
	if err != nil {
		if errors.Is(err, records.ErrInvalidPeriod) {
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		}
		return response.Error(c, "Failed to export period", fiber.StatusInternalServerError, nil)
	}
	defer f.Close()

	filename := fmt.Sprintf("business_data_%04d-%02d.xlsx", period.Year, period.Month)
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename=`+filename)
	return f.Write(c.Response().BodyWriter())
}

func parseYearMonth(s string) (records.Period, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) == 2 {
		year, err1 := strconv.Atoi(parts[0])
		month, err2 := strconv.Atoi(parts[1])
		p := records.Period{Year: year, Month: month}
		if err1 == nil && err2 == nil && p.Valid() {
			return p, nil
		}
	}
	return records.Period{}, errors.New("Invalid year_month: " + s)
}
