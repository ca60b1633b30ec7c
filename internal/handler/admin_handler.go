package handler

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/feedbackfortress/backend/internal/domain"
	"github.com/feedbackfortress/backend/internal/dto"
	"github.com/feedbackfortress/backend/internal/repository"
	"github.com/feedbackfortress/backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type AdminHandler struct {
	grievanceRepo *repository.GrievanceRepository
	analytics     *service.AnalyticsService
	notifications *service.NotificationService
}

func NewAdminHandler(grievanceRepo *repository.GrievanceRepository, analytics *service.AnalyticsService, notifications *service.NotificationService) *AdminHandler {
	return &AdminHandler{
		grievanceRepo: grievanceRepo,
		analytics:     analytics,
		notifications: notifications,
	}
}

// ListGrievances - GET /admin/grievances
//
// Every non-deleted grievance across all users, newest first, with the
// owner's student id attached.
func (h *AdminHandler) ListGrievances(c *fiber.Ctx) error {
	grievances, err := h.grievanceRepo.ListAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to fetch grievances",
		))
	}

	responses := make([]dto.GrievanceResponse, 0, len(grievances))
	for i := range grievances {
		responses = append(responses, toGrievanceResponse(&grievances[i], true))
	}

	return c.JSON(dto.SuccessResponse(responses, ""))
}

// UpdateGrievance - PUT /admin/grievances/:id
//
// Moves a grievance to a new workflow state. Resolving also records
// the resolution message and timestamp. The owner is notified either
// way; a failed notification does not fail the update.
func (h *AdminHandler) UpdateGrievance(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_ID", "Invalid grievance ID"))
	}

	var req dto.UpdateGrievanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse(
			"INVALID_REQUEST", "Invalid request format",
		))
	}

	if req.Status == nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse(
			dto.ErrorDetail{Field: "status", Message: "Status is required"},
		))
	}
	status := domain.GrievanceStatus(*req.Status)
	if !domain.ValidGrievanceStatus(status) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse(
			dto.ErrorDetail{Field: "status", Message: "Status must be one of pending, under_review, resolved, archived"},
		))
	}

	current, err := h.grievanceRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse("NOT_FOUND", "Grievance not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to fetch grievance",
		))
	}
	oldStatus := current.Status

	var updated *domain.Grievance
	if status == domain.StatusResolved {
		message := ""
		if req.ResolutionMessage != nil {
			message = *req.ResolutionMessage
		}
		updated, err = h.grievanceRepo.MarkResolved(id, message)
	} else {
		updated, err = h.grievanceRepo.SetStatus(id, status)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse("NOT_FOUND", "Grievance not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"UPDATE_FAILED", "Failed to update grievance",
		))
	}

	if status == domain.StatusResolved {
		_ = h.notifications.NotifyGrievanceResolved(updated)
	} else if status != oldStatus {
		_ = h.notifications.NotifyGrievanceStatusUpdated(updated, oldStatus, status)
	}

	return c.JSON(dto.SuccessResponse(toGrievanceResponse(updated, true), "Grievance updated"))
}

// DashboardStats - GET /admin/dashboard/stats
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.analytics.DashboardStats(time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to compute dashboard stats",
		))
	}
	return c.JSON(dto.SuccessResponse(stats, ""))
}

// Analytics - GET /admin/analytics
func (h *AdminHandler) Analytics(c *fiber.Ctx) error {
	report, err := h.analytics.Analytics(time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to compute analytics",
		))
	}
	return c.JSON(dto.SuccessResponse(report, ""))
}

// ExportAnalytics - GET /admin/analytics/export
//
// Renders the analytics report as a downloadable workbook.
func (h *AdminHandler) ExportAnalytics(c *fiber.Ctx) error {
	now := time.Now()
	report, err := h.analytics.Analytics(now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to compute analytics",
		))
	}

	buf, err := buildAnalyticsWorkbook(report, now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"EXPORT_FAILED", "Failed to build export",
		))
	}

	filename := fmt.Sprintf("analytics_%s.xlsx", now.Format("2006-01-02"))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(buf)
}

func buildAnalyticsWorkbook(report *dto.AnalyticsReport, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	f.SetSheetName(f.GetSheetName(0), summary)

	rows := [][]interface{}{
		{"Generated", now.Format(time.RFC3339)},
		{},
		{"Submissions this month", report.ThisMonth},
		{"Submissions this week", report.ThisWeek},
		{"Average response hours", report.AvgResponseHours},
		{"Average resolution hours", report.Resolution.AvgHours},
		{"Resolved within SLA (%)", report.Resolution.PercentWithinSLA},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return nil, err
		}
	}

	if err := writeCountSheet(f, "By Type", "Type", mapRows(report.ByType)); err != nil {
		return nil, err
	}
	if err := writeCountSheet(f, "Submitter Type", "Submitter", mapRows(report.BySubmitterType)); err != nil {
		return nil, err
	}

	trendRows := make([][]interface{}, 0, len(report.Trend))
	for _, p := range report.Trend {
		trendRows = append(trendRows, []interface{}{p.Date, p.Count})
	}
	if err := writeCountSheet(f, "Trend", "Date", trendRows); err != nil {
		return nil, err
	}

	topicRows := make([][]interface{}, 0, len(report.TrendingTopics))
	for _, t := range report.TrendingTopics {
		topicRows = append(topicRows, []interface{}{t.Word, t.Count})
	}
	if err := writeCountSheet(f, "Trending Topics", "Word", topicRows); err != nil {
		return nil, err
	}

	activeRows := make([][]interface{}, 0, len(report.MostActive))
	for _, u := range report.MostActive {
		activeRows = append(activeRows, []interface{}{u.StudentID + " (" + u.Alias + ")", u.Count})
	}
	if err := writeCountSheet(f, "Most Active", "Student", activeRows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCountSheet(f *excelize.File, sheet, keyHeader string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []interface{}{keyHeader, "Count"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func mapRows(m map[string]int64) [][]interface{} {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]interface{}, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []interface{}{k, m[k]})
	}
	return rows
}
