package v1

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/reportdesk/incident_reporting_system/internal/config"
	"github.com/reportdesk/incident_reporting_system/internal/models"
	"github.com/reportdesk/incident_reporting_system/internal/service"
	"github.com/sirupsen/logrus"
)

// dateFilterLayout - формат дат start_date/end_date в query-параметрах
const dateFilterLayout = "2006-01-02"

type Handler struct {
	incidentService service.IncidentService
	adminService    service.AdminService
	sessions        service.SessionStore
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
}

func NewHandler(incidentService service.IncidentService, adminService service.AdminService, sessions service.SessionStore, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		incidentService: incidentService,
		adminService:    adminService,
		sessions:        sessions,
		logger:          logger,
		validate:        validator.New(),
		cfg:             cfg,
	}
}

// @Summary Submit an incident report
// @Description Submit an anonymous incident report. No authentication required.
// @Tags Reports
// @Accept json
// @Produce json
// @Param report body SubmitIncidentRequest true "Incident report"
// @Success 201 {object} SubmitIncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reports [post]
func (h *Handler) submitReport(c *gin.Context) {
	var input SubmitIncidentRequest
	log := h.logger.WithField("method", "submitReport")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// Обязательные поля проверяются после обрезки пробелов,
	// чтобы строка из одних пробелов не проходила required
	input.Location = strings.TrimSpace(input.Location)
	input.PersonsInvolved = strings.TrimSpace(input.PersonsInvolved)
	input.Description = strings.TrimSpace(input.Description)
	input.IncidentDatetime = strings.TrimSpace(input.IncidentDatetime)

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incidentDatetime, err := parseIncidentDatetime(input.IncidentDatetime)
	if err != nil {
		log.WithError(err).Warn("Failed to parse incident datetime")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident_datetime format, expected ISO-8601"})
		return
	}

	model := SubmitRequestToModel(input, incidentDatetime)
	if err := h.incidentService.SubmitIncident(c.Request.Context(), model); err != nil {
		log.WithError(err).Error("Failed to submit incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, SubmitIncidentResponse{
		Success: true,
		Message: "Incident report submitted successfully",
	})
}

// buildIncidentFilter разбирает query-параметры фильтрации и сортировки.
// Некорректные даты игнорируются с предупреждением в лог, как и в остальном
// фильтр деградирует к значениям по умолчанию, а не к ошибке.
func (h *Handler) buildIncidentFilter(c *gin.Context, log *logrus.Entry) models.IncidentFilter {
	filter := models.IncidentFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		DateField: c.DefaultQuery("date_field", "incident_datetime"),
		SortBy:    c.DefaultQuery("sort_by", "submitted_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	if startDate := strings.TrimSpace(c.Query("start_date")); startDate != "" {
		if t, err := time.Parse(dateFilterLayout, startDate); err == nil {
			filter.StartDate = &t
		} else {
			log.Warnf("Invalid start_date format: %s", startDate)
		}
	}

	if endDate := strings.TrimSpace(c.Query("end_date")); endDate != "" {
		if t, err := time.Parse(dateFilterLayout, endDate); err == nil {
			// Сдвигаем к концу дня, чтобы конечная дата входила в диапазон целиком
			t = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
			filter.EndDate = &t
		} else {
			log.Warnf("Invalid end_date format: %s", endDate)
		}
	}

	return filter
}

// @Summary List incident reports
// @Description Get a filtered, sorted and paginated list of incident reports. Requires an admin session.
// @Tags Admin
// @Accept json
// @Produce json
// @Security AdminSession
// @Param search query string false "Case-insensitive substring match across text fields"
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date, inclusive (YYYY-MM-DD)"
// @Param date_field query string false "Date range field" Enums(incident_datetime, submitted_at)
// @Param sort_by query string false "Sort column" default(submitted_at)
// @Param sort_order query string false "Sort direction" Enums(asc, desc)
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Number of items per page" default(20)
// @Success 200 {object} ListIncidentsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")
	filter := h.buildIncidentFilter(c, log)

	incidents, total, err := h.incidentService.ListIncidents(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ListIncidentsResponse{
		Incidents: ModelsToIncidentResponses(incidents),
		Total:     total,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	})
}

// @Summary Export incident reports to CSV
// @Description Export all incident reports matching the filter as a CSV document. Requires an admin session.
// @Tags Admin
// @Accept json
// @Produce text/csv
// @Security AdminSession
// @Param search query string false "Case-insensitive substring match across text fields"
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date, inclusive (YYYY-MM-DD)"
// @Param date_field query string false "Date range field" Enums(incident_datetime, submitted_at)
// @Success 200 {string} string "CSV document"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/incidents/export [get]
func (h *Handler) exportIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "exportIncidents")
	filter := h.buildIncidentFilter(c, log)

	data, err := h.incidentService.ExportIncidentsCSV(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("Failed to export incidents from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	filename := fmt.Sprintf("incident_reports_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
