package v1

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reportdesk/incident_reporting_system/internal/config"
	"github.com/reportdesk/incident_reporting_system/internal/models"
	"github.com/reportdesk/incident_reporting_system/internal/service"
	"github.com/reportdesk/incident_reporting_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testSessionToken = "8c3f6a1e-test-session-token"

type testMocks struct {
	incidentService *mocks.MockIncidentService
	adminService    *mocks.MockAdminService
	sessions        *mocks.MockSessionStore
}

// newTestHandler создает новый экземпляр Handler с мокированными сервисами
func newTestHandler(t *testing.T) (testMocks, *gin.Engine) {
	ctrl := gomock.NewController(t)
	m := testMocks{
		incidentService: mocks.NewMockIncidentService(ctrl),
		adminService:    mocks.NewMockAdminService(ctrl),
		sessions:        mocks.NewMockSessionStore(ctrl),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		SessionTTL:        time.Hour,
		SessionCookieName: "incident_admin_session",
	}

	handler := NewHandler(m.incidentService, m.adminService, m.sessions, logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return m, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// asAdmin настраивает моки на успешную проверку сессии и возвращает заголовок с cookie
func asAdmin(m testMocks, adminID int64) map[string]string {
	m.sessions.EXPECT().Get(gomock.Any(), testSessionToken).Return(adminID, nil).Times(1)
	m.adminService.EXPECT().GetAccount(gomock.Any(), adminID).
		Return(&models.AdminAccount{ID: adminID, Username: "admin", IsActive: true}, nil).Times(1)
	return map[string]string{"Cookie": "incident_admin_session=" + testSessionToken}
}

func toJSON(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestSubmitReport_Success(t *testing.T) {
	m, router := newTestHandler(t)

	reqBody := SubmitIncidentRequest{
		ReporterName:     "John Doe",
		IncidentDatetime: "2024-03-15T14:30",
		Location:         "Lobby",
		PersonsInvolved:  "A, B",
		Description:      "Slip and fall",
	}

	m.incidentService.EXPECT().
		SubmitIncident(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, incident *models.Incident) error {
			assert.Equal(t, "John Doe", incident.ReporterName)
			assert.Equal(t, time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC), incident.IncidentDatetime)
			return nil
		}).Times(1)

	w := makeRequest(router, http.MethodPost, "/api/v1/reports", toJSON(t, reqBody))

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp SubmitIncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	// Идентификатор отчета анонимному отправителю не раскрывается
	assert.NotContains(t, w.Body.String(), "\"id\"")
}

func TestSubmitReport_MissingField(t *testing.T) {
	m, router := newTestHandler(t)

	reqBody := SubmitIncidentRequest{
		IncidentDatetime: "2024-03-15T14:30",
		Location:         "Lobby",
		PersonsInvolved:  "A, B",
		// Description отсутствует
	}

	m.incidentService.EXPECT().SubmitIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodPost, "/api/v1/reports", toJSON(t, reqBody))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitReport_WhitespaceOnlyField(t *testing.T) {
	m, router := newTestHandler(t)

	reqBody := SubmitIncidentRequest{
		IncidentDatetime: "2024-03-15T14:30",
		Location:         "   ",
		PersonsInvolved:  "A, B",
		Description:      "Slip and fall",
	}

	m.incidentService.EXPECT().SubmitIncident(gomock.Any(), gomock.Any()).Times(0)

	// Строка из одних пробелов не проходит required
	w := makeRequest(router, http.MethodPost, "/api/v1/reports", toJSON(t, reqBody))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitReport_InvalidDatetime(t *testing.T) {
	m, router := newTestHandler(t)

	reqBody := SubmitIncidentRequest{
		IncidentDatetime: "15/03/2024 14:30",
		Location:         "Lobby",
		PersonsInvolved:  "A, B",
		Description:      "Slip and fall",
	}

	m.incidentService.EXPECT().SubmitIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodPost, "/api/v1/reports", toJSON(t, reqBody))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ISO-8601")
}

func TestSubmitReport_ServiceError(t *testing.T) {
	m, router := newTestHandler(t)

	reqBody := SubmitIncidentRequest{
		IncidentDatetime: "2024-03-15T14:30",
		Location:         "Lobby",
		PersonsInvolved:  "A, B",
		Description:      "Slip and fall",
	}

	m.incidentService.EXPECT().
		SubmitIncident(gomock.Any(), gomock.Any()).
		Return(errors.New("db down")).Times(1)

	// Детали внутренней ошибки наружу не утекают
	w := makeRequest(router, http.MethodPost, "/api/v1/reports", toJSON(t, reqBody))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestListIncidents_Success(t *testing.T) {
	m, router := newTestHandler(t)
	headers := asAdmin(m, 1)

	incidents := []*models.Incident{
		{
			ID:               1,
			ReporterName:     "Anonymous",
			IncidentDatetime: time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC),
			Location:         "Lobby",
			SubmittedAt:      time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC),
		},
	}

	m.incidentService.EXPECT().
		ListIncidents(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, filter models.IncidentFilter) ([]*models.Incident, int, error) {
			assert.Equal(t, "lobby", filter.Search)
			assert.Equal(t, "incident_datetime", filter.SortBy)
			assert.Equal(t, "asc", filter.SortOrder)
			assert.Equal(t, 2, filter.Page)
			return incidents, 35, nil
		}).Times(1)

	w := makeRequest(router, http.MethodGet, "/api/v1/admin/incidents?search=lobby&sort_by=incident_datetime&sort_order=asc&page=2", nil, headers)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ListIncidentsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 35, resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 20, resp.PageSize)
	require.Len(t, resp.Incidents, 1)
	assert.Equal(t, "2024-03-15 14:30", resp.Incidents[0].IncidentDatetime)
}

func TestListIncidents_EndDateInclusive(t *testing.T) {
	m, router := newTestHandler(t)
	headers := asAdmin(m, 1)

	m.incidentService.EXPECT().
		ListIncidents(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, filter models.IncidentFilter) ([]*models.Incident, int, error) {
			require.NotNil(t, filter.EndDate)
			// Конечная дата сдвигается к концу дня
			assert.Equal(t, time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC), *filter.EndDate)
			return []*models.Incident{}, 0, nil
		}).Times(1)

	w := makeRequest(router, http.MethodGet, "/api/v1/admin/incidents?end_date=2024-03-15", nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListIncidents_InvalidDateIgnored(t *testing.T) {
	m, router := newTestHandler(t)
	headers := asAdmin(m, 1)

	m.incidentService.EXPECT().
		ListIncidents(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, filter models.IncidentFilter) ([]*models.Incident, int, error) {
			assert.Nil(t, filter.StartDate)
			return []*models.Incident{}, 0, nil
		}).Times(1)

	w := makeRequest(router, http.MethodGet, "/api/v1/admin/incidents?start_date=not-a-date", nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListIncidents_NoSession(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidentService.EXPECT().ListIncidents(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodGet, "/api/v1/admin/incidents", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication required")
}

func TestListIncidents_UnknownSession(t *testing.T) {
	m, router := newTestHandler(t)

	m.sessions.EXPECT().Get(gomock.Any(), "stale-token").Return(int64(0), errors.New("session not found")).Times(1)
	m.incidentService.EXPECT().ListIncidents(gomock.Any(), gomock.Any()).Times(0)

	headers := map[string]string{"Cookie": "incident_admin_session=stale-token"}
	w := makeRequest(router, http.MethodGet, "/api/v1/admin/incidents", nil, headers)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListIncidents_DeactivatedAccount(t *testing.T) {
	m, router := newTestHandler(t)

	m.sessions.EXPECT().Get(gomock.Any(), testSessionToken).Return(int64(1), nil).Times(1)
	m.adminService.EXPECT().GetAccount(gomock.Any(), int64(1)).
		Return(&models.AdminAccount{ID: 1, Username: "admin", IsActive: false}, nil).Times(1)
	m.incidentService.EXPECT().ListIncidents(gomock.Any(), gomock.Any()).Times(0)

	// Сессия деактивированной учетной записи отклоняется тем же 401
	headers := map[string]string{"Cookie": "incident_admin_session=" + testSessionToken}
	w := makeRequest(router, http.MethodGet, "/api/v1/admin/incidents", nil, headers)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication required")
}

func TestExportIncidents_Success(t *testing.T) {
	m, router := newTestHandler(t)
	headers := asAdmin(m, 1)

	csvData := []byte("ID,Reporter Name,Incident Date/Time,Location,Persons Involved,Description,Submitted At\n")
	m.incidentService.EXPECT().
		ExportIncidentsCSV(gomock.Any(), gomock.Any()).
		Return(csvData, nil).Times(1)

	w := makeRequest(router, http.MethodGet, "/api/v1/admin/incidents/export", nil, headers)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	disposition := w.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, "attachment; filename=incident_reports_"), disposition)
	assert.Equal(t, csvData, w.Body.Bytes())
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	m, router := newTestHandler(t)

	m.adminService.EXPECT().
		Login(gomock.Any(), "admin", "secret123").
		Return(&models.AdminAccount{ID: 1, Username: "admin", IsActive: true}, nil).Times(1)
	m.sessions.EXPECT().Create(gomock.Any(), int64(1)).Return(testSessionToken, nil).Times(1)

	w := makeRequest(router, http.MethodPost, "/api/v1/auth/login", toJSON(t, LoginRequest{Username: "admin", Password: "secret123"}))

	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "incident_admin_session", cookies[0].Name)
	assert.Equal(t, testSessionToken, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	m, router := newTestHandler(t)

	m.adminService.EXPECT().
		Login(gomock.Any(), "admin", "wrong").
		Return(nil, service.ErrInvalidCredentials).Times(1)
	m.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodPost, "/api/v1/auth/login", toJSON(t, LoginRequest{Username: "admin", Password: "wrong"}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid username or password")
	assert.Empty(t, w.Result().Cookies())
}

func TestLogout_ExpiresCookie(t *testing.T) {
	m, router := newTestHandler(t)

	m.sessions.EXPECT().Delete(gomock.Any(), testSessionToken).Return(nil).Times(1)

	headers := map[string]string{"Cookie": "incident_admin_session=" + testSessionToken}
	w := makeRequest(router, http.MethodPost, "/api/v1/auth/logout", nil, headers)

	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "incident_admin_session", cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestLogout_WithoutSession(t *testing.T) {
	m, router := newTestHandler(t)

	m.sessions.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)

	// Logout без cookie - успех без побочных эффектов
	w := makeRequest(router, http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListAccounts_HidesPasswordHash(t *testing.T) {
	m, router := newTestHandler(t)
	headers := asAdmin(m, 1)

	accounts := []*models.AdminAccount{
		{ID: 1, Username: "admin", PasswordHash: "c2FsdA==:aGFzaA==", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), IsActive: true},
	}
	m.adminService.EXPECT().ListAccounts(gomock.Any()).Return(accounts, nil).Times(1)

	w := makeRequest(router, http.MethodGet, "/api/v1/admin/accounts", nil, headers)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "c2FsdA==")
	var resp []*AccountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "admin", resp[0].Username)
}

func TestCreateAccount_Success(t *testing.T) {
	m, router := newTestHandler(t)
	headers := asAdmin(m, 1)

	m.adminService.EXPECT().
		CreateAccount(gomock.Any(), "newadmin", "secret123").
		Return(&models.AdminAccount{ID: 2, Username: "newadmin", IsActive: true}, nil).Times(1)

	w := makeRequest(router, http.MethodPost, "/api/v1/admin/accounts",
		toJSON(t, CreateAccountRequest{Username: "newadmin", Password: "secret123"}), headers)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp AccountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.ID)
}

func TestCreateAccount_DuplicateUsername(t *testing.T) {
	m, router := newTestHandler(t)
	headers := asAdmin(m, 1)

	m.adminService.EXPECT().
		CreateAccount(gomock.Any(), "admin", "secret123").
		Return(nil, service.ErrUsernameTaken).Times(1)

	w := makeRequest(router, http.MethodPost, "/api/v1/admin/accounts",
		toJSON(t, CreateAccountRequest{Username: "admin", Password: "secret123"}), headers)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "username already exists")
}

func TestCreateAccount_ShortPassword(t *testing.T) {
	m, router := newTestHandler(t)
	headers := asAdmin(m, 1)

	m.adminService.EXPECT().CreateAccount(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodPost, "/api/v1/admin/accounts",
		toJSON(t, CreateAccountRequest{Username: "newadmin", Password: "12345"}), headers)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeactivateAccount_Self(t *testing.T) {
	m, router := newTestHandler(t)
	headers := asAdmin(m, 1)

	m.adminService.EXPECT().
		SetAccountActive(gomock.Any(), int64(1), int64(1), false).
		Return(service.ErrSelfAction).Times(1)

	w := makeRequest(router, http.MethodPost, "/api/v1/admin/accounts/1/deactivate", nil, headers)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestActivateAccount_Success(t *testing.T) {
	m, router := newTestHandler(t)
	headers := asAdmin(m, 1)

	m.adminService.EXPECT().
		SetAccountActive(gomock.Any(), int64(1), int64(2), true).
		Return(nil).Times(1)

	w := makeRequest(router, http.MethodPost, "/api/v1/admin/accounts/2/activate", nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResetAccountPassword_NotFound(t *testing.T) {
	m, router := newTestHandler(t)
	headers := asAdmin(m, 1)

	m.adminService.EXPECT().
		ResetPassword(gomock.Any(), int64(99), "new-secret").
		Return(service.ErrAccountNotFound).Times(1)

	w := makeRequest(router, http.MethodPost, "/api/v1/admin/accounts/99/password",
		toJSON(t, ResetPasswordRequest{NewPassword: "new-secret"}), headers)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "account not found")
}

func TestDeleteAccount_Success(t *testing.T) {
	m, router := newTestHandler(t)
	headers := asAdmin(m, 1)

	m.adminService.EXPECT().
		DeleteAccount(gomock.Any(), int64(1), int64(2)).
		Return(nil).Times(1)

	w := makeRequest(router, http.MethodDelete, "/api/v1/admin/accounts/2", nil, headers)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDeleteAccount_Self(t *testing.T) {
	m, router := newTestHandler(t)
	headers := asAdmin(m, 1)

	m.adminService.EXPECT().
		DeleteAccount(gomock.Any(), int64(1), int64(1)).
		Return(service.ErrSelfAction).Times(1)

	w := makeRequest(router, http.MethodDelete, "/api/v1/admin/accounts/1", nil, headers)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "cannot delete your own account")
}

func TestDeleteAccount_InvalidID(t *testing.T) {
	m, router := newTestHandler(t)
	headers := asAdmin(m, 1)

	m.adminService.EXPECT().DeleteAccount(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodDelete, "/api/v1/admin/accounts/abc", nil, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	_, router := newTestHandler(t)

	w := makeRequest(router, http.MethodGet, "/api/v1/system/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf("%q", "ok"))
}
