package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reportdesk/incident_reporting_system/internal/models"
	"github.com/reportdesk/incident_reporting_system/internal/service/mocks"
	"github.com/reportdesk/incident_reporting_system/internal/webhook"
	webhook_mocks "github.com/reportdesk/incident_reporting_system/internal/webhook/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestIncidentService — вспомогательная функция для создания инстанса сервиса с моками.
func newTestIncidentService(t *testing.T) (*incidentService, *mocks.MockIncidentRepository, *webhook_mocks.MockWebhookPublisher) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockIncidentRepository(ctrl)
	webhookMock := webhook_mocks.NewMockWebhookPublisher(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	service := NewIncidentService(repoMock, logger, webhookMock)
	return service.(*incidentService), repoMock, webhookMock
}

func TestSubmitIncident_Success(t *testing.T) {
	service, repoMock, webhookMock := newTestIncidentService(t)
	ctx := context.Background()

	incident := &models.Incident{
		ReporterName:     "John Doe",
		IncidentDatetime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Location:         "Lobby",
		PersonsInvolved:  "A, B",
		Description:      "Slip and fall",
	}
	submittedAt := time.Now()

	repoMock.EXPECT().
		Create(ctx, incident).
		DoAndReturn(func(_ context.Context, inc *models.Incident) error {
			inc.ID = 42
			inc.SubmittedAt = submittedAt
			return nil
		}).Times(1)

	webhookMock.EXPECT().
		Publish(ctx, webhook.NewReportEvent{
			IncidentID:  42,
			Location:    "Lobby",
			SubmittedAt: submittedAt,
		}).
		Return(nil).Times(1)

	err := service.SubmitIncident(ctx, incident)
	require.NoError(t, err)
	assert.Equal(t, int64(42), incident.ID)
}

func TestSubmitIncident_AnonymousDefault(t *testing.T) {
	service, repoMock, webhookMock := newTestIncidentService(t)
	ctx := context.Background()

	incident := &models.Incident{
		ReporterName:     "   ",
		IncidentDatetime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Location:         "Lobby",
		PersonsInvolved:  "A, B",
		Description:      "Slip and fall",
	}

	repoMock.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, inc *models.Incident) error {
			// Пустое имя репортера заменяется до записи в бд
			assert.Equal(t, models.AnonymousReporter, inc.ReporterName)
			inc.ID = 1
			return nil
		}).Times(1)

	webhookMock.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)

	err := service.SubmitIncident(ctx, incident)
	require.NoError(t, err)
	assert.Equal(t, models.AnonymousReporter, incident.ReporterName)
}

func TestSubmitIncident_RepositoryError(t *testing.T) {
	service, repoMock, webhookMock := newTestIncidentService(t)
	ctx := context.Background()
	dbError := errors.New("connection refused")

	incident := &models.Incident{
		ReporterName:     "John Doe",
		IncidentDatetime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Location:         "Lobby",
		PersonsInvolved:  "A, B",
		Description:      "Slip and fall",
	}

	repoMock.EXPECT().Create(ctx, incident).Return(dbError).Times(1)
	webhookMock.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0) // Уведомление не отправляется

	err := service.SubmitIncident(ctx, incident)
	require.Error(t, err)
	assert.ErrorIs(t, err, dbError)
}

func TestSubmitIncident_PublishFailureDoesNotFailSubmission(t *testing.T) {
	service, repoMock, webhookMock := newTestIncidentService(t)
	ctx := context.Background()

	incident := &models.Incident{
		ReporterName:     "John Doe",
		IncidentDatetime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Location:         "Lobby",
		PersonsInvolved:  "A, B",
		Description:      "Slip and fall",
	}

	repoMock.EXPECT().
		Create(ctx, incident).
		DoAndReturn(func(_ context.Context, inc *models.Incident) error {
			inc.ID = 7
			return nil
		}).Times(1)

	webhookMock.EXPECT().Publish(ctx, gomock.Any()).Return(errors.New("redis down")).Times(1)

	// Ошибка публикации уведомления не ломает прием отчета
	err := service.SubmitIncident(ctx, incident)
	require.NoError(t, err)
}

func TestListIncidents_Success(t *testing.T) {
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()

	expected := []*models.Incident{
		{ID: 1, Location: "Lobby"},
		{ID: 2, Location: "Parking lot"},
	}

	repoMock.EXPECT().
		List(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, filter models.IncidentFilter) ([]*models.Incident, int, error) {
			assert.Equal(t, 1, filter.Page)
			assert.Equal(t, 20, filter.PageSize)
			return expected, 2, nil
		}).Times(1)

	incidents, total, err := service.ListIncidents(ctx, models.IncidentFilter{})
	require.NoError(t, err)
	assert.Equal(t, expected, incidents)
	assert.Equal(t, 2, total)
}

func TestListIncidents_NormalizesPagination(t *testing.T) {
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()

	repoMock.EXPECT().
		List(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, filter models.IncidentFilter) ([]*models.Incident, int, error) {
			// Выход за пределы диапазона заменяется значениями по умолчанию
			assert.Equal(t, 1, filter.Page)
			assert.Equal(t, 20, filter.PageSize)
			return []*models.Incident{}, 0, nil
		}).Times(1)

	_, total, err := service.ListIncidents(ctx, models.IncidentFilter{Page: -5, PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestListIncidents_RepositoryError(t *testing.T) {
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	dbError := errors.New("query failed")

	repoMock.EXPECT().List(ctx, gomock.Any()).Return(nil, 0, dbError).Times(1)

	_, _, err := service.ListIncidents(ctx, models.IncidentFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, dbError)
}

func TestExportIncidentsCSV_RepositoryError(t *testing.T) {
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	dbError := errors.New("query failed")

	repoMock.EXPECT().ListAll(ctx, gomock.Any()).Return(nil, dbError).Times(1)

	_, err := service.ExportIncidentsCSV(ctx, models.IncidentFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, dbError)
}
