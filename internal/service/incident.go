package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/reportdesk/incident_reporting_system/internal/models"
	"github.com/reportdesk/incident_reporting_system/internal/webhook"
	"github.com/sirupsen/logrus"
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	List(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, int, error)
	ListAll(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error)
}

// IncidentService определяет контракт для бизнес-логики отчетов об инцидентах
type IncidentService interface {
	SubmitIncident(ctx context.Context, incident *models.Incident) error
	ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, int, error)
	ExportIncidentsCSV(ctx context.Context, filter models.IncidentFilter) ([]byte, error)
}

type incidentService struct {
	repo      IncidentRepository
	logger    *logrus.Logger
	publisher webhook.WebhookPublisher
}

func NewIncidentService(repo IncidentRepository, logger *logrus.Logger, publisher webhook.WebhookPublisher) IncidentService {
	return &incidentService{
		repo:      repo,
		logger:    logger,
		publisher: publisher,
	}
}

// SubmitIncident сохраняет анонимный отчет об инциденте.
// Пустое имя репортера заменяется на "Anonymous", submitted_at назначает сервер.
func (s *incidentService) SubmitIncident(ctx context.Context, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "incident",
		"method":   "SubmitIncident",
		"location": incident.Location,
	})
	log.Info("Attempting to submit a new incident report")

	incident.ReporterName = strings.TrimSpace(incident.ReporterName)
	if incident.ReporterName == "" {
		incident.ReporterName = models.AnonymousReporter
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return fmt.Errorf("service: could not submit incident: %w", err)
	}

	log.WithField("incident_id", incident.ID).Info("Incident report submitted successfully")

	// Уведомление не должно ломать прием отчета: ошибку только логируем
	event := webhook.NewReportEvent{
		IncidentID:  incident.ID,
		Location:    incident.Location,
		SubmittedAt: incident.SubmittedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.WithError(err).Warn("Failed to publish new report event")
	}

	return nil
}

// ListIncidents возвращает страницу инцидентов по фильтру и общее количество совпадений
func (s *incidentService) ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}

	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":   "incident",
		"method":    "ListIncidents",
		"page":      filter.Page,
		"page_size": filter.PageSize,
		"search":    filter.Search,
	})
	log.Info("Listing incidents")

	incidents, total, err := s.repo.List(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, 0, fmt.Errorf("service: could not list incidents: %w", err)
	}

	log.WithField("count", len(incidents)).WithField("total", total).Info("Incidents listed successfully")
	return incidents, total, nil
}

// ExportIncidentsCSV выгружает все инциденты по фильтру в CSV-документ
func (s *incidentService) ExportIncidentsCSV(ctx context.Context, filter models.IncidentFilter) ([]byte, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ExportIncidentsCSV",
		"search":  filter.Search,
	})
	log.Info("Exporting incidents to CSV")

	incidents, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents for export")
		return nil, fmt.Errorf("service: could not export incidents: %w", err)
	}

	data, err := writeIncidentsCSV(incidents)
	if err != nil {
		log.WithError(err).Error("Failed to serialize incidents to CSV")
		return nil, fmt.Errorf("service: could not serialize incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Info("Incidents exported successfully")
	return data, nil
}
