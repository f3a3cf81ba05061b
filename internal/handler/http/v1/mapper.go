package v1

import (
	"fmt"
	"strings"
	"time"

	"github.com/reportdesk/incident_reporting_system/internal/models"
)

// responseTimeLayout - формат времени в JSON-ответах
const responseTimeLayout = "2006-01-02 15:04"

// Допустимые форматы incident_datetime. Все остальное отклоняется,
// никакого "мягкого" разбора дат нет.
var incidentDatetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseIncidentDatetime строго разбирает время инцидента из запроса
func parseIncidentDatetime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range incidentDatetimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid incident_datetime format: %q", value)
}

// SubmitRequestToModel преобразует DTO подачи отчета в доменную модель.
// Текстовые поля обрезаются, время уже разобрано вызывающим.
func SubmitRequestToModel(dto SubmitIncidentRequest, incidentDatetime time.Time) *models.Incident {
	return &models.Incident{
		ReporterName:     strings.TrimSpace(dto.ReporterName),
		IncidentDatetime: incidentDatetime,
		Location:         strings.TrimSpace(dto.Location),
		PersonsInvolved:  strings.TrimSpace(dto.PersonsInvolved),
		Description:      strings.TrimSpace(dto.Description),
	}
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:               model.ID,
		ReporterName:     model.ReporterName,
		IncidentDatetime: model.IncidentDatetime.Format(responseTimeLayout),
		Location:         model.Location,
		PersonsInvolved:  model.PersonsInvolved,
		Description:      model.Description,
		SubmittedAt:      model.SubmittedAt.Format(responseTimeLayout),
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

// ModelToAccountResponse преобразует учетную запись в DTO без хеша пароля
func ModelToAccountResponse(model *models.AdminAccount) *AccountResponse {
	return &AccountResponse{
		ID:        model.ID,
		Username:  model.Username,
		CreatedAt: model.CreatedAt.Format(responseTimeLayout),
		IsActive:  model.IsActive,
	}
}

// ModelsToAccountResponses преобразует слайс учетных записей в слайс DTO
func ModelsToAccountResponses(models []*models.AdminAccount) []*AccountResponse {
	responses := make([]*AccountResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToAccountResponse(model)
	}
	return responses
}
