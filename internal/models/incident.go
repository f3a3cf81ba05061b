package models

import (
	"time"
)

// Incident - запись об инциденте, неизменяемая после создания
type Incident struct {
	ID               int64     `json:"id"`
	ReporterName     string    `json:"reporter_name"`
	IncidentDatetime time.Time `json:"incident_datetime"`
	Location         string    `json:"location"`
	PersonsInvolved  string    `json:"persons_involved"`
	Description      string    `json:"description"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// AnonymousReporter - имя репортера по умолчанию, если оно не указано
const AnonymousReporter = "Anonymous"

// IncidentFilter - параметры фильтрации, сортировки и пагинации списка инцидентов
type IncidentFilter struct {
	Search    string
	DateField string
	StartDate *time.Time
	EndDate   *time.Time
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}
