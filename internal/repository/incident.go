package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reportdesk/incident_reporting_system/internal/models"
	"github.com/reportdesk/incident_reporting_system/internal/service"
)

// Колонки, по которым разрешена сортировка списка инцидентов
var incidentSortColumns = map[string]string{
	"id":                "id",
	"reporter_name":     "reporter_name",
	"incident_datetime": "incident_datetime",
	"location":          "location",
	"persons_involved":  "persons_involved",
	"description":       "description",
	"submitted_at":      "submitted_at",
}

type IncidentRepository struct {
	db *pgxpool.Pool
}

func NewIncidentRepository(db *pgxpool.Pool) service.IncidentRepository {
	return &IncidentRepository{
		db: db,
	}
}

// Create создает новую запись об инциденте в бд.
// submitted_at назначается сервером (DEFAULT NOW()), запись после этого неизменяема.
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (reporter_name, incident_datetime, location, persons_involved, description)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, submitted_at;
	`
	err := r.db.QueryRow(ctx, query,
		incident.ReporterName,
		incident.IncidentDatetime,
		incident.Location,
		incident.PersonsInvolved,
		incident.Description,
	).Scan(&incident.ID, &incident.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// buildFilterClause собирает WHERE-условия по фильтру.
// Возвращает SQL-фрагмент (без ключевого слова WHERE) и аргументы.
func buildFilterClause(filter models.IncidentFilter) (string, []any) {
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern)
		idx := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(reporter_name ILIKE $%d OR location ILIKE $%d OR persons_involved ILIKE $%d OR description ILIKE $%d)",
			idx, idx, idx, idx,
		))
	}

	dateColumn := "incident_datetime"
	if filter.DateField == "submitted_at" {
		dateColumn = "submitted_at"
	}

	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", dateColumn, len(args)))
	}

	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		conditions = append(conditions, fmt.Sprintf("%s <= $%d", dateColumn, len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// orderByClause возвращает ORDER BY для фильтра.
// Неизвестный ключ сортировки заменяется ключом по умолчанию, а не ошибкой.
func orderByClause(filter models.IncidentFilter) string {
	column, ok := incidentSortColumns[filter.SortBy]
	if !ok {
		column = "submitted_at"
	}

	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	return fmt.Sprintf(" ORDER BY %s %s", column, direction)
}

// List возвращает страницу инцидентов по фильтру и общее количество совпадений
func (r *IncidentRepository) List(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, int, error) {
	whereClause, args := buildFilterClause(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM incidents" + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count incidents: %w", err)
	}

	// рассчитываем смещение
	offset := (filter.Page - 1) * filter.PageSize

	args = append(args, filter.PageSize, offset)
	query := fmt.Sprintf(
		"SELECT id, reporter_name, incident_datetime, location, persons_involved, description, submitted_at FROM incidents%s%s LIMIT $%d OFFSET $%d",
		whereClause, orderByClause(filter), len(args)-1, len(args),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents, err := scanIncidents(rows)
	if err != nil {
		return nil, 0, err
	}
	return incidents, total, nil
}

// ListAll возвращает все инциденты по фильтру без пагинации (для экспорта)
func (r *IncidentRepository) ListAll(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error) {
	whereClause, args := buildFilterClause(filter)

	query := "SELECT id, reporter_name, incident_datetime, location, persons_involved, description, submitted_at FROM incidents" +
		whereClause + orderByClause(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents for export: %w", err)
	}
	defer rows.Close()

	return scanIncidents(rows)
}

func scanIncidents(rows pgx.Rows) ([]*models.Incident, error) {
	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident := &models.Incident{}
		err := rows.Scan(
			&incident.ID,
			&incident.ReporterName,
			&incident.IncidentDatetime,
			&incident.Location,
			&incident.PersonsInvolved,
			&incident.Description,
			&incident.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}
