package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/reportdesk/incident_reporting_system/internal/models"
)

// csvTimeLayout - формат вывода времени в CSV
const csvTimeLayout = "2006-01-02 15:04"

// csvHeader - фиксированный порядок колонок экспорта
var csvHeader = []string{
	"ID",
	"Reporter Name",
	"Incident Date/Time",
	"Location",
	"Persons Involved",
	"Description",
	"Submitted At",
}

// writeIncidentsCSV сериализует инциденты в CSV с заголовком.
// Кавычки, запятые и переводы строк экранирует encoding/csv (RFC 4180).
func writeIncidentsCSV(incidents []*models.Incident) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, incident := range incidents {
		record := []string{
			strconv.FormatInt(incident.ID, 10),
			neutralizeFormula(incident.ReporterName),
			incident.IncidentDatetime.Format(csvTimeLayout),
			neutralizeFormula(incident.Location),
			neutralizeFormula(incident.PersonsInvolved),
			neutralizeFormula(incident.Description),
			incident.SubmittedAt.Format(csvTimeLayout),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row for incident %d: %w", incident.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return buf.Bytes(), nil
}

// neutralizeFormula защищает текстовую ячейку от интерпретации как формулы
// электронной таблицей: ведущие '=', '+', '-', '@' получают префикс-апостроф.
func neutralizeFormula(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@':
		return "'" + value
	}
	return value
}
