package service

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/reportdesk/incident_reporting_system/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteIncidentsCSV_HeaderOnly(t *testing.T) {
	data, err := writeIncidentsCSV(nil)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, csvHeader, records[0])
}

func TestWriteIncidentsCSV_RoundTrip(t *testing.T) {
	incidents := []*models.Incident{
		{
			ID:               1,
			ReporterName:     "John \"JD\" Doe",
			IncidentDatetime: time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC),
			Location:         "Lobby, first floor",
			PersonsInvolved:  "A\nB",
			Description:      "Wet floor near the entrance",
			SubmittedAt:      time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC),
		},
	}

	data, err := writeIncidentsCSV(incidents)
	require.NoError(t, err)

	// Кавычки, запятые и переводы строк должны пережить разбор обратно
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	row := records[1]
	assert.Equal(t, "1", row[0])
	assert.Equal(t, "John \"JD\" Doe", row[1])
	assert.Equal(t, "2024-03-15 14:30", row[2])
	assert.Equal(t, "Lobby, first floor", row[3])
	assert.Equal(t, "A\nB", row[4])
	assert.Equal(t, "Wet floor near the entrance", row[5])
	assert.Equal(t, "2024-03-15 15:00", row[6])
}

func TestWriteIncidentsCSV_NeutralizesFormulas(t *testing.T) {
	incidents := []*models.Incident{
		{
			ID:               2,
			ReporterName:     "=HYPERLINK(\"http://evil\")",
			IncidentDatetime: time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC),
			Location:         "+A1",
			PersonsInvolved:  "-1+1",
			Description:      "@cmd",
			SubmittedAt:      time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC),
		},
	}

	data, err := writeIncidentsCSV(incidents)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	row := records[1]
	assert.Equal(t, "'=HYPERLINK(\"http://evil\")", row[1])
	assert.Equal(t, "'+A1", row[3])
	assert.Equal(t, "'-1+1", row[4])
	assert.Equal(t, "'@cmd", row[5])
}

func TestNeutralizeFormula(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "plain text", input: "Lobby", expected: "Lobby"},
		{name: "equals", input: "=SUM(A1:A2)", expected: "'=SUM(A1:A2)"},
		{name: "plus", input: "+55 123", expected: "'+55 123"},
		{name: "minus", input: "-5 degrees", expected: "'-5 degrees"},
		{name: "at sign", input: "@user", expected: "'@user"},
		{name: "symbol inside", input: "a=b", expected: "a=b"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, neutralizeFormula(tc.input))
		})
	}
}
