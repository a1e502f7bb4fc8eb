package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-system/models"
)

func sampleRows() []models.ExportRow {
	submitted := time.Date(2025, 1, 31, 13, 0, 0, 0, time.UTC)
	graded := submitted.Add(24 * time.Hour)
	grade := 87.5
	return []models.ExportRow{
		{
			Team: "Rockets, Inc", Leader: "Ann Lee", Link: "https://git.example/r",
			SubmittedAt: submitted, Status: models.SubmissionGraded, Grade: &grade,
			IsLate: true, Grader: "Judge", GradedAt: &graded,
		},
		{Team: "Comets", Leader: "Bo", Link: "https://git.example/c", SubmittedAt: submitted, Status: models.SubmissionPending},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{
		"Rockets, Inc", "Ann Lee", "https://git.example/r", "2025-01-31T13:00:00Z",
		"graded", "87.5", "true", "Judge", "2025-02-01T13:00:00Z",
	}, records[1])
	assert.Equal(t, "", records[2][5])
	assert.Equal(t, "false", records[2][6])
	assert.Equal(t, "", records[2][8])
}

func TestWriteCSVEscapesFormulaCells(t *testing.T) {
	submitted := time.Date(2025, 1, 31, 13, 0, 0, 0, time.UTC)
	rows := []models.ExportRow{{
		Team: "=HYPERLINK(\"http://evil\")", Leader: "+1 Lead", Link: "@SUM(A1)",
		SubmittedAt: submitted, Status: models.SubmissionPending, Grader: "-2",
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "'=HYPERLINK(\"http://evil\")", records[1][0])
	assert.Equal(t, "'+1 Lead", records[1][1])
	assert.Equal(t, "'@SUM(A1)", records[1][2])
	assert.Equal(t, "'-2", records[1][7])
	assert.Equal(t, "2025-01-31T13:00:00Z", records[1][3])

	assert.Equal(t, "Comets", safeCell("Comets"))
	assert.Equal(t, "'\tcmd", safeCell("\tcmd"))
	assert.Equal(t, "", safeCell(""))
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "team,leader,link,submitted_at,status,grade,is_late,grader,graded_at\n", buf.String())
}

func TestSheetValues(t *testing.T) {
	values := sheetValues(sampleRows())
	require.Len(t, values, 3)
	assert.Equal(t, "team", values[0][0])
	assert.Equal(t, "true", values[1][6])
	assert.Len(t, values[2], len(Header))
}

func TestNewSheetsExporterRequiresCredentials(t *testing.T) {
	_, err := NewSheetsExporter(context.Background(), "/nonexistent/sa.json", "sheet")
	assert.Error(t, err)
}
