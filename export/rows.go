package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/competition-system/models"
)

// Header - порядок колонок для CSV и таблицы.
var Header = []string{
	"team", "leader", "link", "submitted_at", "status", "grade", "is_late", "grader", "graded_at",
}

const timeLayout = time.RFC3339

func formatRow(r models.ExportRow) []string {
	grade := ""
	if r.Grade != nil {
		grade = strconv.FormatFloat(*r.Grade, 'f', -1, 64)
	}
	gradedAt := ""
	if r.GradedAt != nil {
		gradedAt = r.GradedAt.UTC().Format(timeLayout)
	}
	return []string{
		safeCell(r.Team),
		safeCell(r.Leader),
		safeCell(r.Link),
		r.SubmittedAt.UTC().Format(timeLayout),
		string(r.Status),
		grade,
		strconv.FormatBool(r.IsLate),
		safeCell(r.Grader),
		gradedAt,
	}
}

// safeCell не даёт табличному редактору принять введённый командой текст за формулу.
func safeCell(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
