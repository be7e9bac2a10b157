package spreadsheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ripixel/fitglue-planner/pkg/domain/budget"
	"github.com/ripixel/fitglue-planner/pkg/domain/prescription"
	"github.com/ripixel/fitglue-planner/pkg/domain/schedule"
	"github.com/ripixel/fitglue-planner/pkg/domain/selection"
)

func samplePlan() *schedule.WeeklyPlan {
	monday := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	sess := &schedule.Session{Session: budget.Session{
		Main: []*prescription.Item{
			{Name: "Glute Bridge", Category: "glute_activation", Section: selection.SectionMain, Sets: 2, Reps: 10, RestSeconds: 30, SecondsPerRep: 3},
		},
		Cooldown: []*prescription.Item{
			{Name: "Child Pose", Category: "stretching", Section: selection.SectionCooldown, Sets: 1, DurationSeconds: 40},
		},
	}}
	return &schedule.WeeklyPlan{
		StartDate: monday,
		PhaseID:   "CONTROL",
		Days: []schedule.Day{
			{Date: monday, Weekday: time.Monday, Session: sess},
			{Date: monday.AddDate(0, 0, 1), Weekday: time.Tuesday, Rest: true},
		},
	}
}

func TestExport(t *testing.T) {
	data, err := Export(samplePlan(), Meta{UserID: "u1", PlanID: "p1", FatigueState: "fresh", TrendLabel: "neutral"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetOverview, SheetSessions}, f.GetSheetList())

	phase, err := f.GetCellValue(SheetOverview, "B4")
	require.NoError(t, err)
	assert.Equal(t, "CONTROL", phase)

	days, err := f.GetCellValue(SheetOverview, "B7")
	require.NoError(t, err)
	assert.Equal(t, "1", days)

	rows, err := f.GetRows(SheetSessions)
	require.NoError(t, err)
	require.Len(t, rows, 4, "header, two items, one rest day")
	assert.Equal(t, "Exercise", rows[0][3])
	assert.Equal(t, []string{"2026-05-04", "Monday", "main", "Glute Bridge", "glute_activation", "2 x 10", "30", "90"}, rows[1])
	assert.Equal(t, "rest", rows[3][2])
}

func TestExport_NilPlan(t *testing.T) {
	_, err := Export(nil, Meta{})
	assert.Error(t, err)
}
