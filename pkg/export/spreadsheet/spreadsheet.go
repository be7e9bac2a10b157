// Package spreadsheet renders a weekly plan as an XLSX workbook.
package spreadsheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ripixel/fitglue-planner/pkg/domain/schedule"
)

const (
	SheetOverview = "Overview"
	SheetSessions = "Sessions"

	dateLayout = "2006-01-02"
)

// Meta is shown on the overview sheet.
type Meta struct {
	UserID       string
	PlanID       string
	FatigueState string
	TrendLabel   string
}

var sessionHeader = []interface{}{
	"Date", "Day", "Section", "Exercise", "Category", "Prescription", "Rest (s)", "Est. time (s)",
}

// Export builds the workbook and returns its bytes.
func Export(plan *schedule.WeeklyPlan, meta Meta) ([]byte, error) {
	if plan == nil {
		return nil, fmt.Errorf("plan cannot be nil")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetOverview); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetSessions); err != nil {
		return nil, err
	}

	if err := writeOverview(f, plan, meta); err != nil {
		return nil, fmt.Errorf("overview sheet: %w", err)
	}
	if err := writeSessions(f, plan); err != nil {
		return nil, fmt.Errorf("sessions sheet: %w", err)
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeOverview(f *excelize.File, plan *schedule.WeeklyPlan, meta Meta) error {
	sheet := SheetOverview

	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E2EFDA"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	rows := [][]interface{}{
		{"User", meta.UserID},
		{"Plan", meta.PlanID},
		{"Start date", plan.StartDate.Format(dateLayout)},
		{"Phase", plan.PhaseID},
		{"Fatigue state", meta.FatigueState},
		{"RPE trend", meta.TrendLabel},
		{"Training days", plan.TrainingDays()},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, labelStyle); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "B", 20)
}

func writeSessions(f *excelize.File, plan *schedule.WeeklyPlan) error {
	sheet := SheetSessions

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2E75B6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &sessionHeader); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(sessionHeader), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	r := 2
	for _, day := range plan.Days {
		date := day.Date.Format(dateLayout)
		weekday := day.Weekday.String()
		if day.Rest || day.Session == nil {
			row := []interface{}{date, weekday, "rest"}
			cell, _ := excelize.CoordinatesToCellName(1, r)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
			r++
			continue
		}
		for _, it := range day.Session.Items() {
			row := []interface{}{
				date, weekday, string(it.Section), it.Name, it.Category,
				it.Display(), it.RestSeconds, it.EstimatedSeconds(),
			}
			cell, _ := excelize.CoordinatesToCellName(1, r)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
			r++
		}
	}

	if err := f.SetColWidth(sheet, "A", "C", 12); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "D", "F", 28)
}
