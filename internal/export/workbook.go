// Package export renders programs and meal plans into xlsx workbooks.
package export

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/draft"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const defaultSheet = "Sheet1"

var programHeaders = []struct {
	title string
	width float64
}{
	{"Day", 6},
	{"Name", 14},
	{"Rest", 6},
	{"#", 4},
	{"Block", 22},
	{"Type", 16},
	{"Exercise / Format", 24},
	{"Sets", 6},
	{"Reps", 8},
	{"%", 6},
	{"Rest (s)", 8},
	{"Tempo", 8},
	{"RPE", 6},
	{"Details", 48},
}

type styles struct {
	header int
	text   int
	rest   int
}

func newStyles(f *excelize.File) (*styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "#D9D9D9", Style: 1},
		{Type: "right", Color: "#D9D9D9", Style: 1},
		{Type: "top", Color: "#D9D9D9", Style: 1},
		{Type: "bottom", Color: "#D9D9D9", Style: 1},
	}
	var s styles
	var err error
	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2E75B6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return nil, err
	}
	s.text, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return nil, err
	}
	s.rest, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10, Color: "#9C5700"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFEB9C"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// WeekSheetName is the sheet holding week n.
func WeekSheetName(n int) string {
	return fmt.Sprintf("Week %d", n)
}

// ProgramWorkbook writes one sheet per week with a row per block. Days without
// blocks get a single row so rest days stay visible.
func ProgramWorkbook(tree draft.Tree) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}

	weeks := append([]domain.Mesocycle(nil), tree.Mesocycles...)
	sort.SliceStable(weeks, func(i, j int) bool { return weeks[i].WeekNumber < weeks[j].WeekNumber })
	if len(weeks) == 0 {
		weeks = []domain.Mesocycle{{WeekNumber: 1}}
	}

	daysByWeek := make(map[string][]domain.Day)
	for _, d := range tree.Days {
		daysByWeek[d.MesocycleID] = append(daysByWeek[d.MesocycleID], d)
	}
	blocksByDay := make(map[string][]domain.Block)
	for _, b := range tree.Blocks {
		blocksByDay[b.DayID] = append(blocksByDay[b.DayID], b)
	}

	for i, w := range weeks {
		sheet := WeekSheetName(w.WeekNumber)
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := writeHeader(f, sheet, st); err != nil {
			return nil, err
		}

		days := daysByWeek[w.ID]
		sort.SliceStable(days, func(a, b int) bool { return days[a].DayNumber < days[b].DayNumber })
		row := 2
		for _, d := range days {
			blocks := blocksByDay[d.ID]
			sort.SliceStable(blocks, func(a, b int) bool { return blocks[a].OrderIndex < blocks[b].OrderIndex })
			if len(blocks) == 0 {
				blocks = []domain.Block{{}}
			}
			for _, b := range blocks {
				if err := writeBlockRow(f, sheet, row, d, b, st); err != nil {
					return nil, err
				}
				row++
			}
		}
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, st *styles) error {
	for i, h := range programHeaders {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, col+"1", h.title); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, h.width); err != nil {
			return err
		}
	}
	last, _ := excelize.ColumnNumberToName(len(programHeaders))
	if err := f.SetCellStyle(sheet, "A1", last+"1", st.header); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeBlockRow(f *excelize.File, sheet string, row int, d domain.Day, b domain.Block, st *styles) error {
	values := append([]any{d.DayNumber, d.DisplayName(), yesNo(d.IsRestDay)}, BlockCells(b)...)
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return err
	}
	end, _ := excelize.CoordinatesToCellName(len(programHeaders), row)
	style := st.text
	if d.IsRestDay {
		style = st.rest
	}
	return f.SetCellStyle(sheet, start, end, style)
}

// BlockCells renders the block columns of a program row, from "#" to "Details".
// An empty block renders as blanks.
func BlockCells(b domain.Block) []any {
	if b.Type == "" {
		return []any{"", "", "", "", "", "", "", "", "", "", ""}
	}
	cells := []any{b.OrderIndex + 1, b.Name, string(b.Type), b.Format, "", "", "", "", "", "", ""}
	if holder, ok := b.Config.(domain.SchemeHolder); ok {
		s := holder.Scheme()
		cells[4] = blankZero(s.Sets)
		cells[5] = string(s.Reps)
		cells[6] = optFloat(s.Percentage)
		cells[7] = optInt(s.Rest)
		cells[8] = s.Tempo
		cells[9] = optFloat(s.RPE)
	}

	var details []string
	switch cfg := b.Config.(type) {
	case *domain.StrengthLinearConfig:
		cells[3] = firstNonEmpty(cfg.Exercise, b.Format)
		details = append(details, seriesSummary(cfg.SeriesDetails)...)
	case *domain.MetconConfig:
		cells[3] = cfg.Summary()
		details = append(details, movementSummary(cfg.Movements)...)
	case *domain.AccessoryConfig:
		details = append(details, movementSummary(cfg.Movements)...)
		details = append(details, seriesSummary(cfg.SeriesDetails)...)
	case *domain.SkillConfig:
		cells[3] = firstNonEmpty(cfg.Focus, b.Format)
		details = append(details, movementSummary(cfg.Movements)...)
	case *domain.ConditioningConfig:
		cells[3] = firstNonEmpty(cfg.Modality, b.Format)
		if cfg.Distance != "" {
			details = append(details, cfg.Distance)
		}
	case *domain.WarmupConfig:
		details = append(details, movementSummary(cfg.Movements)...)
	case *domain.MealBlockConfig:
		cells[3] = firstNonEmpty(cfg.Time, b.Format)
		for _, it := range cfg.Items {
			details = append(details, fmt.Sprintf("%s %g%s", firstNonEmpty(it.Name, it.FoodID), it.Quantity, it.Unit))
		}
	}
	cells[10] = strings.Join(details, "; ")
	return cells
}

func seriesSummary(details []domain.SeriesDetail) []string {
	var out []string
	for _, d := range details {
		var parts []string
		if d.Reps != nil {
			parts = append(parts, string(*d.Reps)+" reps")
		}
		if d.WeightPercentage != nil {
			parts = append(parts, fmt.Sprintf("%g%%", *d.WeightPercentage))
		}
		if d.RestTime != nil {
			parts = append(parts, fmt.Sprintf("rest %ds", *d.RestTime))
		}
		if d.Distance != nil {
			parts = append(parts, *d.Distance)
		}
		if d.RPE != nil {
			parts = append(parts, fmt.Sprintf("RPE %g", *d.RPE))
		}
		if len(parts) > 0 {
			out = append(out, fmt.Sprintf("set %d: %s", d.Set, strings.Join(parts, " ")))
		}
	}
	return out
}

func movementSummary(ms []domain.Movement) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		s := m.Name
		if m.Reps != "" {
			s = string(m.Reps) + " " + s
		}
		if m.Load != "" {
			s += " @" + m.Load
		}
		if m.Distance != "" {
			s += " " + m.Distance
		}
		if m.Calories != nil {
			s += fmt.Sprintf(" %dcal", *m.Calories)
		}
		out = append(out, s)
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func blankZero(n int) any {
	if n == 0 {
		return ""
	}
	return n
}

func optFloat(p *float64) any {
	if p == nil {
		return ""
	}
	return *p
}

func optInt(p *int) any {
	if p == nil {
		return ""
	}
	return *p
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// MealPlanWorkbook writes a single sheet listing every item with its macros
// and a total row per meal.
func MealPlanWorkbook(plan domain.MealPlan, meals []draft.MealView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}
	sheet := "Meal plan"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return nil, err
	}

	header := []any{"Meal", "Time", "Food", "Quantity", "Unit", "Calories", "Protein", "Carbs", "Fats"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "I1", st.header); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "A", "C", 20); err != nil {
		return nil, err
	}

	row := 2
	var total domain.Macros
	for _, m := range meals {
		for _, it := range m.Items {
			name, unit := it.Item.FoodID, ""
			if it.Food != nil {
				name, unit = it.Food.Name, it.Food.Unit
			}
			values := []any{m.Meal.Name, m.Meal.Time, name, it.Item.Quantity, unit,
				round1(it.Macros.Calories), round1(it.Macros.Protein), round1(it.Macros.Carbs), round1(it.Macros.Fats)}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, err
			}
			row++
		}
		totals := []any{m.Meal.Name + " total", "", "", "", "",
			round1(m.Totals.Calories), round1(m.Totals.Protein), round1(m.Totals.Carbs), round1(m.Totals.Fats)}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &totals); err != nil {
			return nil, err
		}
		end, _ := excelize.CoordinatesToCellName(9, row)
		if err := f.SetCellStyle(sheet, cell, end, st.rest); err != nil {
			return nil, err
		}
		total = total.Add(m.Totals)
		row++
	}
	totals := []any{firstNonEmpty(plan.Name, "Plan") + " total", "", "", "", "",
		round1(total.Calories), round1(total.Protein), round1(total.Carbs), round1(total.Fats)}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, cell, &totals); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
