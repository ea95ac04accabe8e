package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"timebot/project/domain"
	"timebot/project/service"
)

// maxSheetName は Excel のシート名の最大長です
const maxSheetName = 31

// XLSXRenderer は service.ReportPort の excelize 実装です。
// メンバーごとに1シートを作り、日ごとの記録と期間の集計を書き出します
type XLSXRenderer struct{}

func NewXLSXRenderer() *XLSXRenderer {
	return &XLSXRenderer{}
}

type styles struct {
	bold     int
	boldNum  int
	num      int
	weekend  int
	freeDay  int
	labelRow int
}

func newStyles(f *excelize.File) (*styles, error) {
	s := &styles{}
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.bold, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&s.boldNum, &excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 2}},
		{&s.num, &excelize.Style{NumFmt: 2}},
		{&s.weekend, &excelize.Style{Font: &excelize.Font{Color: "FF0000"}, Alignment: &excelize.Alignment{Vertical: "top"}}},
		{&s.freeDay, &excelize.Style{Font: &excelize.Font{Color: "FF9900"}, Alignment: &excelize.Alignment{Vertical: "top"}}},
		{&s.labelRow, &excelize.Style{Font: &excelize.Font{Bold: true}, Alignment: &excelize.Alignment{Horizontal: "right"}}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, err
		}
		*d.dst = id
	}
	return s, nil
}

// Render はレポートを xlsx として w に書き出します
func (XLSXRenderer) Render(w io.Writer, period domain.DateRange, sheets []service.ReportSheet) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("report: スタイル作成失敗: %w", err)
	}

	const defaultSheet = "Sheet1"
	used := map[string]bool{}
	for i, sheet := range sheets {
		name := sheetName(sheet.User, used)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("report: シート名設定失敗: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("report: シート作成失敗: %w", err)
		}
		if err := writeSheet(f, st, name, period, sheet); err != nil {
			return fmt.Errorf("report: シート書き込み失敗 (sheet=%s): %w", name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("report: xlsx 書き出し失敗: %w", err)
	}
	return nil
}

// sheetWriter は最初のエラーを保持するセル書き込みヘルパーです
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(col string, row int, v any, style int) {
	if w.err != nil {
		return
	}
	cell := fmt.Sprintf("%s%d", col, row)
	if s, ok := v.(string); ok && strings.HasPrefix(s, "=") {
		w.err = w.f.SetCellFormula(w.sheet, cell, s[1:])
	} else {
		w.err = w.f.SetCellValue(w.sheet, cell, v)
	}
	if w.err == nil && style != 0 {
		w.err = w.f.SetCellStyle(w.sheet, cell, cell, style)
	}
}

func (w *sheetWriter) merge(col string, from, to int) {
	if w.err != nil || from >= to {
		return
	}
	w.err = w.f.MergeCell(w.sheet, fmt.Sprintf("%s%d", col, from), fmt.Sprintf("%s%d", col, to))
}

func writeSheet(f *excelize.File, st *styles, name string, period domain.DateRange, sheet service.ReportSheet) error {
	for col, width := range map[string]float64{"A": 12, "B": 10, "C": 20, "D": 60} {
		if err := f.SetColWidth(name, col, col, width); err != nil {
			return err
		}
	}

	w := &sheetWriter{f: f, sheet: name}
	w.set("A", 1, "Date", st.bold)
	w.set("B", 1, "Duration", st.bold)
	w.set("C", 1, "Project", st.bold)
	w.set("D", 1, "Comment", st.bold)

	byDay := map[time.Time][]domain.TimeEntry{}
	for _, e := range sheet.Entries {
		day := domain.DateOf(e.ReportDate)
		byDay[day] = append(byDay[day], e)
	}

	row := 1
	first := row + 1
	for day := period.Start; !day.After(period.End); day = day.AddDate(0, 0, 1) {
		style := 0
		switch {
		case domain.IsNonWorkingDay(day):
			style = st.weekend
		case domain.OnFreeDay(day, sheet.FreeDays):
			style = st.freeDay
		}
		w.set("A", row+1, day.Format(domain.DateLayout), style)

		entries := byDay[day]
		if len(entries) == 0 {
			row++
			w.set("B", row, 0.0, st.num)
			continue
		}
		start := row + 1
		for _, e := range entries {
			row++
			w.set("B", row, e.Duration.Hours(), st.num)
			w.set("C", row, e.ProjectName, 0)
			w.set("D", row, e.Comment, 0)
		}
		w.merge("A", start, row)
	}

	row++
	w.set("B", row, fmt.Sprintf("=SUM(B%d:B%d)", first, row-1), st.boldNum)
	w.set("A", row+2, "Overtime:", st.labelRow)
	w.set("B", row+2, sheet.Summary.Overtime.Hours(), st.boldNum)
	w.set("A", row+3, "Basic hours:", st.labelRow)
	w.set("B", row+3, sheet.Summary.Basic.Hours(), st.boldNum)
	w.set("A", row+4, "Deficit:", st.labelRow)
	w.set("B", row+4, sheet.Summary.Deficit.Hours(), st.boldNum)
	return w.err
}

// sheetName はメンバー名から重複しない有効なシート名を作ります
func sheetName(u domain.User, used map[string]bool) string {
	base := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, u.Name())
	if base == "" {
		base = u.SlackUserID
	}
	base = truncate(base, maxSheetName)

	name := base
	for n := 2; used[name]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	used[name] = true
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
