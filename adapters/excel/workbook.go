// Package excel exports confusion measures as an xlsx workbook
package excel

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"confusionflow/domain/measures"
	"confusionflow/internal/errors"
)

// OverallSheet is the first sheet of every workbook
const OverallSheet = "Overall Accuracy"

const maxSheetName = 31

var (
	overallHeader = []interface{}{"Run", "Epoch", "Overall Accuracy", "Macro Precision", "Macro Recall", "Macro F1"}
	runHeader     = []interface{}{"Epoch", "Class", "TP", "FP", "FN", "TN", "Precision", "Recall", "F1", "Accuracy", "Class Size"}
)

// Build creates a workbook with an overall accuracy sheet and one sheet per
// run listing every epoch and class. The caller closes the file.
func Build(runs []measures.RunMeasures) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", OverallSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name overall sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	overall := [][]interface{}{overallHeader}
	for _, r := range runs {
		for _, e := range r.Epochs {
			overall = append(overall, []interface{}{string(r.Run), e.Epoch, e.OverallAccuracy, e.MacroPrecision, e.MacroRecall, e.MacroF1})
		}
	}
	if err := writeRows(f, OverallSheet, overall, bold); err != nil {
		f.Close()
		return nil, err
	}

	used := map[string]bool{OverallSheet: true}
	for _, r := range runs {
		name := SheetName(string(r.Run), used)
		used[name] = true
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to add sheet for %s: %w", r.Run, err)
		}
		rows := [][]interface{}{runHeader}
		for _, c := range r.Classes {
			rows = append(rows, []interface{}{c.Epoch, c.Class, c.TP, c.FP, c.FN, c.TN, c.Precision, c.Recall, c.F1, c.Accuracy, c.ClassSize})
		}
		if err := writeRows(f, name, rows, bold); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Write builds the workbook and saves it to path
func Write(path string, runs []measures.RunMeasures) error {
	if len(runs) == 0 {
		return errors.InvalidInput("at least one run is required")
	}
	start := time.Now()
	f, err := Build(runs)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	log.Printf("[Excel] Wrote %d run sheets to %s in %.2fms", len(runs), path, float64(time.Since(start).Nanoseconds())/1e6)
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}, header int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, header)
}

// SheetName turns a run name into a valid, unused sheet name
func SheetName(run string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, run)
	clean = strings.Trim(clean, "'")
	if clean == "" {
		clean = "run"
	}
	name := truncate(clean, maxSheetName)
	for i := 2; used[name]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncate(clean, maxSheetName-len(suffix)) + suffix
	}
	return name
}

func truncate(s string, n int) string {
	runes := []rune(s)
	return string(lo.Subset(runes, 0, uint(n)))
}
