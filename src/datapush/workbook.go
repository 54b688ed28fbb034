package datapush

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"IndicatorInsight/src/processor"
)

// SummarySheet 汇总表名称
const SummarySheet = "Summary"

const maxSheetName = 31

// Sheet 一个数据集: 时间序列写入独立工作表, 统计结果写入汇总表
type Sheet struct {
	Name      string
	Series    *processor.TimeSeries
	Summaries []processor.Summary
}

var summaryHeader = []interface{}{
	"Dataset", "Column", "count", "mean", "std", "min", "25%", "50%", "75%", "max", "skew", "kurtosis",
}

// SaveWorkbook 将各数据集保存到一个Excel文件
func SaveWorkbook(path string, sheets []Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("初始化工作簿失败: %w", err)
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeader); err != nil {
		return err
	}

	row := 2
	used := map[string]bool{SummarySheet: true}
	for _, sh := range sheets {
		name := sheetName(sh.Name, used)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("创建工作表%s失败: %w", name, err)
		}
		if sh.Series != nil {
			if err := writeSeries(f, name, sh.Series); err != nil {
				return err
			}
		}
		for _, s := range sh.Summaries {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []interface{}{
				sh.Name, s.Name, s.Count,
				cellValue(s.Mean), cellValue(s.Std), cellValue(s.Min), cellValue(s.Q25),
				cellValue(s.Median), cellValue(s.Q75), cellValue(s.Max),
				cellValue(s.Skewness), cellValue(s.Kurtosis),
			}
			if err := f.SetSheetRow(SummarySheet, cell, &values); err != nil {
				return err
			}
			row++
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}

func writeSeries(f *excelize.File, sheet string, ts *processor.TimeSeries) error {
	df := ts.DataFrame()
	colNames := df.Names()
	for i, name := range colNames {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}

	years := ts.Years()
	for rowIdx, year := range years {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err := f.SetCellValue(sheet, cell, year); err != nil {
			return err
		}
	}
	for colIdx, name := range ts.Columns() {
		values, _ := ts.Column(name)
		for rowIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+2, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return err
			}
		}
	}
	return nil
}

// cellValue NaN写成空单元格
func cellValue(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}

var sheetNameReplacer = strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")")

// sheetName 工作表名最长31个字符且不能重复
func sheetName(name string, used map[string]bool) string {
	r := []rune(sheetNameReplacer.Replace(name))
	if len(r) > maxSheetName {
		r = r[:maxSheetName]
	}
	base := string(r)
	out := base
	for i := 2; used[out]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		rb := []rune(base)
		if len(rb)+len(suffix) > maxSheetName {
			rb = rb[:maxSheetName-len(suffix)]
		}
		out = string(rb) + suffix
	}
	used[out] = true
	return out
}
