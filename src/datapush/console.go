package datapush

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"IndicatorInsight/src/processor"
	"IndicatorInsight/src/utils"
)

const reportPrecision = 6

// describeRows 描述统计的行名及取值
var describeRows = []struct {
	label string
	value func(processor.Summary) float64
}{
	{"count", func(s processor.Summary) float64 { return float64(s.Count) }},
	{"mean", func(s processor.Summary) float64 { return s.Mean }},
	{"std", func(s processor.Summary) float64 { return s.Std }},
	{"min", func(s processor.Summary) float64 { return s.Min }},
	{"25%", func(s processor.Summary) float64 { return s.Q25 }},
	{"50%", func(s processor.Summary) float64 { return s.Median }},
	{"75%", func(s processor.Summary) float64 { return s.Q75 }},
	{"max", func(s processor.Summary) float64 { return s.Max }},
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader(header)
	return table
}

// WriteReport 输出一个数据集的统计报告: 描述统计表, 偏度, 峰度
func WriteReport(w io.Writer, key string, summaries []processor.Summary) {
	fmt.Fprintf(w, "Statistics for %s:\n", key)

	header := make([]string, 0, len(summaries)+1)
	header = append(header, "")
	for _, s := range summaries {
		header = append(header, s.Name)
	}
	table := newTable(w, header)
	for _, r := range describeRows {
		row := make([]string, 0, len(header))
		row = append(row, r.label)
		for _, s := range summaries {
			row = append(row, utils.FormatFloat(r.value(s), reportPrecision))
		}
		table.Append(row)
	}
	table.Render()

	writeMoment(w, "Skewness", summaries, func(s processor.Summary) float64 { return s.Skewness })
	writeMoment(w, "Kurtosis", summaries, func(s processor.Summary) float64 { return s.Kurtosis })
	fmt.Fprintln(w)
}

func writeMoment(w io.Writer, title string, summaries []processor.Summary, value func(processor.Summary) float64) {
	fmt.Fprintf(w, "\n%s:\n", title)
	table := newTable(w, []string{"", title})
	for _, s := range summaries {
		table.Append([]string{s.Name, utils.FormatFloat(value(s), reportPrecision)})
	}
	table.Render()
}
