package processor

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"IndicatorInsight/src/utils"
)

// YearColumn 转置后的行标签列
const YearColumn = "Year"

// Transpose 以keyCol为行标签转置, 原列名写入newKey列
// keyCol之外的列必须为数值
func Transpose(df dataframe.DataFrame, keyCol, newKey string) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return df, df.Err
	}
	if !utils.HasColumn(df, keyCol) {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %q", ErrMissingColumn, keyCol)
	}

	labels := df.Col(keyCol).Records()
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			return dataframe.DataFrame{}, fmt.Errorf("%w: %q in %q", ErrDuplicateLabel, l, keyCol)
		}
		seen[l] = true
	}

	var (
		valueNames []string
		values     [][]float64
	)
	for _, name := range df.Names() {
		if name == keyCol {
			continue
		}
		col := df.Col(name)
		if col.Type() != series.Float && col.Type() != series.Int {
			return dataframe.DataFrame{}, fmt.Errorf("%w: %q has type %s", ErrNonNumeric, name, col.Type())
		}
		valueNames = append(valueNames, name)
		values = append(values, col.Float())
	}

	// 第一列为原列名, 之后每个标签一列
	columns := make([]series.Series, 0, len(labels)+1)
	columns = append(columns, series.New(valueNames, series.String, newKey))
	for i, label := range labels {
		row := make([]float64, len(valueNames))
		for j := range valueNames {
			row[j] = values[j][i]
		}
		columns = append(columns, series.New(row, series.Float, label))
	}

	out := dataframe.New(columns...)
	if out.Err != nil {
		return out, out.Err
	}
	return out, nil
}

// Reshape 将清洗后的数据转为 年份 × 国家 的时间序列
func Reshape(df dataframe.DataFrame, keyCol string) (*TimeSeries, error) {
	t, err := Transpose(df, keyCol, YearColumn)
	if err != nil {
		return nil, err
	}
	return &TimeSeries{df: t, key: keyCol}, nil
}

// Combine 将同一国家的多个指标合并为一张表, 列名为各部分的Label
// 只保留所有部分都有的年份, 顺序以第一部分为准
func Combine(key string, parts ...Part) (*TimeSeries, error) {
	if len(parts) == 0 {
		return NewTimeSeries(key, nil, nil, nil)
	}

	common := make(map[string]int, parts[0].Series.Len())
	for _, p := range parts {
		for _, y := range p.Series.Years() {
			common[y]++
		}
	}

	var years []string
	for _, y := range parts[0].Series.Years() {
		if common[y] == len(parts) {
			years = append(years, y)
		}
	}

	names := make([]string, 0, len(parts))
	cols := make([][]float64, 0, len(parts))
	for _, p := range parts {
		vals, ok := p.Series.Column(p.Column)
		if !ok {
			return nil, fmt.Errorf("%w: %q not in %s", ErrMissingColumn, p.Column, p.Label)
		}
		index := make(map[string]int, p.Series.Len())
		for i, y := range p.Series.Years() {
			index[y] = i
		}
		aligned := make([]float64, len(years))
		for i, y := range years {
			aligned[i] = vals[index[y]]
		}
		names = append(names, p.Label)
		cols = append(cols, aligned)
	}
	return NewTimeSeries(key, years, names, cols)
}

// Part 合并时的一列: 从Series中取Column, 重命名为Label
type Part struct {
	Label  string
	Series *TimeSeries
	Column string
}
