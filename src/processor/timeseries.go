package processor

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"IndicatorInsight/src/utils"
)

// TimeSeries 行为年份, 列为国家(或指标)的数值表
// 第一列固定为 Year, 其余列均为Float
type TimeSeries struct {
	df  dataframe.DataFrame
	key string // 转置前行标签所在的列名, Transpose时还原
}

// NewTimeSeries 由列数据构造; names与cols一一对应, 每列长度等于len(years)
func NewTimeSeries(key string, years, names []string, cols [][]float64) (*TimeSeries, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("%d names for %d columns", len(names), len(cols))
	}
	if years == nil {
		years = []string{}
	}

	columns := make([]series.Series, 0, len(names)+1)
	columns = append(columns, series.New(years, series.String, YearColumn))
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		if seen[name] || name == YearColumn {
			return nil, fmt.Errorf("%w: column %q", ErrDuplicateLabel, name)
		}
		seen[name] = true
		if len(cols[i]) != len(years) {
			return nil, fmt.Errorf("column %q has %d values for %d years", name, len(cols[i]), len(years))
		}
		columns = append(columns, series.New(cols[i], series.Float, name))
	}

	df := dataframe.New(columns...)
	if df.Err != nil {
		return nil, df.Err
	}
	return &TimeSeries{df: df, key: key}, nil
}

// DataFrame 底层gota表, 第一列为Year
func (t *TimeSeries) DataFrame() dataframe.DataFrame { return t.df }

// Key 转置前的行标签列名
func (t *TimeSeries) Key() string { return t.key }

// Len 年份(行)数
func (t *TimeSeries) Len() int { return t.df.Nrow() }

// Years 行标签
func (t *TimeSeries) Years() []string {
	return t.df.Col(YearColumn).Records()
}

// Columns 数值列名, 不包含Year
func (t *TimeSeries) Columns() []string {
	names := t.df.Names()
	if len(names) == 0 {
		return nil
	}
	return names[1:]
}

// Column 返回某列的数值副本
func (t *TimeSeries) Column(name string) ([]float64, bool) {
	if name == YearColumn || !utils.HasColumn(t.df, name) {
		return nil, false
	}
	return t.df.Col(name).Float(), true
}

// Slice 取 from <= 年份 <= to 的行(字符串比较), 空串表示不限
func (t *TimeSeries) Slice(from, to string) *TimeSeries {
	if from == "" && to == "" {
		return t
	}
	df := t.df.Filter(dataframe.F{
		Colname:    YearColumn,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			y := el.String()
			return (from == "" || y >= from) && (to == "" || y <= to)
		},
	})
	return &TimeSeries{df: df, key: t.key}
}

// Select 按给定顺序取出指定年份, 任一年份不存在时报错
func (t *TimeSeries) Select(years []string) (*TimeSeries, error) {
	index := make(map[string]int, t.Len())
	for i, y := range t.Years() {
		index[y] = i
	}

	rows := make([]int, 0, len(years))
	for _, y := range years {
		i, ok := index[y]
		if !ok {
			return nil, fmt.Errorf("%w: year %q", ErrUnknownLabel, y)
		}
		rows = append(rows, i)
	}

	df := t.df.Subset(rows)
	if df.Err != nil {
		return nil, df.Err
	}
	return &TimeSeries{df: df, key: t.key}, nil
}

// Transpose 还原为 国家 × 年份 的布局
func (t *TimeSeries) Transpose() (dataframe.DataFrame, error) {
	return Transpose(t.df, YearColumn, t.key)
}
