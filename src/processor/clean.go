package processor

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"IndicatorInsight/src/utils"
)

var (
	ErrMissingColumn  = errors.New("missing column")
	ErrNonNumeric     = errors.New("non-numeric column")
	ErrDuplicateLabel = errors.New("duplicate label")
	ErrUnknownLabel   = errors.New("unknown label")
)

// unnamedPrefix 行尾多余逗号产生的列名前缀
const unnamedPrefix = "Unnamed: "

// CleanOptions 清洗参数
type CleanOptions struct {
	KeyColumn    string   // 国家名称列
	Countries    []string // 保留的国家, 精确匹配
	DropColumns  []string // 必须存在的元数据列
	DropTrailing bool     // 同时删除 "Unnamed: N" 列
}

// Clean 过滤国家, 删除元数据列, 缺失值填0
// 源文件中不存在的国家直接忽略
func Clean(df dataframe.DataFrame, opts CleanOptions) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return df, df.Err
	}
	if !utils.HasColumn(df, opts.KeyColumn) {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %q", ErrMissingColumn, opts.KeyColumn)
	}

	// 1. 按国家过滤, 保持源文件顺序
	countries := opts.Countries
	if countries == nil {
		countries = []string{}
	}
	filtered := df.Filter(dataframe.F{
		Colname:    opts.KeyColumn,
		Comparator: series.In,
		Comparando: countries,
	})
	if filtered.Err != nil {
		return filtered, filtered.Err
	}

	// 2. 删除元数据列
	drop := make([]string, 0, len(opts.DropColumns)+1)
	for _, col := range opts.DropColumns {
		if !utils.HasColumn(filtered, col) {
			return dataframe.DataFrame{}, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
		drop = append(drop, col)
	}
	if opts.DropTrailing {
		for _, name := range filtered.Names() {
			if strings.HasPrefix(name, unnamedPrefix) {
				drop = append(drop, name)
			}
		}
	}
	if len(drop) > 0 {
		filtered = filtered.Drop(drop)
		if filtered.Err != nil {
			return filtered, filtered.Err
		}
	}

	// 3. 缺失值填0
	return FillNA(filtered, 0), nil
}

// FillNA 将数值列中的NaN替换为value, 没有缺失值时返回内容不变
func FillNA(df dataframe.DataFrame, value float64) dataframe.DataFrame {
	for _, name := range df.Names() {
		col := df.Col(name)
		if col.Type() != series.Float && col.Type() != series.Int {
			continue
		}
		if !col.HasNaN() {
			continue
		}
		vals := col.Float()
		for i, v := range vals {
			if math.IsNaN(v) {
				vals[i] = value
			}
		}
		df = df.Mutate(series.New(vals, series.Float, name))
	}
	return df
}
