package processor

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrTooFewRows 相关系数至少需要两行
var ErrTooFewRows = errors.New("need at least two rows")

// CorrelationMatrix 皮尔逊相关系数矩阵
type CorrelationMatrix struct {
	Labels []string
	Values *mat.SymDense
}

// At 第i行第j列
func (m *CorrelationMatrix) At(i, j int) float64 {
	return m.Values.At(i, j)
}

// Size 变量个数
func (m *CorrelationMatrix) Size() int {
	return len(m.Labels)
}

// Correlation 对TimeSeries的所有数值列计算相关系数
// 常数列所在行列为NaN, 其余对角线固定为1
func Correlation(t *TimeSeries) (*CorrelationMatrix, error) {
	names := t.Columns()
	rows := t.Len()
	if rows < 2 {
		return nil, ErrTooFewRows
	}
	if len(names) == 0 {
		return &CorrelationMatrix{}, nil
	}

	data := mat.NewDense(rows, len(names), nil)
	flat := make([]bool, len(names))
	for j, name := range names {
		vals, _ := t.Column(name)
		flat[j] = constant(vals)
		data.SetCol(j, vals)
	}

	sym := mat.NewSymDense(len(names), nil)
	stat.CorrelationMatrix(sym, data, nil)

	for i := range names {
		for j := i; j < len(names); j++ {
			switch {
			case flat[i] || flat[j]:
				sym.SetSym(i, j, math.NaN())
			case i == j:
				sym.SetSym(i, j, 1)
			}
		}
	}
	return &CorrelationMatrix{Labels: names, Values: sym}, nil
}
