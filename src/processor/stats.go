package processor

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary 单列的描述统计
type Summary struct {
	Name     string
	Count    int
	Mean     float64
	Std      float64 // 样本标准差, ddof=1
	Min      float64
	Q25      float64
	Median   float64
	Q75      float64
	Max      float64
	Skewness float64 // 调整后的Fisher-Pearson偏度
	Kurtosis float64 // 超额峰度(Fisher), 正态分布为0
}

// Describe 对每个数值列计算描述统计, 顺序与列顺序一致
// 统计对象是已经填0后的数据, 不再忽略缺失值以外的任何值
func Describe(t *TimeSeries) []Summary {
	out := make([]Summary, 0, len(t.Columns()))
	for _, name := range t.Columns() {
		vals, _ := t.Column(name)
		s := Summarize(vals)
		s.Name = name
		out = append(out, s)
	}
	return out
}

// Summarize 计算一组数的统计量, NaN不计入
func Summarize(values []float64) Summary {
	x := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			x = append(x, v)
		}
	}

	nan := math.NaN()
	s := Summary{
		Count: len(x),
		Mean:  nan, Std: nan, Min: nan, Q25: nan, Median: nan, Q75: nan, Max: nan,
		Skewness: nan, Kurtosis: nan,
	}
	if len(x) == 0 {
		return s
	}

	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(x, nil)
	if len(x) > 1 {
		s.Std = stat.StdDev(x, nil)
	}
	s.Min = floats.Min(x)
	s.Max = floats.Max(x)
	s.Q25 = Quantile(sorted, 0.25)
	s.Median = Quantile(sorted, 0.5)
	s.Q75 = Quantile(sorted, 0.75)
	s.Skewness = Skewness(x)
	s.Kurtosis = Kurtosis(x)
	return s
}

// Quantile 线性插值分位数(最近两个秩之间), sorted必须已升序
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// Skewness 样本偏度, 少于3个值为NaN, 方差为0时为0
func Skewness(x []float64) float64 {
	if len(x) < 3 {
		return math.NaN()
	}
	if constant(x) {
		return 0
	}
	return stat.Skew(x, nil)
}

// Kurtosis 样本超额峰度, 少于4个值为NaN, 方差为0时为0
func Kurtosis(x []float64) float64 {
	if len(x) < 4 {
		return math.NaN()
	}
	if constant(x) {
		return 0
	}
	return stat.ExKurtosis(x, nil)
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
