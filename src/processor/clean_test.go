package processor

import (
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawFrame 模拟加载后的指标表
func rawFrame(t *testing.T) dataframe.DataFrame {
	t.Helper()
	df := dataframe.New(
		series.New([]string{"Brazil", "India", "Germany"}, series.String, "Country Name"),
		series.New([]string{"BRA", "IND", "DEU"}, series.String, "Country Code"),
		series.New([]string{"CO2", "CO2", "CO2"}, series.String, "Indicator Name"),
		series.New([]string{"EN", "EN", "EN"}, series.String, "Indicator Code"),
		series.New([]float64{4, 1, 12}, series.Float, "1990"),
		series.New([]float64{5, math.NaN(), 11}, series.Float, "1995"),
		series.New([]float64{6, 3, math.NaN()}, series.Float, "2000"),
		series.New([]float64{math.NaN(), math.NaN(), math.NaN()}, series.Float, "Unnamed: 7"),
	)
	require.NoError(t, df.Err)
	return df
}

func cleanOptions(countries ...string) CleanOptions {
	return CleanOptions{
		KeyColumn:    "Country Name",
		Countries:    countries,
		DropColumns:  []string{"Country Code", "Indicator Name", "Indicator Code"},
		DropTrailing: true,
	}
}

func TestClean(t *testing.T) {
	cleaned, err := Clean(rawFrame(t), cleanOptions("India", "Brazil", "Atlantis"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Country Name", "1990", "1995", "2000"}, cleaned.Names())
	assert.Equal(t, []string{"Brazil", "India"}, cleaned.Col("Country Name").Records(), "file order, absent country ignored")
	assert.Equal(t, []float64{5, 0}, cleaned.Col("1995").Float(), "missing filled with zero")
	assert.Equal(t, []float64{6, 3}, cleaned.Col("2000").Float())
}

func TestCleanRowCountBound(t *testing.T) {
	tests := []struct {
		name      string
		countries []string
		want      int
	}{
		{name: "none match", countries: []string{"Atlantis"}, want: 0},
		{name: "empty list", countries: nil, want: 0},
		{name: "subset", countries: []string{"Germany"}, want: 1},
		{name: "all", countries: []string{"Germany", "India", "Brazil", "Chile"}, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaned, err := Clean(rawFrame(t), cleanOptions(tt.countries...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cleaned.Nrow())
			assert.LessOrEqual(t, cleaned.Nrow(), len(tt.countries))
		})
	}
}

func TestCleanKeepsTrailingColumn(t *testing.T) {
	opts := cleanOptions("India")
	opts.DropTrailing = false

	cleaned, err := Clean(rawFrame(t), opts)
	require.NoError(t, err)
	assert.Contains(t, cleaned.Names(), "Unnamed: 7")
	assert.Equal(t, []float64{0}, cleaned.Col("Unnamed: 7").Float())

	ts, err := Reshape(cleaned, "Country Name")
	require.NoError(t, err)
	assert.Equal(t, []string{"1990", "1995", "2000", "Unnamed: 7"}, ts.Years(), "trailing column becomes a zero row")
}

func TestCleanMissingColumns(t *testing.T) {
	opts := cleanOptions("India")
	opts.KeyColumn = "Country"
	_, err := Clean(rawFrame(t), opts)
	assert.ErrorIs(t, err, ErrMissingColumn)

	opts = cleanOptions("India")
	opts.DropColumns = append(opts.DropColumns, "Unnamed: 67")
	_, err = Clean(rawFrame(t), opts)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestFillNANoMissingIsIdentity(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"a", "b"}, series.String, "k"),
		series.New([]float64{1.5, 2}, series.Float, "x"),
		series.New([]int{3, 4}, series.Int, "y"),
	)
	filled := FillNA(df, 0)
	assert.Equal(t, df.Records(), filled.Records())
	assert.Equal(t, series.Int, filled.Col("y").Type())

	again := FillNA(FillNA(rawFrame(t), 0), 0)
	assert.Equal(t, FillNA(rawFrame(t), 0).Records(), again.Records())
}
