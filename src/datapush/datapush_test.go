package datapush

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"IndicatorInsight/src/processor"
)

func sample(t *testing.T) (*processor.TimeSeries, []processor.Summary) {
	t.Helper()
	ts, err := processor.NewTimeSeries("Country Name",
		[]string{"1990", "1991", "1992"},
		[]string{"India", "Brazil"},
		[][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	return ts, processor.Describe(ts)
}

func TestWriteReport(t *testing.T) {
	_, summaries := sample(t)
	var buf bytes.Buffer
	WriteReport(&buf, "CO2_emissions", summaries)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Statistics for CO2_emissions:\n"))
	for _, want := range []string{"India", "Brazil", "count", "25%", "75%", "2.000000", "5.000000", "Skewness:", "Kurtosis:", "NaN"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Skewness:"), strings.Index(out, "Kurtosis:"))
}

func TestSaveWorkbook(t *testing.T) {
	ts, summaries := sample(t)
	path := filepath.Join(t.TempDir(), "out", "indicators.xlsx")
	require.NoError(t, SaveWorkbook(path, []Sheet{
		{Name: "CO2_emissions", Series: ts, Summaries: summaries},
	}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, "CO2_emissions"}, f.GetSheetList())

	rows, err := f.GetRows("CO2_emissions")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Year", "India", "Brazil"}, rows[0])
	assert.Equal(t, []string{"1990", "1", "4"}, rows[1])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, "Dataset", summary[0][0])
	assert.Equal(t, []string{"CO2_emissions", "India", "3", "2"}, summary[1][:4])
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{SummarySheet: true}
	assert.Equal(t, "Summary_2", sheetName("Summary", used))
	long := strings.Repeat("x", 40)
	first := sheetName(long, used)
	assert.Len(t, first, maxSheetName)
	second := sheetName(long, used)
	assert.Len(t, second, maxSheetName)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "a_b", sheetName("a/b", used))
}
