package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const dataConfigJSON = `{
  "countries": ["India", "Brazil"],
  "indicators": [
    {"key": "CO2_emissions", "file": "co2.csv"},
    {"key": "Energy_use", "file": "energy.csv", "label": "Energy Use"}
  ],
  "year_range": {"from": "1990", "to": "2020"},
  "line_charts": [{"indicator": "CO2_emissions", "title": "CO2", "output": "co2"}],
  "bar_charts": [{"indicator": "Energy_use", "title": "Energy", "output": "energy"}],
  "heatmap": {"indicators": ["CO2_emissions", "Energy_use"], "palettes": {"India": "Blues"}}
}`

func TestLoadConfigJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.json", `{"data_dir": "data", "output_dir": "out", "watch": {"debounce": "5s"}}`)
	writeFile(t, dir, "dataconfig.json", dataConfigJSON)

	cfg, dcfg, err := loadConfigs(dir, "config.json", "dataconfig.json")
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 5*time.Second, cfg.Watch.Debounce.Std())
	assert.Equal(t, DefaultDPI, cfg.DPI)
	assert.Equal(t, DefaultLogName, cfg.LogName)

	assert.Equal(t, []string{"India", "Brazil"}, dcfg.Countries)
	assert.Equal(t, DefaultSkipRows, *dcfg.SkipRows)
	assert.True(t, *dcfg.DropTrailing)
	assert.Equal(t, DefaultDropColumns, dcfg.DropColumns)
	assert.Equal(t, "CO2 emissions", dcfg.Indicators[0].Label)
	assert.Equal(t, "Energy Use", dcfg.Indicators[1].Label)
	assert.Equal(t, DefaultBarYears, dcfg.BarCharts[0].Years)
	assert.Equal(t, "Blues", dcfg.PaletteFor("India"))
	assert.Equal(t, DefaultPalette, dcfg.PaletteFor("Brazil"))
}

func TestLoadConfigYAMLAndTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "data_dir: data\nworkers: 3\nwatch:\n  debounce: 1s\n")
	writeFile(t, dir, "dataconfig.toml", `
countries = ["Germany"]
skip_rows = 0
drop_trailing = false

[year_range]
from = "2000"
to = "2010"

[[indicators]]
key = "CO2_emissions"
file = "co2.csv"
`)

	cfg, dcfg, err := loadConfigs(dir, "config.yaml", "dataconfig.toml")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, time.Second, cfg.Watch.Debounce.Std())
	assert.Equal(t, 0, *dcfg.SkipRows)
	assert.False(t, *dcfg.DropTrailing)
	assert.Equal(t, YearRange{From: "2000", To: "2010"}, dcfg.YearRange)
	assert.Equal(t, "2000-2010", dcfg.YearRange.String())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.json", `{"data_dir": "data"}`)
	writeFile(t, dir, "dataconfig.json", dataConfigJSON)
	t.Setenv("INDICATORS_DATA_DIR", "/srv/wb")
	t.Setenv("INDICATORS_WORKERS", "7")

	cfg, _, err := loadConfigs(dir, "config.json", "dataconfig.json")
	require.NoError(t, err)
	assert.Equal(t, "/srv/wb", cfg.DataDir)
	assert.Equal(t, 7, cfg.Workers)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := loadConfigs(dir, "config.json", "dataconfig.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	writeFile(t, dir, "config.json", `{`)
	writeFile(t, dir, "dataconfig.json", dataConfigJSON)
	_, _, err = loadConfigs(dir, "config.json", "dataconfig.json")
	assert.ErrorContains(t, err, "解析Config失败")

	writeFile(t, dir, "config.json", `{}`)
	writeFile(t, dir, "dataconfig.json", `{"indicators": [{"key": "a", "file": "a.csv"}], "line_charts": [{"indicator": "b", "output": "b"}]}`)
	_, _, err = loadConfigs(dir, "config.json", "dataconfig.json")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "countries is empty")
	assert.ErrorContains(t, err, `unknown indicator "b"`)
}

func TestDataConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(dc *DataConfig)
		wantErr string
	}{
		{name: "default is valid", mutate: func(dc *DataConfig) {}},
		{name: "reversed range", mutate: func(dc *DataConfig) { dc.YearRange = YearRange{From: "2020", To: "1990"} }, wantErr: "reversed"},
		{name: "duplicate indicator", mutate: func(dc *DataConfig) { dc.Indicators = append(dc.Indicators, dc.Indicators[0]) }, wantErr: "duplicate indicator"},
		{name: "negative skip", mutate: func(dc *DataConfig) { n := -1; dc.SkipRows = &n }, wantErr: "skip_rows"},
		{name: "heatmap unknown", mutate: func(dc *DataConfig) { dc.Heatmap.Indicators = []string{"nope"} }, wantErr: "heatmap references"},
		{name: "heatmap disabled", mutate: func(dc *DataConfig) { dc.Heatmap.Indicators = []string{"nope"}; dc.Heatmap.Disabled = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, dc := Default()
			tt.mutate(dc)
			err := dc.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalid)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfigValidateLogLevel(t *testing.T) {
	cfg, _ := Default()
	cfg.LogLevel = "verbose"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestRangeFor(t *testing.T) {
	_, dc := Default()
	assert.Equal(t, YearRange{From: "1990", To: "2020"}, dc.RangeFor(ChartSpec{}))
	r := YearRange{From: "2000", To: "2005"}
	assert.Equal(t, r, dc.RangeFor(ChartSpec{Range: &r}))
}

func TestDurationJSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Std())

	b, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))

	assert.Error(t, d.UnmarshalJSON([]byte(`"soon"`)))
}
