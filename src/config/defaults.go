package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

const (
	DefaultSkipRows   = 4
	DefaultKeyColumn  = "Country Name"
	DefaultDPI        = 300
	DefaultLogName    = "app.log"
	DefaultLogMaxSize = "10 * 1024 * 1024"
	DefaultPalette    = "coolwarm"
)

// DefaultDropColumns 世界银行文件中的元数据列
var DefaultDropColumns = []string{"Country Code", "Indicator Name", "Indicator Code"}

// DefaultNAValues 视为缺失的单元格
var DefaultNAValues = []string{"", "NA", "N/A", "NaN", "nan", "null"}

// DefaultBarYears 柱状图默认选取的年份
var DefaultBarYears = []string{"1990", "1995", "2000", "2005", "2010", "2015", "2020"}

// ApplyDefaults 填充未配置的字段
func (c *Config) ApplyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.LogName == "" {
		c.LogName = DefaultLogName
	}
	if c.LogMaxSize == "" {
		c.LogMaxSize = DefaultLogMaxSize
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.DPI <= 0 {
		c.DPI = DefaultDPI
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = Duration(2 * time.Second)
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "@every 1h"
	}
}

// Validate 校验应用配置
func (c *Config) Validate() error {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARNING", "ERROR", "FATAL":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// ApplyDefaults 填充未配置的字段
func (dc *DataConfig) ApplyDefaults() {
	if dc.SkipRows == nil {
		n := DefaultSkipRows
		dc.SkipRows = &n
	}
	if dc.KeyColumn == "" {
		dc.KeyColumn = DefaultKeyColumn
	}
	if dc.DropColumns == nil {
		dc.DropColumns = append([]string(nil), DefaultDropColumns...)
	}
	if dc.DropTrailing == nil {
		t := true
		dc.DropTrailing = &t
	}
	if dc.NAValues == nil {
		dc.NAValues = append([]string(nil), DefaultNAValues...)
	}
	for i := range dc.Indicators {
		if dc.Indicators[i].Label == "" {
			dc.Indicators[i].Label = strings.ReplaceAll(dc.Indicators[i].Key, "_", " ")
		}
	}
	for i := range dc.BarCharts {
		if len(dc.BarCharts[i].Years) == 0 {
			dc.BarCharts[i].Years = append([]string(nil), DefaultBarYears...)
		}
	}
	if dc.Heatmap.DefaultPalette == "" {
		dc.Heatmap.DefaultPalette = DefaultPalette
	}
	if dc.Heatmap.FilePrefix == "" {
		dc.Heatmap.FilePrefix = "heatmap_"
	}
}

// Validate 校验数据配置, 返回所有问题
func (dc *DataConfig) Validate() error {
	var errs []error
	invalid := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	if len(dc.Countries) == 0 {
		invalid("countries is empty")
	}
	if len(dc.Indicators) == 0 {
		invalid("indicators is empty")
	}
	if dc.SkipRows != nil && *dc.SkipRows < 0 {
		invalid("skip_rows %d < 0", *dc.SkipRows)
	}
	if dc.YearRange.From != "" && dc.YearRange.To != "" && dc.YearRange.From > dc.YearRange.To {
		invalid("year_range %s is reversed", dc.YearRange)
	}

	seen := make(map[string]bool, len(dc.Indicators))
	for _, ind := range dc.Indicators {
		if ind.Key == "" || ind.File == "" {
			invalid("indicator %q needs key and file", ind.Key)
			continue
		}
		if seen[ind.Key] {
			invalid("duplicate indicator %q", ind.Key)
		}
		seen[ind.Key] = true
	}

	charts := append(append([]ChartSpec(nil), dc.LineCharts...), dc.BarCharts...)
	for _, c := range charts {
		if !seen[c.Indicator] {
			invalid("chart %q references unknown indicator %q", c.Output, c.Indicator)
		}
		if c.Output == "" {
			invalid("chart for %q has no output", c.Indicator)
		}
	}
	if !dc.Heatmap.Disabled {
		for _, key := range dc.Heatmap.Indicators {
			if !seen[key] {
				invalid("heatmap references unknown indicator %q", key)
			}
		}
	}
	return errors.Join(errs...)
}

// Indicator 按key查找指标
func (dc *DataConfig) Indicator(key string) (Indicator, bool) {
	for _, ind := range dc.Indicators {
		if ind.Key == key {
			return ind, true
		}
	}
	return Indicator{}, false
}

// PaletteFor 返回国家对应的调色板
func (dc *DataConfig) PaletteFor(country string) string {
	if p, ok := dc.Heatmap.Palettes[country]; ok && p != "" {
		return p
	}
	return dc.Heatmap.DefaultPalette
}

// RangeFor 图表自身的年份范围优先
func (dc *DataConfig) RangeFor(c ChartSpec) YearRange {
	if c.Range != nil {
		return *c.Range
	}
	return dc.YearRange
}

// Default 与原始报告一致的配置
func Default() (*Config, *DataConfig) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	dcfg := &DataConfig{
		Countries: []string{"Ethiopia", "India", "Brazil", "Germany"},
		Indicators: []Indicator{
			{Key: "CO2_emissions", File: "1. CO2 emissions (metric tons per capita).csv", Label: "CO2 Emissions", Unit: "metric tons per capita"},
			{Key: "Energy_use", File: "2. Energy use (kg of oil equivalent per capita).csv", Label: "Energy Use", Unit: "kg of oil equivalent per capita"},
			{Key: "Urban_population", File: "3. Urban population (% of total population).csv", Label: "Urban Population", Unit: "% of total population"},
			{Key: "Renewable_energy", File: "4. Renewable energy consumption.csv", Label: "Renewable Energy", Unit: "% of total final energy consumption"},
		},
		YearRange: YearRange{From: "1990", To: "2020"},
		LineCharts: []ChartSpec{
			{Indicator: "Urban_population", Title: "Urban Population Growth (1990-2020)", YLabel: "Urban Population (%)", Output: "urban_population_growth"},
			{Indicator: "CO2_emissions", Title: "CO2 Emissions (1990-2020)", YLabel: "CO2 Emissions (metric tons per capita)", Output: "co2_emissions"},
		},
		BarCharts: []ChartSpec{
			{Indicator: "Energy_use", Title: "Energy Use (Selected Years: 1990-2020)", YLabel: "Energy Use (kg of oil equivalent per capita)", Output: "energy_use"},
			{Indicator: "Renewable_energy", Title: "Renewable Energy (Selected Years: 1990-2020)", YLabel: "Renewable Energy Consumption (%)", Output: "renewable_energy"},
		},
		Heatmap: HeatmapSpec{
			Indicators: []string{"CO2_emissions", "Energy_use", "Renewable_energy", "Urban_population"},
			Palettes: map[string]string{
				"Ethiopia": "YlGnBu",
				"India":    "Blues",
				"Brazil":   "Greens",
				"Germany":  "coolwarm",
			},
		},
	}
	dcfg.ApplyDefaults()
	return cfg, dcfg
}
