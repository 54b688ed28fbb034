package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// ErrInvalid 配置内容不合法
var ErrInvalid = errors.New("invalid config")

// Config 结构体定义了应用程序的配置结构
type Config struct {
	DataDir    string `json:"data_dir" yaml:"data_dir" toml:"data_dir"`             // 指标文件所在目录
	OutputDir  string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`       // 图片和工作簿输出目录
	LogName    string `json:"log_name" yaml:"log_name" toml:"log_name"`             // 日志文件
	LogMaxSize string `json:"log_max_size" yaml:"log_max_size" toml:"log_max_size"` // 例如 "10 * 1024 * 1024"
	LogLevel   string `json:"log_level" yaml:"log_level" toml:"log_level"`
	Workers    int    `json:"workers" yaml:"workers" toml:"workers"` // 并行加载数据集的数量
	DPI        int    `json:"dpi" yaml:"dpi" toml:"dpi"`
	Workbook   string `json:"workbook" yaml:"workbook" toml:"workbook"` // 为空则不导出xlsx

	Watch struct {
		Debounce Duration `json:"debounce" yaml:"debounce" toml:"debounce"` // 文件变更后等待的时间
		Schedule string   `json:"schedule" yaml:"schedule" toml:"schedule"` // cron 表达式, 例如 "@every 1h"
	} `json:"watch" yaml:"watch" toml:"watch"`
}

// Indicator 指标名称与文件名的映射
type Indicator struct {
	Key   string `json:"key" yaml:"key" toml:"key"`
	File  string `json:"file" yaml:"file" toml:"file"`
	Label string `json:"label" yaml:"label" toml:"label"` // 热力图中的列名
	Unit  string `json:"unit" yaml:"unit" toml:"unit"`
}

// YearRange 闭区间, 按字符串比较
type YearRange struct {
	From string `json:"from" yaml:"from" toml:"from"`
	To   string `json:"to" yaml:"to" toml:"to"`
}

// String 返回 "1990-2020" 形式
func (r YearRange) String() string {
	return r.From + "-" + r.To
}

// ChartSpec 单个折线图/柱状图的配置
type ChartSpec struct {
	Indicator string     `json:"indicator" yaml:"indicator" toml:"indicator"`
	Title     string     `json:"title" yaml:"title" toml:"title"`
	YLabel    string     `json:"ylabel" yaml:"ylabel" toml:"ylabel"`
	Output    string     `json:"output" yaml:"output" toml:"output"`    // 文件名, 不带扩展名时使用png
	Years     []string   `json:"years" yaml:"years" toml:"years"`       // 仅柱状图使用
	Range     *YearRange `json:"range" yaml:"range" toml:"range"`       // 为空时使用全局year_range
	Width     float64    `json:"width" yaml:"width" toml:"width"`       // 英寸
	Height    float64    `json:"height" yaml:"height" toml:"height"`    // 英寸
}

// HeatmapSpec 每个国家一张相关性热力图
type HeatmapSpec struct {
	Indicators     []string          `json:"indicators" yaml:"indicators" toml:"indicators"` // 指标key, 顺序即列顺序
	Palettes       map[string]string `json:"palettes" yaml:"palettes" toml:"palettes"`       // 国家 -> 调色板
	DefaultPalette string            `json:"default_palette" yaml:"default_palette" toml:"default_palette"`
	FilePrefix     string            `json:"file_prefix" yaml:"file_prefix" toml:"file_prefix"`
	Disabled       bool              `json:"disabled" yaml:"disabled" toml:"disabled"`
}

type DataConfig struct {
	Countries    []string    `json:"countries" yaml:"countries" toml:"countries"`
	Indicators   []Indicator `json:"indicators" yaml:"indicators" toml:"indicators"`
	YearRange    YearRange   `json:"year_range" yaml:"year_range" toml:"year_range"`
	SkipRows     *int        `json:"skip_rows" yaml:"skip_rows" toml:"skip_rows"`
	Encoding     string      `json:"encoding" yaml:"encoding" toml:"encoding"`
	Sheet        string      `json:"sheet" yaml:"sheet" toml:"sheet"`
	NAValues     []string    `json:"na_values" yaml:"na_values" toml:"na_values"`
	KeyColumn    string      `json:"key_column" yaml:"key_column" toml:"key_column"`
	DropColumns  []string    `json:"drop_columns" yaml:"drop_columns" toml:"drop_columns"`
	DropTrailing *bool       `json:"drop_trailing" yaml:"drop_trailing" toml:"drop_trailing"`
	LineCharts   []ChartSpec `json:"line_charts" yaml:"line_charts" toml:"line_charts"`
	BarCharts    []ChartSpec `json:"bar_charts" yaml:"bar_charts" toml:"bar_charts"`
	Heatmap      HeatmapSpec `json:"heatmap" yaml:"heatmap" toml:"heatmap"`
}

// envOverrides 环境变量覆盖, 前缀 INDICATORS_
type envOverrides struct {
	DataDir   string `envconfig:"DATA_DIR"`
	OutputDir string `envconfig:"OUTPUT_DIR"`
	LogLevel  string `envconfig:"LOG_LEVEL"`
	Workers   int    `envconfig:"WORKERS"`
}

const EnvPrefix = "indicators"

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	loadErr            error
)

// LoadConfig 只加载一次, 之后返回同一份配置
func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	once.Do(func() {
		instance, dataConfigInstance, loadErr = loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, loadErr
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configFile, configData, cfgChan, errChan)
	go parseDataConfig(dataConfigFile, dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, nil, err
	}
	cfg.ApplyDefaults()
	dcfg.ApplyDefaults()

	if err := errors.Join(cfg.Validate(), dcfg.Validate()); err != nil {
		return nil, nil, err
	}
	return cfg, dcfg, nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

// decode 按扩展名选择解析器, 默认json
func decode(path string, data []byte, v interface{}) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, v)
	case ".toml":
		_, err := toml.Decode(string(data), v)
		return err
	default:
		return json.Unmarshal(data, v)
	}
}

func parseConfig(path string, data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := decode(path, data, &cfg); err != nil {
		errChan <- fmt.Errorf("解析Config失败: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(path string, data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if err := decode(path, data, &dcfg); err != nil {
		errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
		return
	}
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg    *Config
		dcfg   *DataConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	msg := "配置加载遇到多个错误:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

func (c *Config) applyEnv() error {
	var o envOverrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return fmt.Errorf("解析环境变量失败: %w", err)
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.OutputDir != "" {
		c.OutputDir = o.OutputDir
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	return nil
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
// 用于从JSON字符串解析Duration
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalJSON 实现json.Marshaler接口
// 用于将Duration序列化为JSON字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalText toml 使用
func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// UnmarshalYAML yaml.v2 使用
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// Std 转回 time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
