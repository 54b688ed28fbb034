package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot/vg"

	"IndicatorInsight/src/chart"
	"IndicatorInsight/src/config"
	"IndicatorInsight/src/datapush"
	"IndicatorInsight/src/datasource/file"
	"IndicatorInsight/src/processor"
	"IndicatorInsight/src/storage"
	"IndicatorInsight/src/utils"
)

// heatmapKey 合并后的热力图表, 转置前的行标签列名
const heatmapKey = "Indicator"

// Datasets 已加载的数据集, 按配置顺序查询
type Datasets struct {
	mu     sync.Mutex
	order  []string
	series map[string]*processor.TimeSeries
	errs   map[string]error
}

func newDatasets(order []string) *Datasets {
	return &Datasets{
		order:  order,
		series: make(map[string]*processor.TimeSeries, len(order)),
		errs:   make(map[string]error),
	}
}

func (d *Datasets) set(key string, ts *processor.TimeSeries) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.series[key] = ts
}

func (d *Datasets) fail(key string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs[key] = err
}

// Get 返回key对应的时间序列
func (d *Datasets) Get(key string) (*processor.TimeSeries, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ts, ok := d.series[key]
	return ts, ok
}

// Keys 加载成功的数据集, 保持配置顺序
func (d *Datasets) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]string, 0, len(d.series))
	for _, k := range d.order {
		if _, ok := d.series[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Err 某个数据集的加载错误
func (d *Datasets) Err(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errs[key]
}

// Errs 所有加载错误, 按配置顺序合并
func (d *Datasets) Errs() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	for _, k := range d.order {
		if err, ok := d.errs[k]; ok {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// Pipeline 加载 -> 清洗 -> 转置 -> 统计 -> 出图
type Pipeline struct {
	cfg    *config.Config
	dcfg   *config.DataConfig
	logger *storage.Logger
	out    io.Writer
}

// New 创建Pipeline, 统计报告写到out
func New(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger, out io.Writer) *Pipeline {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = storage.NewWriterLogger(io.Discard)
	}
	return &Pipeline{cfg: cfg, dcfg: dcfg, logger: logger, out: out}
}

func (p *Pipeline) loadOptions() file.LoadOptions {
	opts := file.LoadOptions{
		Encoding: p.dcfg.Encoding,
		Sheet:    p.dcfg.Sheet,
		NAValues: p.dcfg.NAValues,
	}
	if p.dcfg.SkipRows != nil {
		opts.SkipRows = *p.dcfg.SkipRows
	}
	return opts
}

func (p *Pipeline) cleanOptions() processor.CleanOptions {
	opts := processor.CleanOptions{
		KeyColumn:   p.dcfg.KeyColumn,
		Countries:   p.dcfg.Countries,
		DropColumns: p.dcfg.DropColumns,
	}
	if p.dcfg.DropTrailing != nil {
		opts.DropTrailing = *p.dcfg.DropTrailing
	}
	return opts
}

// LoadDataset 读取并整理单个指标文件
func (p *Pipeline) LoadDataset(ind config.Indicator) (*processor.TimeSeries, error) {
	path := filepath.Join(p.cfg.DataDir, ind.File)
	df, err := file.LoadIndicator(path, p.loadOptions())
	if err != nil {
		return nil, err
	}
	cleaned, err := processor.Clean(df, p.cleanOptions())
	if err != nil {
		return nil, err
	}
	ts, err := processor.Reshape(cleaned, p.dcfg.KeyColumn)
	if err != nil {
		return nil, err
	}
	for _, country := range p.dcfg.Countries {
		if !utils.Contains(ts.Columns(), country) {
			p.logger.Debug(fmt.Sprintf("%s中没有国家%s", ind.File, country))
		}
	}
	return ts, nil
}

// Load 并行加载所有数据集, 单个数据集失败不影响其他数据集
func (p *Pipeline) Load(ctx context.Context) (*Datasets, error) {
	order := make([]string, 0, len(p.dcfg.Indicators))
	for _, ind := range p.dcfg.Indicators {
		order = append(order, ind.Key)
	}
	ds := newDatasets(order)

	var g errgroup.Group
	if p.cfg.Workers > 0 {
		g.SetLimit(p.cfg.Workers)
	}
	for _, ind := range p.dcfg.Indicators {
		ind := ind
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				ds.fail(ind.Key, err)
				return nil
			}
			ts, err := p.LoadDataset(ind)
			if err != nil {
				p.logger.Error(fmt.Sprintf("加载数据集%s失败: %v", ind.Key, err))
				ds.fail(ind.Key, err)
				return nil
			}
			p.logger.Info(fmt.Sprintf("数据集%s已加载: %d个年份, %d个国家", ind.Key, ts.Len(), len(ts.Columns())))
			ds.set(ind.Key, ts)
			return nil
		})
	}
	_ = g.Wait()
	return ds, ctx.Err()
}

// window 按全局年份范围截取
func (p *Pipeline) window(ts *processor.TimeSeries) *processor.TimeSeries {
	return ts.Slice(p.dcfg.YearRange.From, p.dcfg.YearRange.To)
}

// Report 输出每个数据集的统计结果
func (p *Pipeline) Report(ctx context.Context, ds *Datasets) error {
	for _, key := range ds.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		ts, _ := ds.Get(key)
		datapush.WriteReport(p.out, key, processor.Describe(p.window(ts)))
	}
	return nil
}

func (p *Pipeline) chartOptions(spec config.ChartSpec) chart.Options {
	return chart.Options{
		Title:  spec.Title,
		YLabel: spec.YLabel,
		Width:  vg.Length(spec.Width) * vg.Inch,
		Height: vg.Length(spec.Height) * vg.Inch,
		DPI:    p.cfg.DPI,
	}
}

func (p *Pipeline) outputPath(name string) string {
	return utils.OutputPath(p.cfg.OutputDir, name, ".png")
}

// LineCharts 生成所有折线图
func (p *Pipeline) LineCharts(ctx context.Context, ds *Datasets) error {
	var errs []error
	for _, spec := range p.dcfg.LineCharts {
		if err := ctx.Err(); err != nil {
			return err
		}
		ts, ok := ds.Get(spec.Indicator)
		if !ok {
			p.logger.Warning(fmt.Sprintf("跳过折线图%s: 数据集%s未加载(%v)", spec.Output, spec.Indicator, ds.Err(spec.Indicator)))
			continue
		}
		r := p.dcfg.RangeFor(spec)
		path := p.outputPath(spec.Output)
		if err := chart.SaveLine(ts.Slice(r.From, r.To), path, p.chartOptions(spec)); err != nil {
			p.logger.Error(fmt.Sprintf("生成折线图%s失败: %v", path, err))
			errs = append(errs, fmt.Errorf("%s: %w", spec.Output, err))
			continue
		}
		p.logger.Info("已保存折线图: " + path)
	}
	return errors.Join(errs...)
}

// BarCharts 生成所有柱状图, 只取配置的年份
func (p *Pipeline) BarCharts(ctx context.Context, ds *Datasets) error {
	var errs []error
	for _, spec := range p.dcfg.BarCharts {
		if err := ctx.Err(); err != nil {
			return err
		}
		ts, ok := ds.Get(spec.Indicator)
		if !ok {
			p.logger.Warning(fmt.Sprintf("跳过柱状图%s: 数据集%s未加载(%v)", spec.Output, spec.Indicator, ds.Err(spec.Indicator)))
			continue
		}
		path := p.outputPath(spec.Output)
		selected, err := ts.Select(spec.Years)
		if err == nil {
			err = chart.SaveBar(selected, path, p.chartOptions(spec))
		}
		if err != nil {
			p.logger.Error(fmt.Sprintf("生成柱状图%s失败: %v", path, err))
			errs = append(errs, fmt.Errorf("%s: %w", spec.Output, err))
			continue
		}
		p.logger.Info("已保存柱状图: " + path)
	}
	return errors.Join(errs...)
}

// CountryFrame 某个国家的各指标合并表, 列名为指标Label
func (p *Pipeline) CountryFrame(ds *Datasets, country string) (*processor.TimeSeries, error) {
	parts := make([]processor.Part, 0, len(p.dcfg.Heatmap.Indicators))
	for _, key := range p.dcfg.Heatmap.Indicators {
		ts, ok := ds.Get(key)
		if !ok {
			return nil, fmt.Errorf("数据集%s未加载", key)
		}
		label := key
		if ind, ok := p.dcfg.Indicator(key); ok {
			label = ind.Label
		}
		parts = append(parts, processor.Part{Label: label, Series: p.window(ts), Column: country})
	}
	return processor.Combine(heatmapKey, parts...)
}

func (p *Pipeline) heatmapTitle(country string) string {
	r := p.dcfg.YearRange
	if r.From == "" || r.To == "" {
		return "Correlation Heatmap for " + country
	}
	return fmt.Sprintf("Correlation Heatmap for %s (%s)", country, r)
}

// heatmapPath 热力图总是png, 国家名里的点号不能当成扩展名
func (p *Pipeline) heatmapPath(country string) string {
	return filepath.Join(p.cfg.OutputDir, p.dcfg.Heatmap.FilePrefix+utils.Slug(country)+".png")
}

// Heatmaps 每个国家一张相关性热力图
func (p *Pipeline) Heatmaps(ctx context.Context, ds *Datasets) error {
	if p.dcfg.Heatmap.Disabled || len(p.dcfg.Heatmap.Indicators) == 0 {
		return nil
	}
	var errs []error
	for _, country := range p.dcfg.Countries {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := p.heatmapPath(country)
		frame, err := p.CountryFrame(ds, country)
		if err != nil {
			p.logger.Warning(fmt.Sprintf("跳过热力图%s: %v", path, err))
			continue
		}
		m, err := processor.Correlation(frame)
		if err == nil {
			err = chart.SaveHeatmap(m, path, chart.Options{
				Title:   p.heatmapTitle(country),
				DPI:     p.cfg.DPI,
				Palette: p.dcfg.PaletteFor(country),
			})
		}
		if err != nil {
			p.logger.Error(fmt.Sprintf("生成热力图%s失败: %v", path, err))
			errs = append(errs, fmt.Errorf("heatmap %s: %w", country, err))
			continue
		}
		p.logger.Info("已保存热力图: " + path)
	}
	return errors.Join(errs...)
}

// Workbook 导出xlsx, 未配置文件名时不执行
func (p *Pipeline) Workbook(ds *Datasets) error {
	if p.cfg.Workbook == "" {
		return nil
	}
	sheets := make([]datapush.Sheet, 0, len(p.dcfg.Indicators))
	for _, key := range ds.Keys() {
		ts, _ := ds.Get(key)
		w := p.window(ts)
		sheets = append(sheets, datapush.Sheet{Name: key, Series: w, Summaries: processor.Describe(w)})
	}
	path := utils.OutputPath(p.cfg.OutputDir, p.cfg.Workbook, ".xlsx")
	if err := datapush.SaveWorkbook(path, sheets); err != nil {
		return err
	}
	p.logger.Info("处理后的数据已保存到: " + path)
	return nil
}

// Run 执行完整流程, 返回所有失败步骤合并后的错误
func (p *Pipeline) Run(ctx context.Context) error {
	ds, err := p.Load(ctx)
	if err != nil {
		return err
	}

	errs := []error{ds.Errs()}
	if err := p.Report(ctx, ds); err != nil {
		return err
	}
	for _, step := range []func(context.Context, *Datasets) error{p.LineCharts, p.BarCharts, p.Heatmaps} {
		if err := step(ctx, ds); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = append(errs, err)
		}
	}
	if err := p.Workbook(ds); err != nil {
		p.logger.Error(fmt.Sprintf("导出工作簿失败: %v", err))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
