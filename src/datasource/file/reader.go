// reader.go
package file

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrNotFound            = errors.New("indicator file not found")
	ErrMalformed           = errors.New("malformed indicator file")
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)

// UnnamedPrefix 空表头列的命名前缀
const UnnamedPrefix = "Unnamed: "

// LoadOptions 读取指标文件的参数
type LoadOptions struct {
	SkipRows int      // 表头前需要跳过的行数(空行也计数)
	Encoding string   // 空表示utf-8
	Sheet    string   // xlsx 工作表, 空表示第一个
	NAValues []string // 视为缺失的取值
	Comma    rune     // 分隔符, 默认 ','
}

// LoadIndicator 读取csv或xlsx指标文件为DataFrame
func LoadIndicator(path string, opts LoadOptions) (dataframe.DataFrame, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return dataframe.DataFrame{}, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return dataframe.DataFrame{}, fmt.Errorf("stat %s: %w", path, err)
	}

	var (
		records [][]string
		err     error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		records, err = readXLSXRecords(path, opts)
	} else {
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		records, err = readCSVRecords(f, opts)
	}
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s: %w", path, err)
	}

	return recordsToDataFrame(records, opts.NAValues)
}

// ReadIndicator 从reader读取csv指标数据
func ReadIndicator(r io.Reader, opts LoadOptions) (dataframe.DataFrame, error) {
	records, err := readCSVRecords(r, opts)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return recordsToDataFrame(records, opts.NAValues)
}

// decoder 根据编码名返回解码器
func decoder(name string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8", "utf-8-sig", "utf_8_sig":
		// BOM存在时去掉, 否则按utf-8处理
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, name)
	}
	return enc.NewDecoder(), nil
}

func readCSVRecords(r io.Reader, opts LoadOptions) ([][]string, error) {
	raw := bufio.NewReader(r)
	name := opts.Encoding
	if strings.EqualFold(name, "auto") {
		head, _ := raw.Peek(3)
		name = SniffEncoding(head)
	}
	dec, err := decoder(name)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(transform.NewReader(raw, dec))

	// 1. 跳过前导说明行, 按原始行计数
	for i := 0; i < opts.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("%w: only %d lines before header, skip_rows=%d", ErrMalformed, i, opts.SkipRows)
			}
			return nil, err
		}
	}

	// 2. 表头决定列数, 之后每行必须一致
	cr := csv.NewReader(br)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrMalformed)
	}
	return records, nil
}

func readXLSXRecords(path string, opts LoadOptions) ([][]string, error) {
	// 1. 使用tealeg/xlsx打开Excel文件
	xlFile, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx open file false: %w", err)
	}
	if len(xlFile.Sheets) == 0 {
		return nil, fmt.Errorf("%w: excel文件中没有工作表", ErrMalformed)
	}

	// 2. 获取工作表
	sheet := xlFile.Sheets[0]
	if opts.Sheet != "" {
		s, ok := xlFile.Sheet[opts.Sheet]
		if !ok {
			return nil, fmt.Errorf("%w: sheet %q not found", ErrMalformed, opts.Sheet)
		}
		sheet = s
	}
	if len(sheet.Rows) <= opts.SkipRows {
		return nil, fmt.Errorf("%w: sheet %q has %d rows, skip_rows=%d", ErrMalformed, sheet.Name, len(sheet.Rows), opts.SkipRows)
	}

	// 3. 表头之后的行按表头宽度补齐
	rows := sheet.Rows[opts.SkipRows:]
	var headers []string
	for _, cell := range rows[0].Cells {
		headers = append(headers, cell.Value)
	}
	records := [][]string{headers}
	for _, row := range rows[1:] {
		if row == nil {
			continue
		}
		record := make([]string, len(headers))
		for i, cell := range row.Cells {
			if i < len(headers) { // 确保不超出列数范围
				record[i] = cell.Value
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// recordsToDataFrame 推断列类型后转换为DataFrame
// 所有非缺失值都能解析为数字的列为Float, 否则为String
func recordsToDataFrame(records [][]string, naValues []string) (dataframe.DataFrame, error) {
	headers := records[0]
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
		if headers[i] == "" {
			headers[i] = fmt.Sprintf("%s%d", UnnamedPrefix, i)
		}
	}
	if dup := firstDuplicate(headers); dup != "" {
		return dataframe.DataFrame{}, fmt.Errorf("%w: duplicate column %q", ErrMalformed, dup)
	}

	if len(records) == 1 {
		return emptyDataFrame(headers), nil
	}

	isNA := make(map[string]bool, len(naValues))
	for _, v := range naValues {
		isNA[v] = true
	}
	isNA[""] = true

	types := make(map[string]series.Type, len(headers))
	for c, name := range headers {
		t := series.Float
		for _, row := range records[1:] {
			v := strings.TrimSpace(row[c])
			if isNA[v] {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				t = series.String
				break
			}
		}
		types[name] = t
	}

	// 缺失值统一替换为"NaN", gota会将其识别为NA
	cleaned := make([][]string, len(records))
	cleaned[0] = headers
	for r, row := range records[1:] {
		out := make([]string, len(row))
		for c, v := range row {
			v = strings.TrimSpace(v)
			if isNA[v] {
				v = "NaN"
			}
			out[c] = v
		}
		cleaned[r+1] = out
	}

	df := dataframe.LoadRecords(cleaned,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(types),
	)
	if df.Err != nil {
		return df, fmt.Errorf("%w: %v", ErrMalformed, df.Err)
	}
	return df, nil
}

// emptyDataFrame 只有表头时返回0行的DataFrame, 年份列为Float
func emptyDataFrame(headers []string) dataframe.DataFrame {
	cols := make([]series.Series, len(headers))
	for i, name := range headers {
		if _, err := strconv.ParseFloat(name, 64); err == nil || strings.HasPrefix(name, UnnamedPrefix) {
			cols[i] = series.New([]float64{}, series.Float, name)
		} else {
			cols[i] = series.New([]string{}, series.String, name)
		}
	}
	return dataframe.New(cols...)
}

func firstDuplicate(names []string) string {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return n
		}
		seen[n] = true
	}
	return ""
}

// SniffEncoding 通过BOM判断文件编码, 无BOM时返回空串
func SniffEncoding(head []byte) string {
	switch {
	case bytes.HasPrefix(head, []byte{0xEF, 0xBB, 0xBF}):
		return "utf-8-sig"
	case bytes.HasPrefix(head, []byte{0xFF, 0xFE}):
		return "utf-16"
	case bytes.HasPrefix(head, []byte{0xFE, 0xFF}):
		return "utf-16"
	}
	return ""
}
