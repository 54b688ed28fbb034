package utils

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// 辅助函数：判断DataFrame是否有某列
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// FormatFloat 保留prec位小数, NaN输出 "NaN"
func FormatFloat(v float64, prec int) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// OutputPath 输出文件路径, base没有扩展名时补上defaultExt
func OutputPath(dir, base, defaultExt string) string {
	if filepath.Ext(base) == "" {
		base += defaultExt
	}
	return filepath.Join(dir, base)
}

// slugDrop 国家名中不能出现在文件名里的字符
var slugDrop = strings.NewReplacer(".", "", ",", "", "/", "", "\\", "")

// Slug 国家名转文件名: 小写, 去掉标点, 空白换成下划线
func Slug(s string) string {
	return strings.Join(strings.Fields(slugDrop.Replace(strings.ToLower(s))), "_")
}
