package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	digitRun     = regexp.MustCompile(`\d+`)
	yearToken    = regexp.MustCompile(`20\d{2}`)
	gstxSuffix   = regexp.MustCompile(`(?i)\s*GSTX.*$`)
	sheetNameBad = regexp.MustCompile(`[^0-9A-Za-z_]`)
)

// FirstNumber 提取文本中第一段连续数字
// 例如 "Thang 5" -> 5、"T12-2021" -> 12
func FirstNumber(text string) (int, bool) {
	m := digitRun.FindString(text)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// InferYear 从文件名中推断年份（第一个以 20 开头的四位数）
func InferYear(filename string) (int, bool) {
	m := yearToken.FindString(filepath.Base(filename))
	if m == "" {
		return 0, false
	}
	y, _ := strconv.Atoi(m)
	return y, true
}

// ProvinceFromFilename 从 GSTX 文件名推断省份
// 支持格式: "Đà Nẵng GSTX 2021.xlsx" / "Quang Nam.xlsx"
func ProvinceFromFilename(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = gstxSuffix.ReplaceAllString(base, "")
	return MustNormalizeKey(base)
}

// ContainsAnyFold 大小写不敏感地检查是否包含任意关键词（双方先转大写）
func ContainsAnyFold(text string, keywords []string) bool {
	upper := strings.ToUpper(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(upper, strings.ToUpper(kw)) {
			return true
		}
	}
	return false
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// SanitizeSheetName 把 sheet 名转成可作文件名的片段（非字母数字替换为下划线，最长 40 个字符）
func SanitizeSheetName(name string) string {
	s := sheetNameBad.ReplaceAllString(StripDiacritics(name), "_")
	if len(s) > 40 {
		s = s[:40]
	}
	if s == "" {
		s = "sheet"
	}
	return s
}

// ResolveYear 年份：显式参数优先（>0），否则从文件名推断，都没有时为 nil
func ResolveYear(explicit int, filename string) *int {
	if explicit > 0 {
		return &explicit
	}
	if y, ok := InferYear(filename); ok {
		return &y
	}
	return nil
}
