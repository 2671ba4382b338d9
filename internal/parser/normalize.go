package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// Đ/đ 在 NFD 下不会分解出 D，需要在分解前单独替换
var vietnameseD = strings.NewReplacer("Đ", "D", "đ", "d")

func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// StripDiacritics 去除变音符号（保留大小写与空白）
func StripDiacritics(s string) string {
	s = vietnameseD.Replace(s)
	out, _, err := transform.String(stripMarks(), s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeKey 省/区县等人工录入键的规范化：去变音符号、压缩空白、去首尾空白、转大写。
// 空白按 Unicode 判定（含 U+00A0）。空或纯空白输入返回 ok=false（对应 null，不是错误）。幂等。
func NormalizeKey(s string) (string, bool) {
	fields := strings.Fields(StripDiacritics(s))
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToUpper(strings.Join(fields, " ")), true
}

// MustNormalizeKey 规范化，空输入得到空串
func MustNormalizeKey(s string) string {
	out, _ := NormalizeKey(s)
	return out
}

// NormalizeCell 单元格规范化；null 单元格传递为 nil
func NormalizeCell(c model.Cell) *string {
	if c.IsNull() {
		return nil
	}
	out, ok := NormalizeKey(c.String())
	if !ok {
		return nil
	}
	return &out
}

var headerNonWord = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SanitizeHeader 表头清洗：去变音符号，空白转下划线，去除其他标点，转大写；空表头为 COL
func SanitizeHeader(col string) string {
	s := StripDiacritics(col)
	s = strings.Join(strings.Fields(s), "_")
	s = headerNonWord.ReplaceAllString(s, "")
	if s == "" {
		s = "COL"
	}
	return strings.ToUpper(s)
}

// UniqueHeaders 表头去重：重复项追加 _1、_2 …
func UniqueHeaders(headers []string) []string {
	seen := make(map[string]bool, len(headers))
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		c := h
		for i := 1; seen[c]; i++ {
			c = h + "_" + strconv.Itoa(i)
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
