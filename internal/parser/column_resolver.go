package parser

import (
	"strconv"
	"strings"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// ColumnToken 列定位标记：零基位置或列名片段
type ColumnToken struct {
	pos   int
	name  string
	isPos bool
}

// Position 按位置定位
func Position(i int) ColumnToken {
	return ColumnToken{pos: i, name: strconv.Itoa(i), isPos: true}
}

// Name 按列名定位（精确匹配优先，其次大小写不敏感的包含匹配）
func Name(s string) ColumnToken {
	return ColumnToken{name: s}
}

// ParseColumnToken 解析用户输入：非负整数为位置，否则为列名
func ParseColumnToken(s string) ColumnToken {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil && i >= 0 && s[0] != '+' {
		return ColumnToken{pos: i, name: s, isPos: true}
	}
	return Name(s)
}

// ParseColumnTokens 解析逗号分隔的标记列表，忽略空项
func ParseColumnTokens(list []string) []ColumnToken {
	var out []ColumnToken
	for _, item := range list {
		for _, part := range strings.Split(item, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			out = append(out, ParseColumnToken(part))
		}
	}
	return out
}

// IsPosition 是否为位置标记
func (t ColumnToken) IsPosition() bool { return t.isPos }

// Index 位置标记的列号
func (t ColumnToken) Index() int { return t.pos }

// Text 标记原文
func (t ColumnToken) Text() string { return t.name }

// IsZero 空标记（未配置）
func (t ColumnToken) IsZero() bool { return !t.isPos && t.name == "" }

func (t ColumnToken) String() string { return t.name }

// ResolveIndex 在列名列表中定位标记，返回列号，找不到返回 -1。
//
// 顺序: 位置（在范围内时优先）-> 精确列名 -> 大小写不敏感包含匹配。
// 位置超出范围时按列名继续匹配。多个列同时匹配时取第一个，不报错。
func ResolveIndex(columns []string, tok ColumnToken) int {
	if tok.IsZero() {
		return -1
	}
	if tok.isPos && tok.pos < len(columns) {
		return tok.pos
	}
	for i, c := range columns {
		if c == tok.name {
			return i
		}
	}
	upper := strings.ToUpper(tok.name)
	for i, c := range columns {
		if strings.Contains(strings.ToUpper(c), upper) {
			return i
		}
	}
	return -1
}

// ResolveColumn 在表格中定位标记，返回列名
func ResolveColumn(t *model.Table, tok ColumnToken) (string, bool) {
	i := ResolveIndex(t.Columns, tok)
	if i < 0 {
		return "", false
	}
	return t.Columns[i], true
}

// RequireColumn 定位必需列，找不到返回 *ColumnNotFoundError
func RequireColumn(t *model.Table, field string, tok ColumnToken) (string, error) {
	col, ok := ResolveColumn(t, tok)
	if !ok {
		return "", &ColumnNotFoundError{Field: field, Token: tok.Text()}
	}
	return col, nil
}

// ResolveAll 按顺序定位一组标记，任一失败即返回错误
func ResolveAll(t *model.Table, field string, tokens []ColumnToken) ([]string, error) {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		col, err := RequireColumn(t, field, tok)
		if err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, nil
}
