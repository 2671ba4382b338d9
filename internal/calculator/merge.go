package calculator

import (
	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// Merge 合并两张表（列取并集，base 的行在前，不去重，不修改输入）。
// 某张表缺少的列在其行中填空值。
func Merge(base, next *model.Table) *model.Table {
	columns := unionColumns(base, next)
	out := &model.Table{Columns: columns, Rows: make([]model.Row, 0, base.Len()+next.Len())}
	for _, t := range []*model.Table{base, next} {
		if t == nil {
			continue
		}
		for _, row := range t.Rows {
			r := make(model.Row, len(columns))
			for _, col := range columns {
				r[col] = row.Get(col)
			}
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// MergeAll 依次把各表并入（左折叠），nil 表跳过
func MergeAll(tables ...*model.Table) *model.Table {
	out := model.NewTable()
	for _, t := range tables {
		if t == nil {
			continue
		}
		out = Merge(out, t)
	}
	return out
}

func unionColumns(base, next *model.Table) []string {
	var columns []string
	seen := make(map[string]bool)
	for _, t := range []*model.Table{base, next} {
		if t == nil {
			continue
		}
		for _, col := range t.Columns {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	if columns == nil {
		columns = []string{}
	}
	return columns
}
