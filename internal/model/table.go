package model

// Row 表格行：列名 -> 单元格；缺失的列即为空值
type Row map[string]Cell

// Get 读取列值，缺失返回空值
func (r Row) Get(col string) Cell {
	if c, ok := r[col]; ok {
		return c
	}
	return NullCell()
}

// Table 共享同一列顺序的有序行集合。列顺序只影响输出，不影响语义。
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable 创建空表
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols, Rows: []Row{}}
}

// Len 行数
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn 是否包含列
func (t *Table) HasColumn(col string) bool {
	return t.ColumnIndex(col) >= 0
}

// ColumnIndex 列位置，不存在返回 -1
func (t *Table) ColumnIndex(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Append 追加一行（按列顺序给出单元格）
func (t *Table) Append(cells ...Cell) {
	row := make(Row, len(cells))
	for i, c := range cells {
		if i >= len(t.Columns) {
			break
		}
		row[t.Columns[i]] = c
	}
	t.Rows = append(t.Rows, row)
}

// Values 按列顺序取出一行的单元格
func (t *Table) Values(i int) []Cell {
	out := make([]Cell, len(t.Columns))
	for j, col := range t.Columns {
		out[j] = t.Rows[i].Get(col)
	}
	return out
}

// Column 取出一列的全部单元格
func (t *Table) Column(col string) []Cell {
	out := make([]Cell, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.Get(col)
	}
	return out
}

// Clone 深拷贝（行 map 各自复制）
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = row.clone()
	}
	return out
}

func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Grid 把表格（含表头）转成网格，用于写出
func (t *Table) Grid() Grid {
	g := make(Grid, 0, len(t.Rows)+1)
	header := make([]Cell, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = TextCell(col)
	}
	g = append(g, header)
	for i := range t.Rows {
		g = append(g, t.Values(i))
	}
	return g
}
