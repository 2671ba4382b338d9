package model

// SourceKind 数据源类型（决定抽取路径与输出口径）
type SourceKind string

const (
	SourceGSTX  SourceKind = "gstx"  // 各省 GSTX 月报：按 "TC" 标记行启发式抽取
	SourceDMOSS SourceKind = "dmoss" // DMOSS 矩阵表：固定偏移抽取，一个 sheet 一个省
	SourceCases SourceKind = "cases" // Mau_nhan 逐例表：逐例判定血清型后汇总
)

// Valid 是否为已知类型
func (k SourceKind) Valid() bool {
	switch k {
	case SourceGSTX, SourceDMOSS, SourceCases:
		return true
	}
	return false
}

// DistrictUnknown 无法定位区县标签时的占位值
const DistrictUnknown = "UNKNOWN"

// SerotypeCount 血清型数量 DEN1..DEN4
const SerotypeCount = 4

// Record 单条监测记录（抽取后的值对象，创建后不再修改）
//
// DEN/TotalTest 在固定偏移路径中是计数（空单元格为 nil），在逐例路径中是 0/1 标记。
type Record struct {
	Province  string                  `json:"province"`
	District  *string                 `json:"district"`
	Year      *int                    `json:"year"`
	Month     *int                    `json:"month"`
	DEN       [SerotypeCount]*float64 `json:"den"`
	TotalTest *float64                `json:"totalTest"`
	RowNo     int                     `json:"rowNo,omitempty"`
	Sheet     string                  `json:"sheet,omitempty"`
}

// StringPtr 字符串指针
func StringPtr(s string) *string { return &s }

// IntPtr 整数指针
func IntPtr(v int) *int { return &v }

// FloatPtr 浮点指针
func FloatPtr(v float64) *float64 { return &v }

// Flag 布尔标记 -> 0/1 计数
func Flag(b bool) *float64 {
	if b {
		return FloatPtr(1)
	}
	return FloatPtr(0)
}

// Value 取可空数值，nil 视为 0
func Value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
