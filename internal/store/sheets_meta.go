package store

import (
	"encoding/json"
	"fmt"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// InsertSheetMeta 写入 Sheet 元信息（用于追溯与容错）
func (s *Store) InsertSheetMeta(meta model.SheetMeta) error {
	_, err := s.db.Exec(`
		INSERT INTO sheets_meta (
			import_log_id, sheet_name, sheet_type,
			status, imported_rows, coerced_cells,
			error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		meta.ImportLogID, meta.SheetName, meta.SheetType,
		meta.Status, meta.ImportedRows, meta.CoercedCells,
		meta.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sheets_meta: %w", err)
	}
	return nil
}

// ListSheetMeta 列出一次导入的 sheet 结果（按写入顺序）
func (s *Store) ListSheetMeta(importLogID int64) ([]model.SheetMeta, error) {
	rows, err := s.db.Query(`
		SELECT id, import_log_id, sheet_name, sheet_type, status, imported_rows, coerced_cells, error_message
		FROM sheets_meta WHERE import_log_id = ? ORDER BY id ASC
	`, importLogID)
	if err != nil {
		return nil, fmt.Errorf("query sheets_meta failed: %w", err)
	}
	defer rows.Close()

	out := []model.SheetMeta{}
	for rows.Next() {
		var m model.SheetMeta
		if err := rows.Scan(&m.ID, &m.ImportLogID, &m.SheetName, &m.SheetType, &m.Status, &m.ImportedRows, &m.CoercedCells, &m.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan sheets_meta failed: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// BuildColumnsJSON 将列名序列化为 JSON（避免上层重复处理）
func BuildColumnsJSON(columns []string) string {
	if columns == nil {
		return "[]"
	}
	b, err := json.Marshal(columns)
	if err != nil {
		return "[]"
	}
	return string(b)
}
