package store

import (
	"database/sql"
	"fmt"

	"github.com/daohuymanh/bio-data-analysis/internal/calculator"
	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// BatchInsertRecords 批量写入一次导入的记录
func (s *Store) BatchInsertRecords(importLogID int64, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}

	return s.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO records (
				import_log_id, province, district, year, month,
				den1, den2, den3, den4, total_test,
				source_sheet, row_no
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, r := range records {
			_, err := stmt.Exec(
				importLogID, r.Province, nullString(r.District), nullInt(r.Year), nullInt(r.Month),
				nullFloat(r.DEN[0]), nullFloat(r.DEN[1]), nullFloat(r.DEN[2]), nullFloat(r.DEN[3]), nullFloat(r.TotalTest),
				r.Sheet, r.RowNo,
			)
			if err != nil {
				return fmt.Errorf("failed to insert record: %w", err)
			}
		}
		return nil
	})
}

// RecordsByImport 按写入顺序读取一次导入的记录
func (s *Store) RecordsByImport(importLogID int64) ([]model.Record, error) {
	rows, err := s.db.Query(`
		SELECT province, district, year, month, den1, den2, den3, den4, total_test, source_sheet, row_no
		FROM records WHERE import_log_id = ? ORDER BY id ASC
	`, importLogID)
	if err != nil {
		return nil, fmt.Errorf("query records failed: %w", err)
	}
	defer rows.Close()

	out := []model.Record{}
	for rows.Next() {
		var (
			r           model.Record
			district    sql.NullString
			year, month sql.NullInt64
			den         [model.SerotypeCount]sql.NullFloat64
			total       sql.NullFloat64
		)
		if err := rows.Scan(&r.Province, &district, &year, &month, &den[0], &den[1], &den[2], &den[3], &total, &r.Sheet, &r.RowNo); err != nil {
			return nil, fmt.Errorf("scan record failed: %w", err)
		}
		if district.Valid {
			r.District = model.StringPtr(district.String)
		}
		if year.Valid {
			r.Year = model.IntPtr(int(year.Int64))
		}
		if month.Valid {
			r.Month = model.IntPtr(int(month.Int64))
		}
		for i := range den {
			if den[i].Valid {
				r.DEN[i] = model.FloatPtr(den[i].Float64)
			}
		}
		if total.Valid {
			r.TotalTest = model.FloatPtr(total.Float64)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records failed: %w", err)
	}
	return out, nil
}

// LoadMergedTable 按导入顺序重建每次导入的结果表，并依次合并（列取并集，不去重）
func (s *Store) LoadMergedTable() (*model.Table, error) {
	imports, err := s.completedImports()
	if err != nil {
		return nil, err
	}

	merged := model.NewTable()
	for _, imp := range imports {
		records, err := s.RecordsByImport(imp.ID)
		if err != nil {
			return nil, err
		}
		schema := model.SchemaFor(imp.Kind)
		withDistrict := len(imp.Columns) == 0 || containsString(imp.Columns, schema.District)
		merged = calculator.Merge(merged, schema.Table(records, withDistrict))
	}
	return merged, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func nullString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
