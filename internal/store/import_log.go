package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// ImportLogResult 导入结束时回写的统计
type ImportLogResult struct {
	TotalSheets    int
	ImportedSheets int
	SkippedSheets  int
	ErrorSheets    int
	ImportedRows   int
	CoercedCells   int
	Columns        []string
	Status         string
	ErrorMessage   string
}

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(runID string, kind model.SourceKind, filename, filePath string, fileSize int64, fileHash string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO import_logs (run_id, kind, filename, file_path, file_size, file_hash, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, runID, string(kind), filename, filePath, fileSize, fileHash, model.ImportProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// UpdateImportLog 完成导入日志更新
func (s *Store) UpdateImportLog(id int64, r ImportLogResult) error {
	_, err := s.db.Exec(`
		UPDATE import_logs SET
			total_sheets = ?,
			imported_sheets = ?,
			skipped_sheets = ?,
			error_sheets = ?,
			imported_rows = ?,
			coerced_cells = ?,
			columns_json = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, r.TotalSheets, r.ImportedSheets, r.SkippedSheets, r.ErrorSheets, r.ImportedRows, r.CoercedCells,
		BuildColumnsJSON(r.Columns), r.Status, r.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

const importLogColumns = `
	id, run_id, kind, filename, file_path, file_size, file_hash, status,
	total_sheets, imported_sheets, skipped_sheets, error_sheets, imported_rows, coerced_cells,
	columns_json, error_message, created_at, completed_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanImportLog(row rowScanner) (model.ImportLog, error) {
	var (
		it          model.ImportLog
		kind        string
		columnsJSON string
		completedAt sql.NullTime
		createdAt   sql.NullTime
	)
	err := row.Scan(
		&it.ID, &it.RunID, &kind, &it.Filename, &it.FilePath, &it.FileSize, &it.FileHash, &it.Status,
		&it.TotalSheets, &it.ImportedSheets, &it.SkippedSheets, &it.ErrorSheets, &it.ImportedRows, &it.CoercedCells,
		&columnsJSON, &it.ErrorMessage, &createdAt, &completedAt,
	)
	if err != nil {
		return it, err
	}
	it.Kind = model.SourceKind(kind)
	if err := json.Unmarshal([]byte(columnsJSON), &it.Columns); err != nil {
		it.Columns = nil
	}
	if createdAt.Valid {
		it.CreatedAt = createdAt.Time
	}
	if completedAt.Valid {
		t := completedAt.Time
		it.CompletedAt = &t
	}
	return it, nil
}

// GetImportLog 获取单条导入日志
func (s *Store) GetImportLog(id int64) (*model.ImportLog, error) {
	row := s.db.QueryRow(`SELECT `+importLogColumns+` FROM import_logs WHERE id = ?`, id)
	it, err := scanImportLog(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("import log %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get import log: %w", err)
	}
	return &it, nil
}

// ListImportLogs 按 id 倒序列出导入日志；limit<=0 表示不限
func (s *Store) ListImportLogs(limit int) ([]model.ImportLog, error) {
	query := `SELECT ` + importLogColumns + ` FROM import_logs ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryImportLogs(query, args...)
}

// completedImports 按导入顺序列出已完成的导入
func (s *Store) completedImports() ([]model.ImportLog, error) {
	return s.queryImportLogs(`SELECT `+importLogColumns+` FROM import_logs WHERE status = ? ORDER BY id ASC`, model.ImportCompleted)
}

func (s *Store) queryImportLogs(query string, args ...interface{}) ([]model.ImportLog, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query import logs failed: %w", err)
	}
	defer rows.Close()

	out := []model.ImportLog{}
	for rows.Next() {
		it, err := scanImportLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import log failed: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import logs failed: %w", err)
	}
	return out, nil
}

// DeleteImport 删除一次导入及其 sheet 元信息和记录
func (s *Store) DeleteImport(id int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM records WHERE import_log_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete records: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM sheets_meta WHERE import_log_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete sheets_meta: %w", err)
		}
		res, err := tx.Exec(`DELETE FROM import_logs WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete import log: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("import log %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// ImportStats 总体统计
type ImportStats struct {
	Imports   int       `json:"imports"`
	Records   int       `json:"records"`
	Provinces int       `json:"provinces"`
	LastAt    time.Time `json:"lastAt"`
}

// Stats 导入与记录统计
func (s *Store) Stats() (ImportStats, error) {
	var st ImportStats
	var last sql.NullString
	err := s.db.QueryRow(`
		SELECT
			(SELECT COUNT(1) FROM import_logs WHERE status = ?),
			(SELECT COUNT(1) FROM records),
			(SELECT COUNT(DISTINCT province) FROM records),
			(SELECT MAX(completed_at) FROM import_logs)
	`, model.ImportCompleted).Scan(&st.Imports, &st.Records, &st.Provinces, &last)
	if err != nil {
		return st, fmt.Errorf("query stats failed: %w", err)
	}
	// 聚合结果不带列类型，驱动以文本返回
	if last.Valid {
		for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano} {
			if t, err := time.Parse(layout, last.String); err == nil {
				st.LastAt = t
				break
			}
		}
	}
	return st, nil
}
