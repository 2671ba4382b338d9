package store

import "fmt"

// YearMonthStat 可用年月统计
type YearMonthStat struct {
	Year      int `json:"year"`
	Month     int `json:"month"`
	Records   int `json:"records"`
	Provinces int `json:"provinces"`
}

// ListAvailableYearMonths 列出当前数据库中存在数据的年月（按年/月倒序，忽略缺失年或月的记录）
func (s *Store) ListAvailableYearMonths() ([]YearMonthStat, error) {
	rows, err := s.db.Query(`
		SELECT r.year, r.month, COUNT(1), COUNT(DISTINCT r.province)
		FROM records r
		JOIN import_logs l ON l.id = r.import_log_id AND l.status = 'completed'
		WHERE r.year IS NOT NULL AND r.month IS NOT NULL
		GROUP BY r.year, r.month
		ORDER BY r.year DESC, r.month DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query available months failed: %w", err)
	}
	defer rows.Close()

	out := []YearMonthStat{}
	for rows.Next() {
		var it YearMonthStat
		if err := rows.Scan(&it.Year, &it.Month, &it.Records, &it.Provinces); err != nil {
			return nil, fmt.Errorf("scan available months failed: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate available months failed: %w", err)
	}
	return out, nil
}
