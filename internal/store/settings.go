package store

import (
	"database/sql"
	"fmt"
	"strconv"
)

// 设置键
const (
	SettingLastRunID     = "last_run_id"
	SettingLastExport    = "last_export_file"
	SettingExportCounter = "export_counter"
)

// GetSetting 获取设置项，不存在返回 ErrNotFound
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("setting %s: %w", key, ErrNotFound)
		}
		return "", err
	}
	return value, nil
}

// GetSettingInt 获取整数设置项
func (s *Store) GetSettingInt(key string) (int, error) {
	value, err := s.GetSetting(key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// SetSetting 写入设置项
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// IncrSetting 整数设置项自增并返回新值（不存在时从 0 开始）
func (s *Store) IncrSetting(key string) (int, error) {
	var next int
	err := s.withTx(func(tx *sql.Tx) error {
		var cur string
		err := tx.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&cur)
		switch {
		case err == sql.ErrNoRows:
			next = 1
		case err != nil:
			return err
		default:
			n, err := strconv.Atoi(cur)
			if err != nil {
				return fmt.Errorf("setting %s is not an integer: %w", key, err)
			}
			next = n + 1
		}
		_, err = tx.Exec(`
			INSERT INTO config (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
		`, key, strconv.Itoa(next))
		return err
	})
	return next, err
}
