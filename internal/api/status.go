package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daohuymanh/bio-data-analysis/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized bool                  `json:"initialized"` // 是否已有导入数据
	Stats       store.ImportStats     `json:"stats"`
	Months      []store.YearMonthStat `json:"months"`    // 可用年月
	LastRunID   string                `json:"lastRunId"` // 最近一次导入
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	stats, err := h.store.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	months, err := h.store.ListAvailableYearMonths()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	lastRun, err := h.store.GetSetting(store.SettingLastRunID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		Initialized: stats.Records > 0,
		Stats:       stats,
		Months:      months,
		LastRunID:   lastRun,
	})
}
