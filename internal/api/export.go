package api

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/daohuymanh/bio-data-analysis/internal/config"
	"github.com/daohuymanh/bio-data-analysis/internal/exporter"
	"github.com/daohuymanh/bio-data-analysis/internal/store"
)

const downloadTTL = 10 * time.Minute

type exportRequest struct {
	Format string `json:"format" binding:"omitempty,oneof=xlsx csv"`
}

// Export 把所有已完成导入合并后写到 exports 目录，返回一次性下载地址
// POST /api/export
func (h *Handler) Export(c *gin.Context) {
	var req exportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Format == "" {
		req.Format = "xlsx"
	}

	table, err := h.store.LoadMergedTable()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	seq, err := h.store.IncrSetting(store.SettingExportCounter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	name := fmt.Sprintf("EDENGUE_merged_%s_%03d.%s", time.Now().Format("20060102"), seq, req.Format)
	path := config.GetDataPath(h.cfg, "exports", name)
	if err := exporter.SaveTable(table, path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write export: " + err.Error()})
		return
	}
	if err := h.store.SetSetting(store.SettingLastExport, path); err != nil {
		log.WithError(err).Warn("failed to record last export")
	}

	token := h.downloads.put(path, table.Len(), downloadTTL)
	log.WithFields(log.Fields{"file": name, "rows": table.Len()}).Info("export written")

	c.JSON(http.StatusOK, gin.H{
		"file":        name,
		"rows":        table.Len(),
		"columns":     table.Columns,
		"downloadUrl": "/api/export/download/" + token,
	})
}

// DownloadExport 下载导出文件（令牌一次性有效）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "download link expired"})
		return
	}
	if _, err := os.Stat(item.filePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "export file not found"})
		return
	}

	name := filepath.Base(item.filePath)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Header("Content-Type", contentTypeFor(name))
	c.File(item.filePath)
}

func contentTypeFor(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
