package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/daohuymanh/bio-data-analysis/internal/config"
	"github.com/daohuymanh/bio-data-analysis/internal/importer"
	"github.com/daohuymanh/bio-data-analysis/internal/model"
	"github.com/daohuymanh/bio-data-analysis/internal/parser"
	"github.com/daohuymanh/bio-data-analysis/internal/store"
)

// Import 上传并导入一个数据源 (SSE 流式响应)
// POST /api/import
func (h *Handler) Import(c *gin.Context) {
	uploaded, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing upload field \"file\""})
		return
	}

	opts := importer.ImportOptions{
		Kind:             model.SourceKind(strings.ToLower(c.PostForm("kind"))),
		OriginalFilename: filepath.Base(uploaded.Filename),
		Sheet:            c.PostForm("sheet"),
		Province:         c.PostForm("province"),
		Persist:          true,
		Cases: importer.CaseColumns{
			Province: c.PostForm("provinceCol"),
			District: c.PostForm("districtCol"),
			Month:    c.PostForm("monthCol"),
		},
	}
	if v := c.PostForm("resultCols"); v != "" {
		opts.Cases.Results = strings.Split(v, ",")
	}
	for field, dest := range map[string]*int{"year": &opts.Year, "monthMin": &opts.MonthMin, "monthMax": &opts.MonthMax} {
		v := c.PostForm(field)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s: %q", field, v)})
			return
		}
		*dest = n
	}

	// 保存到上传目录
	tempFilePath := config.GetDataPath(h.cfg, "uploads", uuid.New().String()+"_"+opts.OriginalFilename)
	opts.FilePath = tempFilePath
	if err := h.coordinator.ValidateOptions(opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := os.MkdirAll(filepath.Dir(tempFilePath), 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create upload directory"})
		return
	}
	if err := c.SaveUploadedFile(uploaded, tempFilePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save upload"})
		return
	}
	defer os.Remove(tempFilePath)

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	progressChan := h.coordinator.Import(c.Request.Context(), opts)
	for event := range progressChan {
		eventData, err := json.Marshal(event)
		if err != nil {
			log.WithError(err).Warn("failed to encode progress event")
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// ListImports 导入日志列表
// GET /api/imports?limit=N
func (h *Handler) ListImports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	items, err := h.store.ListImportLogs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetImport 单次导入详情（含每个 sheet 的结果）
// GET /api/imports/:id
func (h *Handler) GetImport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.store.GetImportLog(id)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	sheets, err := h.store.ListSheetMeta(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"import": item, "sheets": sheets})
}

// DeleteImport 删除一次导入及其记录
// DELETE /api/imports/:id
func (h *Handler) DeleteImport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteImport(id); err != nil {
		writeStoreError(c, err)
		return
	}
	log.WithField("import", id).Info("import deleted")
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, parser.ErrSourceUnreadable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
