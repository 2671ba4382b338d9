package api

import (
	"github.com/gin-gonic/gin"

	"github.com/daohuymanh/bio-data-analysis/internal/config"
	"github.com/daohuymanh/bio-data-analysis/internal/importer"
	"github.com/daohuymanh/bio-data-analysis/internal/store"
)

// Handler API 处理器
type Handler struct {
	store       *store.Store
	cfg         *config.AppConfig
	coordinator *importer.Coordinator
	downloads   *exportDownloadStore
}

// NewHandler 创建 API 处理器
func NewHandler(st *store.Store, cfg *config.AppConfig, coordinator *importer.Coordinator) *Handler {
	return &Handler{
		store:       st,
		cfg:         cfg,
		coordinator: coordinator,
		downloads:   newExportDownloadStore(),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 数据导入
	router.POST("/import", h.Import)
	router.GET("/imports", h.ListImports)
	router.GET("/imports/:id", h.GetImport)
	router.DELETE("/imports/:id", h.DeleteImport)

	// 数据导出
	router.POST("/export", h.Export)
	router.GET("/export/download/:token", h.DownloadExport)
}
