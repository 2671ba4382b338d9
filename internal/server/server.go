package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/daohuymanh/bio-data-analysis/internal/api"
	"github.com/daohuymanh/bio-data-analysis/internal/config"
	"github.com/daohuymanh/bio-data-analysis/internal/importer"
	"github.com/daohuymanh/bio-data-analysis/internal/store"
)

// Server HTTP服务器
type Server struct {
	router      *gin.Engine
	store       *store.Store
	coordinator *importer.Coordinator
	api         *api.Handler
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) (*Server, error) {
	if _, err := config.EnsureDataDir(cfg); err != nil {
		return nil, err
	}
	st, err := store.New(config.DBPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return New(cfg, st), nil
}

// New 基于已打开的存储创建服务器
func New(cfg *config.AppConfig, st *store.Store) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	coordinator := importer.NewCoordinator(st, cfg)
	s := &Server{
		router:      gin.New(),
		store:       st,
		coordinator: coordinator,
		api:         api.NewHandler(st, cfg, coordinator),
	}
	s.setupRoutes()
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), requestLogger())

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	group := s.router.Group("/api")
	{
		s.api.RegisterRoutes(group)
	}

	s.router.GET("/metrics", gin.WrapH(s.coordinator.Metrics().Handler()))
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

// requestLogger 访问日志（logrus）
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("request")
	}
}

// Handler 底层 http.Handler（用于测试）
func (s *Server) Handler() *gin.Engine {
	return s.router
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	log.WithField("addr", addr).Info("server listening")
	return s.router.Run(addr)
}

// Close 关闭存储
func (s *Server) Close() error {
	return s.store.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
