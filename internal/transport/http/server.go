// Package resthttp 提供决策查询与按需分析的 REST 接口。
package resthttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"oracle/internal/engine"
	"oracle/internal/logger"
	"oracle/internal/store/decisionstore"
)

// Analyzer 是按需分析的入口，由 app 层实现。
type Analyzer interface {
	Analyze(ctx context.Context, symbol string, marketType engine.MarketType, timeframe string) (*engine.Decision, error)
}

// Server 决策服务的 HTTP 入口。
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig 描述 HTTP 服务依赖。
type ServerConfig struct {
	Addr     string
	Store    *decisionstore.Store
	Analyzer Analyzer
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("http server requires a decision store")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9991"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/decisions", listDecisions(cfg.Store))
	api.GET("/decisions/latest", latestDecision(cfg.Store))
	if cfg.Analyzer != nil {
		api.POST("/analyze", analyze(cfg.Analyzer))
	}

	return &Server{addr: cfg.Addr, router: router}, nil
}

func listDecisions(store *decisionstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		records, err := store.List(c.Request.Context(), c.Query("symbol"), c.Query("timeframe"), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"decisions": records, "count": len(records)})
	}
}

func latestDecision(store *decisionstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := c.Query("symbol")
		timeframe := c.Query("timeframe")
		if symbol == "" || timeframe == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "symbol and timeframe are required"})
			return
		}
		record, err := store.Latest(c.Request.Context(), symbol, timeframe)
		if errors.Is(err, decisionstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no decision found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

type analyzeRequest struct {
	Symbol     string `json:"symbol" binding:"required"`
	MarketType string `json:"market_type"`
	Timeframe  string `json:"timeframe" binding:"required"`
}

func analyze(analyzer Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req analyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		marketType := engine.MarketType(req.MarketType)
		if marketType == "" {
			marketType = engine.MarketPerpetual
		}
		decision, err := analyzer.Analyze(c.Request.Context(), req.Symbol, marketType, req.Timeframe)
		if err != nil {
			if errors.Is(err, engine.ErrNoFeaturesEvaluated) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, decision)
	}
}

// requestLogger 记录接口调用，便于追踪人工触发的分析。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
