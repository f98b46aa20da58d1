// Package app 负责装配：配置 → 注册表/权重/引擎/数据源/存储/HTTP，
// 并以 errgroup 驱动定时分析与 API 服务。
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"oracle/internal/config"
	"oracle/internal/engine"
	"oracle/internal/feature"
	"oracle/internal/gateway/binance"
	"oracle/internal/logger"
	"oracle/internal/scheduler"
	"oracle/internal/store/decisionstore"
	resthttp "oracle/internal/transport/http"
)

// App 聚合全部运行时组件。
type App struct {
	cfg     *config.Config
	store   *decisionstore.Store
	server  *resthttp.Server
	service *AnalysisService
}

func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config is nil")
	}

	registry := feature.NewDefaultRegistry()
	resolver := engine.NewStaticResolver(weightOverrides(cfg.Weights)...)
	eng := engine.New(registry, resolver, engine.WithTopDrivers(cfg.Analysis.TopDrivers))

	source, err := binance.New(binance.Config{
		RESTBaseURL:  cfg.Market.RESTBaseURL,
		HTTPTimeout:  time.Duration(cfg.Market.HTTPTimeoutSeconds) * time.Second,
		ProxyEnabled: cfg.Market.ProxyEnabled,
		RESTProxyURL: cfg.Market.RESTProxyURL,
	})
	if err != nil {
		return nil, fmt.Errorf("app: init binance source: %w", err)
	}

	store, err := decisionstore.New(cfg.Store.DecisionDB)
	if err != nil {
		return nil, fmt.Errorf("app: init decision store: %w", err)
	}

	service := NewAnalysisService(eng, source, store, cfg.Analysis)

	server, err := resthttp.NewServer(resthttp.ServerConfig{
		Addr:     cfg.App.HTTPAddr,
		Store:    store,
		Analyzer: service,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("app: init http server: %w", err)
	}

	return &App{cfg: cfg, store: store, server: server, service: service}, nil
}

// Run 启动 HTTP 服务与各周期的对齐调度循环，直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("http server listening on %s", a.server.Addr())
		return a.server.Start(gctx)
	})

	offset := time.Duration(a.cfg.Analysis.OffsetSeconds) * time.Second
	for _, tf := range a.cfg.Analysis.Timeframes {
		tf := tf
		iv, ok := scheduler.ParseInterval(tf)
		if !ok {
			logger.Warnf("skip unschedulable timeframe %q", tf)
			continue
		}
		g.Go(func() error {
			sch := scheduler.NewAlignedScheduler(gctx, iv, offset)
			sch.RunImmediately = a.cfg.Analysis.RunImmediately
			sch.Start(func() {
				a.service.RunBatch(gctx, tf)
			})
			return nil
		})
	}

	return g.Wait()
}

func weightOverrides(entries []config.WeightOverride) []engine.Override {
	out := make([]engine.Override, 0, len(entries))
	for _, e := range entries {
		out = append(out, engine.Override{
			Feature: e.Feature,
			Class:   engine.TimeframeClass(strings.ToUpper(strings.TrimSpace(e.Class))),
			Symbol:  strings.ToUpper(strings.TrimSpace(e.Symbol)),
			Weight:  e.Weight,
		})
	}
	return out
}
