package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"oracle/internal/config"
	"oracle/internal/engine"
	"oracle/internal/gateway/binance"
	"oracle/internal/logger"
	"oracle/internal/market"
	"oracle/internal/store/decisionstore"
)

// AnalysisService 串起 数据源 → 决策引擎 → 持久化。
type AnalysisService struct {
	engine *engine.Engine
	source *binance.Source
	store  *decisionstore.Store
	cfg    config.AnalysisConfig
}

func NewAnalysisService(
	eng *engine.Engine,
	source *binance.Source,
	store *decisionstore.Store,
	cfg config.AnalysisConfig,
) *AnalysisService {
	return &AnalysisService{engine: eng, source: source, store: store, cfg: cfg}
}

// Analyze 对单个 (symbol, market_type, timeframe) 跑一次完整决策并落库。
func (s *AnalysisService) Analyze(
	ctx context.Context,
	symbol string,
	marketType engine.MarketType,
	timeframe string,
) (*engine.Decision, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	frame, err := s.source.FetchHistory(ctx, symbol, timeframe, s.cfg.CandleLimit)
	if err != nil {
		return nil, fmt.Errorf("analyze %s %s: %w", symbol, timeframe, err)
	}

	marketCtx, err := s.fetchContext(ctx, symbol, marketType)
	if err != nil {
		// 上下文数据缺失只影响对应特征，相关评估器会按数据不足降级
		logger.Warnf("fetch context for %s failed: %v", symbol, err)
	}

	decision, err := s.engine.Evaluate(engine.Request{
		Symbol:     symbol,
		MarketType: marketType,
		Timeframe:  timeframe,
		Frame:      frame,
		Context:    marketCtx,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, decision); err != nil {
		return nil, fmt.Errorf("save decision %s %s: %w", symbol, timeframe, err)
	}
	return decision, nil
}

func (s *AnalysisService) fetchContext(ctx context.Context, symbol string, marketType engine.MarketType) (*market.Context, error) {
	if !marketType.SupportsDerivatives() {
		return nil, nil
	}
	return s.source.FetchContext(ctx, symbol)
}

// RunBatch 对一个周期下的全部标的并行分析。
// 单个标的失败只记日志，不中断整批。
func (s *AnalysisService) RunBatch(ctx context.Context, timeframe string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxParallel)
	for _, sym := range s.cfg.Symbols {
		sym := sym
		g.Go(func() error {
			marketType := engine.MarketType(strings.ToUpper(sym.MarketType))
			decision, err := s.Analyze(gctx, sym.Symbol, marketType, timeframe)
			if err != nil {
				logger.Errorf("batch analyze %s %s failed: %v", sym.Symbol, timeframe, err)
				return nil
			}
			logger.Infof("batch analyze %s %s: %s (confidence %d)",
				sym.Symbol, timeframe, decision.Signal, decision.Confidence)
			return nil
		})
	}
	_ = g.Wait()
}
