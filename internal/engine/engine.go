package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"oracle/internal/feature"
	"oracle/internal/logger"
	"oracle/internal/market"
)

// Request 描述一次决策评估的输入。
type Request struct {
	Symbol     string
	MarketType MarketType
	Timeframe  string
	Frame      *market.Frame
	Context    *market.Context
}

// Option 配置 Engine。
type Option func(*Engine)

// WithTopDrivers 设置 top driver 数量，默认 5。
func WithTopDrivers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topN = n
		}
	}
}

// WithClock 注入时间源，测试用。
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator 注入决策 ID 生成器，测试用。
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// Engine 串起 Layer 1 打分、Layer 2 状态过滤与 Layer 2.5 共识校准。
// 自身无可变状态，同一实例可被并发调用。
type Engine struct {
	registry *feature.Registry
	resolver WeightResolver
	topN     int
	now      func() time.Time
	newID    func() string
}

func New(registry *feature.Registry, resolver WeightResolver, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		resolver: resolver,
		topN:     5,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate 对一个 (symbol, market_type, timeframe) 组合生成一条完整决策。
// 所有注册特征都无法评估时返回 ErrNoFeaturesEvaluated，
// 调用方据此区分“确信中性”与“无法评估”。
func (e *Engine) Evaluate(req Request) (*Decision, error) {
	if req.Frame == nil || req.Frame.Len() == 0 {
		return nil, fmt.Errorf("engine: empty frame for %s %s: %w", req.Symbol, req.Timeframe, ErrNoFeaturesEvaluated)
	}
	class := ClassifyTimeframe(req.Timeframe)

	// Layer 1
	outcome, err := runLayer1(e.registry, e.resolver, req.Frame, req.Context, class, req.Symbol, req.MarketType)
	if err != nil {
		return nil, fmt.Errorf("engine: %s %s %s: %w", req.Symbol, req.MarketType, req.Timeframe, err)
	}

	// Layer 2
	regime := analyzeRegime(outcome.Results)
	filteredScore := applyFilters(outcome.RawScore, &regime)
	signal, bias := scoreToSignal(filteredScore)

	maxPossible := MaxPossibleScore(e.resolver, e.enabledFeatureNames(req.MarketType), class, req.Symbol)
	confidence := baseConfidence(filteredScore, maxPossible)

	// Layer 2.5
	consensus := computeConsensus(outcome.Results)
	confidence = clampConfidence(float64(confidence) * consensus.ConfidenceMultiplier)

	entryPrice := req.Frame.Last().Close
	decision := &Decision{
		ID:                     e.newID(),
		Symbol:                 req.Symbol,
		MarketType:             req.MarketType,
		Timeframe:              req.Timeframe,
		Class:                  class,
		GeneratedAt:            e.now().UTC(),
		Signal:                 signal,
		Bias:                   bias,
		Confidence:             confidence,
		RawScore:               outcome.RawScore,
		FilteredScore:          filteredScore,
		MaxPossibleScore:       maxPossible,
		TradeParams:            buildTradeParams(signal, confidence, entryPrice, outcome.Results, regime),
		InvalidationConditions: buildInvalidations(signal, outcome.Results, regime),
		TopDrivers:             topDrivers(outcome.Contributions, e.topN),
		Regime:                 regime,
		Consensus:              consensus,
		Features:               outcome.Results,
	}

	logger.Infof("decision %s %s %s: signal=%s confidence=%d raw=%.3f filtered=%.3f consensus=%.0f%%",
		req.Symbol, req.MarketType, req.Timeframe,
		decision.Signal, decision.Confidence, decision.RawScore, decision.FilteredScore,
		consensus.ConsensusPercentage)

	return decision, nil
}

// enabledFeatureNames 返回当前市场类型下参与评估的特征名。
func (e *Engine) enabledFeatureNames(marketType MarketType) []string {
	var names []string
	for _, ev := range e.registry.All() {
		if ev.Category() == feature.CategoryDerivatives && !marketType.SupportsDerivatives() {
			continue
		}
		names = append(names, ev.Name())
	}
	return names
}

func clampConfidence(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v + 0.5)
}
