package engine

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oracle/internal/feature"
)

func fixedEngine(reg *feature.Registry, resolver WeightResolver, opts ...Option) *Engine {
	base := []Option{
		WithClock(func() time.Time { return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC) }),
		WithIDGenerator(func() string { return "decision-0001" }),
	}
	return New(reg, resolver, append(base, opts...)...)
}

func TestEvaluateSingleBullDriver(t *testing.T) {
	reg := stubRegistry(
		stub("Alpha", feature.CategoryTechnical, 1, 0.8),
		stub("N1", feature.CategoryTechnical, 0, 0.2),
		stub("N2", feature.CategoryMacro, 0, 0.2),
		stub("N3", feature.CategoryIntermarket, 0, 0.2),
		stub("N4", feature.CategorySentiment, 0, 0.2),
	)
	eng := fixedEngine(reg, NewStaticResolver())

	decision, err := eng.Evaluate(Request{
		Symbol: "BTCUSDT", MarketType: MarketPerpetual, Timeframe: "1h",
		Frame: testFrame(10, 100),
	})
	require.NoError(t, err)

	assert.Equal(t, SignalWeakBuy, decision.Signal)
	assert.Equal(t, BiasBullish, decision.Bias)
	assert.InDelta(t, 0.8, decision.RawScore, 1e-9)
	assert.InDelta(t, 0.8, decision.FilteredScore, 1e-9)
	assert.InDelta(t, 5.0, decision.MaxPossibleScore, 1e-9)
	// 0.8/5 × 100 = 16，共识 100% 不打折
	assert.Equal(t, 16, decision.Confidence)

	require.Len(t, decision.TopDrivers, 1)
	assert.Equal(t, "Alpha", decision.TopDrivers[0].Feature)
	assert.Nil(t, decision.TradeParams) // 无 ATR 读数
	assert.Equal(t, ClassShort, decision.Class)
	assert.Len(t, decision.Features, 5)
}

func TestEvaluateEmptyFrame(t *testing.T) {
	eng := fixedEngine(stubRegistry(stub("A", feature.CategoryTechnical, 1, 1)), NewStaticResolver())
	_, err := eng.Evaluate(Request{Symbol: "BTCUSDT", MarketType: MarketSpot, Timeframe: "1h"})
	assert.ErrorIs(t, err, ErrNoFeaturesEvaluated)
}

func TestEvaluateAllFeaturesStarved(t *testing.T) {
	reg := stubRegistry(
		&stubFeature{name: "A", category: feature.CategoryTechnical, err: &feature.InsufficientDataError{Feature: "A", Need: 9, Got: 1}},
		&stubFeature{name: "B", category: feature.CategoryMacro, err: errors.New("feed down")},
	)
	eng := fixedEngine(reg, NewStaticResolver())
	_, err := eng.Evaluate(Request{Symbol: "BTCUSDT", MarketType: MarketPerpetual, Timeframe: "1h", Frame: testFrame(10, 100)})
	assert.ErrorIs(t, err, ErrNoFeaturesEvaluated)
}

func TestEvaluateDeterministic(t *testing.T) {
	reg := stubRegistry(
		stub("Alpha", feature.CategoryTechnical, 1, 0.8),
		stub("Beta", feature.CategoryMacro, -1, 0.4),
		stub("Gamma", feature.CategoryDerivatives, 1, 0.6),
	)
	eng := fixedEngine(reg, NewStaticResolver())
	req := Request{Symbol: "ETHUSDT", MarketType: MarketPerpetual, Timeframe: "4h", Frame: testFrame(20, 2500)}

	first, err := eng.Evaluate(req)
	require.NoError(t, err)
	second, err := eng.Evaluate(req)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEvaluateMonotoneInWeights(t *testing.T) {
	reg := stubRegistry(
		stub("Alpha", feature.CategoryTechnical, 1, 0.8),
		stub("Beta", feature.CategoryMacro, 0, 0.2),
	)
	req := Request{Symbol: "BTCUSDT", MarketType: MarketPerpetual, Timeframe: "1h", Frame: testFrame(10, 100)}

	low, err := fixedEngine(reg, NewStaticResolver()).Evaluate(req)
	require.NoError(t, err)
	high, err := fixedEngine(reg, NewStaticResolver(
		Override{Feature: "Alpha", Class: ClassShort, Weight: 2.0},
	)).Evaluate(req)
	require.NoError(t, err)

	// 多头特征加权后，总分只增不减
	assert.Greater(t, high.RawScore, low.RawScore)
	assert.InDelta(t, 1.6, high.RawScore, 1e-9)
}

func TestEvaluateStrongBuyWithTradeParams(t *testing.T) {
	atrStub := &stubFeature{
		name: "ATR", category: feature.CategoryTechnical,
		result: feature.Result{
			Name: "ATR", Category: feature.CategoryTechnical,
			RawValue: 50, Direction: 0, Strength: 0.2,
			Metadata: map[string]float64{"atr_pct": 5, "percentile": 0.5},
		},
	}
	reg := stubRegistry(stub("Driver", feature.CategoryTechnical, 1, 1.0), atrStub)
	resolver := NewStaticResolver(Override{Feature: "Driver", Class: ClassShort, Weight: 4.0})
	eng := fixedEngine(reg, resolver)

	decision, err := eng.Evaluate(Request{
		Symbol: "BTCUSDT", MarketType: MarketPerpetual, Timeframe: "1h",
		Frame: testFrame(10, 1000),
	})
	require.NoError(t, err)

	assert.Equal(t, SignalStrongBuy, decision.Signal)
	assert.Equal(t, 80, decision.Confidence) // 4 / (4+1) × 100

	require.NotNil(t, decision.TradeParams)
	assert.Equal(t, "900", decision.TradeParams.StopLoss.String())
	assert.Equal(t, "1200", decision.TradeParams.TakeProfit.String())
	assert.Equal(t, "2", decision.TradeParams.RiskReward.String())
	assert.NotEmpty(t, decision.InvalidationConditions)
}

func TestEvaluateRegimeFiltersDemoteSignal(t *testing.T) {
	// 原始分 2.0 本应 BUY，弱趋势 + 高波动双过滤后 0.96 → WEAK_BUY
	adxStub := &stubFeature{name: "ADX", category: feature.CategoryTechnical, result: adxResult(15)}
	atrStub := &stubFeature{name: "ATR", category: feature.CategoryTechnical, result: atrResult(0.9)}
	reg := stubRegistry(stub("Driver", feature.CategoryTechnical, 1, 1.0), adxStub, atrStub)
	resolver := NewStaticResolver(
		Override{Feature: "Driver", Class: ClassShort, Weight: 2.0},
		Override{Feature: "ADX", Class: ClassShort, Weight: 1.0},
		Override{Feature: "ATR", Class: ClassShort, Weight: 1.0},
	)
	eng := fixedEngine(reg, resolver)

	decision, err := eng.Evaluate(Request{
		Symbol: "BTCUSDT", MarketType: MarketPerpetual, Timeframe: "1h",
		Frame: testFrame(10, 1000),
	})
	require.NoError(t, err)

	assert.InDelta(t, 2.0, decision.RawScore, 1e-9)
	assert.InDelta(t, 0.96, decision.FilteredScore, 1e-9)
	assert.Equal(t, SignalWeakBuy, decision.Signal)
	assert.Len(t, decision.Regime.FiltersApplied, 2)
	assert.InDelta(t, 0.48, decision.Regime.ScoreMultiplier, 1e-9)
	// 高波动档位下止损倍数放大
	require.NotNil(t, decision.TradeParams)
	assert.Equal(t, "2.5", decision.TradeParams.ATRMultiplier.String())
}

func TestEvaluateSpotExcludesDerivativesFromNormalization(t *testing.T) {
	reg := stubRegistry(
		stub("Tech", feature.CategoryTechnical, 1, 0.5),
		stub("Funding", feature.CategoryDerivatives, -1, 1.0),
	)
	eng := fixedEngine(reg, NewStaticResolver())

	decision, err := eng.Evaluate(Request{
		Symbol: "BTCUSDT", MarketType: MarketSpot, Timeframe: "1h",
		Frame: testFrame(10, 100),
	})
	require.NoError(t, err)

	assert.Len(t, decision.Features, 1)
	assert.InDelta(t, 1.0, decision.MaxPossibleScore, 1e-9)
	assert.InDelta(t, 0.5, decision.RawScore, 1e-9)
}

func TestDecisionJSONRoundTrip(t *testing.T) {
	reg := stubRegistry(
		stub("Alpha", feature.CategoryTechnical, 1, 0.9),
		stub("Beta", feature.CategoryMacro, -1, 0.4),
	)
	eng := fixedEngine(reg, NewStaticResolver())
	decision, err := eng.Evaluate(Request{
		Symbol: "BTCUSDT", MarketType: MarketPerpetual, Timeframe: "1d",
		Frame: testFrame(10, 100),
	})
	require.NoError(t, err)

	raw, err := json.Marshal(decision)
	require.NoError(t, err)

	var restored Decision
	require.NoError(t, json.Unmarshal(raw, &restored))

	assert.Equal(t, decision.ID, restored.ID)
	assert.Equal(t, decision.Signal, restored.Signal)
	assert.Equal(t, decision.Bias, restored.Bias)
	assert.Equal(t, decision.Confidence, restored.Confidence)
	assert.Equal(t, decision.Consensus.AgreementLevel, restored.Consensus.AgreementLevel)
	assert.Equal(t, decision.Regime.Trend, restored.Regime.Trend)
	assert.True(t, decision.GeneratedAt.Equal(restored.GeneratedAt))
}
