package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oracle/internal/feature"
)

func TestBuildTradeParamsNeutralGivesNil(t *testing.T) {
	params := buildTradeParams(SignalNeutral, 50, 1000, []feature.Result{atrResult(0.5)}, RegimeContext{})
	assert.Nil(t, params)
}

func TestBuildTradeParamsRequiresATR(t *testing.T) {
	// 没有真实 ATR 读数（回退读数无 Metadata）时不给参数
	fallback := feature.Neutral("ATR", feature.CategoryTechnical, "insufficient data")
	params := buildTradeParams(SignalBuy, 50, 1000, []feature.Result{fallback}, RegimeContext{})
	assert.Nil(t, params)
}

func TestBuildTradeParamsBuySide(t *testing.T) {
	params := buildTradeParams(SignalStrongBuy, 80, 1000, []feature.Result{atrResult(0.5)}, RegimeContext{Volatility: VolatilityNormal})
	require.NotNil(t, params)

	// ATR=50，倍数 2.0：止损 1000-100，止盈 1000+100×2
	assert.True(t, params.StopLoss.Equal(decimal.NewFromInt(900)), "stop loss %s", params.StopLoss)
	assert.True(t, params.TakeProfit.Equal(decimal.NewFromInt(1200)), "take profit %s", params.TakeProfit)
	assert.True(t, params.RiskReward.Equal(decimal.NewFromFloat(2.0)))
	assert.True(t, params.ATRMultiplier.Equal(decimal.NewFromFloat(2.0)))
}

func TestBuildTradeParamsSellSide(t *testing.T) {
	params := buildTradeParams(SignalSell, 60, 1000, []feature.Result{atrResult(0.5)}, RegimeContext{Volatility: VolatilityNormal})
	require.NotNil(t, params)
	assert.True(t, params.StopLoss.Equal(decimal.NewFromInt(1100)), "stop loss %s", params.StopLoss)
	assert.True(t, params.TakeProfit.Equal(decimal.NewFromInt(800)), "take profit %s", params.TakeProfit)
}

func TestBuildTradeParamsHighVolWidensStop(t *testing.T) {
	params := buildTradeParams(SignalBuy, 60, 1000, []feature.Result{atrResult(0.9)}, RegimeContext{Volatility: VolatilityHigh})
	require.NotNil(t, params)
	// 倍数 2.5：风险 125
	assert.True(t, params.StopLoss.Equal(decimal.NewFromInt(875)), "stop loss %s", params.StopLoss)
	assert.True(t, params.ATRMultiplier.Equal(decimal.NewFromFloat(2.5)))
}

func TestBuildTradeParamsHighConfidenceStretchesTarget(t *testing.T) {
	params := buildTradeParams(SignalStrongBuy, 90, 1000, []feature.Result{atrResult(0.5)}, RegimeContext{})
	require.NotNil(t, params)
	assert.True(t, params.RiskReward.Equal(decimal.NewFromFloat(2.5)))
	// 风险 100 × 2.5
	assert.True(t, params.TakeProfit.Equal(decimal.NewFromInt(1250)), "take profit %s", params.TakeProfit)
}

func TestBuildInvalidationsBullishThesis(t *testing.T) {
	results := []feature.Result{
		{Name: "EMA_20_50", Category: feature.CategoryTechnical, Metadata: map[string]float64{"ema_fast": 105, "ema_slow": 98.5}},
		{Name: "DXY", Category: feature.CategoryMacro, Direction: 1, Metadata: map[string]float64{"change_pct": 1.5}},
	}
	regime := RegimeContext{Trend: TrendTrending, TrendStrength: TrendStrengthStrong}

	conditions := buildInvalidations(SignalBuy, results, regime)
	require.Len(t, conditions, 4)
	assert.Contains(t, conditions[0], "Close below EMA50 (98.50)")
	assert.Contains(t, conditions[1], "ADX drops below 18")
	assert.Contains(t, conditions[2], "DXY breaks above")
	assert.Contains(t, conditions[3], "Volatility spike")
}

func TestBuildInvalidationsBearishThesis(t *testing.T) {
	results := []feature.Result{
		{Name: "EMA_20_50", Category: feature.CategoryTechnical, Metadata: map[string]float64{"ema_slow": 101.2}},
	}
	conditions := buildInvalidations(SignalSell, results, RegimeContext{Volatility: VolatilityHigh})
	require.Len(t, conditions, 1)
	assert.Contains(t, conditions[0], "Close above EMA50 (101.20)")
}

func TestBuildInvalidationsNeutralOnlyVolatilityWatch(t *testing.T) {
	conditions := buildInvalidations(SignalNeutral, nil, RegimeContext{})
	require.Len(t, conditions, 1)
	assert.Contains(t, conditions[0], "Volatility spike")
}
