package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oracle/internal/market"
)

func constSeries(name string, n int, v float64) *market.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = v
	}
	return &market.Series{Name: name, Values: values}
}

func rampSeries(name string, n int, start, step float64) *market.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	return &market.Series{Name: name, Values: values}
}

func TestFundingRateExtremePositive(t *testing.T) {
	ctx := &market.Context{
		Derivatives: &market.Derivatives{
			FundingRates: rampSeries("funding", 12, 0.01, 0.006),
		},
	}
	ev := NewFundingRate()
	res, err := ev.Evaluate(nil, ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Direction)
	assert.InDelta(t, (res.RawValue-0.05)/0.05, res.Strength, 1e-9)
	assert.Equal(t, 1.0, res.Metadata["percentile"])
}

func TestFundingRateMildNegative(t *testing.T) {
	ctx := &market.Context{
		Derivatives: &market.Derivatives{
			FundingRates: constSeries("funding", 5, -0.015),
		},
	}
	res, err := NewFundingRate().Evaluate(nil, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direction)
	assert.InDelta(t, 0.3, res.Strength, 1e-9)
}

func TestFundingRateMissingContext(t *testing.T) {
	_, err := NewFundingRate().Evaluate(nil, nil)
	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "FundingRate", insufficient.Feature)
}

func TestOpenInterestRisingWithPrice(t *testing.T) {
	ctx := &market.Context{
		Derivatives: &market.Derivatives{
			OpenInterest: &market.Series{Name: "oi", Values: []float64{100, 108}},
		},
	}
	res, err := NewOpenInterest().Evaluate(risingFrame(30, 100, 1), ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direction)
	assert.InDelta(t, 8.0, res.RawValue, 1e-9)
	assert.InDelta(t, 8.0/15, res.Strength, 1e-9)
}

func TestBasisPremiumAndDiscount(t *testing.T) {
	premium := &market.Context{
		Derivatives: &market.Derivatives{MarkPrice: 101, IndexPrice: 100, HasMarkIndex: true},
	}
	res, err := NewBasis().Evaluate(nil, premium)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direction)
	assert.InDelta(t, 1.0, res.RawValue, 1e-9)
	assert.InDelta(t, 0.5, res.Strength, 1e-9)

	discount := &market.Context{
		Derivatives: &market.Derivatives{MarkPrice: 99.5, IndexPrice: 100, HasMarkIndex: true},
	}
	res, err = NewBasis().Evaluate(nil, discount)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Direction)
	assert.InDelta(t, 0.5, res.Strength, 1e-9)
}

func TestLiquidationsLongCascade(t *testing.T) {
	ctx := &market.Context{
		Derivatives: &market.Derivatives{
			LongLiqUSD: 8_000_000, ShortLiqUSD: 1_000_000,
			AvgLiqUSD: 2_000_000, HasLiqData: true,
		},
	}
	res, err := NewLiquidations().Evaluate(nil, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direction)
	assert.InDelta(t, 4.5, res.RawValue, 1e-9)
	assert.InDelta(t, 0.3, res.Strength, 1e-9)
}

func TestOIVolumeRatioNeverDirectional(t *testing.T) {
	oi := rampSeries("oi", 60, 1000, 10)
	ctx := &market.Context{Derivatives: &market.Derivatives{OpenInterest: oi}}
	res, err := NewOIVolumeRatio().Evaluate(flatFrame(60, 100), ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Direction)
	require.NotNil(t, res.Metadata)
	assert.Contains(t, res.Metadata, "percentile")
}

func TestDXYRallyPressuresRisk(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 100
	}
	// 最近 5 期上破 20 日均线
	for i, v := range []float64{100.5, 101, 101.5, 102, 103} {
		values[45+i] = v
	}
	ctx := &market.Context{Macro: map[string]*market.Series{
		MacroKeyDXY: {Name: "DXY", Values: values},
	}}
	res, err := NewDXY().Evaluate(nil, ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Direction)
	assert.InDelta(t, 1.0, res.Strength, 1e-9) // +3% / 3 封顶
}

func TestVIXBands(t *testing.T) {
	cases := []struct {
		vix       float64
		direction int
	}{
		{40, 1},  // 极端恐慌反向看多
		{28, -1}, // 中度升温风险偏好下降
		{12, -1}, // 过度平静
		{18, 0},
	}
	for _, tc := range cases {
		ctx := &market.Context{Macro: map[string]*market.Series{
			MacroKeyVIX: constSeries("VIX", 3, tc.vix),
		}}
		res, err := NewVIX().Evaluate(nil, ctx)
		require.NoError(t, err)
		assert.Equal(t, tc.direction, res.Direction, "VIX=%.0f", tc.vix)
	}
}

func TestTreasury10YRisingYields(t *testing.T) {
	values := []float64{4.0, 4.0, 4.0, 4.0, 4.0, 4.0, 4.0, 4.0, 4.0, 4.1, 4.3}
	ctx := &market.Context{Macro: map[string]*market.Series{
		MacroKeyTNX: {Name: "TNX", Values: values},
	}}
	res, err := NewTreasury10Y().Evaluate(nil, ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Direction)
	assert.InDelta(t, 0.3/0.5, res.Strength, 1e-9)
}

func TestRealYieldsFallsBackToNominalMinusInflation(t *testing.T) {
	ctx := &market.Context{Macro: map[string]*market.Series{
		MacroKeyTNX:          rampSeries("TNX", 10, 4.0, 0.05),
		MacroKeyInflationExp: constSeries("INFLATION_EXP", 10, 2.0),
	}}
	res, err := NewRealYields().Evaluate(nil, ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Direction)
	assert.InDelta(t, 2.45, res.RawValue, 1e-9)
	assert.InDelta(t, 0.45/0.5, res.Strength, 1e-9)
}

func TestGoldSilverRatioElevated(t *testing.T) {
	ctx := &market.Context{Intermarket: map[string]*market.Series{
		InterKeyGold:   constSeries("GOLD", 50, 9000),
		InterKeySilver: constSeries("SILVER", 50, 100),
	}}
	res, err := NewGoldSilverRatio().Evaluate(nil, ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Direction)
	assert.InDelta(t, 90.0, res.RawValue, 1e-9)
	assert.InDelta(t, 0.25, res.Strength, 1e-9)
}

func TestCopperGoldRatioFallingGrowthFears(t *testing.T) {
	ctx := &market.Context{Intermarket: map[string]*market.Series{
		InterKeyCopper: rampSeries("COPPER", 25, 4.2, -0.01),
		InterKeyGold:   constSeries("GOLD", 25, 2000),
	}}
	res, err := NewCopperGoldRatio().Evaluate(nil, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direction)
	assert.Less(t, res.Metadata["change_pct"], -2.0)
}

func TestGoldOilRatioSafeHaven(t *testing.T) {
	ctx := &market.Context{Intermarket: map[string]*market.Series{
		InterKeyGold:  constSeries("GOLD", 25, 3300),
		InterKeyCrude: constSeries("CRUDE", 25, 100),
	}}
	res, err := NewGoldOilRatio().Evaluate(nil, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direction)
	assert.InDelta(t, 0.3, res.Strength, 1e-9)
}

func TestBTCDominanceFlipsBySymbol(t *testing.T) {
	values := []float64{55, 55, 55, 55, 55, 57}
	ctx := &market.Context{Intermarket: map[string]*market.Series{
		InterKeyBTCDominance: {Name: "BTC_DOMINANCE", Values: values},
	}}

	btcFrame := market.NewFrame("BTCUSDT", "1d", nil)
	res, err := NewBTCDominance().Evaluate(btcFrame, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direction)

	altFrame := market.NewFrame("ETHUSDT", "1d", nil)
	res, err = NewBTCDominance().Evaluate(altFrame, ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Direction)
}

func TestNewsSentimentContrarianWithUrgencyBoost(t *testing.T) {
	ctx := &market.Context{Sentiment: &market.Sentiment{
		FearIndex: 0.3, NewsCount: 12, Urgency: 0.8,
	}}
	res, err := NewNewsSentiment().Evaluate(nil, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direction)
	assert.InDelta(t, 0.3*2*1.3, res.Strength, 1e-9)
}

func TestMarketFearGaugeComposite(t *testing.T) {
	ctx := &market.Context{
		Macro: map[string]*market.Series{
			MacroKeyVIX: constSeries("VIX", 3, 35),
		},
		Sentiment: &market.Sentiment{FearIndex: 0.5, NewsCount: 4},
	}
	res, err := NewMarketFearGauge().Evaluate(nil, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direction)
	assert.InDelta(t, 0.8, res.RawValue, 1e-9) // (35-15)/20×0.6 + 0.5×0.4
	assert.InDelta(t, 0.8, res.Strength, 1e-9)
}
