package feature

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oracle/internal/market"
)

// risingFrame 构造单调上涨的 K 线序列。
func risingFrame(n int, start, step float64) *market.Frame {
	candles := make([]market.Candle, n)
	price := start
	for i := 0; i < n; i++ {
		candles[i] = market.Candle{
			OpenTime:  int64(i) * 3600_000,
			CloseTime: int64(i+1)*3600_000 - 1,
			Open:      price,
			High:      price + step,
			Low:       price - step/2,
			Close:     price + step,
			Volume:    1000,
		}
		price += step
	}
	return market.NewFrame("BTCUSDT", "1h", candles)
}

func fallingFrame(n int, start, step float64) *market.Frame {
	candles := make([]market.Candle, n)
	price := start
	for i := 0; i < n; i++ {
		candles[i] = market.Candle{
			OpenTime:  int64(i) * 3600_000,
			CloseTime: int64(i+1)*3600_000 - 1,
			Open:      price,
			High:      price + step/2,
			Low:       price - step,
			Close:     price - step,
			Volume:    1000,
		}
		price -= step
	}
	return market.NewFrame("BTCUSDT", "1h", candles)
}

func flatFrame(n int, price float64) *market.Frame {
	candles := make([]market.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = market.Candle{
			OpenTime: int64(i) * 3600_000,
			Open:     price, High: price * 1.001, Low: price * 0.999,
			Close: price, Volume: 1000,
		}
	}
	return market.NewFrame("BTCUSDT", "1h", candles)
}

func TestRSIOverbought(t *testing.T) {
	ev := NewRSI(14)
	res, err := ev.Evaluate(risingFrame(60, 100, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Direction)
	assert.Greater(t, res.RawValue, 70.0)
	assert.GreaterOrEqual(t, res.Strength, 0.0)
	assert.LessOrEqual(t, res.Strength, 1.0)
	assert.NoError(t, res.Validate())
}

func TestRSIOversold(t *testing.T) {
	ev := NewRSI(14)
	res, err := ev.Evaluate(fallingFrame(60, 500, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direction)
	assert.Less(t, res.RawValue, 30.0)
}

func TestRSIInsufficientData(t *testing.T) {
	ev := NewRSI(14)
	_, err := ev.Evaluate(risingFrame(5, 100, 1), nil)
	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "RSI", insufficient.Feature)
	assert.Equal(t, 5, insufficient.Got)
}

func TestMACDBullishInUptrend(t *testing.T) {
	// 加速上涨：MACD 柱持续为正
	candles := make([]market.Candle, 80)
	price := 100.0
	for i := range candles {
		candles[i] = market.Candle{
			Open: price, High: price * 1.01, Low: price * 0.995,
			Close: price * 1.02, Volume: 1000,
		}
		price *= 1.02
	}
	frame := market.NewFrame("BTCUSDT", "1h", candles)

	ev := NewMACD(12, 26, 9)
	res, err := ev.Evaluate(frame, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direction)
	assert.Greater(t, res.RawValue, 0.0)
}

func TestStochasticOverbought(t *testing.T) {
	ev := NewStochastic(14, 3)
	res, err := ev.Evaluate(risingFrame(60, 100, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Direction)
	assert.GreaterOrEqual(t, res.RawValue, 80.0)
}

func TestBollingerBandsBreakAboveUpper(t *testing.T) {
	frame := flatFrame(40, 100)
	// 末根大阳线突破上轨
	last := frame.Candles[len(frame.Candles)-1]
	last.Close = 110
	last.High = 110
	frame.Candles[len(frame.Candles)-1] = last

	ev := NewBollingerBands(20, 2)
	res, err := ev.Evaluate(frame, nil)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Direction)
	assert.Greater(t, res.RawValue, 1.0) // %B > 1
}

func TestATRMetadataCarriesPercentile(t *testing.T) {
	ev := NewATR(14)
	res, err := ev.Evaluate(risingFrame(80, 100, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Direction)
	require.NotNil(t, res.Metadata)
	pct := res.Metadata["percentile"]
	assert.GreaterOrEqual(t, pct, 0.0)
	assert.LessOrEqual(t, pct, 1.0)
}

func TestADXTrendHelper(t *testing.T) {
	dir, strength := adxTrend(15, 30, 10)
	assert.Equal(t, 0, dir)
	assert.Zero(t, strength)

	dir, strength = adxTrend(45, 30, 5)
	assert.Equal(t, 1, dir)
	assert.InDelta(t, 0.15, strength, 1e-9) // (45-40)/40 × 1.2

	dir, strength = adxTrend(25, 5, 30)
	assert.Equal(t, -1, dir)
	assert.InDelta(t, (25.0-18)/22*1.2, strength, 1e-9)
}

func TestSMADistance(t *testing.T) {
	frame := flatFrame(40, 100)
	last := frame.Candles[len(frame.Candles)-1]
	last.Close = 106
	frame.Candles[len(frame.Candles)-1] = last

	ev := NewSMA(20)
	res, err := ev.Evaluate(frame, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direction)
}

func TestVWAPStretchedAbove(t *testing.T) {
	frame := flatFrame(40, 100)
	last := frame.Candles[len(frame.Candles)-1]
	last.Close = 104
	last.High = 104
	frame.Candles[len(frame.Candles)-1] = last

	ev := NewVWAP()
	res, err := ev.Evaluate(frame, nil)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Direction)
}

func TestVolumeRatioSpikeWithPriceMove(t *testing.T) {
	frame := flatFrame(40, 100)
	last := frame.Candles[len(frame.Candles)-1]
	last.Volume = 3500 // 3.5 倍均量
	last.Close = 102   // 上涨超过 1%
	last.High = 102
	frame.Candles[len(frame.Candles)-1] = last

	ev := NewVolumeRatio(20)
	res, err := ev.Evaluate(frame, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direction)
	assert.Greater(t, res.RawValue, 2.0)
}

func TestPriceMomentumStrongUp(t *testing.T) {
	ev := NewPriceMomentum(5, 10, 20)
	res, err := ev.Evaluate(risingFrame(40, 100, 2), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direction)
	assert.Greater(t, res.RawValue, 2.0)
}

func TestEvaluatorsStayWithinInvariants(t *testing.T) {
	frames := []*market.Frame{
		risingFrame(250, 100, 1),
		fallingFrame(250, 1000, 1),
		flatFrame(250, 100),
	}
	evaluators := []Evaluator{
		NewRSI(14), NewMACD(12, 26, 9), NewStochastic(14, 3),
		NewBollingerBands(20, 2), NewBBWidth(20, 2), NewATR(14),
		NewADX(14), NewEMACross(20, 50), NewSMA(20), NewMACross(50, 200),
		NewPriceMomentum(5, 10, 20), NewSupertrend(10, 3),
		NewVWAP(), NewVolumeRatio(20),
	}
	for _, frame := range frames {
		for _, ev := range evaluators {
			res, err := ev.Evaluate(frame, nil)
			if err != nil {
				var insufficient *InsufficientDataError
				require.True(t, errors.As(err, &insufficient), "%s: unexpected error %v", ev.Name(), err)
				continue
			}
			require.NoError(t, res.Validate(), "evaluator %s", ev.Name())
			assert.False(t, math.IsNaN(res.Strength), "evaluator %s", ev.Name())
		}
	}
}

func TestPercentileRank(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.InDelta(t, 1.0, percentileRank(series, 50), 1e-9)

	low := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	assert.InDelta(t, 0.0, percentileRank(low, 50), 1e-9)

	assert.InDelta(t, 0.5, percentileRank(nil, 50), 1e-9)
}

func TestRollingMean(t *testing.T) {
	out := rollingMean([]float64{2, 4, 6, 8}, 2)
	assert.True(t, math.IsNaN(out[0]))
	assert.InDelta(t, 3, out[1], 1e-9)
	assert.InDelta(t, 5, out[2], 1e-9)
	assert.InDelta(t, 7, out[3], 1e-9)
}
