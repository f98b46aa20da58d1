package feature

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"oracle/internal/market"
)

// RSI 超买超卖读数。超卖偏多、超买偏空，中性区给弱信号。
type RSI struct {
	period int
}

func NewRSI(period int) *RSI {
	if period <= 0 {
		period = 14
	}
	return &RSI{period: period}
}

func (f *RSI) Name() string       { return "RSI" }
func (f *RSI) Category() Category { return CategoryTechnical }

func (f *RSI) Evaluate(frame *market.Frame, _ *market.Context) (Result, error) {
	if frame.Len() < f.period+1 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: f.period + 1, Got: frame.Len()}
	}
	series := talib.Rsi(frame.Closes(), f.period)
	rsi := lastValid(series)

	var direction int
	var strength float64
	var explanation string
	switch {
	case rsi >= 70:
		direction = -1
		strength = capStrength((rsi - 70) / 30)
		explanation = fmt.Sprintf("RSI at %.2f - overbought, bearish signal", rsi)
	case rsi <= 30:
		direction = 1
		strength = capStrength((30 - rsi) / 30)
		explanation = fmt.Sprintf("RSI at %.2f - oversold, bullish signal", rsi)
	case rsi > 50:
		direction = -1
		strength = (rsi - 50) / 20 * 0.3
		explanation = fmt.Sprintf("RSI at %.2f - neutral zone", rsi)
	default:
		direction = 1
		strength = (50 - rsi) / 20 * 0.3
		explanation = fmt.Sprintf("RSI at %.2f - neutral zone", rsi)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    rsi,
		Direction:   direction,
		Strength:    capStrength(strength),
		Explanation: explanation,
	}, nil
}

// MACD 柱状图交叉信号，新交叉加成。
type MACD struct {
	fast, slow, signal int
}

func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{fast: fast, slow: slow, signal: signal}
}

func (f *MACD) Name() string       { return "MACD" }
func (f *MACD) Category() Category { return CategoryTechnical }

func (f *MACD) Evaluate(frame *market.Frame, _ *market.Context) (Result, error) {
	need := f.slow + f.signal + 1
	if frame.Len() < need {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: need, Got: frame.Len()}
	}
	macdLine, signalLine, hist := talib.Macd(frame.Closes(), f.fast, f.slow, f.signal)
	currHist := lastValid(hist)
	prevHist := prevValid(hist, 0)
	currMACD := lastValid(macdLine)
	currSignal := lastValid(signalLine)

	crossedUp := prevHist <= 0 && currHist > 0
	crossedDown := prevHist >= 0 && currHist < 0
	strength := capStrength(math.Abs(currHist) / 5.0)

	var direction int
	var explanation string
	switch {
	case crossedUp || (currMACD > currSignal && currHist > 0):
		direction = 1
		if crossedUp {
			strength = capStrength(strength * 1.5)
			explanation = "MACD crossed above signal - bullish"
		} else {
			explanation = fmt.Sprintf("MACD histogram: %.4f", currHist)
		}
	case crossedDown || (currMACD < currSignal && currHist < 0):
		direction = -1
		if crossedDown {
			strength = capStrength(strength * 1.5)
			explanation = "MACD crossed below signal - bearish"
		} else {
			explanation = fmt.Sprintf("MACD histogram: %.4f", currHist)
		}
	default:
		direction = 0
		strength = 0
		explanation = fmt.Sprintf("MACD histogram: %.4f", currHist)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    currHist,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
	}, nil
}

// Stochastic 随机指标 %K/%D。
type Stochastic struct {
	kPeriod, dPeriod int
}

func NewStochastic(kPeriod, dPeriod int) *Stochastic {
	return &Stochastic{kPeriod: kPeriod, dPeriod: dPeriod}
}

func (f *Stochastic) Name() string       { return "Stochastic" }
func (f *Stochastic) Category() Category { return CategoryTechnical }

func (f *Stochastic) Evaluate(frame *market.Frame, _ *market.Context) (Result, error) {
	need := f.kPeriod + f.dPeriod + 1
	if frame.Len() < need {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: need, Got: frame.Len()}
	}
	k, d := talib.Stoch(frame.Highs(), frame.Lows(), frame.Closes(), f.kPeriod, f.dPeriod, talib.SMA, f.dPeriod, talib.SMA)
	currK := lastValid(k)
	currD := lastValid(d)

	var direction int
	var strength float64
	var explanation string
	switch {
	case currK >= 80:
		direction = -1
		strength = capStrength((currK - 80) / 20)
		explanation = fmt.Sprintf("Stochastic %%K at %.2f - overbought", currK)
	case currK <= 20:
		direction = 1
		strength = capStrength((20 - currK) / 20)
		explanation = fmt.Sprintf("Stochastic %%K at %.2f - oversold", currK)
	case currK > currD:
		direction = 1
		strength = 0.3
		explanation = "Stochastic %K above %D - mildly bullish"
	default:
		direction = -1
		strength = 0.3
		explanation = "Stochastic %K below %D - mildly bearish"
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    currK,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"k": currK, "d": currD},
	}, nil
}

// BollingerBands 以 %B 定位价格在带内的位置。
type BollingerBands struct {
	period int
	stdDev float64
}

func NewBollingerBands(period int, stdDev float64) *BollingerBands {
	return &BollingerBands{period: period, stdDev: stdDev}
}

func (f *BollingerBands) Name() string       { return "BollingerBands" }
func (f *BollingerBands) Category() Category { return CategoryTechnical }

func (f *BollingerBands) Evaluate(frame *market.Frame, _ *market.Context) (Result, error) {
	if frame.Len() < f.period+1 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: f.period + 1, Got: frame.Len()}
	}
	upper, middle, lower := talib.BBands(frame.Closes(), f.period, f.stdDev, f.stdDev, talib.SMA)
	price := frame.Last().Close
	u, m, l := lastValid(upper), lastValid(middle), lastValid(lower)

	bbRange := u - l
	pctB := 0.5
	if bbRange > 0 {
		pctB = (price - l) / bbRange
	}

	var direction int
	var strength float64
	switch {
	case bbRange == 0:
		direction, strength = 0, 0
	case pctB > 1.0:
		direction = -1
		strength = capStrength((pctB - 1.0) * 10)
	case pctB < 0.0:
		direction = 1
		strength = capStrength(math.Abs(pctB) * 10)
	case pctB > 0.8:
		direction = -1
		strength = (pctB - 0.8) / 0.2 * 0.5
	case pctB < 0.2:
		direction = 1
		strength = (0.2 - pctB) / 0.2 * 0.5
	default:
		direction, strength = 0, 0
	}

	var explanation string
	switch {
	case pctB > 1.0:
		explanation = fmt.Sprintf("Price above upper BB (%%B=%.2f) - bearish", pctB)
	case pctB < 0.0:
		explanation = fmt.Sprintf("Price below lower BB (%%B=%.2f) - bullish", pctB)
	default:
		explanation = fmt.Sprintf("Price within bands (%%B=%.2f)", pctB)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    pctB,
		Direction:   direction,
		Strength:    capStrength(strength),
		Explanation: explanation,
		Metadata:    map[string]float64{"upper": u, "middle": m, "lower": l},
	}, nil
}

// BBWidth 布林带宽度，挤压/扩张的波动率读数。方向恒为 0。
type BBWidth struct {
	period int
	stdDev float64
}

func NewBBWidth(period int, stdDev float64) *BBWidth {
	return &BBWidth{period: period, stdDev: stdDev}
}

func (f *BBWidth) Name() string       { return "BBWidth" }
func (f *BBWidth) Category() Category { return CategoryTechnical }

func (f *BBWidth) Evaluate(frame *market.Frame, _ *market.Context) (Result, error) {
	// 宽度均值窗口 50，再叠加带宽本身的周期。
	need := f.period + 50
	if frame.Len() < need {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: need, Got: frame.Len()}
	}
	upper, middle, lower := talib.BBands(frame.Closes(), f.period, f.stdDev, f.stdDev, talib.SMA)
	width := make([]float64, len(middle))
	for i := range middle {
		if middle[i] == 0 || math.IsNaN(middle[i]) {
			width[i] = math.NaN()
			continue
		}
		width[i] = (upper[i] - lower[i]) / middle[i] * 100
	}
	currWidth := lastValid(width)
	avgWidth := lastValid(rollingMean(width[f.period-1:], 50))

	isSqueeze := currWidth < avgWidth*0.8
	var strength float64
	var explanation string
	switch {
	case isSqueeze:
		strength = 0.7
		explanation = fmt.Sprintf("BB squeeze detected (width: %.2f%%) - breakout likely", currWidth)
	case currWidth > avgWidth*1.5:
		strength = 0.5
		explanation = fmt.Sprintf("BB expansion (width: %.2f%%) - high volatility", currWidth)
	default:
		strength = 0.2
		explanation = fmt.Sprintf("Normal BB width: %.2f%%", currWidth)
	}
	meta := map[string]float64{"avg_width": avgWidth, "is_squeeze": 0}
	if isSqueeze {
		meta["is_squeeze"] = 1
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    currWidth,
		Direction:   0,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    meta,
	}, nil
}

// ATR 平均真实波幅。无方向，分位进 Metadata 供 regime 层使用。
type ATR struct {
	period int
}

func NewATR(period int) *ATR {
	if period <= 0 {
		period = 14
	}
	return &ATR{period: period}
}

func (f *ATR) Name() string       { return "ATR" }
func (f *ATR) Category() Category { return CategoryTechnical }

func (f *ATR) Evaluate(frame *market.Frame, _ *market.Context) (Result, error) {
	if frame.Len() < f.period+1 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: f.period + 1, Got: frame.Len()}
	}
	series := talib.Atr(frame.Highs(), frame.Lows(), frame.Closes(), f.period)
	atr := lastValid(series)
	price := frame.Last().Close
	atrPct := 0.0
	if price > 0 {
		atrPct = atr / price * 100
	}
	pctile := 0.5
	if len(series) >= 50 {
		pctile = percentileRank(series, 50)
	}

	var strength float64
	var explanation string
	switch {
	case pctile > 0.8:
		strength = 0.3
		explanation = fmt.Sprintf("ATR at %.2f%% (high volatility) - caution", atrPct)
	case pctile < 0.2:
		strength = 0.5
		explanation = fmt.Sprintf("ATR at %.2f%% (low volatility) - potential breakout", atrPct)
	default:
		strength = 0.2
		explanation = fmt.Sprintf("ATR at %.2f%% (normal volatility)", atrPct)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    atr,
		Direction:   0,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"atr_pct": atrPct, "percentile": pctile},
	}, nil
}

// ADX 趋势强度与 DI 方向。
type ADX struct {
	period int
}

func NewADX(period int) *ADX {
	if period <= 0 {
		period = 14
	}
	return &ADX{period: period}
}

func (f *ADX) Name() string       { return "ADX" }
func (f *ADX) Category() Category { return CategoryTechnical }

func (f *ADX) Evaluate(frame *market.Frame, _ *market.Context) (Result, error) {
	need := f.period*2 + 1
	if frame.Len() < need {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: need, Got: frame.Len()}
	}
	highs, lows, closes := frame.Highs(), frame.Lows(), frame.Closes()
	adx := lastValid(talib.Adx(highs, lows, closes, f.period))
	plusDI := lastValid(talib.PlusDI(highs, lows, closes, f.period))
	minusDI := lastValid(talib.MinusDI(highs, lows, closes, f.period))

	direction, strength := adxTrend(adx, plusDI, minusDI)

	var explanation string
	trendDir := "up"
	if minusDI > plusDI {
		trendDir = "down"
	}
	switch {
	case adx < 18:
		explanation = fmt.Sprintf("ADX at %.2f - no clear trend", adx)
	case adx >= 40:
		explanation = fmt.Sprintf("ADX at %.2f - strong %strend", adx, trendDir)
	default:
		explanation = fmt.Sprintf("ADX at %.2f - developing %strend", adx, trendDir)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    adx,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"plus_di": plusDI, "minus_di": minusDI},
	}, nil
}

func adxTrend(adx, plusDI, minusDI float64) (int, float64) {
	if adx < 18 {
		return 0, 0
	}
	var direction int
	switch {
	case plusDI > minusDI:
		direction = 1
	case minusDI > plusDI:
		direction = -1
	default:
		return 0, 0
	}
	var strength float64
	if adx >= 40 {
		strength = capStrength((adx - 40) / 40)
	} else {
		strength = (adx - 18) / 22
	}
	if math.Abs(plusDI-minusDI) > 20 {
		strength = capStrength(strength * 1.2)
	}
	return direction, capStrength(strength)
}

// EMACross 快慢 EMA 相对位置与交叉。
type EMACross struct {
	fast, slow int
}

func NewEMACross(fast, slow int) *EMACross {
	return &EMACross{fast: fast, slow: slow}
}

func (f *EMACross) Name() string       { return fmt.Sprintf("EMA_%d_%d", f.fast, f.slow) }
func (f *EMACross) Category() Category { return CategoryTechnical }

func (f *EMACross) Evaluate(frame *market.Frame, _ *market.Context) (Result, error) {
	if frame.Len() < f.slow+1 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: f.slow + 1, Got: frame.Len()}
	}
	closes := frame.Closes()
	emaFast := talib.Ema(closes, f.fast)
	emaSlow := talib.Ema(closes, f.slow)
	price := frame.Last().Close
	currFast, currSlow := lastValid(emaFast), lastValid(emaSlow)
	prevFast := prevValid(emaFast, currFast)
	prevSlow := prevValid(emaSlow, currSlow)

	direction, strength := maCross(currFast, currSlow, price, prevFast, prevSlow)

	var explanation string
	switch direction {
	case 1:
		explanation = fmt.Sprintf("EMA%d above EMA%d, price above both - bullish", f.fast, f.slow)
	case -1:
		explanation = fmt.Sprintf("EMA%d below EMA%d, price below both - bearish", f.fast, f.slow)
	default:
		explanation = "Mixed EMA signals"
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    currFast - currSlow,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"ema_fast": currFast, "ema_slow": currSlow},
	}, nil
}

// maCross 均线交叉通用判定：新交叉给 1.5 倍加成，距离按 5% 封顶。
func maCross(fast, slow, price, prevFast, prevSlow float64) (int, float64) {
	if slow == 0 {
		return 0, 0
	}
	crossedUp := prevFast <= prevSlow && fast > slow
	crossedDown := prevFast >= prevSlow && fast < slow
	distancePct := math.Abs(fast-slow) / slow * 100
	aboveBoth := price > fast && price > slow
	belowBoth := price < fast && price < slow

	switch {
	case crossedUp || (fast > slow && aboveBoth):
		strength := capStrength(distancePct / 5.0)
		if crossedUp {
			strength = capStrength(strength * 1.5)
		}
		return 1, strength
	case crossedDown || (fast < slow && belowBoth):
		strength := capStrength(distancePct / 5.0)
		if crossedDown {
			strength = capStrength(strength * 1.5)
		}
		return -1, strength
	default:
		return 0, 0
	}
}

// SMA 价格相对单根均线的偏离。
type SMA struct {
	period int
}

func NewSMA(period int) *SMA {
	if period <= 0 {
		period = 20
	}
	return &SMA{period: period}
}

func (f *SMA) Name() string       { return fmt.Sprintf("SMA%d", f.period) }
func (f *SMA) Category() Category { return CategoryTechnical }

func (f *SMA) Evaluate(frame *market.Frame, _ *market.Context) (Result, error) {
	if frame.Len() < f.period+1 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: f.period + 1, Got: frame.Len()}
	}
	sma := lastValid(talib.Sma(frame.Closes(), f.period))
	price := frame.Last().Close
	distancePct := 0.0
	if sma > 0 {
		distancePct = (price - sma) / sma * 100
	}

	var direction int
	var strength float64
	var explanation string
	switch {
	case distancePct > 2:
		direction = 1
		strength = capStrength(math.Abs(distancePct) / 5)
		explanation = fmt.Sprintf("Price %.2f%% above SMA(%d) - bullish", distancePct, f.period)
	case distancePct < -2:
		direction = -1
		strength = capStrength(math.Abs(distancePct) / 5)
		explanation = fmt.Sprintf("Price %.2f%% below SMA(%d) - bearish", distancePct, f.period)
	default:
		direction = 0
		strength = 0.3
		explanation = fmt.Sprintf("Price near SMA(%d)", f.period)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    sma,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"distance_pct": distancePct},
	}, nil
}

// MACross 长周期金叉/死叉（50/200）。
type MACross struct {
	fast, slow int
}

func NewMACross(fast, slow int) *MACross {
	return &MACross{fast: fast, slow: slow}
}

func (f *MACross) Name() string       { return fmt.Sprintf("MACross%d_%d", f.fast, f.slow) }
func (f *MACross) Category() Category { return CategoryTechnical }

func (f *MACross) Evaluate(frame *market.Frame, _ *market.Context) (Result, error) {
	if frame.Len() < f.slow+1 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: f.slow + 1, Got: frame.Len()}
	}
	closes := frame.Closes()
	fastMA := talib.Sma(closes, f.fast)
	slowMA := talib.Sma(closes, f.slow)
	currFast, currSlow := lastValid(fastMA), lastValid(slowMA)
	prevFast := prevValid(fastMA, currFast)
	prevSlow := prevValid(slowMA, currSlow)

	distancePct := 0.0
	if currSlow > 0 {
		distancePct = (currFast - currSlow) / currSlow * 100
	}
	goldenCross := prevFast <= prevSlow && currFast > currSlow
	deathCross := prevFast >= prevSlow && currFast < currSlow

	var direction int
	var strength float64
	var explanation string
	switch {
	case goldenCross:
		direction, strength = 1, 1.0
		explanation = fmt.Sprintf("Golden Cross! MA%d crossed above MA%d - strong bullish", f.fast, f.slow)
	case deathCross:
		direction, strength = -1, 1.0
		explanation = fmt.Sprintf("Death Cross! MA%d crossed below MA%d - strong bearish", f.fast, f.slow)
	case currFast > currSlow:
		direction = 1
		strength = capStrength(math.Abs(distancePct) / 5)
		explanation = fmt.Sprintf("MA%d above MA%d (%+.2f%%) - bullish", f.fast, f.slow, distancePct)
	case currFast < currSlow:
		direction = -1
		strength = capStrength(math.Abs(distancePct) / 5)
		explanation = fmt.Sprintf("MA%d below MA%d (%+.2f%%) - bearish", f.fast, f.slow, distancePct)
	default:
		direction, strength = 0, 0.2
		explanation = "MAs aligned"
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    distancePct,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
	}, nil
}

// PriceMomentum 多窗口平均涨跌幅。
type PriceMomentum struct {
	periods []int
}

func NewPriceMomentum(periods ...int) *PriceMomentum {
	if len(periods) == 0 {
		periods = []int{5, 10, 20}
	}
	return &PriceMomentum{periods: periods}
}

func (f *PriceMomentum) Name() string       { return "PriceMomentum" }
func (f *PriceMomentum) Category() Category { return CategoryTechnical }

func (f *PriceMomentum) Evaluate(frame *market.Frame, _ *market.Context) (Result, error) {
	minNeed := f.periods[0] + 1
	if frame.Len() < minNeed {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: minNeed, Got: frame.Len()}
	}
	closes := frame.Closes()
	price := closes[len(closes)-1]
	var scores []float64
	for _, p := range f.periods {
		if len(closes) > p {
			past := closes[len(closes)-1-p]
			if past != 0 {
				scores = append(scores, (price-past)/past*100)
			}
		}
	}
	if len(scores) == 0 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: minNeed, Got: frame.Len()}
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	avg := sum / float64(len(scores))

	var direction int
	var strength float64
	var explanation string
	switch {
	case avg > 2:
		direction = 1
		strength = capStrength(math.Abs(avg) / 10)
		explanation = fmt.Sprintf("Strong upward momentum (+%.2f%%)", avg)
	case avg < -2:
		direction = -1
		strength = capStrength(math.Abs(avg) / 10)
		explanation = fmt.Sprintf("Strong downward momentum (%.2f%%)", avg)
	default:
		direction = 0
		strength = 0.3
		explanation = fmt.Sprintf("Weak momentum (%+.2f%%)", avg)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    avg,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
	}, nil
}

// Supertrend ATR 通道趋势跟随。
type Supertrend struct {
	period     int
	multiplier float64
}

func NewSupertrend(period int, multiplier float64) *Supertrend {
	return &Supertrend{period: period, multiplier: multiplier}
}

func (f *Supertrend) Name() string       { return "Supertrend" }
func (f *Supertrend) Category() Category { return CategoryTechnical }

func (f *Supertrend) Evaluate(frame *market.Frame, _ *market.Context) (Result, error) {
	need := f.period * 2
	if frame.Len() < need {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: need, Got: frame.Len()}
	}
	highs, lows, closes := frame.Highs(), frame.Lows(), frame.Closes()
	atr := talib.Atr(highs, lows, closes, f.period)

	n := len(closes)
	upperBand := make([]float64, n)
	lowerBand := make([]float64, n)
	for i := 0; i < n; i++ {
		hl2 := (highs[i] + lows[i]) / 2
		upperBand[i] = hl2 + f.multiplier*atr[i]
		lowerBand[i] = hl2 - f.multiplier*atr[i]
	}

	line := make([]float64, n)
	dir := make([]int, n)
	for i := f.period; i < n; i++ {
		switch {
		case closes[i] > upperBand[i-1]:
			line[i] = lowerBand[i]
			dir[i] = 1
		case closes[i] < lowerBand[i-1]:
			line[i] = upperBand[i]
			dir[i] = -1
		default:
			line[i] = line[i-1]
			dir[i] = dir[i-1]
		}
	}
	currDir := dir[n-1]
	currLine := line[n-1]
	price := closes[n-1]

	strength := 0.0
	if price > 0 {
		strength = capStrength(math.Abs(price-currLine) / price * 100 / 5.0)
	}
	var explanation string
	switch currDir {
	case 1:
		explanation = fmt.Sprintf("Supertrend bullish - price above %.2f", currLine)
	case -1:
		explanation = fmt.Sprintf("Supertrend bearish - price below %.2f", currLine)
	default:
		explanation = "Supertrend neutral"
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    currLine,
		Direction:   currDir,
		Strength:    strength,
		Explanation: explanation,
	}, nil
}

// VWAP 偏离均值回归读数：偏上看空、偏下看多。
type VWAP struct{}

func NewVWAP() *VWAP { return &VWAP{} }

func (f *VWAP) Name() string       { return "VWAP" }
func (f *VWAP) Category() Category { return CategoryTechnical }

func (f *VWAP) Evaluate(frame *market.Frame, _ *market.Context) (Result, error) {
	if frame.Len() < 2 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 2, Got: frame.Len()}
	}
	var pvSum, volSum float64
	for _, c := range frame.Candles {
		typical := (c.High + c.Low + c.Close) / 3
		pvSum += typical * c.Volume
		volSum += c.Volume
	}
	if volSum == 0 {
		return Neutral(f.Name(), f.Category(), "No volume data for VWAP"), nil
	}
	vwap := pvSum / volSum
	price := frame.Last().Close
	distancePct := (price - vwap) / vwap * 100

	var direction int
	var strength float64
	var explanation string
	switch {
	case distancePct > 1.0:
		direction = -1
		strength = capStrength(math.Abs(distancePct) / 3.0)
		explanation = fmt.Sprintf("Price %.2f%% above VWAP - overbought", distancePct)
	case distancePct < -1.0:
		direction = 1
		strength = capStrength(math.Abs(distancePct) / 3.0)
		explanation = fmt.Sprintf("Price %.2f%% below VWAP - oversold", distancePct)
	default:
		direction = 0
		strength = 0.2
		explanation = fmt.Sprintf("Price near VWAP (%+.2f%%)", distancePct)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    vwap,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"distance_pct": distancePct},
	}, nil
}

// VolumeRatio 成交量相对均量的放大倍数，需配合价格方向解读。
type VolumeRatio struct {
	period int
}

func NewVolumeRatio(period int) *VolumeRatio {
	if period <= 0 {
		period = 20
	}
	return &VolumeRatio{period: period}
}

func (f *VolumeRatio) Name() string       { return "VolumeRatio" }
func (f *VolumeRatio) Category() Category { return CategoryTechnical }

func (f *VolumeRatio) Evaluate(frame *market.Frame, _ *market.Context) (Result, error) {
	if frame.Len() < f.period+1 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: f.period + 1, Got: frame.Len()}
	}
	volumes := frame.Volumes()
	avgVol := lastValid(rollingMean(volumes, f.period))
	currVol := volumes[len(volumes)-1]

	closes := frame.Closes()
	priceChangePct := 0.0
	if prev := closes[len(closes)-2]; prev != 0 {
		priceChangePct = (closes[len(closes)-1] - prev) / prev * 100
	}

	volumeRatio := 1.0
	if avgVol > 0 {
		volumeRatio = currVol / avgVol
	}

	var direction int
	var strength float64
	switch {
	case avgVol == 0:
		direction, strength = 0, 0
	case volumeRatio > 2.0:
		strength = capStrength((volumeRatio - 2.0) / 3.0)
		switch {
		case priceChangePct > 1.0:
			direction = 1
		case priceChangePct < -1.0:
			direction = -1
		default:
			direction = 0
			strength *= 0.3
		}
	case volumeRatio < 0.5:
		direction, strength = 0, 0.1
	default:
		direction, strength = 0, 0
	}

	var explanation string
	switch {
	case volumeRatio > 2.0:
		explanation = fmt.Sprintf("Volume spike %.2fx average", volumeRatio)
	case volumeRatio < 0.5:
		explanation = fmt.Sprintf("Low volume %.2fx average - low conviction", volumeRatio)
	default:
		explanation = fmt.Sprintf("Normal volume %.2fx average", volumeRatio)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    volumeRatio,
		Direction:   direction,
		Strength:    capStrength(strength),
		Explanation: explanation,
	}, nil
}
