package feature

import (
	"fmt"
	"math"

	"oracle/internal/market"
)

// 宏观序列在 Context.Macro 中的键名。
const (
	MacroKeyDXY          = "DXY"
	MacroKeyVIX          = "VIX"
	MacroKeyTNX          = "TNX"
	MacroKeyRealYields   = "REAL_YIELDS"
	MacroKeyInflationExp = "INFLATION_EXP"
)

// DXY 美元指数趋势。美元走强压制风险资产。
type DXY struct{}

func NewDXY() *DXY { return &DXY{} }

func (f *DXY) Name() string       { return "DXY" }
func (f *DXY) Category() Category { return CategoryMacro }

func (f *DXY) Evaluate(_ *market.Frame, ctx *market.Context) (Result, error) {
	s := ctx.MacroSeries(MacroKeyDXY, 50)
	if s == nil {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 50, Got: ctx.MacroSeries(MacroKeyDXY, 1).Len()}
	}
	curr := s.Last()
	past := s.At(5)
	changePct := 0.0
	if past != 0 {
		changePct = (curr - past) / past * 100
	}
	sma20 := lastValid(rollingMean(s.Values, 20))

	var direction int
	var strength float64
	var explanation string
	switch {
	case changePct > 1.0 && curr > sma20:
		direction = -1
		strength = capStrength(math.Abs(changePct) / 3)
		explanation = fmt.Sprintf("DXY rising %+.2f%% above 20d MA - dollar strength pressures risk assets", changePct)
	case changePct < -1.0 && curr < sma20:
		direction = 1
		strength = capStrength(math.Abs(changePct) / 3)
		explanation = fmt.Sprintf("DXY falling %.2f%% below 20d MA - dollar weakness supports risk assets", changePct)
	default:
		direction = 0
		strength = 0.3
		explanation = fmt.Sprintf("DXY stable (%+.2f%% over 5 sessions)", changePct)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    curr,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"change_pct": changePct, "sma20": sma20},
	}, nil
}

// VIX 恐慌指数。极端恐慌反向看多，中度升温看空，过度平静亦视为风险。
type VIX struct{}

func NewVIX() *VIX { return &VIX{} }

func (f *VIX) Name() string       { return "VIX" }
func (f *VIX) Category() Category { return CategoryMacro }

func (f *VIX) Evaluate(_ *market.Frame, ctx *market.Context) (Result, error) {
	s := ctx.MacroSeries(MacroKeyVIX, 1)
	if s == nil {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 1, Got: 0}
	}
	vix := s.Last()

	var direction int
	var strength float64
	var explanation string
	switch {
	case vix > 35:
		direction = 1
		strength = capStrength((vix - 35) / 30)
		explanation = fmt.Sprintf("VIX at %.1f - extreme fear, contrarian bullish", vix)
	case vix > 25:
		direction = -1
		strength = capStrength((vix - 25) / 15)
		explanation = fmt.Sprintf("VIX at %.1f - elevated fear, risk-off", vix)
	case vix < 15:
		direction = -1
		strength = 0.3
		explanation = fmt.Sprintf("VIX at %.1f - complacency, correction risk", vix)
	default:
		direction = 0
		strength = 0.2
		explanation = fmt.Sprintf("VIX at %.1f - normal range", vix)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    vix,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
	}, nil
}

// Treasury10Y 十年期美债收益率变动。收益率快速上行压制估值。
type Treasury10Y struct{}

func NewTreasury10Y() *Treasury10Y { return &Treasury10Y{} }

func (f *Treasury10Y) Name() string       { return "Treasury10Y" }
func (f *Treasury10Y) Category() Category { return CategoryMacro }

func (f *Treasury10Y) Evaluate(_ *market.Frame, ctx *market.Context) (Result, error) {
	s := ctx.MacroSeries(MacroKeyTNX, 11)
	if s == nil {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 11, Got: ctx.MacroSeries(MacroKeyTNX, 1).Len()}
	}
	curr := s.Last()
	change := curr - s.At(10)

	var direction int
	var strength float64
	var explanation string
	switch {
	case change > 0.1:
		direction = -1
		strength = capStrength(math.Abs(change) / 0.5)
		explanation = fmt.Sprintf("10Y yield up %+.2fpp over 10 sessions - headwind for risk assets", change)
	case change < -0.1:
		direction = 1
		strength = capStrength(math.Abs(change) / 0.5)
		explanation = fmt.Sprintf("10Y yield down %.2fpp over 10 sessions - tailwind for risk assets", change)
	default:
		direction = 0
		strength = 0.3
		explanation = fmt.Sprintf("10Y yield stable at %.2f%%", curr)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    curr,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"change": change},
	}, nil
}

// RealYields 实际利率变动。优先用现成的实际利率序列，
// 否则用名义收益率减通胀预期近似。
type RealYields struct{}

func NewRealYields() *RealYields { return &RealYields{} }

func (f *RealYields) Name() string       { return "RealYields" }
func (f *RealYields) Category() Category { return CategoryMacro }

func (f *RealYields) Evaluate(_ *market.Frame, ctx *market.Context) (Result, error) {
	series := ctx.MacroSeries(MacroKeyRealYields, 10)
	var values []float64
	if series != nil {
		values = series.Values
	} else {
		tnx := ctx.MacroSeries(MacroKeyTNX, 10)
		infl := ctx.MacroSeries(MacroKeyInflationExp, 10)
		if tnx == nil || infl == nil {
			return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 10, Got: 0}
		}
		n := tnx.Len()
		if infl.Len() < n {
			n = infl.Len()
		}
		values = make([]float64, n)
		for i := 0; i < n; i++ {
			values[i] = tnx.Values[tnx.Len()-n+i] - infl.Values[infl.Len()-n+i]
		}
	}
	curr := values[len(values)-1]
	change := curr - values[len(values)-10]

	var direction int
	var strength float64
	var explanation string
	switch {
	case change > 0.1:
		direction = -1
		strength = capStrength(math.Abs(change) / 0.5)
		explanation = fmt.Sprintf("Real yields rising %+.2fpp - pressure on non-yielding assets", change)
	case change < -0.1:
		direction = 1
		strength = capStrength(math.Abs(change) / 0.5)
		explanation = fmt.Sprintf("Real yields falling %.2fpp - supportive for non-yielding assets", change)
	default:
		direction = 0
		strength = 0.3
		explanation = fmt.Sprintf("Real yields stable at %.2f%%", curr)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    curr,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"change": change},
	}, nil
}
