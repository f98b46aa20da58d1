package feature

import (
	"fmt"
	"math"

	"oracle/internal/market"
)

// FundingRate 资金费率拥挤度。极端费率配合历史分位给反向信号。
// 费率以百分比表达（0.01 = 0.01%）。
type FundingRate struct{}

func NewFundingRate() *FundingRate { return &FundingRate{} }

func (f *FundingRate) Name() string       { return "FundingRate" }
func (f *FundingRate) Category() Category { return CategoryDerivatives }

func (f *FundingRate) Evaluate(_ *market.Frame, ctx *market.Context) (Result, error) {
	if ctx == nil || ctx.Derivatives == nil || ctx.Derivatives.FundingRates.Len() == 0 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 1, Got: 0}
	}
	rates := ctx.Derivatives.FundingRates
	funding := rates.Last()
	pctile := 0.5
	if rates.Len() >= 10 {
		pctile = percentileRank(rates.Values, rates.Len())
	}
	// 年化：8 小时费率 × 3 × 365
	annualized := funding * 3 * 365

	var direction int
	var strength float64
	var explanation string
	switch {
	case funding > 0.05 && pctile > 0.8:
		direction = -1
		strength = capStrength((funding - 0.05) / 0.05)
		explanation = fmt.Sprintf("Extreme positive funding %.4f%% (%.0f%% annualized) - longs overcrowded", funding, annualized)
	case funding < -0.02 && pctile < 0.2:
		direction = 1
		strength = capStrength(math.Abs(funding) / 0.05)
		explanation = fmt.Sprintf("Extreme negative funding %.4f%% - shorts overcrowded", funding)
	case funding > 0.01:
		direction = -1
		strength = 0.3
		explanation = fmt.Sprintf("Elevated funding %.4f%% - mild long crowding", funding)
	case funding < -0.01:
		direction = 1
		strength = 0.3
		explanation = fmt.Sprintf("Negative funding %.4f%% - mild short crowding", funding)
	default:
		direction = 0
		strength = 0.1
		explanation = fmt.Sprintf("Funding neutral at %.4f%%", funding)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    funding,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"percentile": pctile, "annualized_pct": annualized},
	}, nil
}

// OpenInterest 持仓量增减与价格方向的组合解读。
type OpenInterest struct{}

func NewOpenInterest() *OpenInterest { return &OpenInterest{} }

func (f *OpenInterest) Name() string       { return "OpenInterest" }
func (f *OpenInterest) Category() Category { return CategoryDerivatives }

func (f *OpenInterest) Evaluate(frame *market.Frame, ctx *market.Context) (Result, error) {
	if ctx == nil || ctx.Derivatives == nil || ctx.Derivatives.OpenInterest.Len() < 2 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 2, Got: 0}
	}
	oi := ctx.Derivatives.OpenInterest
	past := oi.At(oi.Len() - 1)
	oiChangePct := 0.0
	if past != 0 {
		oiChangePct = (oi.Last() - past) / past * 100
	}

	priceChangePct := 0.0
	if frame != nil && frame.Len() >= 2 {
		closes := frame.Closes()
		if prev := closes[0]; prev != 0 {
			priceChangePct = (closes[len(closes)-1] - prev) / prev * 100
		}
	}

	var direction int
	var strength float64
	var explanation string
	switch {
	case oiChangePct > 5:
		switch {
		case priceChangePct > 2:
			direction = 1
			strength = capStrength(oiChangePct / 15)
			explanation = fmt.Sprintf("OI +%.1f%% with rising price - new longs entering", oiChangePct)
		case priceChangePct < -2:
			direction = -1
			strength = capStrength(oiChangePct / 15)
			explanation = fmt.Sprintf("OI +%.1f%% with falling price - new shorts entering", oiChangePct)
		default:
			direction = 0
			strength = 0.4
			explanation = fmt.Sprintf("OI +%.1f%% with flat price - positioning building", oiChangePct)
		}
	case oiChangePct < -5:
		switch {
		case priceChangePct > 0:
			direction = 1
			strength = 0.5
			explanation = fmt.Sprintf("OI %.1f%% with rising price - short covering", oiChangePct)
		case priceChangePct < 0:
			direction = -1
			strength = 0.5
			explanation = fmt.Sprintf("OI %.1f%% with falling price - long liquidation", oiChangePct)
		default:
			direction = 0
			strength = 0.3
			explanation = fmt.Sprintf("OI %.1f%% - positions unwinding", oiChangePct)
		}
	default:
		direction = 0
		strength = 0.2
		explanation = fmt.Sprintf("OI change %+.1f%% - no significant shift", oiChangePct)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    oiChangePct,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"price_change_pct": priceChangePct},
	}, nil
}

// Basis 标记价/指数价基差，正基差看多、深贴水看空。
type Basis struct{}

func NewBasis() *Basis { return &Basis{} }

func (f *Basis) Name() string       { return "Basis" }
func (f *Basis) Category() Category { return CategoryDerivatives }

func (f *Basis) Evaluate(_ *market.Frame, ctx *market.Context) (Result, error) {
	if ctx == nil || ctx.Derivatives == nil || !ctx.Derivatives.HasMarkIndex || ctx.Derivatives.IndexPrice == 0 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 1, Got: 0}
	}
	d := ctx.Derivatives
	basisPct := (d.MarkPrice - d.IndexPrice) / d.IndexPrice * 100

	var direction int
	var strength float64
	var explanation string
	switch {
	case basisPct > 0.5:
		direction = 1
		strength = capStrength(basisPct / 2)
		explanation = fmt.Sprintf("Futures premium %.3f%% - bullish positioning", basisPct)
	case basisPct < -0.2:
		direction = -1
		strength = capStrength(math.Abs(basisPct) / 1)
		explanation = fmt.Sprintf("Futures discount %.3f%% - bearish positioning", basisPct)
	default:
		direction = 0
		strength = 0.2
		explanation = fmt.Sprintf("Basis neutral at %.3f%%", basisPct)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    basisPct,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
	}, nil
}

// Liquidations 爆仓脉冲：单边爆仓放量后倾向反弹（接针逻辑）。
type Liquidations struct{}

func NewLiquidations() *Liquidations { return &Liquidations{} }

func (f *Liquidations) Name() string       { return "Liquidations" }
func (f *Liquidations) Category() Category { return CategoryDerivatives }

func (f *Liquidations) Evaluate(_ *market.Frame, ctx *market.Context) (Result, error) {
	if ctx == nil || ctx.Derivatives == nil || !ctx.Derivatives.HasLiqData || ctx.Derivatives.AvgLiqUSD <= 0 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 1, Got: 0}
	}
	d := ctx.Derivatives
	total := d.LongLiqUSD + d.ShortLiqUSD
	ratio := total / d.AvgLiqUSD
	longPct, shortPct := 0.5, 0.5
	if total > 0 {
		longPct = d.LongLiqUSD / total
		shortPct = d.ShortLiqUSD / total
	}

	var direction int
	var strength float64
	var explanation string
	if ratio > 3 {
		switch {
		case longPct > 0.7:
			direction = 1
			strength = capStrength((ratio - 3) / 5)
			explanation = fmt.Sprintf("Long liquidation cascade %.1fx avg - capitulation, rebound likely", ratio)
		case shortPct > 0.7:
			direction = -1
			strength = capStrength((ratio - 3) / 5)
			explanation = fmt.Sprintf("Short squeeze %.1fx avg - exhaustion, pullback likely", ratio)
		default:
			direction = 0
			strength = 0.5
			explanation = fmt.Sprintf("Two-sided liquidations %.1fx avg - high volatility", ratio)
		}
	} else {
		direction = 0
		strength = 0.1
		explanation = fmt.Sprintf("Liquidations normal (%.1fx avg)", ratio)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    ratio,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"long_pct": longPct, "short_pct": shortPct},
	}, nil
}

// OIVolumeRatio 持仓/成交比的历史分位。高比值代表存量博弈，方向恒为 0。
type OIVolumeRatio struct{}

func NewOIVolumeRatio() *OIVolumeRatio { return &OIVolumeRatio{} }

func (f *OIVolumeRatio) Name() string       { return "OIVolumeRatio" }
func (f *OIVolumeRatio) Category() Category { return CategoryDerivatives }

func (f *OIVolumeRatio) Evaluate(frame *market.Frame, ctx *market.Context) (Result, error) {
	if ctx == nil || ctx.Derivatives == nil || ctx.Derivatives.OpenInterest.Len() < 2 || frame == nil || frame.Len() < 2 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 2, Got: 0}
	}
	oi := ctx.Derivatives.OpenInterest.Values
	volumes := frame.Volumes()
	n := len(oi)
	if len(volumes) < n {
		n = len(volumes)
	}
	ratios := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		vol := volumes[len(volumes)-n+i]
		if vol <= 0 {
			continue
		}
		ratios = append(ratios, oi[len(oi)-n+i]/vol)
	}
	if len(ratios) < 2 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 2, Got: len(ratios)}
	}
	curr := ratios[len(ratios)-1]
	pctile := percentileRank(ratios, 50)

	var strength float64
	var explanation string
	switch {
	case pctile > 0.8:
		strength = 0.7
		explanation = "OI/volume ratio at high percentile - stale positioning, sharp move risk"
	case pctile < 0.2:
		strength = 0.3
		explanation = "OI/volume ratio at low percentile - fresh turnover"
	default:
		strength = 0.2
		explanation = "OI/volume ratio in normal range"
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    curr,
		Direction:   0,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"percentile": pctile},
	}, nil
}
