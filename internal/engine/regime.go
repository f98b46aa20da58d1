package engine

import (
	"fmt"

	"oracle/internal/feature"
)

// 状态过滤规则的固定阈值与乘数。
// 过滤器彼此独立、只缩减分值幅度，顺序无关（乘法可交换）。
const (
	adxRangingThreshold  = 18.0
	atrHighVolPercentile = 0.8
	atrLowVolPercentile  = 0.2
	weakTrendMultiplier  = 0.6
	highVolMultiplier    = 0.8
	squeezeMultiplier    = 0.7
)

// analyzeRegime 从 ADX / ATR 分位 / 布林带宽读出市场状态。
// 只采信真实评估出的结果：数据缺失的回退读数没有 Metadata，不参与分类。
func analyzeRegime(results []feature.Result) RegimeContext {
	regime := RegimeContext{
		Trend:           TrendUnknown,
		Volatility:      VolatilityNormal,
		ScoreMultiplier: 1.0,
	}

	byName := make(map[string]feature.Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}

	if adx, ok := byName["ADX"]; ok && adx.Metadata != nil {
		switch {
		case adx.RawValue < adxRangingThreshold:
			regime.Trend = TrendRanging
			regime.TrendStrength = TrendStrengthWeak
		case adx.RawValue < 30:
			regime.Trend = TrendTrending
			regime.TrendStrength = TrendStrengthModerate
		default:
			regime.Trend = TrendTrending
			regime.TrendStrength = TrendStrengthStrong
		}
	}

	if atr, ok := byName["ATR"]; ok && atr.Metadata != nil {
		pctile := atr.Metadata["percentile"]
		switch {
		case pctile > atrHighVolPercentile:
			regime.Volatility = VolatilityHigh
		case pctile < atrLowVolPercentile:
			regime.Volatility = VolatilityLow
		}
	}

	if bb, ok := byName["BBWidth"]; ok && bb.Metadata != nil && bb.Metadata["is_squeeze"] == 1 {
		regime.Squeeze = true
	}

	return regime
}

// applyFilters 根据市场状态对原始分施加惩罚，返回过滤后的分值。
// 全部触发的过滤器都记录进 FiltersApplied。
func applyFilters(rawScore float64, regime *RegimeContext) float64 {
	multiplier := 1.0

	if regime.Trend == TrendRanging {
		multiplier *= weakTrendMultiplier
		regime.FiltersApplied = append(regime.FiltersApplied, AppliedFilter{
			Name:       "ADX_LOW_REDUCED_TREND",
			Multiplier: weakTrendMultiplier,
			Reason:     fmt.Sprintf("ADX below %.0f, ranging market reduces trend reliability", adxRangingThreshold),
		})
	}

	if regime.Volatility == VolatilityHigh {
		multiplier *= highVolMultiplier
		regime.FiltersApplied = append(regime.FiltersApplied, AppliedFilter{
			Name:       "HIGH_VOL_CAUTION",
			Multiplier: highVolMultiplier,
			Reason:     "ATR above 80th percentile, elevated volatility",
		})
	}

	if regime.Squeeze {
		multiplier *= squeezeMultiplier
		regime.FiltersApplied = append(regime.FiltersApplied, AppliedFilter{
			Name:       "BB_SQUEEZE",
			Multiplier: squeezeMultiplier,
			Reason:     "Bollinger band squeeze, awaiting breakout confirmation",
		})
	}

	regime.ScoreMultiplier = multiplier
	return rawScore * multiplier
}

// 信号档位阈值：|score| ≥ 3.0 → STRONG，≥ 1.5 → BUY/SELL，≥ 0.5 → WEAK。
const (
	strongBand = 3.0
	plainBand  = 1.5
	weakBand   = 0.5
)

// scoreToSignal 把过滤后的分值映射为信号与倾向。
func scoreToSignal(score float64) (Signal, Bias) {
	switch {
	case score >= strongBand:
		return SignalStrongBuy, BiasBullish
	case score >= plainBand:
		return SignalBuy, BiasBullish
	case score >= weakBand:
		return SignalWeakBuy, BiasBullish
	case score > -weakBand:
		return SignalNeutral, BiasNeutral
	case score > -plainBand:
		return SignalWeakSell, BiasBearish
	case score > -strongBand:
		return SignalSell, BiasBearish
	default:
		return SignalStrongSell, BiasBearish
	}
}

// baseConfidence 以满分归一化计算基础置信度（0-100）。
func baseConfidence(filteredScore, maxPossible float64) int {
	if maxPossible <= 0 {
		return 0
	}
	conf := abs(filteredScore) / maxPossible * 100
	if conf > 100 {
		conf = 100
	}
	return int(conf + 0.5)
}
