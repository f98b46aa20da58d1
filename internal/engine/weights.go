package engine

import (
	"math"
	"strings"

	"oracle/internal/logger"
)

// TimeframeClass 把具体周期归为三档，用于选择默认权重表。
type TimeframeClass string

const (
	ClassShort  TimeframeClass = "SHORT"
	ClassMedium TimeframeClass = "MEDIUM"
	ClassLong   TimeframeClass = "LONG"
)

// ClassifyTimeframe 15m/1h/4h → SHORT，1d → MEDIUM，1w/1M → LONG。
// 未知周期按后缀猜测，默认 MEDIUM。
func ClassifyTimeframe(interval string) TimeframeClass {
	switch interval {
	case "15m", "1h", "4h":
		return ClassShort
	case "1d":
		return ClassMedium
	case "1w", "1M":
		return ClassLong
	}
	switch {
	case strings.HasSuffix(interval, "m") || strings.HasSuffix(interval, "h"):
		return ClassShort
	case strings.HasSuffix(interval, "w") || strings.HasSuffix(interval, "M"):
		return ClassLong
	default:
		return ClassMedium
	}
}

// WeightResolver 解析 (feature, class, symbol) → 权重。
// 解析顺序：symbol 级覆盖 > class 默认表 > 全局默认 1.0。
// 权重 0 表示停用该特征。
type WeightResolver interface {
	Resolve(featureName string, class TimeframeClass, symbol string) float64
}

// 各档位的默认权重表。短周期侧重震荡指标、成交量与合约数据，
// 长周期侧重趋势结构与宏观。
var defaultWeights = map[TimeframeClass]map[string]float64{
	ClassShort: {
		"RSI":            1.2,
		"Stochastic":     1.1,
		"MACD":           1.0,
		"BollingerBands": 1.1,
		"VWAP":           1.3,
		"VolumeRatio":    1.2,
		"FundingRate":    1.3,
		"Liquidations":   1.4,
		"ADX":            0.8,
		"EMA_20_50":      0.9,
		"Supertrend":     0.9,
		"DXY":            0.5,
		"VIX":            0.6,
		"RealYields":     0.3,
	},
	ClassMedium: {
		"RSI":             1.0,
		"MACD":            1.0,
		"ADX":             1.2,
		"EMA_20_50":       1.3,
		"Supertrend":      1.2,
		"BBWidth":         1.1,
		"DXY":             1.0,
		"VIX":             0.9,
		"RealYields":      1.1,
		"FundingRate":     1.0,
		"OpenInterest":    1.1,
		"GoldSilverRatio": 1.0,
	},
	ClassLong: {
		"ADX":             1.3,
		"EMA_20_50":       1.5,
		"Supertrend":      1.3,
		"DXY":             1.4,
		"RealYields":      1.5,
		"VIX":             1.0,
		"GoldSilverRatio": 1.2,
		"CopperGoldRatio": 1.2,
		"GoldOilRatio":    1.1,
		"RSI":             0.7,
		"Stochastic":      0.5,
		"VWAP":            0.3,
		"FundingRate":     0.6,
	},
}

// Override 是一条权重覆盖配置，Symbol 为空时作用于该档位下所有符号。
type Override struct {
	Feature string
	Class   TimeframeClass
	Symbol  string
	Weight  float64
}

// StaticResolver 基于内置默认表加显式覆盖的权重解析器。
type StaticResolver struct {
	bySymbol map[string]float64 // key: feature|class|symbol
	byClass  map[string]float64 // key: feature|class
}

func NewStaticResolver(overrides ...Override) *StaticResolver {
	r := &StaticResolver{
		bySymbol: make(map[string]float64),
		byClass:  make(map[string]float64),
	}
	for _, o := range overrides {
		if o.Symbol != "" {
			r.bySymbol[o.Feature+"|"+string(o.Class)+"|"+o.Symbol] = o.Weight
		} else {
			r.byClass[o.Feature+"|"+string(o.Class)] = o.Weight
		}
	}
	return r
}

func (r *StaticResolver) Resolve(featureName string, class TimeframeClass, symbol string) float64 {
	if w, ok := r.bySymbol[featureName+"|"+string(class)+"|"+symbol]; ok {
		return w
	}
	if w, ok := r.byClass[featureName+"|"+string(class)]; ok {
		return w
	}
	if table, ok := defaultWeights[class]; ok {
		if w, ok := table[featureName]; ok {
			return w
		}
	}
	return 1.0
}

// sanitizeWeight 拒绝负数与 NaN 权重，回退到默认 1.0 并告警。
// 权重配置错误不应中断单次决策。
func sanitizeWeight(w float64, featureName string) float64 {
	if math.IsNaN(w) || w < 0 {
		logger.Warnf("invalid weight %v for feature %s, falling back to 1.0", w, featureName)
		return 1.0
	}
	return w
}

// MaxPossibleScore 所有特征满强度时的理论最高分，用作置信度归一化常数。
// 只统计权重大于 0 的特征。
func MaxPossibleScore(resolver WeightResolver, featureNames []string, class TimeframeClass, symbol string) float64 {
	var total float64
	for _, name := range featureNames {
		w := sanitizeWeight(resolver.Resolve(name, class, symbol), name)
		if w > 0 {
			total += w
		}
	}
	return total
}
