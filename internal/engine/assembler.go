package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"oracle/internal/feature"
)

var (
	atrMultNormal  = decimal.NewFromFloat(2.0)
	atrMultHighVol = decimal.NewFromFloat(2.5)
	rrHighConf     = decimal.NewFromFloat(2.5)
	rrNormal       = decimal.NewFromFloat(2.0)
)

const highConfidenceTier = 85

// buildTradeParams 由 ATR 推导止损、按置信度档位推导止盈。
// NEUTRAL 或缺少 ATR 读数时不给交易参数。
func buildTradeParams(
	signal Signal,
	confidence int,
	entryPrice float64,
	results []feature.Result,
	regime RegimeContext,
) *TradeParams {
	if signal == SignalNeutral {
		return nil
	}
	var atr float64
	for _, r := range results {
		if r.Name == "ATR" && r.Metadata != nil {
			atr = r.RawValue
			break
		}
	}
	if atr <= 0 || entryPrice <= 0 {
		return nil
	}

	entry := decimal.NewFromFloat(entryPrice)
	atrDec := decimal.NewFromFloat(atr)

	atrMult := atrMultNormal
	if regime.Volatility == VolatilityHigh {
		atrMult = atrMultHighVol
	}
	rr := rrNormal
	if confidence >= highConfidenceTier {
		rr = rrHighConf
	}

	var stopLoss, takeProfit decimal.Decimal
	risk := atrDec.Mul(atrMult)
	if signal.IsBuy() {
		stopLoss = entry.Sub(risk)
		takeProfit = entry.Add(risk.Mul(rr))
	} else {
		stopLoss = entry.Add(risk)
		takeProfit = entry.Sub(risk.Mul(rr))
	}

	return &TradeParams{
		EntryPrice:    entry,
		StopLoss:      stopLoss,
		TakeProfit:    takeProfit,
		RiskReward:    rr,
		ATRMultiplier: atrMult,
	}
}

// buildInvalidations 生成使当前论点失效的市场条件描述。
// 顺序固定：均线失守 → 趋势失效 → 美元反转 → 波动率突变。
func buildInvalidations(signal Signal, results []feature.Result, regime RegimeContext) []string {
	var conditions []string

	var emaSlow float64
	var hasEMA bool
	var dxyDirection int
	for _, r := range results {
		if r.Metadata == nil {
			continue
		}
		if !hasEMA {
			if v, ok := r.Metadata["ema_slow"]; ok {
				emaSlow = v
				hasEMA = true
			}
		}
		if r.Name == "DXY" {
			dxyDirection = r.Direction
		}
	}

	switch {
	case signal.IsBuy():
		if hasEMA {
			conditions = append(conditions, fmt.Sprintf("Close below EMA50 (%.2f)", emaSlow))
		}
		if regime.TrendStrength == TrendStrengthStrong || regime.TrendStrength == TrendStrengthModerate {
			conditions = append(conditions, "ADX drops below 18 (trend failure)")
		}
		if dxyDirection == 1 {
			conditions = append(conditions, "DXY breaks above recent high (bearish for risk assets)")
		}
	case signal.IsSell():
		if hasEMA {
			conditions = append(conditions, fmt.Sprintf("Close above EMA50 (%.2f)", emaSlow))
		}
		if regime.TrendStrength == TrendStrengthStrong || regime.TrendStrength == TrendStrengthModerate {
			conditions = append(conditions, "ADX drops below 18 (trend failure)")
		}
		if dxyDirection == -1 {
			conditions = append(conditions, "DXY breaks below recent low (bullish for risk assets)")
		}
	}

	if regime.Volatility != VolatilityHigh {
		conditions = append(conditions, "Volatility spike above 80th percentile (regime change)")
	}
	return conditions
}
