// Package engine 实现 2.5 层决策管线：
// Layer 1 加权打分 → Layer 2 市场状态过滤 → Layer 2.5 类别共识校准，
// 最终由 assembler 组装成一条完整的交易决策。
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"oracle/internal/feature"
)

// Signal 是七档决策信号。
type Signal string

const (
	SignalStrongBuy  Signal = "STRONG_BUY"
	SignalBuy        Signal = "BUY"
	SignalWeakBuy    Signal = "WEAK_BUY"
	SignalNeutral    Signal = "NEUTRAL"
	SignalWeakSell   Signal = "WEAK_SELL"
	SignalSell       Signal = "SELL"
	SignalStrongSell Signal = "STRONG_SELL"
)

// IsBuy 判断是否为做多侧信号。
func (s Signal) IsBuy() bool {
	return s == SignalStrongBuy || s == SignalBuy || s == SignalWeakBuy
}

// IsSell 判断是否为做空侧信号。
func (s Signal) IsSell() bool {
	return s == SignalStrongSell || s == SignalSell || s == SignalWeakSell
}

// Bias 是方向倾向。
type Bias string

const (
	BiasBullish Bias = "BULLISH"
	BiasNeutral Bias = "NEUTRAL"
	BiasBearish Bias = "BEARISH"
)

// MarketType 决定衍生品类特征是否参与评估。
type MarketType string

const (
	MarketSpot      MarketType = "SPOT"
	MarketPerpetual MarketType = "PERPETUAL"
	MarketFutures   MarketType = "FUTURES"
)

// SupportsDerivatives 现货市场没有资金费率/持仓量数据。
func (m MarketType) SupportsDerivatives() bool {
	return m == MarketPerpetual || m == MarketFutures
}

// Contribution 是单个特征对总分的加权贡献。
// Value = Weight × Direction × Strength，符号恒与 Direction 一致。
type Contribution struct {
	Feature     string           `json:"feature"`
	Category    feature.Category `json:"category"`
	RawValue    float64          `json:"raw_value"`
	Direction   int              `json:"direction"`
	Strength    float64          `json:"strength"`
	Weight      float64          `json:"weight"`
	Value       float64          `json:"contribution"`
	Explanation string           `json:"explanation"`
}

// Trend 市场趋势状态。
type Trend string

const (
	TrendTrending Trend = "TRENDING"
	TrendRanging  Trend = "RANGING"
	TrendUnknown  Trend = "UNKNOWN"
)

// TrendStrength 趋势强度档位。
type TrendStrength string

const (
	TrendStrengthWeak     TrendStrength = "WEAK"
	TrendStrengthModerate TrendStrength = "MODERATE"
	TrendStrengthStrong   TrendStrength = "STRONG"
)

// Volatility 波动率档位。
type Volatility string

const (
	VolatilityLow    Volatility = "LOW"
	VolatilityNormal Volatility = "NORMAL"
	VolatilityHigh   Volatility = "HIGH"
)

// AppliedFilter 记录一条已触发的状态过滤规则。
type AppliedFilter struct {
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
	Reason     string  `json:"reason"`
}

// RegimeContext 是 Layer 2 的市场状态分类结果。
// FiltersApplied 记录全部触发的过滤器，而非仅最后一条。
type RegimeContext struct {
	Trend          Trend           `json:"trend"`
	TrendStrength  TrendStrength   `json:"trend_strength,omitempty"`
	Volatility     Volatility      `json:"volatility"`
	Squeeze        bool            `json:"squeeze"`
	FiltersApplied []AppliedFilter `json:"filters_applied"`
	// ScoreMultiplier 是全部过滤器的累积乘数，过滤器彼此独立可交换。
	ScoreMultiplier float64 `json:"score_multiplier"`
}

// CategoryVotes 单一类别内的方向票数。
type CategoryVotes struct {
	Bull    int `json:"bull"`
	Bear    int `json:"bear"`
	Neutral int `json:"neutral"`
}

func (v CategoryVotes) Total() int { return v.Bull + v.Bear + v.Neutral }

// AgreementLevel 共识强度档位。
type AgreementLevel string

const (
	StrongConsensus   AgreementLevel = "STRONG_CONSENSUS"
	ModerateConsensus AgreementLevel = "MODERATE_CONSENSUS"
	WeakConsensus     AgreementLevel = "WEAK_CONSENSUS"
	NoConsensus       AgreementLevel = "NO_CONSENSUS"
)

// ConsensusResult 是 Layer 2.5 的跨类别共识汇总。
type ConsensusResult struct {
	CategoryVotes        map[feature.Category]CategoryVotes `json:"category_votes"`
	ConsensusPercentage  float64                            `json:"consensus_percentage"`
	AgreementLevel       AgreementLevel                     `json:"agreement_level"`
	Conflicts            []string                           `json:"conflicts"`
	TotalBull            int                                `json:"total_bull"`
	TotalBear            int                                `json:"total_bear"`
	TotalNeutral         int                                `json:"total_neutral"`
	ConfidenceMultiplier float64                            `json:"confidence_multiplier"`
}

// TradeParams 交易参数；NEUTRAL 信号下整体为 nil。
type TradeParams struct {
	EntryPrice    decimal.Decimal `json:"entry_price"`
	StopLoss      decimal.Decimal `json:"stop_loss"`
	TakeProfit    decimal.Decimal `json:"take_profit"`
	RiskReward    decimal.Decimal `json:"risk_reward"`
	ATRMultiplier decimal.Decimal `json:"atr_multiplier"`
}

// Decision 是一次评估的最终输出，组装完成后不再修改。
type Decision struct {
	ID          string         `json:"id"`
	Symbol      string         `json:"symbol"`
	MarketType  MarketType     `json:"market_type"`
	Timeframe   string         `json:"timeframe"`
	Class       TimeframeClass `json:"timeframe_class"`
	GeneratedAt time.Time      `json:"generated_at"`

	Signal     Signal `json:"signal"`
	Bias       Bias   `json:"bias"`
	Confidence int    `json:"confidence"`

	// RawScore 是 Layer 1 聚合分，FilteredScore 是过滤后用于定档的分值。
	RawScore         float64 `json:"raw_score"`
	FilteredScore    float64 `json:"filtered_score"`
	MaxPossibleScore float64 `json:"max_possible_score"`

	TradeParams            *TradeParams     `json:"trade_params,omitempty"`
	InvalidationConditions []string         `json:"invalidation_conditions"`
	TopDrivers             []Contribution   `json:"top_drivers"`
	Regime                 RegimeContext    `json:"regime_context"`
	Consensus              ConsensusResult  `json:"consensus_result"`
	Features               []feature.Result `json:"features"`
}
