package feature

import (
	"fmt"
	"math"
	"strings"

	"oracle/internal/market"
)

// 跨市场序列在 Context.Intermarket 中的键名。
const (
	InterKeyGold         = "GOLD"
	InterKeySilver       = "SILVER"
	InterKeyCopper       = "COPPER"
	InterKeyCrude        = "CRUDE"
	InterKeyBTCDominance = "BTC_DOMINANCE"
)

// ratioSeries 对齐两条序列尾部并逐点取比值。
func ratioSeries(a, b *market.Series) []float64 {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		denom := b.Values[b.Len()-n+i]
		if denom == 0 {
			continue
		}
		out = append(out, a.Values[a.Len()-n+i]/denom)
	}
	return out
}

// GoldSilverRatio 金银比：极高读数代表避险拥挤，利空风险资产。
type GoldSilverRatio struct{}

func NewGoldSilverRatio() *GoldSilverRatio { return &GoldSilverRatio{} }

func (f *GoldSilverRatio) Name() string       { return "GoldSilverRatio" }
func (f *GoldSilverRatio) Category() Category { return CategoryIntermarket }

func (f *GoldSilverRatio) Evaluate(_ *market.Frame, ctx *market.Context) (Result, error) {
	gold := ctx.IntermarketSeries(InterKeyGold, 50)
	silver := ctx.IntermarketSeries(InterKeySilver, 50)
	if gold == nil || silver == nil {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 50, Got: 0}
	}
	ratios := ratioSeries(gold, silver)
	if len(ratios) < 50 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 50, Got: len(ratios)}
	}
	ratio := ratios[len(ratios)-1]
	sma50 := lastValid(rollingMean(ratios, 50))

	var direction int
	var strength float64
	var explanation string
	switch {
	case ratio > 85:
		direction = -1
		strength = capStrength((ratio - 85) / 20)
		explanation = fmt.Sprintf("Gold/silver ratio at %.1f - risk aversion elevated", ratio)
	case ratio < 60:
		direction = 1
		strength = capStrength((60 - ratio) / 20)
		explanation = fmt.Sprintf("Gold/silver ratio at %.1f - risk appetite healthy", ratio)
	case sma50 > 0 && ratio > sma50*1.05:
		direction = -1
		strength = 0.4
		explanation = fmt.Sprintf("Gold/silver ratio %.1f stretched above 50d MA - caution", ratio)
	case sma50 > 0 && ratio < sma50*0.95:
		direction = 1
		strength = 0.4
		explanation = fmt.Sprintf("Gold/silver ratio %.1f below 50d MA - risk-on tilt", ratio)
	default:
		direction = 0
		strength = 0.2
		explanation = fmt.Sprintf("Gold/silver ratio %.1f in normal range", ratio)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    ratio,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"sma50": sma50},
	}, nil
}

// CopperGoldRatio 铜金比变动，增长预期的 proxy。
type CopperGoldRatio struct{}

func NewCopperGoldRatio() *CopperGoldRatio { return &CopperGoldRatio{} }

func (f *CopperGoldRatio) Name() string       { return "CopperGoldRatio" }
func (f *CopperGoldRatio) Category() Category { return CategoryIntermarket }

func (f *CopperGoldRatio) Evaluate(_ *market.Frame, ctx *market.Context) (Result, error) {
	copper := ctx.IntermarketSeries(InterKeyCopper, 21)
	gold := ctx.IntermarketSeries(InterKeyGold, 21)
	if copper == nil || gold == nil {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 21, Got: 0}
	}
	ratios := ratioSeries(copper, gold)
	if len(ratios) < 21 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 21, Got: len(ratios)}
	}
	curr := ratios[len(ratios)-1]
	past := ratios[len(ratios)-21]
	changePct := 0.0
	if past != 0 {
		changePct = (curr - past) / past * 100
	}

	var direction int
	var strength float64
	var explanation string
	switch {
	case changePct > 2:
		direction = -1
		strength = capStrength(math.Abs(changePct) / 5)
		explanation = fmt.Sprintf("Copper/gold ratio +%.1f%% - capital rotating into growth assets", changePct)
	case changePct < -2:
		direction = 1
		strength = capStrength(math.Abs(changePct) / 5)
		explanation = fmt.Sprintf("Copper/gold ratio %.1f%% - growth fears favor alternative stores of value", changePct)
	default:
		direction = 0
		strength = 0.2
		explanation = fmt.Sprintf("Copper/gold ratio stable (%+.1f%%)", changePct)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    curr,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"change_pct": changePct},
	}, nil
}

// GoldOilRatio 金油比：高位代表避险主导，对加密的避险叙事偏多。
type GoldOilRatio struct{}

func NewGoldOilRatio() *GoldOilRatio { return &GoldOilRatio{} }

func (f *GoldOilRatio) Name() string       { return "GoldOilRatio" }
func (f *GoldOilRatio) Category() Category { return CategoryIntermarket }

func (f *GoldOilRatio) Evaluate(_ *market.Frame, ctx *market.Context) (Result, error) {
	gold := ctx.IntermarketSeries(InterKeyGold, 21)
	oil := ctx.IntermarketSeries(InterKeyCrude, 21)
	if gold == nil || oil == nil {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 21, Got: 0}
	}
	ratios := ratioSeries(gold, oil)
	if len(ratios) < 21 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 21, Got: len(ratios)}
	}
	curr := ratios[len(ratios)-1]
	past := ratios[len(ratios)-21]
	changePct := 0.0
	if past != 0 {
		changePct = (curr - past) / past * 100
	}

	var direction int
	var strength float64
	var explanation string
	switch {
	case curr > 30:
		direction = 1
		strength = capStrength((curr - 30) / 10)
		explanation = fmt.Sprintf("Gold/oil ratio at %.1f - safe-haven demand dominant", curr)
	case curr < 15:
		direction = -1
		strength = capStrength((15 - curr) / 5)
		explanation = fmt.Sprintf("Gold/oil ratio at %.1f - inflationary energy pressure", curr)
	case changePct > 5:
		direction = 1
		strength = capStrength(changePct / 10)
		explanation = fmt.Sprintf("Gold/oil ratio rising %+.1f%% - defensive rotation", changePct)
	case changePct < -5:
		direction = -1
		strength = capStrength(math.Abs(changePct) / 10)
		explanation = fmt.Sprintf("Gold/oil ratio falling %.1f%% - cyclical rotation", changePct)
	default:
		direction = 0
		strength = 0.2
		explanation = fmt.Sprintf("Gold/oil ratio %.1f in normal range", curr)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    curr,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"change_pct": changePct},
	}, nil
}

// BTCDominance BTC 市占率变动。对 BTC 自身与山寨币方向相反。
type BTCDominance struct{}

func NewBTCDominance() *BTCDominance { return &BTCDominance{} }

func (f *BTCDominance) Name() string       { return "BTCDominance" }
func (f *BTCDominance) Category() Category { return CategoryIntermarket }

func (f *BTCDominance) Evaluate(frame *market.Frame, ctx *market.Context) (Result, error) {
	s := ctx.IntermarketSeries(InterKeyBTCDominance, 6)
	if s == nil {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 6, Got: 0}
	}
	curr := s.Last()
	change := curr - s.At(5)

	isBTC := frame != nil && strings.HasPrefix(strings.ToUpper(frame.Symbol), "BTC")

	var direction int
	var strength float64
	var explanation string
	switch {
	case change > 1:
		strength = capStrength(math.Abs(change) / 3)
		if isBTC {
			direction = 1
			explanation = fmt.Sprintf("BTC dominance rising %+.1fpp - capital consolidating into BTC", change)
		} else {
			direction = -1
			explanation = fmt.Sprintf("BTC dominance rising %+.1fpp - altcoins bleeding", change)
		}
	case change < -1:
		strength = capStrength(math.Abs(change) / 3)
		if isBTC {
			direction = -1
			explanation = fmt.Sprintf("BTC dominance falling %.1fpp - rotation out of BTC", change)
		} else {
			direction = 1
			explanation = fmt.Sprintf("BTC dominance falling %.1fpp - altcoin season tailwind", change)
		}
	default:
		direction = 0
		strength = 0.2
		explanation = fmt.Sprintf("BTC dominance stable at %.1f%%", curr)
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
