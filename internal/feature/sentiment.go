package feature

import (
	"fmt"
	"math"

	"oracle/internal/market"
)

// NewsSentiment 新闻恐慌读数的反向解读：恐慌升温视为出清信号。
// 高紧迫度新闻给 1.3 倍加成。
type NewsSentiment struct{}

func NewNewsSentiment() *NewsSentiment { return &NewsSentiment{} }

func (f *NewsSentiment) Name() string       { return "NewsSentiment" }
func (f *NewsSentiment) Category() Category { return CategorySentiment }

func (f *NewsSentiment) Evaluate(_ *market.Frame, ctx *market.Context) (Result, error) {
	if ctx == nil || ctx.Sentiment == nil || ctx.Sentiment.NewsCount == 0 {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 1, Got: 0}
	}
	s := ctx.Sentiment
	fear := s.FearIndex

	var direction int
	var strength float64
	var explanation string
	switch {
	case fear > 0.1:
		direction = 1
		strength = capStrength(math.Abs(fear) * 2)
		explanation = fmt.Sprintf("News fear index %.2f across %d items - contrarian bullish", fear, s.NewsCount)
	case fear < -0.1:
		direction = -1
		strength = capStrength(math.Abs(fear) * 2)
		explanation = fmt.Sprintf("News greed index %.2f across %d items - contrarian bearish", fear, s.NewsCount)
	default:
		direction = 0
		strength = 0.3
		explanation = fmt.Sprintf("News sentiment neutral (%.2f, %d items)", fear, s.NewsCount)
	}
	if s.Urgency > 0.5 {
		strength = capStrength(strength * 1.3)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    fear,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"urgency": s.Urgency, "news_count": float64(s.NewsCount)},
	}, nil
}

// MarketFearGauge 把 VIX 与新闻恐慌合成一个综合恐慌分。
// score = norm(VIX) × 0.6 + fear × 0.4，正分按反向逻辑看多。
type MarketFearGauge struct{}

func NewMarketFearGauge() *MarketFearGauge { return &MarketFearGauge{} }

func (f *MarketFearGauge) Name() string       { return "MarketFearGauge" }
func (f *MarketFearGauge) Category() Category { return CategorySentiment }

func (f *MarketFearGauge) Evaluate(_ *market.Frame, ctx *market.Context) (Result, error) {
	vixSeries := ctx.MacroSeries(MacroKeyVIX, 1)
	if vixSeries == nil || ctx.Sentiment == nil {
		return Result{}, &InsufficientDataError{Feature: f.Name(), Need: 1, Got: 0}
	}
	vix := vixSeries.Last()
	fear := ctx.Sentiment.FearIndex
	vixNorm := (vix - 15) / 20
	score := vixNorm*0.6 + fear*0.4

	var direction int
	var strength float64
	var explanation string
	switch {
	case score > 0.3:
		direction = 1
		strength = capStrength(math.Abs(score))
		explanation = fmt.Sprintf("Composite fear %.2f elevated - contrarian accumulation zone", score)
	case score < -0.3:
		direction = -1
		strength = capStrength(math.Abs(score))
		explanation = fmt.Sprintf("Composite fear %.2f depressed - complacency risk", score)
	default:
		direction = 0
		strength = 0.3
		explanation = fmt.Sprintf("Composite fear %.2f in normal band", score)
	}
	return Result{
		Name:        f.Name(),
		Category:    f.Category(),
		RawValue:    score,
		Direction:   direction,
		Strength:    strength,
		Explanation: explanation,
		Metadata:    map[string]float64{"vix": vix, "fear_index": fear},
	}, nil
}
