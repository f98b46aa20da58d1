package engine

import (
	"errors"
	"sort"

	"oracle/internal/feature"
	"oracle/internal/logger"
	"oracle/internal/market"
)

// ErrNoFeaturesEvaluated 表示没有任何特征成功给出读数，
// 此时不能返回一个伪中性的决策。
var ErrNoFeaturesEvaluated = errors.New("engine: no features evaluated")

// scoreOutcome 是 Layer 1 的完整输出。
type scoreOutcome struct {
	RawScore      float64
	Contributions []Contribution // 按注册顺序
	Results       []feature.Result
	Evaluated     int // 成功评估（非数据缺失回退）的特征数
}

// runLayer1 逐特征评估并加权求和。
//   - 数据不足的特征记为中性读数继续，不中断整次决策；
//   - 权重为 0 的特征视为停用，直接跳过；
//   - 现货市场跳过衍生品类特征。
func runLayer1(
	reg *feature.Registry,
	resolver WeightResolver,
	frame *market.Frame,
	ctx *market.Context,
	class TimeframeClass,
	symbol string,
	marketType MarketType,
) (*scoreOutcome, error) {
	out := &scoreOutcome{}

	for _, ev := range reg.All() {
		if ev.Category() == feature.CategoryDerivatives && !marketType.SupportsDerivatives() {
			continue
		}
		weight := sanitizeWeight(resolver.Resolve(ev.Name(), class, symbol), ev.Name())
		if weight == 0 {
			continue
		}

		result, err := ev.Evaluate(frame, ctx)
		if err != nil {
			var insufficient *feature.InsufficientDataError
			if errors.As(err, &insufficient) {
				logger.Debugf("feature %s skipped: %v", ev.Name(), err)
				result = feature.Neutral(ev.Name(), ev.Category(), "insufficient data")
			} else {
				logger.Errorf("feature %s failed: %v", ev.Name(), err)
				result = feature.Neutral(ev.Name(), ev.Category(), "evaluation error")
			}
		} else {
			if verr := result.Validate(); verr != nil {
				logger.Errorf("feature %s produced invalid result: %v", ev.Name(), verr)
				result = feature.Neutral(ev.Name(), ev.Category(), "invalid result")
			} else {
				out.Evaluated++
			}
		}

		contribution := weight * float64(result.Direction) * result.Strength
		out.RawScore += contribution
		out.Results = append(out.Results, result)
		out.Contributions = append(out.Contributions, Contribution{
			Feature:     result.Name,
			Category:    result.Category,
			RawValue:    result.RawValue,
			Direction:   result.Direction,
			Strength:    result.Strength,
			Weight:      weight,
			Value:       contribution,
			Explanation: result.Explanation,
		})
	}

	if out.Evaluated == 0 {
		return nil, ErrNoFeaturesEvaluated
	}
	return out, nil
}

// topDrivers 按 |贡献| 取前 n 条；并列按注册顺序裁决（稳定排序），
// 贡献恰为 0 的不参与排名。
func topDrivers(contributions []Contribution, n int) []Contribution {
	ranked := make([]Contribution, 0, len(contributions))
	for _, c := range contributions {
		if c.Value != 0 {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return abs(ranked[i].Value) > abs(ranked[j].Value)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
