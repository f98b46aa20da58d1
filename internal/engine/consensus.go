package engine

import (
	"fmt"

	"oracle/internal/feature"
)

// 共识档位阈值与置信度乘数。
// 冲突惩罚可叠乘：冲突越多，置信度单调下降。
const (
	strongConsensusPct    = 75.0
	moderateConsensusPct  = 60.0
	weakConsensusPct      = 50.0
	lowConsensusMult      = 0.85
	conflictMult          = 0.9
	conflictVoteThreshold = 2 // 类别内超过该票数视为超多数
)

// computeConsensus 统计各类别的方向票，给出共识比例、冲突列表与置信度乘数。
// 共识比例 = max(总多票, 总空票) / 有方向票数 × 100；无方向票时记 0 并视为无共识。
func computeConsensus(results []feature.Result) ConsensusResult {
	votes := make(map[feature.Category]CategoryVotes)
	var totalBull, totalBear, totalNeutral int

	for _, r := range results {
		v := votes[r.Category]
		switch {
		case r.Direction > 0:
			v.Bull++
			totalBull++
		case r.Direction < 0:
			v.Bear++
			totalBear++
		default:
			v.Neutral++
			totalNeutral++
		}
		votes[r.Category] = v
	}

	totalSignals := totalBull + totalBear
	pct := 0.0
	if totalSignals > 0 {
		pct = float64(max(totalBull, totalBear)) / float64(totalSignals) * 100
	}

	level := classifyAgreement(pct, totalSignals)
	conflicts := detectConflicts(votes)

	multiplier := 1.0
	if level == WeakConsensus || level == NoConsensus {
		multiplier = lowConsensusMult
	}
	for range conflicts {
		multiplier *= conflictMult
	}

	return ConsensusResult{
		CategoryVotes:        votes,
		ConsensusPercentage:  pct,
		AgreementLevel:       level,
		Conflicts:            conflicts,
		TotalBull:            totalBull,
		TotalBear:            totalBear,
		TotalNeutral:         totalNeutral,
		ConfidenceMultiplier: multiplier,
	}
}

func classifyAgreement(pct float64, totalSignals int) AgreementLevel {
	if totalSignals == 0 {
		return NoConsensus
	}
	switch {
	case pct >= strongConsensusPct:
		return StrongConsensus
	case pct >= moderateConsensusPct:
		return ModerateConsensus
	case pct >= weakConsensusPct:
		return WeakConsensus
	default:
		return NoConsensus
	}
}

// detectConflicts 当类别 A 的多头票与类别 B 的空头票同时形成超多数时记一条冲突。
// 按固定类别顺序遍历以保证输出确定。
func detectConflicts(votes map[feature.Category]CategoryVotes) []string {
	var conflicts []string
	cats := feature.Categories()
	for _, bullCat := range cats {
		bv, ok := votes[bullCat]
		if !ok || bv.Bull <= conflictVoteThreshold {
			continue
		}
		for _, bearCat := range cats {
			if bearCat == bullCat {
				continue
			}
			sv, ok := votes[bearCat]
			if !ok || sv.Bear <= conflictVoteThreshold {
				continue
			}
			conflicts = append(conflicts, fmt.Sprintf(
				"%s bullish (%d votes) but %s bearish (%d votes)",
				bullCat, bv.Bull, bearCat, sv.Bear,
			))
		}
	}
	return conflicts
}
