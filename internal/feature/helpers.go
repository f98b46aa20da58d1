package feature

import "math"

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) && !math.IsInf(series[i], 0) {
			return series[i]
		}
	}
	return 0
}

// prevValid 返回倒数第二个有效值；不足两个时返回 fallback。
func prevValid(series []float64, fallback float64) float64 {
	seen := 0
	for i := len(series) - 1; i >= 0; i-- {
		if math.IsNaN(series[i]) || math.IsInf(series[i], 0) {
			continue
		}
		if seen == 1 {
			return series[i]
		}
		seen++
	}
	return fallback
}

func capStrength(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(1.0, v)
}

// rollingMean 返回窗口均值序列；窗口未满的前缀位置为 NaN。
func rollingMean(src []float64, window int) []float64 {
	out := make([]float64, len(src))
	var sum float64
	for i := range src {
		sum += src[i]
		if i >= window {
			sum -= src[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// percentileRank 返回 v 在 window 个历史值中的分位（严格大于的比例，0~1）。
func percentileRank(series []float64, window int) float64 {
	if len(series) == 0 {
		return 0.5
	}
	v := series[len(series)-1]
	start := len(series) - window
	if start < 0 {
		start = 0
	}
	hist := series[start : len(series)-1]
	if len(hist) == 0 {
		return 0.5
	}
	greater := 0
	for _, h := range hist {
		if v > h {
			greater++
		}
	}
	return float64(greater) / float64(len(hist))
}
