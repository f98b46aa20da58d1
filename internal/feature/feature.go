// Package feature 定义特征评估器契约与全部内置指标实现。
// 每个评估器把一段 K 线（加可选市场上下文）映射为一个带方向与强度的读数，
// 这些读数是决策引擎唯一的证据来源。
package feature

import (
	"fmt"

	"oracle/internal/market"
)

// Category 是特征的证据类别，决定共识引擎的分组方式。
type Category string

const (
	CategoryTechnical   Category = "TECHNICAL"
	CategoryMacro       Category = "MACRO"
	CategoryIntermarket Category = "INTERMARKET"
	CategoryDerivatives Category = "CRYPTO_DERIVATIVES"
	CategorySentiment   Category = "SENTIMENT"
)

// Categories 按固定顺序列出全部类别。
func Categories() []Category {
	return []Category{
		CategoryTechnical,
		CategoryMacro,
		CategoryIntermarket,
		CategoryDerivatives,
		CategorySentiment,
	}
}

// Result 是一次评估的输出。Direction ∈ {-1,0,1}，Strength ∈ [0,1]。
// Direction 为 0 时该特征对总分贡献恒为 0。
type Result struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	RawValue    float64  `json:"raw_value"`
	Direction   int      `json:"direction"`
	Strength    float64  `json:"strength"`
	Explanation string   `json:"explanation"`
	// Metadata 携带下游层需要的数值旁路（ATR 分位、squeeze 标记、EMA 水位等）。
	// 布尔语义用 1/0 表达。
	Metadata map[string]float64 `json:"metadata,omitempty"`
}

// Neutral 构造一个零贡献读数，用于数据缺失等可恢复场景。
func Neutral(name string, cat Category, explanation string) Result {
	return Result{Name: name, Category: cat, Direction: 0, Strength: 0, Explanation: explanation}
}

// Validate 检查结果是否满足方向与强度不变量。
func (r Result) Validate() error {
	if r.Direction < -1 || r.Direction > 1 {
		return fmt.Errorf("feature %s: direction %d out of {-1,0,1}", r.Name, r.Direction)
	}
	if r.Strength < 0 || r.Strength > 1 {
		return fmt.Errorf("feature %s: strength %.4f out of [0,1]", r.Name, r.Strength)
	}
	return nil
}

// InsufficientDataError 表示输入 K 线长度不足以计算该指标。
// 引擎按特征粒度捕获它并以中性读数继续，不中断整个决策。
type InsufficientDataError struct {
	Feature string
	Need    int
	Got     int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data, need %d candles, got %d", e.Feature, e.Need, e.Got)
}

// Evaluator 是单个指标的计算契约。实现必须无副作用且对相同输入返回相同结果。
type Evaluator interface {
	Name() string
	Category() Category
	// Evaluate 返回一个 Result；当 frame 短于指标回看窗口时返回 *InsufficientDataError。
	Evaluate(frame *market.Frame, ctx *market.Context) (Result, error)
}
