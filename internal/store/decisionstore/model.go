package decisionstore

import (
	"time"

	"gorm.io/datatypes"
)

// DecisionModel 是决策记录的数据库模型。
// 结构化子对象（驱动因子、状态上下文、共识、全部特征读数）存为 JSON 列。
type DecisionModel struct {
	ID          string    `gorm:"primaryKey;size:64"`
	Symbol      string    `gorm:"size:32;index:idx_decisions_symbol_tf"`
	MarketType  string    `gorm:"size:16"`
	Timeframe   string    `gorm:"size:8;index:idx_decisions_symbol_tf"`
	Class       string    `gorm:"size:8"`
	GeneratedAt time.Time `gorm:"index"`

	Signal     string `gorm:"size:16;index"`
	Bias       string `gorm:"size:8"`
	Confidence int

	RawScore         float64
	FilteredScore    float64
	MaxPossibleScore float64

	EntryPrice string `gorm:"size:40"`
	StopLoss   string `gorm:"size:40"`
	TakeProfit string `gorm:"size:40"`
	RiskReward string `gorm:"size:16"`

	Invalidations datatypes.JSON
	TopDrivers    datatypes.JSON
	Regime        datatypes.JSON
	Consensus     datatypes.JSON
	Features      datatypes.JSON

	CreatedAt time.Time
}

func (DecisionModel) TableName() string { return "decisions" }
