package market

// Series 是一条外部行情序列（宏观指数、跨市场品种等），按时间升序。
type Series struct {
	Name   string
	Values []float64
}

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// Last 返回序列最新值；空序列返回 0。
func (s *Series) Last() float64 {
	if s.Len() == 0 {
		return 0
	}
	return s.Values[len(s.Values)-1]
}

// At 返回倒数第 n 个值（n=0 即最新值）；越界时返回最新值。
func (s *Series) At(n int) float64 {
	if s.Len() == 0 {
		return 0
	}
	idx := len(s.Values) - 1 - n
	if idx < 0 {
		idx = 0
	}
	return s.Values[idx]
}

// Derivatives 携带合约市场上下文（由外部数据网关填充）。
type Derivatives struct {
	FundingRates *Series // 最近的资金费率序列（8h 周期）
	OpenInterest *Series // 未平仓量序列
	MarkPrice    float64
	IndexPrice   float64
	LongLiqUSD   float64 // 最近窗口多头爆仓额
	ShortLiqUSD  float64 // 最近窗口空头爆仓额
	AvgLiqUSD    float64 // 爆仓额滚动均值
	HasLiqData   bool
	HasMarkIndex bool
}

// Sentiment 携带新闻/情绪标量。FearIndex ∈ [-1, 1]，正值代表恐慌。
type Sentiment struct {
	FearIndex float64
	NewsCount int
	Urgency   float64
}

// Context 汇总一次评估可用的全部外部数据，均为可选项。
// 核心引擎只读取，不负责获取。
type Context struct {
	Derivatives *Derivatives
	Macro       map[string]*Series // "DXY", "VIX", "TNX", "REAL_YIELDS", "INFLATION_EXP"
	Intermarket map[string]*Series // "GOLD", "SILVER", "COPPER", "CRUDE", "BTC_DOMINANCE"
	Sentiment   *Sentiment
}

// MacroSeries 返回指定宏观序列；不存在或长度不足 minRows 时返回 nil。
func (c *Context) MacroSeries(key string, minRows int) *Series {
	if c == nil || c.Macro == nil {
		return nil
	}
	s := c.Macro[key]
	if s.Len() < minRows {
		return nil
	}
	return s
}

// IntermarketSeries 返回指定跨市场序列；不存在或长度不足 minRows 时返回 nil。
func (c *Context) IntermarketSeries(key string, minRows int) *Series {
	if c == nil || c.Intermarket == nil {
		return nil
	}
	s := c.Intermarket[key]
	if s.Len() < minRows {
		return nil
	}
	return s
}
