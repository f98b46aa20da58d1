package market

// Candle 表示单根 K 线。
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Frame 是按时间升序排列的 K 线序列，是所有特征计算的输入。
type Frame struct {
	Symbol   string
	Interval string
	Candles  []Candle
}

func NewFrame(symbol, interval string, candles []Candle) *Frame {
	return &Frame{Symbol: symbol, Interval: interval, Candles: candles}
}

func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Candles)
}

// Last 返回最后一根 K 线；空帧返回零值。
func (f *Frame) Last() Candle {
	if f.Len() == 0 {
		return Candle{}
	}
	return f.Candles[len(f.Candles)-1]
}

func (f *Frame) Closes() []float64 {
	out := make([]float64, f.Len())
	for i, c := range f.Candles {
		out[i] = c.Close
	}
	return out
}

func (f *Frame) Highs() []float64 {
	out := make([]float64, f.Len())
	for i, c := range f.Candles {
		out[i] = c.High
	}
	return out
}

func (f *Frame) Lows() []float64 {
	out := make([]float64, f.Len())
	for i, c := range f.Candles {
		out[i] = c.Low
	}
	return out
}

func (f *Frame) Volumes() []float64 {
	out := make([]float64, f.Len())
	for i, c := range f.Candles {
		out[i] = c.Volume
	}
	return out
}
