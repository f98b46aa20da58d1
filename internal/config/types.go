package config

import "strings"

// Config 是整个服务的配置根节点。
type Config struct {
	App      AppConfig        `toml:"app"`
	Market   MarketConfig     `toml:"market"`
	Store    StoreConfig      `toml:"store"`
	Analysis AnalysisConfig   `toml:"analysis"`
	Weights  []WeightOverride `toml:"weights"`
}

// AppConfig 进程级配置。
type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
	HTTPAddr string `toml:"http_addr"`
}

// MarketConfig 行情数据源配置（Binance 合约）。
type MarketConfig struct {
	RESTBaseURL        string `toml:"rest_base_url"`
	HTTPTimeoutSeconds int    `toml:"http_timeout_seconds"`
	ProxyEnabled       bool   `toml:"proxy_enabled"`
	RESTProxyURL       string `toml:"rest_proxy_url"`
}

// StoreConfig 决策持久化配置。
type StoreConfig struct {
	DecisionDB string `toml:"decision_db"`
}

// SymbolConfig 一个待分析的标的。
type SymbolConfig struct {
	Symbol     string `toml:"symbol"`
	MarketType string `toml:"market_type"` // SPOT / PERPETUAL / FUTURES
}

// AnalysisConfig 批量分析配置。
type AnalysisConfig struct {
	Symbols        []SymbolConfig `toml:"symbols"`
	Timeframes     []string       `toml:"timeframes"`
	CandleLimit    int            `toml:"candle_limit"`
	OffsetSeconds  int            `toml:"offset_seconds"` // K 线收盘后延迟执行的秒数
	RunImmediately bool           `toml:"run_immediately"`
	TopDrivers     int            `toml:"top_drivers"`
	MaxParallel    int            `toml:"max_parallel"`
}

// WeightOverride 一条特征权重覆盖。Symbol 为空时作用于该档位全部标的；
// Weight 为 0 表示停用该特征。
type WeightOverride struct {
	Feature string  `toml:"feature"`
	Class   string  `toml:"class"` // SHORT / MEDIUM / LONG
	Symbol  string  `toml:"symbol"`
	Weight  float64 `toml:"weight"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
