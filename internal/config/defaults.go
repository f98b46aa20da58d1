package config

import "strings"

// 默认值常量
const (
	defaultAppEnv         = "dev"
	defaultAppLogLevel    = "info"
	defaultAppHTTPAddr    = ":9991"
	defaultAppLogPath     = "/data/logs/oracle.log"
	defaultMarketREST     = "https://fapi.binance.com"
	defaultMarketTimeout  = 15
	defaultDecisionDB     = "/data/db/decisions.db"
	defaultCandleLimit    = 300
	defaultOffsetSeconds  = 10
	defaultTopDrivers     = 5
	defaultMaxParallel    = 4
	defaultAnalysisMarket = "PERPETUAL"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Analysis.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.rest_base_url", &m.RESTBaseURL, defaultMarketREST),
		fieldDefault{
			key:   "market.http_timeout_seconds",
			need:  func() bool { return m.HTTPTimeoutSeconds <= 0 },
			apply: func() { m.HTTPTimeoutSeconds = defaultMarketTimeout },
		},
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.decision_db", &s.DecisionDB, defaultDecisionDB),
	)
}

func (a *AnalysisConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "analysis.candle_limit",
			need:  func() bool { return a.CandleLimit <= 0 },
			apply: func() { a.CandleLimit = defaultCandleLimit },
		},
		fieldDefault{
			key:   "analysis.offset_seconds",
			need:  func() bool { return a.OffsetSeconds <= 0 },
			apply: func() { a.OffsetSeconds = defaultOffsetSeconds },
		},
		fieldDefault{
			key:   "analysis.top_drivers",
			need:  func() bool { return a.TopDrivers <= 0 },
			apply: func() { a.TopDrivers = defaultTopDrivers },
		},
		fieldDefault{
			key:   "analysis.max_parallel",
			need:  func() bool { return a.MaxParallel <= 0 },
			apply: func() { a.MaxParallel = defaultMaxParallel },
		},
	)
	if len(a.Timeframes) == 0 {
		a.Timeframes = []string{"1h", "4h", "1d"}
	}
	for i := range a.Symbols {
		if strings.TrimSpace(a.Symbols[i].MarketType) == "" {
			a.Symbols[i].MarketType = defaultAnalysisMarket
		}
	}
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
