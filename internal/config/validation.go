package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Analysis.validate(); err != nil {
		return err
	}
	for i, w := range c.Weights {
		if strings.TrimSpace(w.Feature) == "" {
			return fmt.Errorf("weights[%d] missing feature name", i)
		}
		switch strings.ToUpper(strings.TrimSpace(w.Class)) {
		case "SHORT", "MEDIUM", "LONG":
		default:
			return fmt.Errorf("weights[%d] invalid class %q (want SHORT/MEDIUM/LONG)", i, w.Class)
		}
	}
	return nil
}

func (a *AnalysisConfig) validate() error {
	if len(a.Symbols) == 0 {
		return fmt.Errorf("analysis.symbols requires at least one symbol")
	}
	for i, s := range a.Symbols {
		if strings.TrimSpace(s.Symbol) == "" {
			return fmt.Errorf("analysis.symbols[%d] missing symbol", i)
		}
		switch strings.ToUpper(strings.TrimSpace(s.MarketType)) {
		case "SPOT", "PERPETUAL", "FUTURES":
		default:
			return fmt.Errorf("analysis.symbols[%d] invalid market_type %q", i, s.MarketType)
		}
	}
	for i, tf := range a.Timeframes {
		if strings.TrimSpace(tf) == "" {
			return fmt.Errorf("analysis.timeframes[%d] is empty", i)
		}
	}
	return nil
}
