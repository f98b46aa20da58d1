// Package binance 基于 go-binance 合约 SDK 拉取 K 线与衍生品上下文。
package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2/futures"

	"oracle/internal/market"
	"oracle/internal/scheduler"
)

const (
	maxHistoryLimit   = 1500
	fundingRateLimit  = 100
	openInterestLimit = 100
)

// Source 基于 go-binance SDK 的行情数据源。
type Source struct {
	cfg    Config
	client *futures.Client
}

func New(cfg Config) (*Source, error) {
	final := cfg.withDefaults()
	client := futures.NewClient("", "")
	client.BaseURL = strings.TrimSpace(final.RESTBaseURL)
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyEnabled && final.RESTProxyURL != "" {
		proxyURL, err := url.Parse(final.RESTProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REST proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient
	return &Source{cfg: final, client: client}, nil
}

// FetchHistory 拉取历史 K 线，丢弃未收盘的最后一根。
func (s *Source) FetchHistory(ctx context.Context, symbol, interval string, limit int) (*market.Frame, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.TrimSpace(interval)
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	kls, err := s.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, err)
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	if iv, ok := scheduler.ParseInterval(interval); ok {
		out = scheduler.DropUnclosedBinanceKline(out, iv)
	}
	return market.NewFrame(symbol, interval, out), nil
}

// FetchContext 拉取合约市场上下文：资金费率、持仓量、标记/指数价。
// 任一子项失败只记为缺失，不中断整体。
func (s *Source) FetchContext(ctx context.Context, symbol string) (*market.Context, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	deriv := &market.Derivatives{}

	if rates, err := s.client.NewFundingRateService().Symbol(symbol).Limit(fundingRateLimit).Do(ctx); err == nil && len(rates) > 0 {
		values := make([]float64, 0, len(rates))
		for _, r := range rates {
			// 交易所返回小数费率，评估器按百分比解读
			values = append(values, parseFloat(r.FundingRate)*100)
		}
		deriv.FundingRates = &market.Series{Name: "funding_rate", Values: values}
	}

	if hist, err := s.client.NewOpenInterestStatisticsService().
		Symbol(symbol).Period("1h").Limit(openInterestLimit).Do(ctx); err == nil && len(hist) > 0 {
		values := make([]float64, 0, len(hist))
		for _, h := range hist {
			values = append(values, parseFloat(h.SumOpenInterest))
		}
		deriv.OpenInterest = &market.Series{Name: "open_interest", Values: values}
	}

	if premiums, err := s.client.NewPremiumIndexService().Symbol(symbol).Do(ctx); err == nil && len(premiums) > 0 {
		p := premiums[0]
		deriv.MarkPrice = parseFloat(p.MarkPrice)
		deriv.IndexPrice = parseFloat(p.IndexPrice)
		deriv.HasMarkIndex = deriv.IndexPrice > 0
	}

	return &market.Context{Derivatives: deriv}, nil
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
