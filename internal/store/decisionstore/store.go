// Package decisionstore 用 Gorm + SQLite 持久化决策记录，供 API 层查询。
package decisionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"oracle/internal/engine"
)

// ErrNotFound 查询无结果。
var ErrNotFound = errors.New("decision store: not found")

// Store 决策持久化存储。
type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("decision store: db path is required")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&DecisionModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL：少量并行即可支撑 HTTP 并发读，同时控制锁竞争。
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save 写入一条决策记录。
func (s *Store) Save(ctx context.Context, d *engine.Decision) error {
	if d == nil {
		return fmt.Errorf("decision store: nil decision")
	}
	model, err := toModel(d)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(model).Error
}

// Latest 返回指定标的与周期的最新决策。
func (s *Store) Latest(ctx context.Context, symbol, timeframe string) (*DecisionModel, error) {
	var model DecisionModel
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND timeframe = ?", strings.ToUpper(symbol), timeframe).
		Order("generated_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// List 返回最近的决策记录，symbol / timeframe 为空时不过滤。
func (s *Store) List(ctx context.Context, symbol, timeframe string, limit int) ([]DecisionModel, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Model(&DecisionModel{})
	if symbol = strings.TrimSpace(symbol); symbol != "" {
		q = q.Where("symbol = ?", strings.ToUpper(symbol))
	}
	if timeframe = strings.TrimSpace(timeframe); timeframe != "" {
		q = q.Where("timeframe = ?", timeframe)
	}
	var out []DecisionModel
	if err := q.Order("generated_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func toModel(d *engine.Decision) (*DecisionModel, error) {
	invalidations, err := json.Marshal(d.InvalidationConditions)
	if err != nil {
		return nil, err
	}
	drivers, err := json.Marshal(d.TopDrivers)
	if err != nil {
		return nil, err
	}
	regime, err := json.Marshal(d.Regime)
	if err != nil {
		return nil, err
	}
	consensus, err := json.Marshal(d.Consensus)
	if err != nil {
		return nil, err
	}
	features, err := json.Marshal(d.Features)
	if err != nil {
		return nil, err
	}

	model := &DecisionModel{
		ID:               d.ID,
		Symbol:           d.Symbol,
		MarketType:       string(d.MarketType),
		Timeframe:        d.Timeframe,
		Class:            string(d.Class),
		GeneratedAt:      d.GeneratedAt,
		Signal:           string(d.Signal),
		Bias:             string(d.Bias),
		Confidence:       d.Confidence,
		RawScore:         d.RawScore,
		FilteredScore:    d.FilteredScore,
		MaxPossibleScore: d.MaxPossibleScore,
		Invalidations:    invalidations,
		TopDrivers:       drivers,
		Regime:           regime,
		Consensus:        consensus,
		Features:         features,
	}
	if d.TradeParams != nil {
		model.EntryPrice = d.TradeParams.EntryPrice.String()
		model.StopLoss = d.TradeParams.StopLoss.String()
		model.TakeProfit = d.TradeParams.TakeProfit.String()
		model.RiskReward = d.TradeParams.RiskReward.String()
	}
	return model, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
