package feature

import (
	"fmt"
	"sync"
)

// Registry 维护 name → Evaluator 的有序映射。
// 注册只发生在进程初始化阶段，之后只读，可被并发查询。
type Registry struct {
	mu    sync.RWMutex
	order []string
	byKey map[string]Evaluator
}

func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Evaluator)}
}

// Register 注册一个评估器；重名视为配置缺陷，直接报错。
func (r *Registry) Register(ev Evaluator) error {
	if ev == nil {
		return fmt.Errorf("registry: nil evaluator")
	}
	name := ev.Name()
	if name == "" {
		return fmt.Errorf("registry: evaluator name is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKey[name]; exists {
		return fmt.Errorf("registry: duplicate registration of %q", name)
	}
	r.byKey[name] = ev
	r.order = append(r.order, name)
	return nil
}

// MustRegister 注册失败时 panic，仅供启动期使用。
func (r *Registry) MustRegister(ev Evaluator) {
	if err := r.Register(ev); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (Evaluator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ev, ok := r.byKey[name]
	return ev, ok
}

// All 按注册顺序返回全部评估器。
func (r *Registry) All() []Evaluator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Evaluator, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byKey[name])
	}
	return out
}

// ByCategory 按注册顺序返回指定类别的评估器。
func (r *Registry) ByCategory(cat Category) []Evaluator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Evaluator
	for _, name := range r.order {
		if ev := r.byKey[name]; ev.Category() == cat {
			out = append(out, ev)
		}
	}
	return out
}

// Names 按注册顺序返回全部名称。
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// NewDefaultRegistry 注册全部内置特征，顺序即 top driver 的并列裁决顺序。
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, ev := range []Evaluator{
		// technical
		NewRSI(14),
		NewMACD(12, 26, 9),
		NewStochastic(14, 3),
		NewBollingerBands(20, 2),
		NewBBWidth(20, 2),
		NewATR(14),
		NewADX(14),
		NewEMACross(20, 50),
		NewSMA(20),
		NewMACross(50, 200),
		NewPriceMomentum(5, 10, 20),
		NewSupertrend(10, 3),
		NewVWAP(),
		NewVolumeRatio(20),
		// crypto derivatives
		NewFundingRate(),
		NewOpenInterest(),
		NewBasis(),
		NewLiquidations(),
		NewOIVolumeRatio(),
		// macro
		NewDXY(),
		NewVIX(),
		NewTreasury10Y(),
		NewRealYields(),
		// intermarket
		NewGoldSilverRatio(),
		NewCopperGoldRatio(),
		NewGoldOilRatio(),
		NewBTCDominance(),
		// sentiment
		NewNewsSentiment(),
		NewMarketFearGauge(),
	} {
		r.MustRegister(ev)
	}
	return r
}
