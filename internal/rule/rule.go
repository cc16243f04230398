// Package rule implements the entry/exit rule evaluator. Each rule id maps
// to a named deterministic predicate over the current bar and a bounded
// trailing window of history. Predicates never look ahead.
package rule

import (
	"sort"
	"sync"

	"github.com/stratlab/stratlab/internal/core"
	"github.com/stratlab/stratlab/internal/indicator"
)

// Evaluation windows and thresholds for the builtin predicates.
const (
	SMAWindow      = 20
	VolumeBaseline = 10
	RSIPeriod      = 14

	// MaxLookback is the longest trailing window any builtin predicate
	// reads. Callers may truncate history to this many bars.
	MaxLookback = SMAWindow + 1

	volumeSpikeRatio = 1.5
	rsiOversold      = 30.0
	rsiOverbought    = 70.0
)

// Builtin rule ids.
const (
	RuleAlways        = "always"
	RulePriceAboveSMA = "price_above_sma"
	RulePriceBelowSMA = "price_below_sma"
	RuleVolumeSpike   = "volume_spike"
	RuleRSIOversold   = "rsi_oversold"
	RuleRSIOverbought = "rsi_overbought"
)

// Predicate decides whether a condition holds on the current bar.
// history is the trailing window ending at and including the current bar.
type Predicate func(bar core.Bar, history []core.Bar) bool

// Registry maps rule ids to predicates.
type Registry struct {
	mu    sync.RWMutex
	preds map[string]Predicate
}

// NewRegistry creates a registry with all builtin predicates registered.
func NewRegistry() *Registry {
	r := &Registry{preds: make(map[string]Predicate)}
	r.Register(RuleAlways, func(core.Bar, []core.Bar) bool { return true })
	r.Register(RulePriceAboveSMA, priceAboveSMA)
	r.Register(RulePriceBelowSMA, priceBelowSMA)
	r.Register(RuleVolumeSpike, volumeSpike)
	r.Register(RuleRSIOversold, rsiBelow(rsiOversold))
	r.Register(RuleRSIOverbought, rsiAbove(rsiOverbought))
	return r
}

// Register adds or replaces a predicate under the given id.
func (r *Registry) Register(id string, p Predicate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preds[id] = p
}

// Has reports whether a rule id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.preds[id]
	return ok
}

// IDs returns all registered rule ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.preds))
	for id := range r.preds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ShouldEnter reports whether all listed entry rules pass (logical AND).
// An empty rule list never fires (fail-closed). Indicator predicates fail
// closed on their own when the history window is too short for them.
func (r *Registry) ShouldEnter(rules []string, bar core.Bar, history []core.Bar) bool {
	if len(rules) == 0 || len(history) == 0 {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range rules {
		p, ok := r.preds[id]
		if !ok || !p(bar, history) {
			return false
		}
	}
	return true
}

// ShouldExit reports whether the open position must be closed on this bar.
// Stop-loss and take-profit breaches take precedence and short-circuit the
// listed exit rules, which otherwise fire on logical OR.
func (r *Registry) ShouldExit(strat core.StrategyConfig, bar core.Bar, history []core.Bar, pos core.Position) bool {
	unrealized := pos.UnrealizedPct(bar.Close)

	if strat.StopLossPct > 0 && unrealized <= -strat.StopLossPct {
		return true
	}
	if strat.TakeProfitPct > 0 && unrealized >= strat.TakeProfitPct {
		return true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range strat.ExitRules {
		if p, ok := r.preds[id]; ok && p(bar, history) {
			return true
		}
	}
	return false
}

func closes(history []core.Bar) []float64 {
	prices := make([]float64, len(history))
	for i, b := range history {
		prices[i] = b.Close
	}
	return prices
}

func priceAboveSMA(bar core.Bar, history []core.Bar) bool {
	sma := indicator.SMA(closes(history), SMAWindow)
	if len(sma) == 0 {
		return false
	}
	return bar.Close > sma[len(sma)-1]
}

func priceBelowSMA(bar core.Bar, history []core.Bar) bool {
	sma := indicator.SMA(closes(history), SMAWindow)
	if len(sma) == 0 {
		return false
	}
	return bar.Close < sma[len(sma)-1]
}

func volumeSpike(bar core.Bar, history []core.Bar) bool {
	// Baseline is the mean volume of the bars preceding the current one.
	if len(history) < VolumeBaseline+1 {
		return false
	}
	prior := history[len(history)-VolumeBaseline-1 : len(history)-1]
	volumes := make([]float64, len(prior))
	for i, b := range prior {
		volumes[i] = float64(b.Volume)
	}
	baseline := indicator.Mean(volumes)
	if baseline == 0 {
		return false
	}
	return float64(bar.Volume) > volumeSpikeRatio*baseline
}

func rsiBelow(threshold float64) Predicate {
	return func(_ core.Bar, history []core.Bar) bool {
		rsi, ok := indicator.RSI(closes(history), RSIPeriod)
		return ok && rsi < threshold
	}
}

func rsiAbove(threshold float64) Predicate {
	return func(_ core.Bar, history []core.Bar) bool {
		rsi, ok := indicator.RSI(closes(history), RSIPeriod)
		return ok && rsi > threshold
	}
}
