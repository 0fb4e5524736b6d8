// Package score ranks rendering providers for one scene fragment under a
// running budget. Scoring is read-only; budget debiting belongs to the caller
// that walks scenes in order.
package score

import (
	"sort"

	"reelforge/internal/pricing"
	"reelforge/internal/types"
)

// Weights are the heuristic scoring constants. Their shape (capability match,
// fidelity bonus, budget penalty) is the contract; the numbers are tunable.
type Weights struct {
	DialogueAvatar    float64 // dialogue fragment on an avatar provider
	VisualCinematic   float64 // visual fragment on a cinematic provider
	FidelityBonus     float64 // long visual scene on a high-fidelity variant
	GenericPaid       float64 // connected paid provider with no capability match
	TemplateFloor     float64 // the fallback always ranks lowest
	BudgetPenalty     float64 // subtracted when a candidate exceeds the remaining budget
	FidelityMinSec    int     // minimum duration for the fidelity bonus
}

// DefaultWeights returns the standard scoring constants.
func DefaultWeights() Weights {
	return Weights{
		DialogueAvatar:  55,
		VisualCinematic: 45,
		FidelityBonus:   10,
		GenericPaid:     15,
		TemplateFloor:   1,
		BudgetPenalty:   1000,
		FidelityMinSec:  10,
	}
}

// Candidate is one ranked provider choice for a fragment.
type Candidate struct {
	Provider    string
	Model       string
	DurationSec int
	CostUSD     float64
	Score       float64 // after any budget penalty
	BaseScore   float64 // before the budget penalty
	OverBudget  bool
}

// Scorer ranks providers with a fixed weight set.
type Scorer struct {
	w Weights
}

// New returns a Scorer with the given weights.
func New(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Rank scores every connected provider (plus the template fallback) for the
// fragment and returns candidates sorted by descending score. Ordering is
// deterministic: ties keep catalog declaration order. The slice is never
// empty — the template fallback is always present.
func (s *Scorer) Rank(frag types.Fragment, platform types.Platform, connected []string, remainingBudget float64) []Candidate {
	set := make(map[string]bool, len(connected))
	for _, name := range connected {
		set[name] = true
	}

	var candidates []Candidate
	for _, spec := range pricing.Providers() {
		if spec.Name != pricing.TemplateProvider && !set[spec.Name] {
			continue
		}
		candidates = append(candidates, s.candidate(frag, spec, remainingBudget))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// Choose returns the top candidate from Rank.
func (s *Scorer) Choose(frag types.Fragment, platform types.Platform, connected []string, remainingBudget float64) Candidate {
	return s.Rank(frag, platform, connected, remainingBudget)[0]
}

func (s *Scorer) candidate(frag types.Fragment, spec pricing.ProviderSpec, remaining float64) Candidate {
	duration := pricing.EstimateDuration(frag.WordCount, spec.Durations)
	model := spec.DefaultModel()

	var base float64
	switch spec.Kind {
	case pricing.KindTemplate:
		base = s.w.TemplateFloor
	case pricing.KindAvatar:
		if frag.HasDialogue {
			base = s.w.DialogueAvatar
		} else {
			base = s.w.GenericPaid
		}
	case pricing.KindCinematic:
		if frag.HasVisualDirection {
			base = s.w.VisualCinematic
			if duration >= s.w.FidelityMinSec {
				if hf, ok := spec.HighFidelityModel(); ok {
					model = hf
					base += s.w.FidelityBonus
				}
			}
		} else {
			base = s.w.GenericPaid
		}
	}

	cost := pricing.Cost(model.RatePerSec, duration)
	c := Candidate{
		Provider:    spec.Name,
		Model:       model.Name,
		DurationSec: duration,
		CostUSD:     cost,
		BaseScore:   base,
		Score:       base,
	}
	// Over-budget candidates stay in the ranking (total ordering must hold)
	// but the penalty keeps them from winning unless nothing else exists.
	if cost > remaining+1e-9 {
		c.OverBudget = true
		c.Score -= s.w.BudgetPenalty
	}
	return c
}

// Ledger is the running remaining-spend tracker for one planning pass.
// It is not a billing record; it exists only to steer scene allocation.
type Ledger struct {
	remaining float64
}

// NewLedger starts a ledger at the caller-supplied remaining budget.
func NewLedger(initial float64) *Ledger {
	if initial < 0 {
		initial = 0
	}
	return &Ledger{remaining: initial}
}

// Remaining returns the current remainder.
func (l *Ledger) Remaining() float64 {
	return l.remaining
}

// Debit subtracts cost, flooring the remainder at zero.
func (l *Ledger) Debit(cost float64) {
	l.remaining -= cost
	if l.remaining < 0 {
		l.remaining = 0
	}
	l.remaining = pricing.Round2(l.remaining)
}
