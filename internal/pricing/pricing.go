// Package pricing holds the provider rate catalog and the duration/cost math
// shared by the scorer, the analyzers and the adapters.
package pricing

import "math"

// WordsPerSecond is the assumed spoken pace (~150 wpm).
const WordsPerSecond = 2.5

// Duration bounds in seconds for any single scene.
const (
	MinDurationSec = 4
	MaxDurationSec = 25
)

// ProviderKind classifies what a backend is good at.
type ProviderKind string

const (
	KindTemplate  ProviderKind = "template"  // zero-cost structural fallback
	KindAvatar    ProviderKind = "avatar"    // talking-head / presenter
	KindCinematic ProviderKind = "cinematic" // generated footage / B-roll
)

// ModelSpec is one billable variant of a provider.
type ModelSpec struct {
	Name         string
	RatePerSec   float64 // USD per rendered second
	HighFidelity bool    // preferred for long visual scenes
}

// ProviderSpec describes a rendering backend's capabilities and pricing.
type ProviderSpec struct {
	Name              string
	Kind              ProviderKind
	Models            []ModelSpec // first entry is the default
	Durations         []int       // supported duration buckets, ascending
	AspectRatios      []string
	MaxPromptChars    int
	RequiresAuthFetch bool // completed output needs an authenticated download
}

// TemplateProvider is the always-available zero-cost fallback.
const TemplateProvider = "template"

// catalog is the closed set of known providers, in declaration order.
// Declaration order is the deterministic tie-break for scoring.
var catalog = []ProviderSpec{
	{
		Name:           TemplateProvider,
		Kind:           KindTemplate,
		Models:         []ModelSpec{{Name: "storyboard", RatePerSec: 0}},
		Durations:      []int{4, 5, 6, 8, 10, 12, 15, 25},
		AspectRatios:   []string{"16:9", "9:16", "1:1"},
		MaxPromptChars: 20000,
	},
	{
		Name:           "heygen",
		Kind:           KindAvatar,
		Models:         []ModelSpec{{Name: "avatar-lite", RatePerSec: 0.06}, {Name: "avatar-pro", RatePerSec: 0.09, HighFidelity: true}},
		Durations:      []int{5, 10, 15, 25},
		AspectRatios:   []string{"16:9", "9:16"},
		MaxPromptChars: 1500,
	},
	{
		Name:              "sora",
		Kind:              KindCinematic,
		Models:            []ModelSpec{{Name: "sora-2", RatePerSec: 0.10}, {Name: "sora-2-pro", RatePerSec: 0.30, HighFidelity: true}},
		Durations:         []int{4, 8, 12},
		AspectRatios:      []string{"16:9", "9:16"},
		MaxPromptChars:    4000,
		RequiresAuthFetch: true,
	},
	{
		Name:           "runway",
		Kind:           KindCinematic,
		Models:         []ModelSpec{{Name: "gen3a-turbo", RatePerSec: 0.05}, {Name: "gen4", RatePerSec: 0.12, HighFidelity: true}},
		Durations:      []int{5, 10},
		AspectRatios:   []string{"16:9", "9:16", "1:1"},
		MaxPromptChars: 1000,
	},
}

// Providers returns the full catalog in declaration order.
func Providers() []ProviderSpec {
	out := make([]ProviderSpec, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a provider spec by name.
func Lookup(name string) (ProviderSpec, bool) {
	for _, p := range catalog {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderSpec{}, false
}

// DefaultModel returns the provider's default billable variant.
func (p ProviderSpec) DefaultModel() ModelSpec {
	return p.Models[0]
}

// Model finds a variant by name, falling back to the default.
func (p ProviderSpec) Model(name string) ModelSpec {
	for _, m := range p.Models {
		if m.Name == name {
			return m
		}
	}
	return p.DefaultModel()
}

// HighFidelityModel returns the provider's high-fidelity variant, if it has one.
func (p ProviderSpec) HighFidelityModel() (ModelSpec, bool) {
	for _, m := range p.Models {
		if m.HighFidelity {
			return m, true
		}
	}
	return ModelSpec{}, false
}

// SupportsDuration reports whether sec is in the provider's bucket set.
func (p ProviderSpec) SupportsDuration(sec int) bool {
	for _, d := range p.Durations {
		if d == sec {
			return true
		}
	}
	return false
}

// EstimateDuration converts a word count into a snapped duration for the given
// bucket set: raw = max(min, words/wps), clamped to max, snapped to the nearest
// bucket with ties broken toward the smaller value.
func EstimateDuration(wordCount int, buckets []int) int {
	raw := float64(wordCount) / WordsPerSecond
	if raw < MinDurationSec {
		raw = MinDurationSec
	}
	if raw > MaxDurationSec {
		raw = MaxDurationSec
	}
	return Snap(raw, buckets)
}

// Snap picks the bucket nearest to raw, preferring the smaller bucket on ties.
// Buckets must be non-empty and ascending.
func Snap(raw float64, buckets []int) int {
	best := buckets[0]
	bestDist := math.Abs(raw - float64(best))
	for _, b := range buckets[1:] {
		d := math.Abs(raw - float64(b))
		if d < bestDist {
			best = b
			bestDist = d
		}
	}
	return best
}

// Cost computes rate × duration rounded to cents.
func Cost(ratePerSec float64, durationSec int) float64 {
	return Round2(ratePerSec * float64(durationSec))
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
