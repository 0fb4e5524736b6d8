// Package segment breaks a free-form script into ordered scene fragments.
// Strategies are tried in strict priority order and the whole pass is
// deterministic: identical input always yields an identical fragment list.
package segment

import (
	"encoding/json"
	"regexp"
	"strings"

	"reelforge/internal/types"
)

// Options bound the segmentation pass.
type Options struct {
	MinFragments      int
	MaxFragments      int
	MinBlockWords     int // paragraph blocks shorter than this merge into a neighbor
	ChunkWordBudget   int // sentence accumulation closes a chunk at this word count
	ChunkMaxSentences int // ...or at this many sentences
}

// DefaultOptions returns the standard segmentation bounds.
func DefaultOptions() Options {
	return Options{
		MinFragments:      1,
		MaxFragments:      12,
		MinBlockWords:     20,
		ChunkWordBudget:   50,
		ChunkMaxSentences: 3,
	}
}

// Strategy names, reported alongside the fragment list.
const (
	StrategyMarkers    = "markers"
	StrategyTimestamps = "timestamps"
	StrategyStructured = "structured"
	StrategyParagraphs = "paragraphs"
	StrategySentences  = "sentences"
)

var (
	markerRe = regexp.MustCompile(`(?i)\bscene\s+(?:\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\b\s*[:.\-–—]`)
	stampRe  = regexp.MustCompile(`\b\d{1,2}:\d{2}\s*[-–—]\s*\d{1,2}:\d{2}\b:?`)
	blankRe  = regexp.MustCompile(`\n[ \t]*\n`)
	sentRe   = regexp.MustCompile(`[.!?]+["'”’)\]]*\s+`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// Split segments text into fragments and reports which strategy produced them.
// Every strategy except sentence accumulation must yield at least two
// fragments to be accepted; sentence accumulation always yields at least one.
// The result is clamped to [MinFragments, MaxFragments].
func Split(text string, opts Options) ([]types.Fragment, string) {
	strategy := StrategySentences
	parts := splitOnPattern(text, markerRe)
	if len(parts) >= 2 {
		strategy = StrategyMarkers
	} else {
		parts = splitOnPattern(text, stampRe)
		if len(parts) >= 2 {
			strategy = StrategyTimestamps
		} else {
			parts = splitStructured(text)
			if len(parts) >= 2 {
				strategy = StrategyStructured
			} else {
				parts = splitParagraphs(text, opts.MinBlockWords)
				if len(parts) >= 2 {
					strategy = StrategyParagraphs
				} else {
					parts = splitSentences(text, opts.ChunkWordBudget, opts.ChunkMaxSentences)
				}
			}
		}
	}
	return clamp(toFragments(parts), opts), strategy
}

// splitOnPattern cuts the text at every match of re, stripping the matched
// marker itself. Text before the first marker is folded into the first fragment.
func splitOnPattern(text string, re *regexp.Regexp) []string {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) < 2 {
		return nil
	}
	var parts []string
	preamble := strings.TrimSpace(text[:locs[0][0]])
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(text[loc[1]:end])
		if i == 0 && preamble != "" {
			body = preamble + " " + body
		}
		if body != "" {
			parts = append(parts, body)
		}
	}
	return parts
}

// structuredScript matches scripts pasted as a JSON document with a scene list.
type structuredScript struct {
	Scenes []json.RawMessage `json:"scenes"`
}

// splitStructured accepts {"scenes":[...]} where each entry is either a string
// or an object with a text-like field.
func splitStructured(text string) []string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return nil
	}
	var doc structuredScript
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil || len(doc.Scenes) == 0 {
		return nil
	}
	var parts []string
	for _, raw := range doc.Scenes {
		if s := structuredSceneText(raw); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func structuredSceneText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for _, key := range []string{"text", "narration", "content", "description"} {
		if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// splitParagraphs cuts on blank lines and merges short blocks into a neighbor
// so trivial one-liners don't become standalone scenes.
func splitParagraphs(text string, minWords int) []string {
	var blocks []string
	for _, b := range blankRe.Split(text, -1) {
		b = strings.TrimSpace(b)
		if b != "" {
			blocks = append(blocks, b)
		}
	}
	if len(blocks) < 2 {
		return nil
	}
	var merged []string
	for _, b := range blocks {
		if len(merged) > 0 && wordCount(b) < minWords {
			merged[len(merged)-1] += "\n\n" + b
			continue
		}
		merged = append(merged, b)
	}
	// A short leading block joins the one after it.
	if len(merged) > 1 && wordCount(merged[0]) < minWords {
		merged[1] = merged[0] + "\n\n" + merged[1]
		merged = merged[1:]
	}
	return merged
}

// splitSentences accumulates sentences into chunks until a chunk reaches the
// word budget or the sentence cap. Always returns at least one fragment for
// non-empty input.
func splitSentences(text string, wordBudget, maxSentences int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{""}
	}
	var sentences []string
	start := 0
	for _, loc := range sentRe.FindAllStringIndex(text, -1) {
		sentences = append(sentences, strings.TrimSpace(text[start:loc[1]]))
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}

	var parts []string
	var chunk []string
	words := 0
	for _, s := range sentences {
		chunk = append(chunk, s)
		words += wordCount(s)
		if words >= wordBudget || len(chunk) >= maxSentences {
			parts = append(parts, strings.Join(chunk, " "))
			chunk = nil
			words = 0
		}
	}
	if len(chunk) > 0 {
		parts = append(parts, strings.Join(chunk, " "))
	}
	return parts
}

func toFragments(parts []string) []types.Fragment {
	frags := make([]types.Fragment, 0, len(parts))
	for i, p := range parts {
		dialogue, visual := Features(p)
		frags = append(frags, types.Fragment{
			Index:              i + 1,
			Text:               p,
			WordCount:          wordCount(p),
			HasDialogue:        dialogue,
			HasVisualDirection: visual,
		})
	}
	return frags
}

// clamp pads with placeholder fragments below the minimum and truncates above
// the maximum, then renumbers so positions stay dense and 1-based.
func clamp(frags []types.Fragment, opts Options) []types.Fragment {
	if opts.MaxFragments > 0 && len(frags) > opts.MaxFragments {
		frags = frags[:opts.MaxFragments]
	}
	for len(frags) < opts.MinFragments {
		frags = append(frags, types.Fragment{
			Text:        "(additional scene)",
			WordCount:   2,
			Placeholder: true,
		})
	}
	for i := range frags {
		frags[i].Index = i + 1
	}
	return frags
}

// Excerpt returns a whitespace-collapsed prefix of text capped at n runes.
func Excerpt(text string, n int) string {
	clean := strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	runes := []rune(clean)
	if len(runes) <= n {
		return clean
	}
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
