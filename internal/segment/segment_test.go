package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSceneMarkers(t *testing.T) {
	script := "Scene 1: Hook about savings. Scene 2: Show the product dashboard. Scene 3: Call to action — sign up today."

	frags, strategy := Split(script, DefaultOptions())
	require.Equal(t, StrategyMarkers, strategy)
	require.Len(t, frags, 3)

	assert.Equal(t, "Hook about savings.", frags[0].Text)
	assert.Equal(t, "Show the product dashboard.", frags[1].Text)
	assert.Equal(t, 1, frags[0].Index)
	assert.Equal(t, 3, frags[2].Index)

	// "show ... dashboard" is visual vocabulary; "sign up" is direct address.
	assert.True(t, frags[1].HasVisualDirection)
	assert.True(t, frags[2].HasDialogue)
}

func TestSplitMarkersKeepsPreamble(t *testing.T) {
	script := "A quick intro line. Scene 1: First beat. Scene 2: Second beat."

	frags, strategy := Split(script, DefaultOptions())
	require.Equal(t, StrategyMarkers, strategy)
	require.Len(t, frags, 2)
	assert.Contains(t, frags[0].Text, "A quick intro line.")
	assert.Contains(t, frags[0].Text, "First beat.")
}

func TestSplitTimestamps(t *testing.T) {
	script := "0:00-0:15 Open on the problem statement\n0:15-0:30 Walk through the fix"

	frags, strategy := Split(script, DefaultOptions())
	require.Equal(t, StrategyTimestamps, strategy)
	require.Len(t, frags, 2)
	assert.Equal(t, "Open on the problem statement", frags[0].Text)
	assert.Equal(t, "Walk through the fix", frags[1].Text)
}

func TestSplitStructured(t *testing.T) {
	script := `{"scenes": ["First scene narration", {"text": "Second scene narration"}, {"narration": "Third scene narration"}]}`

	frags, strategy := Split(script, DefaultOptions())
	require.Equal(t, StrategyStructured, strategy)
	require.Len(t, frags, 3)
	assert.Equal(t, "Second scene narration", frags[1].Text)
}

func TestSplitParagraphs(t *testing.T) {
	block := strings.TrimSpace(strings.Repeat("alpha beta gamma delta epsilon ", 5))
	script := block + "\n\n" + block

	frags, strategy := Split(script, DefaultOptions())
	require.Equal(t, StrategyParagraphs, strategy)
	require.Len(t, frags, 2)
	assert.Equal(t, 25, frags[0].WordCount)
}

func TestSplitParagraphsMergesShortBlocks(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("alpha beta gamma delta epsilon ", 5))
	script := long + "\n\nJust a stinger.\n\n" + long

	frags, strategy := Split(script, DefaultOptions())
	require.Equal(t, StrategyParagraphs, strategy)
	require.Len(t, frags, 2)
	assert.Contains(t, frags[0].Text, "Just a stinger.")
}

func TestSplitSentencesChunking(t *testing.T) {
	// Four sentences, sentence cap of three: one full chunk plus the remainder.
	script := "First sentence here now. Second sentence here now. Third sentence here now. Fourth sentence here now."

	frags, strategy := Split(script, DefaultOptions())
	require.Equal(t, StrategySentences, strategy)
	require.Len(t, frags, 2)
	assert.Equal(t, 12, frags[0].WordCount)
	assert.Equal(t, 4, frags[1].WordCount)
}

func TestSplitSentencesWordBudget(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("word ", 55)) + "."
	script := long + " Short tail sentence."

	opts := DefaultOptions()
	frags, strategy := Split(script, opts)
	require.Equal(t, StrategySentences, strategy)
	require.Len(t, frags, 2)
	assert.GreaterOrEqual(t, frags[0].WordCount, opts.ChunkWordBudget)
}

func TestSplitTruncatesAtMaxFragments(t *testing.T) {
	sentence := "The team improved the budget workflow across every region today. "
	script := strings.TrimSpace(strings.Repeat(sentence, 60))

	opts := DefaultOptions()
	frags, strategy := Split(script, opts)
	require.Equal(t, StrategySentences, strategy)
	require.Len(t, frags, opts.MaxFragments)
	for i, f := range frags {
		assert.Equal(t, i+1, f.Index)
	}
}

func TestSplitPadsToMinFragments(t *testing.T) {
	opts := DefaultOptions()
	opts.MinFragments = 3

	frags, strategy := Split("One tiny script.", opts)
	require.Equal(t, StrategySentences, strategy)
	require.Len(t, frags, 3)
	assert.False(t, frags[0].Placeholder)
	assert.True(t, frags[1].Placeholder)
	assert.True(t, frags[2].Placeholder)
	assert.Equal(t, 3, frags[2].Index)
}

func TestSplitDeterministic(t *testing.T) {
	script := "Scene 1: Hook about savings. Scene 2: Show the product dashboard. Scene 3: Call to action — sign up today."

	a, sa := Split(script, DefaultOptions())
	b, sb := Split(script, DefaultOptions())
	require.Equal(t, sa, sb)
	require.Equal(t, a, b)
}

func TestFeatures(t *testing.T) {
	tests := []struct {
		text     string
		dialogue bool
		visual   bool
	}{
		{`She said "this changed everything for our team" on camera.`, true, true},
		{"Imagine cutting your reporting time in half.", true, false},
		{"Drone footage of the warehouse at dawn.", false, true},
		{"The quarterly numbers improved across all regions.", false, false},
	}
	for _, tt := range tests {
		dialogue, visual := Features(tt.text)
		assert.Equal(t, tt.dialogue, dialogue, tt.text)
		assert.Equal(t, tt.visual, visual, tt.text)
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "hello world", Excerpt("  hello \n\t world  ", 80))

	long := strings.Repeat("a", 100)
	got := Excerpt(long, 10)
	assert.Equal(t, strings.Repeat("a", 9)+"…", got)
	assert.LessOrEqual(t, len([]rune(got)), 10)
}
