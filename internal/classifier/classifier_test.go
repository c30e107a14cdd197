package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sarcasm-review/internal/models"
)

func TestClassifier_Classify(t *testing.T) {
	c := MustDefault()

	tests := []struct {
		name    string
		text    string
		strict  bool
		tone    bool
		broader bool
	}{
		{"no triggers", "hello world", false, false, false},
		{"empty", "", false, false, false},
		{"strict mismatch", "I love this! 💀", true, false, false},
		{"strict is case-insensitive", "AMAZING work 🤡", true, false, false},
		{"strict spans sentences", "That was great. Really. Truly. 😒", true, false, true},
		{"strict spans newlines", "perfect\n\nanyway 🥴", true, false, false},
		{"emoji before word does not count", "💀 I love this", false, false, false},
		{"word boundary", "lovely day 💀", false, false, false},
		{"accented letter before word", "ÉLove 💀", false, false, false},
		{"accented letter after word", "loveé 💀", false, false, false},
		{"digit after word", "love2 💀", false, false, false},
		{"emoji touching word", "love💀", true, false, false},
		{"word after non-latin text", "東京 love 💀", true, false, false},
		{"word at start of line", "ok\nsure 🙄", false, true, false},
		{"tone contradiction", "sure, whatever 🙄", false, true, false},
		{"tone and strict", "yeah I love that 💀", true, true, false},
		{"oh is neutral", "Oh well 😒", false, true, true},
		{"positive word with friendly emoji", "I love this! 😊", false, false, false},
		{"broader really", "really? 🤭", false, false, true},
		{"broader interesting", "how interesting 🤔", false, false, true},
		{"broader nervous indeed", "😅 indeed", false, false, true},
		{"broader oh inside word", "John said so 🙄", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			assert.Equal(t, tt.strict, got.StrictMismatch, "strict_mismatch")
			assert.Equal(t, tt.tone, got.ToneContradiction, "tone_contradiction")
			assert.Equal(t, tt.broader, got.BroaderSarcasm, "broader_sarcasm")
			assert.Equal(t, models.DetectionNone, got.DetectionType)
		})
	}
}

func TestClassifier_Idempotent(t *testing.T) {
	c := MustDefault()
	texts := []string{"I love this! 💀", "sure, whatever 🙄", "hello world", "oh really 🙄"}
	for _, text := range texts {
		assert.Equal(t, c.Classify(text), c.Classify(text), text)
	}
}

func TestClassifier_AlternateRules(t *testing.T) {
	rules := Rules{
		PositiveWords:  []string{"splendid"},
		NegativeEmoji:  []string{"🐛"},
		NeutralWords:   []string{"meh"},
		SarcasticEmoji: []string{"🙃"},
	}
	c, err := New(rules)
	require.NoError(t, err)

	assert.True(t, c.Classify("splendid bug 🐛").StrictMismatch)
	assert.False(t, c.Classify("I love this! 💀").StrictMismatch)
	assert.True(t, c.Classify("meh 🙃").ToneContradiction)
	assert.False(t, c.Classify("oh really 🙄").BroaderSarcasm)
}

func TestClassifier_RulesAreCopied(t *testing.T) {
	rules := DefaultRules()
	c, err := New(rules)
	require.NoError(t, err)

	rules.AmbiguousEmoji[0] = "🐛"
	assert.True(t, c.Ambiguous("phew 😅"))
	assert.False(t, c.Ambiguous("a 🐛"))

	got := c.Rules()
	got.PositiveWords[0] = "changed"
	assert.Equal(t, "love", c.Rules().PositiveWords[0])
}

func TestNew_InvalidRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Rules)
	}{
		{"no positive words", func(r *Rules) { r.PositiveWords = nil }},
		{"blank negative emoji", func(r *Rules) { r.NegativeEmoji = []string{"  "} }},
		{"no neutral words", func(r *Rules) { r.NeutralWords = []string{} }},
		{"no sarcastic emoji", func(r *Rules) { r.SarcasticEmoji = nil }},
		{"negative limit", func(r *Rules) { r.AmbiguousLimit = -1 }},
		{"empty broadened regex", func(r *Rules) { r.Broadened = []Pattern{{Name: "x"}} }},
		{"bad broadened regex", func(r *Rules) { r.Broadened = []Pattern{{Name: "x", Regex: "("}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			tt.mutate(&rules)
			_, err := New(rules)
			assert.Error(t, err)
		})
	}
}

func TestClassifier_QuotesLiterals(t *testing.T) {
	rules := DefaultRules()
	rules.PositiveWords = []string{"a.b"}
	c, err := New(rules)
	require.NoError(t, err)

	assert.True(t, c.Classify("a.b 💀").StrictMismatch)
	assert.False(t, c.Classify("axb 💀").StrictMismatch)
}
