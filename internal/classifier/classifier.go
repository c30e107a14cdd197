// Package classifier flags messages as possible sarcasm from word/emoji
// co-occurrence.
//
// Two primary rules run on every message:
//   - strict mismatch: a positive-sentiment word followed anywhere later by a
//     negative emoji ("I love this! 💀")
//   - tone contradiction: a neutral or dismissive word followed anywhere later
//     by a sarcastic emoji ("sure, whatever 🙄")
//
// Looser broadened patterns and an ambiguous-emoji selection exist as
// fallbacks. Whether they apply is a corpus-level decision made by Pipeline,
// never by a single Classify call.
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"sarcasm-review/internal/models"
)

// Classifier evaluates the rule tables against text. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	rules     Rules
	strict    *regexp.Regexp
	tone      *regexp.Regexp
	broadened []*regexp.Regexp
}

// New compiles rules into a Classifier.
func New(rules Rules) (*Classifier, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	rules = rules.Clone()

	strict, err := wordThenEmoji(rules.PositiveWords, rules.NegativeEmoji)
	if err != nil {
		return nil, fmt.Errorf("failed to compile strict rule: %w", err)
	}
	tone, err := wordThenEmoji(rules.NeutralWords, rules.SarcasticEmoji)
	if err != nil {
		return nil, fmt.Errorf("failed to compile tone rule: %w", err)
	}

	broadened := make([]*regexp.Regexp, 0, len(rules.Broadened))
	for _, p := range rules.Broadened {
		re, err := regexp.Compile("(?is)" + p.Regex)
		if err != nil {
			return nil, fmt.Errorf("failed to compile broadened pattern %q: %w", p.Name, err)
		}
		broadened = append(broadened, re)
	}

	return &Classifier{
		rules:     rules,
		strict:    strict,
		tone:      tone,
		broadened: broadened,
	}, nil
}

// MustDefault returns a Classifier over DefaultRules.
func MustDefault() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}

// Rules returns a copy of the tables the classifier was built with.
func (c *Classifier) Rules() Rules {
	return c.rules.Clone()
}

// Classify evaluates every per-text rule. DetectionType is left empty; it is
// assigned by Pipeline once the corpus tier is known.
func (c *Classifier) Classify(text string) models.ClassificationResult {
	res := c.Primary(text)
	res.BroaderSarcasm = c.Broader(text)
	return res
}

// Primary evaluates the strict mismatch and tone contradiction rules only.
func (c *Classifier) Primary(text string) models.ClassificationResult {
	return models.ClassificationResult{
		StrictMismatch:    c.strict.MatchString(text),
		ToneContradiction: c.tone.MatchString(text),
	}
}

// Broader reports whether any broadened pattern matches text.
func (c *Classifier) Broader(text string) bool {
	for _, re := range c.broadened {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Ambiguous reports whether text contains any ambiguous emoji.
func (c *Classifier) Ambiguous(text string) bool {
	for _, e := range c.rules.AmbiguousEmoji {
		if e != "" && strings.Contains(text, e) {
			return true
		}
	}
	return false
}
