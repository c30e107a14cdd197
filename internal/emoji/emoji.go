// Package emoji finds emoji in message text.
//
// Text is segmented into grapheme clusters with uniseg so that multi-rune
// emoji (skin tones, ZWJ sequences, flags, keycaps) are reported whole. A
// cluster counts as an emoji only when it is listed in the Unicode emoji
// data shipped with gomoji; pictographic symbols such as ★ or ✓ are not.
package emoji

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
)

const (
	variationSelector16 = "\uFE0F"
	combiningKeycap     = "\u20E3"
)

// IsEmoji reports whether a single grapheme cluster is an emoji. Text-style
// forms written without the presentation selector are accepted.
func IsEmoji(cluster string) bool {
	if cluster == "" {
		return false
	}
	if known(cluster) {
		return true
	}

	bare := strings.ReplaceAll(cluster, variationSelector16, "")
	if bare != cluster && known(bare) {
		return true
	}
	switch n := utf8.RuneCountInString(bare); {
	case n == 1:
		return known(bare + variationSelector16)
	case n == 2 && strings.HasSuffix(bare, combiningKeycap):
		return known(strings.TrimSuffix(bare, combiningKeycap) + variationSelector16 + combiningKeycap)
	}
	return false
}

func known(s string) bool {
	_, err := gomoji.GetInfo(s)
	return err == nil
}

// Extract returns the emoji in text in order of appearance.
func Extract(text string) []string {
	var out []string
	state := -1
	rest := text
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if IsEmoji(cluster) {
			out = append(out, normalize(cluster))
		}
	}
	return out
}

// Has reports whether text contains at least one emoji.
func Has(text string) bool {
	state := -1
	rest := text
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if IsEmoji(cluster) {
			return true
		}
	}
	return false
}

// normalize drops a trailing presentation selector so "☹️" and "☹" count once.
func normalize(cluster string) string {
	if strings.HasSuffix(cluster, variationSelector16) && !strings.Contains(cluster, combiningKeycap) {
		return strings.TrimSuffix(cluster, variationSelector16)
	}
	return cluster
}

// Set is the distinct emoji of one text.
type Set map[string]struct{}

// NewSet builds the Set for text.
func NewSet(text string) Set {
	s := make(Set)
	for _, e := range Extract(text) {
		s[e] = struct{}{}
	}
	return s
}

// Contains reports whether e is in the set.
func (s Set) Contains(e string) bool {
	_, ok := s[normalize(e)]
	return ok
}

// Count is one Counter entry.
type Count struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// Counter tallies emoji occurrences across many texts.
type Counter struct {
	counts map[string]int
	order  []string
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add counts every emoji occurrence in text.
func (c *Counter) Add(text string) {
	for _, e := range Extract(text) {
		if _, seen := c.counts[e]; !seen {
			c.order = append(c.order, e)
		}
		c.counts[e]++
	}
}

// Get returns the count for e.
func (c *Counter) Get(e string) int {
	return c.counts[normalize(e)]
}

// Len returns the number of distinct emoji seen.
func (c *Counter) Len() int {
	return len(c.order)
}

// MostCommon returns up to n entries by descending count. Ties keep
// first-seen order. n <= 0 returns every entry.
func (c *Counter) MostCommon(n int) []Count {
	out := make([]Count, 0, len(c.order))
	for _, e := range c.order {
		out = append(out, Count{Emoji: e, Count: c.counts[e]})
	}
	slices.SortStableFunc(out, func(a, b Count) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
