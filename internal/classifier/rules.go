package classifier

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Pattern is a named broadened-tier regular expression. Matching is always
// case-insensitive and '.' spans newlines.
type Pattern struct {
	Name  string `yaml:"name" json:"name"`
	Regex string `yaml:"regex" json:"regex"`
}

// Rules are the enumerated tables the classifier matches against.
// A Rules value is copied into the Classifier, so later edits by the caller
// have no effect on a built Classifier. IndicatorEmoji only feed the emoji
// frequency summary and never affect a verdict.
type Rules struct {
	PositiveWords  []string  `yaml:"positive_words" json:"positive_words"`
	NegativeEmoji  []string  `yaml:"negative_emoji" json:"negative_emoji"`
	NeutralWords   []string  `yaml:"neutral_words" json:"neutral_words"`
	SarcasticEmoji []string  `yaml:"sarcastic_emoji" json:"sarcastic_emoji"`
	Broadened      []Pattern `yaml:"broadened" json:"broadened"`
	AmbiguousEmoji []string  `yaml:"ambiguous_emoji" json:"ambiguous_emoji"`
	AmbiguousLimit int       `yaml:"ambiguous_limit" json:"ambiguous_limit"`
	IndicatorEmoji []string  `yaml:"indicator_emoji" json:"indicator_emoji"`
}

// DefaultRules returns the canonical rule tables.
func DefaultRules() Rules {
	return Rules{
		PositiveWords: []string{
			"love", "great", "amazing", "fantastic", "wonderful",
			"excellent", "perfect", "awesome", "brilliant",
		},
		NegativeEmoji: []string{"💀", "😵", "🥴", "🤡", "😒"},
		NeutralWords: []string{
			"sure", "whatever", "fine", "okay", "alright", "right",
			"yeah", "mhmm", "uh", "huh", "oh", "well",
		},
		SarcasticEmoji: []string{"😒", "🙄", "😵", "🥴", "🤡", "💀"},
		Broadened: []Pattern{
			{Name: "oh", Regex: `oh.*(?:😒|🙄|🥴|💀)`},
			{Name: "really", Regex: `really.*(?:😒|🙄|🤭)`},
			{Name: "interesting", Regex: `interesting.*(?:🤔|😏)`},
			{Name: "nervous_indeed", Regex: `(?:😅|🤭).*indeed`},
		},
		AmbiguousEmoji: []string{"😅", "🤭", "😏", "🤔"},
		AmbiguousLimit: 20,
		IndicatorEmoji: []string{"🤡", "😒", "🙄", "🥴", "💀", "🐛", "😏", "🤭", "😅"},
	}
}

// Clone returns a deep copy of r.
func (r Rules) Clone() Rules {
	r.PositiveWords = slices.Clone(r.PositiveWords)
	r.NegativeEmoji = slices.Clone(r.NegativeEmoji)
	r.NeutralWords = slices.Clone(r.NeutralWords)
	r.SarcasticEmoji = slices.Clone(r.SarcasticEmoji)
	r.Broadened = slices.Clone(r.Broadened)
	r.AmbiguousEmoji = slices.Clone(r.AmbiguousEmoji)
	r.IndicatorEmoji = slices.Clone(r.IndicatorEmoji)
	return r
}

// Validate checks that every table needed by the primary tier is populated.
func (r Rules) Validate() error {
	var errs []error
	if len(nonEmpty(r.PositiveWords)) == 0 {
		errs = append(errs, errors.New("positive_words is empty"))
	}
	if len(nonEmpty(r.NegativeEmoji)) == 0 {
		errs = append(errs, errors.New("negative_emoji is empty"))
	}
	if len(nonEmpty(r.NeutralWords)) == 0 {
		errs = append(errs, errors.New("neutral_words is empty"))
	}
	if len(nonEmpty(r.SarcasticEmoji)) == 0 {
		errs = append(errs, errors.New("sarcastic_emoji is empty"))
	}
	if r.AmbiguousLimit < 0 {
		errs = append(errs, errors.New("ambiguous_limit must not be negative"))
	}
	for _, p := range r.Broadened {
		if strings.TrimSpace(p.Regex) == "" {
			errs = append(errs, fmt.Errorf("broadened pattern %q has no regex", p.Name))
		}
	}
	return errors.Join(errs...)
}

// wordThenEmoji matches one of words as a whole word followed anywhere later
// by one of emoji. RE2's \b only knows ASCII letters, so word edges are
// spelled out over Unicode letters and digits: "ÉLove" does not contain
// "love". The trailing guard is optional so an emoji may touch the word.
func wordThenEmoji(words, emoji []string) (*regexp.Regexp, error) {
	expr := fmt.Sprintf(`(?is)(?:^|[^\p{L}\p{N}_])(?:%s)(?:[^\p{L}\p{N}_].*)?(?:%s)`,
		alternation(words), alternation(emoji))
	return regexp.Compile(expr)
}

func alternation(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, it := range nonEmpty(items) {
		quoted = append(quoted, regexp.QuoteMeta(it))
	}
	return strings.Join(quoted, "|")
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}
