// Package redact masks personally identifying text with placeholder tokens.
package redact

import (
	"fmt"
	"regexp"
)

// Rule replaces every match of Pattern with Token. A WholeWord rule tests
// Pattern against each Unicode word run (letters, marks, digits and '_')
// and replaces the whole run when it matches, so accented and CJK words
// are never split at a non-ASCII letter.
type Rule struct {
	Name      string `yaml:"name"`
	Pattern   string `yaml:"pattern"`
	Token     string `yaml:"token"`
	WholeWord bool   `yaml:"whole_word"`

	re *regexp.Regexp
}

var wordRun = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// Built-in rules
var (
	Email      = Rule{Name: "email", Pattern: `\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`, Token: "[EMAIL]"}
	Phone      = Rule{Name: "phone", Pattern: `\b\+?1?[\s.-]?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`, Token: "[PHONE]"}
	ProperNoun = Rule{Name: "proper_noun", Pattern: `[A-Z][a-z]{2,}`, Token: "[NAME]", WholeWord: true}
	LongNumber = Rule{Name: "long_number", Pattern: `\p{Nd}{3,}`, Token: "[NUMBER]", WholeWord: true}
	AnyWord    = Rule{Name: "any_word", Pattern: `.{3,}`, Token: "[REDACTED]", WholeWord: true}
)

// Profile names
const (
	ProfileMinimal = "minimal"
	ProfileLight   = "light"
	ProfileNames   = "names"
	ProfileFinal   = "final"
)

// Profiles maps a profile name to its ordered rule list.
var Profiles = map[string][]Rule{
	ProfileMinimal: {Email, Phone},
	ProfileLight:   {ProperNoun, LongNumber, Email, Phone},
	ProfileNames:   {ProperNoun},
	ProfileFinal:   {AnyWord},
}

// Redactor applies an ordered list of compiled rules.
type Redactor struct {
	rules []Rule
}

// New compiles rules into a Redactor. Rules run in the given order.
func New(rules ...Rule) (*Redactor, error) {
	compiled := make([]Rule, len(rules))
	for i, r := range rules {
		pattern := r.Pattern
		if r.WholeWord {
			pattern = `^(?s:` + pattern + `)$`
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %q: %w", r.Name, err)
		}
		compiled[i] = r
		compiled[i].re = re
	}
	return &Redactor{rules: compiled}, nil
}

// ForProfile returns a Redactor for one of the named profiles.
func ForProfile(name string) (*Redactor, error) {
	rules, ok := Profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown redaction profile %q", name)
	}
	return New(rules...)
}

// Redact returns text with every rule applied in order.
func (r *Redactor) Redact(text string) string {
	for _, rule := range r.rules {
		text = rule.apply(text)
	}
	return text
}

func (rule Rule) apply(text string) string {
	if !rule.WholeWord {
		return rule.re.ReplaceAllLiteralString(text, rule.Token)
	}
	return wordRun.ReplaceAllStringFunc(text, func(word string) string {
		if rule.re.MatchString(word) {
			return rule.Token
		}
		return word
	})
}
