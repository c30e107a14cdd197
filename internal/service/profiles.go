package service

import (
	"errors"
	"fmt"

	"sarcasm-review/internal/classifier"
	"sarcasm-review/internal/config"
	"sarcasm-review/internal/export"
	"sarcasm-review/internal/redact"
)

// Review profile names
const (
	ProfileHybrid         = "hybrid"
	ProfileDualLayer      = "dual-layer"
	ProfileEmojiSamples   = "emoji-samples"
	ProfileReadableReview = "readable-review"
)

// Profile describes how one kind of review export is produced.
type Profile struct {
	Name string

	// Redaction is applied before classification.
	Redaction string
	// FinalRedaction, when set, is applied to the exported text only.
	FinalRedaction string

	// EmojiOnly restricts the corpus to messages carrying an emoji.
	EmojiOnly bool
	// Classify runs the tier pipeline; otherwise every message in the
	// corpus is exported as is.
	Classify bool
	Fallback classifier.Fallback
	// Shuffle randomizes row order with the configured seed.
	Shuffle bool

	Layout export.Layout
	Output func(*config.Config) string
}

var profiles = map[string]Profile{
	ProfileHybrid: {
		Name:           ProfileHybrid,
		Redaction:      redact.ProfileNames,
		FinalRedaction: redact.ProfileFinal,
		Classify:       true,
		Fallback:       classifier.FallbackAllEmoji,
		Shuffle:        true,
		Layout:         export.HybridLayout,
		Output:         func(c *config.Config) string { return c.OutputPath(c.Output.HybridReview) },
	},
	ProfileDualLayer: {
		Name:      ProfileDualLayer,
		Redaction: redact.ProfileMinimal,
		EmojiOnly: true,
		Classify:  true,
		Fallback:  classifier.FallbackBroadened,
		Layout:    export.DualLayerLayout,
		Output:    func(c *config.Config) string { return c.OutputPath(c.Output.ReadableAnalysis) },
	},
	ProfileEmojiSamples: {
		Name:      ProfileEmojiSamples,
		Redaction: redact.ProfileMinimal,
		EmojiOnly: true,
		Layout:    export.EmojiSampleLayout,
		Output:    func(c *config.Config) string { return c.OutputPath(c.Output.EmojiSamples) },
	},
	// The readable review rewrites the hybrid CSV instead of exporting
	// records of its own.
	ProfileReadableReview: {
		Name:      ProfileReadableReview,
		Redaction: redact.ProfileLight,
		Output:    func(c *config.Config) string { return c.OutputPath(c.Output.ReadableReview) },
	},
}

// ErrUnknownProfile is returned for a profile name that does not exist.
var ErrUnknownProfile = errors.New("unknown review profile")

// LookupProfile returns the named profile.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q", ErrUnknownProfile, name)
	}
	return p, nil
}
