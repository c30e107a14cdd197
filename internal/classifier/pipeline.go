package classifier

import (
	"sarcasm-review/internal/models"
)

// Fallback selects what a Pipeline does when no record matches the primary
// rules.
type Fallback int

const (
	// FallbackBroadened tries the broadened patterns, then ambiguous emoji.
	FallbackBroadened Fallback = iota
	// FallbackAllEmoji selects every record that carries an emoji.
	FallbackAllEmoji
	// FallbackNone selects nothing.
	FallbackNone
)

// Input is one record handed to a Pipeline.
type Input struct {
	Text     string // Text the rules run against, usually redacted
	HasEmoji bool
}

// Outcome is the result of one Pipeline run.
type Outcome struct {
	Tier models.DetectionType
	// Results is parallel to the inputs. DetectionType is set only on
	// selected records.
	Results  []models.ClassificationResult
	Selected []int // Indices into the inputs, ascending

	StrictCount  int
	ToneCount    int
	BroaderCount int
}

// Pipeline applies the classifier to a whole corpus. The tier is chosen from
// the aggregate of the primary pass and then applied to every record of the
// same corpus.
type Pipeline struct {
	classifier *Classifier
	fallback   Fallback
}

// NewPipeline returns a Pipeline using c and the given fallback.
func NewPipeline(c *Classifier, fallback Fallback) *Pipeline {
	return &Pipeline{classifier: c, fallback: fallback}
}

// Run classifies inputs in three stages:
//  1. primary classification of every record;
//  2. tier selection from the aggregate;
//  3. application of the chosen tier to every record.
func (p *Pipeline) Run(inputs []Input) Outcome {
	out := Outcome{Results: p.primary(inputs)}
	for _, r := range out.Results {
		if r.StrictMismatch {
			out.StrictCount++
		}
		if r.ToneContradiction {
			out.ToneCount++
		}
	}

	out.Tier = p.selectTier(inputs, &out)
	out.Selected = p.apply(out.Tier, inputs, out.Results)
	for _, i := range out.Selected {
		out.Results[i].DetectionType = out.Tier
	}
	return out
}

func (p *Pipeline) primary(inputs []Input) []models.ClassificationResult {
	results := make([]models.ClassificationResult, len(inputs))
	for i, in := range inputs {
		results[i] = p.classifier.Primary(in.Text)
	}
	return results
}

// selectTier decides the tier for the whole corpus. When the broadened tier
// is considered, BroaderSarcasm is filled in on every result as a side
// effect so that stage three does not evaluate it twice.
func (p *Pipeline) selectTier(inputs []Input, out *Outcome) models.DetectionType {
	if out.StrictCount > 0 || out.ToneCount > 0 {
		return models.DetectionDualLayer
	}

	switch p.fallback {
	case FallbackAllEmoji:
		for _, in := range inputs {
			if in.HasEmoji {
				return models.DetectionAllEmoji
			}
		}
		return models.DetectionNone

	case FallbackBroadened:
		for i, in := range inputs {
			if p.classifier.Broader(in.Text) {
				out.Results[i].BroaderSarcasm = true
				out.BroaderCount++
			}
		}
		if out.BroaderCount > 0 {
			return models.DetectionBroaderPattern
		}
		for _, in := range inputs {
			if p.classifier.Ambiguous(in.Text) {
				return models.DetectionAmbiguousEmoji
			}
		}
	}
	return models.DetectionNone
}

func (p *Pipeline) apply(tier models.DetectionType, inputs []Input, results []models.ClassificationResult) []int {
	var selected []int
	switch tier {
	case models.DetectionDualLayer:
		for i, r := range results {
			if r.Primary() {
				selected = append(selected, i)
			}
		}
	case models.DetectionBroaderPattern:
		for i, r := range results {
			if r.BroaderSarcasm {
				selected = append(selected, i)
			}
		}
	case models.DetectionAmbiguousEmoji:
		limit := p.classifier.rules.AmbiguousLimit
		for i, in := range inputs {
			if limit > 0 && len(selected) >= limit {
				break
			}
			if p.classifier.Ambiguous(in.Text) {
				selected = append(selected, i)
			}
		}
	case models.DetectionAllEmoji:
		for i, in := range inputs {
			if in.HasEmoji {
				selected = append(selected, i)
			}
		}
	}
	return selected
}
