package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"sarcasm-review/internal/chatexport"
	"sarcasm-review/internal/classifier"
	"sarcasm-review/internal/config"
	"sarcasm-review/internal/emoji"
	"sarcasm-review/internal/export"
	"sarcasm-review/internal/models"
	"sarcasm-review/internal/redact"
	"sarcasm-review/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNoRepository is returned by operations that need stored runs when
	// persistence is disabled.
	ErrNoRepository = errors.New("persistence is disabled")
	// ErrInvalidReview is returned when a reviewed CSV does not line up
	// with the run it is imported into.
	ErrInvalidReview = errors.New("reviewed file does not match run")
	// ErrNoLayout is returned when a run's profile has no CSV layout.
	ErrNoLayout = errors.New("no csv layout")
)

// Reviewer turns a chat export into review CSVs and keeps track of runs.
type Reviewer struct {
	cfg        *config.Config
	classifier *classifier.Classifier
	repo       repository.ReviewRepository // nil when persistence is disabled
	logger     *zap.Logger
	now        func() time.Time
}

// NewReviewer creates a new reviewer service. repo may be nil.
func NewReviewer(
	cfg *config.Config,
	c *classifier.Classifier,
	repo repository.ReviewRepository,
	logger *zap.Logger,
) *Reviewer {
	return &Reviewer{
		cfg:        cfg,
		classifier: c,
		repo:       repo,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Classify runs the classifier on a single text.
func (r *Reviewer) Classify(text string) models.ClassificationResult {
	return r.classifier.Classify(text)
}

// Analyze runs one review profile end to end and returns the finished run.
// Nothing is written when the input cannot be loaded.
func (r *Reviewer) Analyze(ctx context.Context, profileName string) (*models.Run, error) {
	profile, err := LookupProfile(profileName)
	if err != nil {
		return nil, err
	}

	run := &models.Run{
		ID:         uuid.New().String(),
		Profile:    profile.Name,
		Status:     models.RunStatusRunning,
		InputPath:  r.cfg.Input.Path,
		OutputPath: profile.Output(r.cfg),
		StartedAt:  r.now(),
	}
	persist := r.repo != nil
	if persist {
		if err := r.repo.CreateRun(ctx, run); err != nil {
			r.logger.Warn("Failed to record run, continuing without persistence", zap.Error(err))
			persist = false
		}
	}

	r.logger.Info("Starting review run",
		zap.String("run_id", run.ID),
		zap.String("profile", profile.Name),
		zap.String("input", run.InputPath))

	var records []models.ReviewRecord
	if profile.Name == ProfileReadableReview {
		err = r.readableReview(profile, run)
	} else {
		records, err = r.exportRecords(ctx, profile, run)
	}

	completedAt := r.now()
	run.CompletedAt = &completedAt
	if err != nil {
		run.Status = models.RunStatusFailed
		run.ErrorMessage = err.Error()
		if persist {
			if uerr := r.repo.UpdateRun(ctx, run); uerr != nil {
				r.logger.Warn("Failed to mark run failed", zap.String("run_id", run.ID), zap.Error(uerr))
			}
		}
		return run, err
	}
	run.Status = models.RunStatusCompleted

	if persist {
		if err := r.repo.SaveRecords(ctx, records); err != nil {
			r.logger.Warn("Failed to save review records", zap.String("run_id", run.ID), zap.Error(err))
		}
		if err := r.repo.UpdateRun(ctx, run); err != nil {
			r.logger.Warn("Failed to update run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	r.logger.Info("Review run completed",
		zap.String("run_id", run.ID),
		zap.String("output", run.OutputPath),
		zap.Int("exported", run.ExportedCount))
	return run, nil
}

func (r *Reviewer) loadMessages(run *models.Run) ([]models.Message, error) {
	all, err := chatexport.LoadFile(r.cfg.Input.Path)
	if err != nil {
		return nil, err
	}
	msgs := chatexport.FilterSender(all, models.Sender(r.cfg.Input.Sender))
	run.TotalMessages = len(msgs)

	unknown := 0
	for _, m := range all {
		if !m.Sender.Valid() {
			unknown++
		}
	}
	if unknown > 0 {
		r.logger.Warn("Messages with unknown sender", zap.Int("count", unknown))
	}

	r.logger.Info("Messages loaded",
		zap.Int("total", len(all)),
		zap.String("sender", r.cfg.Input.Sender),
		zap.Int("selected", len(msgs)))
	return msgs, nil
}

func (r *Reviewer) exportRecords(ctx context.Context, profile Profile, run *models.Run) ([]models.ReviewRecord, error) {
	msgs, err := r.loadMessages(run)
	if err != nil {
		return nil, err
	}

	redactor, err := redact.ForProfile(profile.Redaction)
	if err != nil {
		return nil, err
	}
	var final *redact.Redactor
	if profile.FinalRedaction != "" {
		if final, err = redact.ForProfile(profile.FinalRedaction); err != nil {
			return nil, err
		}
	}

	// Emoji presence is taken from the original text; classification runs
	// on the redacted text.
	var (
		corpus  []models.Message
		inputs  []classifier.Input
		counter = emoji.NewCounter()
	)
	for _, m := range msgs {
		hasEmoji := emoji.Has(m.Text)
		if hasEmoji {
			run.EmojiMessages++
			counter.Add(m.Text)
		}
		if profile.EmojiOnly && !hasEmoji {
			continue
		}
		corpus = append(corpus, m)
		inputs = append(inputs, classifier.Input{Text: redactor.Redact(m.Text), HasEmoji: hasEmoji})
	}
	r.logEmojiFrequency(counter)

	var (
		results  []models.ClassificationResult
		selected []int
	)
	if profile.Classify {
		outcome := classifier.NewPipeline(r.classifier, profile.Fallback).Run(inputs)
		run.Tier = outcome.Tier
		run.StrictCount = outcome.StrictCount
		run.ToneCount = outcome.ToneCount
		results, selected = outcome.Results, outcome.Selected

		r.logger.Info("Classification finished",
			zap.Int("strict_mismatch", outcome.StrictCount),
			zap.Int("tone_contradiction", outcome.ToneCount),
			zap.Int("broader_pattern", outcome.BroaderCount),
			zap.String("tier", tierName(outcome.Tier)),
			zap.Int("candidates", len(outcome.Selected)))
		if profile.Fallback == classifier.FallbackBroadened {
			r.logIndicators(counter, inputs)
		}
	} else {
		results = make([]models.ClassificationResult, len(inputs))
		selected = make([]int, len(inputs))
		for i := range inputs {
			selected[i] = i
		}
	}

	records := make([]models.ReviewRecord, 0, len(selected))
	for _, i := range selected {
		text := inputs[i].Text
		if final != nil {
			text = final.Redact(text)
		}
		records = append(records, models.ReviewRecord{
			ID:                   uuid.New().String(),
			RunID:                run.ID,
			MessageIndex:         corpus[i].Index,
			Text:                 text,
			HasEmoji:             inputs[i].HasEmoji,
			SentAtRaw:            corpus[i].SentAtRaw,
			SentAt:               corpus[i].SentAt,
			ClassificationResult: results[i],
		})
	}
	if profile.Shuffle {
		export.Shuffle(records, r.cfg.Review.ShuffleSeed)
	}
	export.Renumber(records)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := export.WriteFile(run.OutputPath, profile.Layout, records); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", run.OutputPath, err)
	}
	run.ExportedCount = len(records)

	r.logDetectionSummary(records)
	for i := 0; i < len(records) && i < r.cfg.Review.PreviewCount; i++ {
		r.logger.Info("Sample candidate",
			zap.Int("n", i+1),
			zap.String("sent_at", records[i].SentAtRaw),
			zap.String("detection_type", tierName(records[i].DetectionType)),
			zap.String("text", preview(records[i].Text, r.cfg.Review.PreviewLength)))
	}
	return records, nil
}

// readableReview joins lightly redacted text onto the hybrid review CSV by
// UTC timestamp.
func (r *Reviewer) readableReview(profile Profile, run *models.Run) error {
	hybridPath := r.cfg.OutputPath(r.cfg.Output.HybridReview)
	if _, err := os.Stat(hybridPath); err != nil {
		return fmt.Errorf("hybrid review must exist before the readable review: %w", err)
	}

	msgs, err := r.loadMessages(run)
	if err != nil {
		return err
	}
	redactor, err := redact.ForProfile(profile.Redaction)
	if err != nil {
		return err
	}

	lookup := export.TextLookup{}
	for _, m := range msgs {
		lookup.Put(m.SentAt, redactor.Redact(m.Text))
	}

	stats, err := export.AddReadableTextFile(hybridPath, run.OutputPath, lookup)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", run.OutputPath, err)
	}
	run.ExportedCount = stats.Rows

	r.logger.Info("Readable text joined",
		zap.Int("rows", stats.Rows),
		zap.Int("matched", stats.Matched))
	for i := 0; i < len(stats.Texts) && i < r.cfg.Review.PreviewCount; i++ {
		text := stats.Texts[i]
		if text == "" {
			r.logger.Info("Sample readable text", zap.Int("n", i+1), zap.String("text", "(no matching text found)"))
			continue
		}
		r.logger.Info("Sample readable text", zap.Int("n", i+1), zap.String("text", preview(text, r.cfg.Review.PreviewLength)))
	}
	return nil
}

func (r *Reviewer) logEmojiFrequency(counter *emoji.Counter) {
	r.logger.Info("Emoji frequency", zap.Int("unique", counter.Len()))
	for _, c := range counter.MostCommon(r.cfg.Review.TopEmoji) {
		r.logger.Info("Frequent emoji", zap.String("emoji", c.Emoji), zap.Int("count", c.Count))
	}
}

// logIndicators reports indicator emoji present in the corpus with one
// example each.
func (r *Reviewer) logIndicators(counter *emoji.Counter, inputs []classifier.Input) {
	for _, e := range r.classifier.Rules().IndicatorEmoji {
		count := counter.Get(e)
		if count == 0 {
			continue
		}
		fields := []zap.Field{zap.String("emoji", e), zap.Int("count", count)}
		for _, in := range inputs {
			if emoji.NewSet(in.Text).Contains(e) {
				fields = append(fields, zap.String("example", preview(in.Text, 100)))
				break
			}
		}
		r.logger.Info("Potential sarcasm indicator", fields...)
	}
}

func (r *Reviewer) logDetectionSummary(records []models.ReviewRecord) {
	byType := map[models.DetectionType]int{}
	var strict, tone, withEmoji int
	for _, rec := range records {
		byType[rec.DetectionType]++
		if rec.StrictMismatch {
			strict++
		}
		if rec.ToneContradiction {
			tone++
		}
		if rec.HasEmoji {
			withEmoji++
		}
	}
	fields := []zap.Field{
		zap.Int("strict_mismatch", strict),
		zap.Int("tone_contradiction", tone),
		zap.Int("with_emoji", withEmoji),
	}
	for t, n := range byType {
		fields = append(fields, zap.Int("detection_"+tierName(t), n))
	}
	r.logger.Info("Detection summary", fields...)
}

// ImportVerdicts reads a reviewed CSV for runID and stores the filled-in
// rows as verdicts attributed to reviewer, which may be empty. The import
// replaces every earlier verdict of the run, so a row left blank this time
// has no verdict afterwards. It returns the number of verdicts stored.
func (r *Reviewer) ImportVerdicts(ctx context.Context, runID, reviewer, csvPath string) (int, error) {
	if r.repo == nil {
		return 0, ErrNoRepository
	}
	f, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open reviewed file: %w", err)
	}
	defer f.Close()

	return r.ImportVerdictsFrom(ctx, runID, reviewer, f)
}

// ImportVerdictsFrom is ImportVerdicts over a reader. Rows are matched to
// records by position and their text must agree.
func (r *Reviewer) ImportVerdictsFrom(ctx context.Context, runID, reviewer string, in io.Reader) (int, error) {
	if r.repo == nil {
		return 0, ErrNoRepository
	}
	records, err := r.GetRecords(ctx, runID)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("run %s has no exported records: %w", runID, ErrInvalidReview)
	}

	rows, err := export.ReadReviewed(in)
	if err != nil {
		return 0, fmt.Errorf("failed to read reviewed file: %w: %w", ErrInvalidReview, err)
	}
	if len(rows) != len(records) {
		return 0, fmt.Errorf("reviewed file has %d rows, run %s exported %d: %w", len(rows), runID, len(records), ErrInvalidReview)
	}

	importedAt := r.now()
	var verdicts []models.Verdict
	for i, row := range rows {
		if row.Text != records[i].Text {
			return 0, fmt.Errorf("row %d does not match exported record %s: %w", i+1, records[i].ID, ErrInvalidReview)
		}
		if !row.Reviewed() {
			continue
		}
		verdicts = append(verdicts, models.Verdict{
			RecordID:        records[i].ID,
			IsRealSarcasm:   row.IsRealSarcasm,
			ConfidenceLevel: row.ConfidenceLevel,
			Notes:           row.Notes,
			Reviewer:        reviewer,
			ImportedAt:      importedAt,
		})
	}

	if err := r.repo.ReplaceVerdicts(ctx, runID, verdicts); err != nil {
		return 0, err
	}
	r.logger.Info("Verdicts imported",
		zap.String("run_id", runID),
		zap.String("reviewer", reviewer),
		zap.Int("rows", len(rows)),
		zap.Int("reviewed", len(verdicts)))
	return len(verdicts), nil
}

// Stats returns per-tier precision for one run, or for every run when runID
// is empty.
func (r *Reviewer) Stats(ctx context.Context, runID string) ([]models.TierStats, error) {
	if r.repo == nil {
		return nil, ErrNoRepository
	}
	return r.repo.TierStats(ctx, runID)
}

// ListRuns returns recent runs.
func (r *Reviewer) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	if r.repo == nil {
		return nil, ErrNoRepository
	}
	return r.repo.ListRuns(ctx, limit)
}

// GetRun returns a run by ID.
func (r *Reviewer) GetRun(ctx context.Context, id string) (*models.Run, error) {
	if r.repo == nil {
		return nil, ErrNoRepository
	}
	return r.repo.GetRun(ctx, id)
}

// GetVerdicts returns the verdicts imported for a run.
func (r *Reviewer) GetVerdicts(ctx context.Context, runID string) ([]models.Verdict, error) {
	if r.repo == nil {
		return nil, ErrNoRepository
	}
	if _, err := r.repo.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return r.repo.GetVerdicts(ctx, runID)
}

// GetRecords returns the records a run exported, in CSV order.
func (r *Reviewer) GetRecords(ctx context.Context, runID string) ([]models.ReviewRecord, error) {
	if r.repo == nil {
		return nil, ErrNoRepository
	}
	if _, err := r.repo.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return r.repo.GetRecords(ctx, runID)
}

func tierName(t models.DetectionType) string {
	if t == models.DetectionNone {
		return "none"
	}
	return string(t)
}

// preview cuts s to at most n runes.
func preview(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// WriteRunCSV writes a run's stored records in the layout of its profile.
func (r *Reviewer) WriteRunCSV(ctx context.Context, runID string, w io.Writer) error {
	if r.repo == nil {
		return ErrNoRepository
	}
	run, err := r.repo.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	profile, err := LookupProfile(run.Profile)
	if err != nil {
		return err
	}
	if profile.Layout == nil {
		return fmt.Errorf("profile %s stores no records: %w", profile.Name, ErrNoLayout)
	}
	records, err := r.repo.GetRecords(ctx, runID)
	if err != nil {
		return err
	}
	return export.Write(w, profile.Layout, records)
}
