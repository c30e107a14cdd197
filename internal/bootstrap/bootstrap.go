// Package bootstrap wires configuration, logging, storage and the reviewer
// service for the binaries under cmd/.
package bootstrap

import (
	"fmt"

	"sarcasm-review/internal/auth"
	"sarcasm-review/internal/classifier"
	"sarcasm-review/internal/config"
	"sarcasm-review/internal/logging"
	"sarcasm-review/internal/repository"
	"sarcasm-review/internal/service"

	"go.uber.org/zap"
)

// Env holds the wired dependencies of one process.
type Env struct {
	Config   *config.Config
	Logger   *zap.Logger
	Reviewer *service.Reviewer
	Auth     *auth.Authenticator // nil unless auth.secret is set

	repo repository.ReviewRepository
}

// New loads configPath and builds an Env. A database that cannot be opened
// is logged and persistence is switched off; CSV output never depends on it.
func New(configPath string) (*Env, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	rules, err := config.LoadRules(cfg.Rules.Path)
	if err != nil {
		logger.Sync()
		return nil, err
	}
	c, err := classifier.New(rules)
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to build classifier: %w", err)
	}

	env := &Env{Config: cfg, Logger: logger}
	if cfg.PersistenceEnabled() {
		db, err := repository.Open(cfg.Database.Type, cfg.Database.Path, logger)
		if err != nil {
			logger.Warn("Database unavailable, runs will not be recorded", zap.Error(err))
		} else {
			env.repo = repository.NewReviewRepository(db, logger)
		}
	}

	if cfg.AuthEnabled() {
		env.Auth, err = auth.New(cfg.Auth.Secret, cfg.ReviewerHashes(), cfg.Auth.TokenTTL, logger)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("failed to build authenticator: %w", err)
		}
		logger.Info("Reviewer authentication enabled", zap.Int("reviewers", len(cfg.Auth.Reviewers)))
	}

	env.Reviewer = service.NewReviewer(cfg, c, env.repo, logger)
	return env, nil
}

// Close releases the database and flushes the logger.
func (e *Env) Close() {
	if e.repo != nil {
		if err := e.repo.Close(); err != nil {
			e.Logger.Warn("Failed to close database", zap.Error(err))
		}
	}
	e.Logger.Sync()
}
