package main

import (
	"context"
	"fmt"
	"os"

	"sarcasm-review/internal/bootstrap"
	"sarcasm-review/internal/config"
	"sarcasm-review/internal/service"

	"go.uber.org/zap"
)

func main() {
	env, err := bootstrap.New(config.DefaultPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer env.Close()

	env.Logger.Info("Exporting emoji messages with minimal redaction...")

	run, err := env.Reviewer.Analyze(context.Background(), service.ProfileEmojiSamples)
	if err != nil {
		env.Logger.Fatal("Emoji sample export failed", zap.Error(err))
	}

	env.Logger.Info("Emoji messages saved",
		zap.Int("count", run.ExportedCount),
		zap.String("file", run.OutputPath))
}
