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

	env.Logger.Info("Creating lighter redaction version of the hybrid review...")

	run, err := env.Reviewer.Analyze(context.Background(), service.ProfileReadableReview)
	if err != nil {
		env.Logger.Fatal("Readable review failed", zap.Error(err))
	}

	env.Logger.Info("Readable review saved", zap.String("file", run.OutputPath))
}
