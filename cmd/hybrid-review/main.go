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

	env.Logger.Info("Starting hybrid sarcasm review export...")

	run, err := env.Reviewer.Analyze(context.Background(), service.ProfileHybrid)
	if err != nil {
		env.Logger.Fatal("Hybrid review failed", zap.Error(err))
	}

	env.Logger.Info("Next steps",
		zap.String("open", run.OutputPath),
		zap.String("focus", "rows where strict_mismatch and tone_contradiction are both True"),
		zap.String("mark", "is_real_sarcasm"))
}
