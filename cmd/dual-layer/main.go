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

	env.Logger.Info("Running dual-layer sarcasm detection on readable messages...")

	run, err := env.Reviewer.Analyze(context.Background(), service.ProfileDualLayer)
	if err != nil {
		env.Logger.Fatal("Dual-layer analysis failed", zap.Error(err))
	}

	env.Logger.Info("Next steps",
		zap.String("open", run.OutputPath),
		zap.String("mark", "is_real_sarcasm (True/False)"),
		zap.String("rate", "confidence_level (High/Medium/Low)"))
}
