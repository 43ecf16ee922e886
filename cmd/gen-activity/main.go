// Command gen-activity generates a synthetic employee activity log and,
// optionally, fits reference model parameters from it so the scoring
// service has something to load.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/sristy17/insider-Threat-Detection/internal/activitygen"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/features"
	"github.com/sristy17/insider-Threat-Detection/pkg/logger"
)

// Default generation parameters.
const (
	defaultUsers       = 150
	defaultDays        = 30
	defaultSeed        = 42
	defaultAnomalyRate = 0.02
)

func main() {
	var (
		out         = flag.String("out", "data/raw/employee_logs.csv", "Output path for the activity log")
		modelDir    = flag.String("models", "", "Directory to write fitted model parameters (empty skips fitting)")
		users       = flag.Int("users", defaultUsers, "Number of employees to generate")
		days        = flag.Int("days", defaultDays, "Days of activity per employee")
		seed        = flag.Int64("seed", defaultSeed, "Random seed for reproducible output")
		anomalyRate = flag.Float64("anomaly-rate", defaultAnomalyRate, "Per-day probability of anomalous behavior")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	ctx := context.Background()
	log := logger.Get().Named("gen-activity")

	gen := activitygen.NewGenerator(*seed, activitygen.WithAnomalyRate(*anomalyRate))
	rows := gen.Generate(*users, *days)
	if err := features.WriteActivityCSV(*out, rows); err != nil {
		log.Fatal(ctx, "writing activity log failed", logger.Error(err))
	}
	log.Info(ctx, "activity log written",
		logger.String("path", *out),
		logger.Int("rows", len(rows)),
		logger.Int("users", *users),
		logger.Int("days", *days),
	)

	if *modelDir == "" {
		return
	}

	records := features.Aggregate(rows, 0)
	fitted, err := activitygen.Fit(records, *seed)
	if err != nil {
		log.Fatal(ctx, "fitting model parameters failed", logger.Error(err))
	}
	if err := fitted.Save(*modelDir); err != nil {
		log.Fatal(ctx, "saving model parameters failed", logger.Error(err))
	}
	log.Info(ctx, "model parameters written",
		logger.String("dir", *modelDir),
		logger.Int("population", len(records)),
	)
}
