// Command ee is the estimation driver's CLI entrypoint (§6): it takes a
// config file and a task id and runs one Equilibrium-Expectation estimation
// task (component C7), exiting non-zero on any validation or I/O failure
// per §7.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gilchrisn/ergm-ee/pkg/config"
	"github.com/gilchrisn/ergm-ee/pkg/driver"
)

var (
	configPath string
	taskID     int
	seed       int64
)

var rootCmd = &cobra.Command{
	Use:   "ee",
	Short: "Equilibrium-Expectation ERGM parameter estimator",
	Long: `ee estimates the parameters of an Exponential Random Graph Model by
Monte-Carlo maximum-likelihood, using the Equilibrium Expectation method:
a short Metropolis toggle sampler drives Algorithm S (seed) and Algorithm
EE (main estimator) over a directed graph and a chosen set of effects.`,
	RunE: runEstimation,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to the estimation config file (required)")
	rootCmd.Flags().IntVar(&taskID, "task", 0, "task id, tags output files and seeds the task-local PRNG distinctly across MPI-style parallel tasks")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "PRNG seed; combined with --task so independent tasks draw independent sequences")
	rootCmd.MarkFlagRequired("config")
}

func runEstimation(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	sugar := logger.Sugar().With("task_id", taskID)

	cfg, err := config.Parse(configPath)
	if err != nil {
		sugar.Errorw("config parse failed", "error", err)
		return err
	}

	task := &driver.Task{
		Config: cfg,
		TaskID: taskID,
		Seed:   seed + int64(taskID),
		Logger: sugar,
	}
	if err := task.Run(); err != nil {
		sugar.Errorw("estimation task failed", "error", err)
		return err
	}
	return nil
}

// newLogger builds a per-process zap logger. Unlike the source's
// process-global Kafile debug stream (§9 design note), every Task gets its
// own *zap.SugaredLogger instance (see pkg/driver) — this is only the root
// zap.Logger each instance is derived from.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "ts"
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
