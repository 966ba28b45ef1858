// Package main provides the lifeboat binary entry point.
// Lifeboat loads the Titanic passenger dataset, engineers features, compares
// four classifier families under seeded cross-validation, and writes a
// survival submission for the test file.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/lifeboat/dataset"
	"github.com/YuminosukeSato/lifeboat/diagnostics"
	"github.com/YuminosukeSato/lifeboat/model_selection"
	"github.com/YuminosukeSato/lifeboat/pkg/log"
	"github.com/YuminosukeSato/lifeboat/titanic"
)

const (
	version = "0.1.0"
	appName = "lifeboat"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		slog.Error("command failed", log.ErrAttr(err))
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	trainPath  string
	testPath   string
	outPath    string
	seed       uint64
	folds      int
	model      string
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Titanic survival prediction pipeline",
		Long: `Lifeboat engineers features from the Titanic passenger files, tunes and
cross-validates four classifier families on seeded folds, and writes a
two-column survival submission for the test file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.SetupLogger(cmd.ErrOrStderr(), flags.logLevel)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&flags.trainPath, "train", "", "training CSV path")
	cmd.PersistentFlags().StringVar(&flags.testPath, "test", "", "test CSV path")
	cmd.PersistentFlags().StringVar(&flags.outPath, "out", "", "submission output path")
	cmd.PersistentFlags().Uint64Var(&flags.seed, "seed", 0, "random seed")
	cmd.PersistentFlags().IntVar(&flags.folds, "folds", 0, "cross-validation fold count")
	cmd.PersistentFlags().StringVar(&flags.model, "model", "", "family used for the submission")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "diagnostic log level (debug, info, warn, error)")

	cmd.AddCommand(compareCmd(flags), predictCmd(flags), summaryCmd(flags))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, version)
		},
	})
	return cmd
}

// loadConfig merges the optional YAML file with any flag overrides.
func loadConfig(flags *rootFlags) (titanic.Config, error) {
	cfg := titanic.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := titanic.LoadConfig(flags.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if flags.trainPath != "" {
		cfg.TrainPath = flags.trainPath
	}
	if flags.testPath != "" {
		cfg.TestPath = flags.testPath
	}
	if flags.outPath != "" {
		cfg.OutPath = flags.outPath
	}
	if flags.seed != 0 {
		cfg.Seed = flags.seed
	}
	if flags.folds != 0 {
		cfg.Folds = flags.folds
	}
	if flags.model != "" {
		cfg.Model = flags.model
	}
	return cfg, nil
}

func compareCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Cross-validate the four model families and print the comparison table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger := log.NewConsoleLogger(cmd.ErrOrStderr())
			slog.Debug("comparing model families",
				"train", cfg.TrainPath, "folds", cfg.Folds, "seed", cfg.Seed)

			evals, err := titanic.Compare(cfg, logger)
			if err != nil {
				return err
			}
			printEvaluations(cmd, evals)
			return nil
		},
	}
}

func predictCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "predict",
		Short: "Run the full pipeline and write the submission file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger := log.NewConsoleLogger(cmd.ErrOrStderr())
			slog.Debug("running full pipeline",
				"train", cfg.TrainPath, "test", cfg.TestPath, "model", cfg.Model, "seed", cfg.Seed)

			report, err := titanic.Run(cfg, logger)
			if err != nil {
				return err
			}
			slog.Debug("submission written",
				"path", cfg.OutPath, "rows", len(report.Submission.IDs))
			printEvaluations(cmd, report.Evaluations)
			cmd.Printf("\nsubmission: %s (%d rows, model %s, holdout accuracy %.4f)\n",
				cfg.OutPath, len(report.Submission.IDs), report.Result.ModelName, report.Result.HoldoutScore)
			return nil
		},
	}
}

func summaryCmd(flags *rootFlags) *cobra.Command {
	var plotDir string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print per-column summaries of the training data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			train, err := titanic.LoadTrain(cfg.TrainPath)
			if err != nil {
				return err
			}

			cmd.Printf("%-14s %-8s %6s %8s %10s %10s %10s %10s\n",
				"column", "kind", "count", "missing", "mean/top", "std", "min", "max")
			for _, s := range diagnostics.Summarize(train) {
				if s.Kind == dataset.Numeric {
					cmd.Printf("%-14s %-8s %6d %8d %10.3f %10.3f %10.3f %10.3f\n",
						s.Name, "numeric", s.Count, s.Missing, s.Mean, s.Std, s.Min, s.Max)
				} else {
					cmd.Printf("%-14s %-8s %6d %8d %10s %10s %10s %10s\n",
						s.Name, "string", s.Count, s.Missing, s.Top, "-", "-", "-")
				}
			}

			rates, err := diagnostics.RateByLevel(train, titanic.ColSurvived, titanic.ColSex)
			if err == nil {
				cmd.Printf("\nsurvival rate by %s:\n", titanic.ColSex)
				for _, r := range rates {
					cmd.Printf("  %-10s %6d %8.4f\n", r.Level, r.Count, r.Rate)
				}
			}

			if plotDir != "" {
				if err := os.MkdirAll(plotDir, 0o755); err != nil {
					return err
				}
				for _, col := range []string{titanic.ColAge, titanic.ColFare} {
					if err := diagnostics.SaveHistogram(train, col, plotDir+"/"+col+".png", 16); err != nil {
						return err
					}
				}
				if err := diagnostics.SaveCorrelationHeatmap(train, plotDir+"/correlation.png"); err != nil {
					return err
				}
				cmd.Printf("\nplots written to %s\n", plotDir)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&plotDir, "plots", "", "directory to write histogram and heatmap images")
	return cmd
}

func printEvaluations(cmd *cobra.Command, evals []model_selection.Evaluation) {
	cmd.Printf("%-22s %10s %8s %10s %10s %8s %8s\n",
		"model", "cv_acc", "cv_std", "holdout", "precision", "recall", "f1")
	for _, e := range evals {
		cmd.Printf("%-22s %10.4f %8.4f %10.4f %10.4f %8.4f %8.4f\n",
			e.Model, e.CVAccuracy, e.CVStd, e.HoldoutAccuracy, e.Precision, e.Recall, e.F1)
	}
}
