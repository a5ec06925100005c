package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/syllabus"
)

type app struct {
	configPath string
	logLevel   string

	cfg    *common.Config
	logger *slog.Logger
}

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "syllabus",
		Short:         "Extract course details and important dates from syllabus text",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := common.LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Log.Level = a.logLevel
			}
			a.cfg = cfg
			// stdout carries command output.
			a.logger = common.NewLogger(cfg.Log, os.Stderr)
			slog.SetDefault(a.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv(common.EnvPrefix+"CONFIG"), "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug|info|warn|error)")

	root.AddCommand(newExtractCmd(a), newBatchCmd(a), newDBHealthCmd(a))
	return root
}

func (a *app) extractor() *syllabus.Extractor {
	return syllabus.NewExtractor(syllabus.DefaultCatalog(),
		syllabus.WithMaxInputChars(a.cfg.Extraction.MaxInputChars),
		syllabus.WithMethod(a.cfg.Extraction.Method),
		syllabus.WithLogger(a.logger),
	)
}
