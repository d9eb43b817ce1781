package main

import (
	"github.com/spf13/cobra"
	"github.com/vytor/studyflash/internal/config"
	"github.com/vytor/studyflash/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "studyflash",
	Short:         "Flashcards, quizzes and study planning",
	Long:          "studyflash serves a JSON API for spaced repetition flashcards, quizzes, a day planner and assignments.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database (overrides DB_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "DEBUG, INFO, WARN or ERROR (overrides LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(dueCmd)
}

// loadConfig reads the layered configuration and applies command line
// overrides on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	logger.SetDefault(logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithFormat(logger.ParseFormat(cfg.LogFormat)),
		logger.WithColors(true),
	))
	return cfg, nil
}
