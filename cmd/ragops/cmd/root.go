package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragops/internal/backend"
	"ragops/internal/common"
	"ragops/internal/config"
	"ragops/internal/console"
)

var rootCmd = &cobra.Command{
	Use:   "ragops",
	Short: "ragops — operator console for a RAG backend",
	Long: "Check backend liveness, trigger document ingestion and converse with a\n" +
		"retrieval-augmented-generation backend over previously ingested content.",
	RunE: runConsole,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(func() {
		logger := common.Logger()
		if err := godotenv.Load(); err != nil {
			logger.Debug("ragops: .env file not loaded", "error", err)
		} else {
			logger.Info("ragops: environment loaded from .env")
		}
	})
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
}

// buildConsole wires the settings store, the backend gateway and the state
// container shared by every surface.
func buildConsole() (*console.Console, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	store := config.NewStore(cfg.SettingsPath, cfg.BackendBase)
	client := backend.New(func() string { return store.Get().BackendBase }, backend.Options{
		Timeout:         cfg.Timeout,
		MaxIdleConns:    cfg.HTTPMaxIdleConns,
		MaxIdlePerHost:  cfg.HTTPMaxIdlePerHost,
		MaxConnsPerHost: cfg.HTTPMaxConnsPerHost,
	})
	common.Logger().Info("ragops: console ready", "backend", store.Get().BackendBase, "settings", store.Path())
	return console.New(store, client), nil
}
