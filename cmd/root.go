package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/atelier/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "atelier",
	Short: "Atelier: a checkpointed virtual workspace for code-generation agents",
	Long: `Atelier keeps an AI coding session's files in an in-memory virtual
filesystem with labeled checkpoints, line-level diffs, and transactional
restore. Serve the workspace over NFS for humans, or over MCP for agents.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to session config (HCL)")
}

// loadConfig resolves the session configuration, falling back to
// defaults when no --config flag was given.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config %s: %w", configPath, err)
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
