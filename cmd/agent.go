package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/atelier/internal/agent"
	"github.com/agentic-research/atelier/internal/workspace"
)

// agentVersion is reported to MCP clients during initialization.
const agentVersion = "0.3.0"

func init() {
	rootCmd.AddCommand(agentCmd)
}

var agentCmd = &cobra.Command{
	Use:   "agent [source-dir]",
	Short: "Expose the workspace as MCP tools over stdio",
	Long: `Starts an MCP server on stdin/stdout. A code-generation agent connects
as an MCP client and drives the session: writing files, snapshotting
checkpoints before each turn, diffing, and restoring.

With a source directory argument the workspace is seeded from disk and
an initial checkpoint is captured; otherwise the session starts empty.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ws := workspace.New(cfg)
		if len(args) == 1 {
			if err := ws.LoadDirectory(args[0]); err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			ws.Snapshot("initial import")
		}

		return agent.NewServer(ws, agentVersion).ServeStdio()
	},
}
