package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentic-research/atelier/internal/export"
	"github.com/agentic-research/atelier/internal/workspace"
)

var exportLabel string

func init() {
	exportCmd.Flags().StringVarP(&exportLabel, "label", "l", "export", "Checkpoint label recorded in the JSON export")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [source-dir] [output]",
	Short: "Export a directory as a checkpoint JSON or a zip archive",
	Long: `Loads a directory into a workspace and exports it. The output format
follows the file extension: .json writes a checkpoint record that
'atelier diff' can consume, .zip writes an archive of the files.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ws := workspace.New(cfg)
		if err := ws.LoadDirectory(args[0]); err != nil {
			return fmt.Errorf("load %s: %w", args[0], err)
		}

		output := args[1]
		switch strings.ToLower(filepath.Ext(output)) {
		case ".json":
			cp := ws.Snapshot(exportLabel)
			data, err := export.MarshalCheckpoint(cp)
			if err != nil {
				return fmt.Errorf("marshal checkpoint: %w", err)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
		case ".zip":
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := export.WriteArchive(f, ws.FS().AllFiles()); err != nil {
				return fmt.Errorf("write archive: %w", err)
			}
		default:
			return fmt.Errorf("unsupported output format %q (want .json or .zip)", filepath.Ext(output))
		}

		fmt.Printf("Exported %d files to %s\n", ws.FS().FileCount(), output)
		return nil
	},
}
