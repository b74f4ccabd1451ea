package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/atelier/api"
	"github.com/agentic-research/atelier/internal/checkpoint"
	"github.com/agentic-research/atelier/internal/export"
)

func init() {
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff [old.json] [new.json]",
	Short: "Diff two exported checkpoints",
	Long: `Reads two checkpoint JSON files (as written by 'atelier export') and
prints a unified-style line diff between them.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		oldRec, err := readCheckpoint(args[0])
		if err != nil {
			return err
		}
		newRec, err := readCheckpoint(args[1])
		if err != nil {
			return err
		}

		calc := checkpoint.NewCalculatorWithThreshold(cfg.ContextThreshold)
		diffs := calc.Diff(oldRec.Files, newRec.Files)
		if len(diffs) == 0 {
			fmt.Println("No differences.")
			return nil
		}

		for _, d := range diffs {
			printFileDiff(d)
		}

		s := checkpoint.Summarize(diffs)
		fmt.Printf("%d files changed, %d insertions(+), %d deletions(-)\n",
			s.FilesAdded+s.FilesModified+s.FilesDeleted, s.LinesAdded, s.LinesDeleted)
		return nil
	},
}

func readCheckpoint(path string) (api.CheckpointRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.CheckpointRecord{}, fmt.Errorf("read %s: %w", path, err)
	}
	rec, err := export.UnmarshalCheckpoint(data)
	if err != nil {
		return api.CheckpointRecord{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return rec, nil
}

func printFileDiff(d checkpoint.FileDiff) {
	switch d.Type {
	case checkpoint.DiffAdded:
		fmt.Printf("--- /dev/null\n+++ %s\n", d.Path)
	case checkpoint.DiffDeleted:
		fmt.Printf("--- %s\n+++ /dev/null\n", d.Path)
	default:
		fmt.Printf("--- %s\n+++ %s\n", d.Path, d.Path)
	}

	for _, h := range d.Hunks {
		fmt.Printf("@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, l := range h.Lines {
			switch l.Kind {
			case checkpoint.LineAdded:
				fmt.Printf("+%s\n", l.Text)
			case checkpoint.LineDeleted:
				fmt.Printf("-%s\n", l.Text)
			default:
				fmt.Printf(" %s\n", l.Text)
			}
		}
	}
}
