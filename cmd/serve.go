package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentic-research/atelier/internal/nfsmount"
	"github.com/agentic-research/atelier/internal/workspace"
)

var (
	serveMountPoint string
	serveReadOnly   bool
)

func init() {
	serveCmd.Flags().StringVarP(&serveMountPoint, "mount", "m", "", "Mount the served workspace at this path")
	serveCmd.Flags().BoolVar(&serveReadOnly, "read-only", false, "Serve the workspace read-only")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [source-dir]",
	Short: "Serve a directory as a checkpointed workspace over NFS",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ws := workspace.New(cfg)
		if err := ws.LoadDirectory(args[0]); err != nil {
			return fmt.Errorf("load %s: %w", args[0], err)
		}
		ws.Snapshot("initial import")
		fmt.Printf("Loaded %d files from %s\n", ws.FS().FileCount(), args[0])

		wfs := nfsmount.NewWorkspaceFS(ws)
		if serveReadOnly {
			wfs.SetReadOnly()
		}

		srv, err := nfsmount.NewServer(wfs)
		if err != nil {
			return fmt.Errorf("start nfs server: %w", err)
		}
		defer srv.Close()

		fmt.Printf("NFS server listening on localhost:%d\n", srv.Port())

		if serveMountPoint != "" {
			if err := nfsmount.Mount(srv.Port(), serveMountPoint, !serveReadOnly); err != nil {
				return fmt.Errorf("mount %s: %w", serveMountPoint, err)
			}
			fmt.Printf("Mounted at %s\n", serveMountPoint)
			defer func() {
				if err := nfsmount.Unmount(serveMountPoint); err != nil {
					fmt.Fprintf(os.Stderr, "unmount: %v\n", err)
				}
			}()
		} else {
			fmt.Printf("Mount manually with:\n  mount -t nfs -o port=%d,mountport=%d localhost:/ <dir>\n", srv.Port(), srv.Port())
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		fmt.Println("\nShutting down.")
		return nil
	},
}
