package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scalefx/hubsync/internal/progress"
	"github.com/scalefx/hubsync/internal/service"
)

var (
	flagSyncDest   string
	flagSyncDelete bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [source]",
	Short: "Mirror a local folder onto the device SD card",
	Long: `Compares the local folder against the device folder and uploads
files that are new or whose size changed. Comparison is case-insensitive
to match the card's FAT filesystem. With --delete, device files that have
no local counterpart are removed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := cfg.Sync.Source
		if len(args) > 0 {
			source = args[0]
		}
		if source == "" {
			return fmt.Errorf("no source folder: pass one or set sync.source in the config")
		}

		dest := cfg.Sync.Dest
		if cmd.Flags().Changed("dest") {
			dest = flagSyncDest
		}
		deleteOrphans := cfg.Sync.DeleteOrphans || flagSyncDelete

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		svc := service.NewSyncService(sess.Engine, sess.View)
		svc.SetProgressReporter(progress.NewConsoleReporter(os.Stdout))

		stats, err := svc.Sync(cmd.Context(), source, dest, deleteOrphans)
		if err != nil {
			return err
		}
		if stats.HardFailure() {
			return fmt.Errorf("sync finished with %d errors", stats.Errors)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&flagSyncDest, "dest", "/sounds", "destination folder on the device")
	syncCmd.Flags().BoolVar(&flagSyncDelete, "delete", false, "delete device files not present locally")
	rootCmd.AddCommand(syncCmd)
}
