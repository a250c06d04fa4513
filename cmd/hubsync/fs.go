package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/scalefx/hubsync/internal/domain"
	"github.com/scalefx/hubsync/internal/progress"
)

var flagLsRecursive bool

var lsCmd = &cobra.Command{
	Use:   "ls [remote-dir]",
	Short: "List files on the device SD card",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Sync.Dest
		if len(args) > 0 {
			dir = args[0]
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.View.Init(); err != nil {
			return err
		}

		if flagLsRecursive {
			records, err := sess.View.ListTree(dir)
			if err != nil {
				return err
			}
			files := make([]domain.FileRecord, 0, len(records))
			for _, rec := range records {
				files = append(files, rec)
			}
			sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

			var total int64
			for _, rec := range files {
				fmt.Printf("%-48s %s\n", rec.Path, progress.FormatBytes(rec.Size))
				total += rec.Size
			}
			fmt.Printf("%d files, %s\n", len(files), progress.FormatBytes(total))
			return nil
		}

		entries, err := sess.View.List(dir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.IsDir() {
				fmt.Printf("%s/\n", e.Name)
				continue
			}
			fmt.Printf("%-48s %s\n", e.Name, progress.FormatBytes(e.Size))
		}
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <remote-path>",
	Short: "Delete a file on the device SD card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.View.Init(); err != nil {
			return err
		}
		if err := sess.View.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <remote-dir>",
	Short: "Create a directory on the device SD card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.View.Init(); err != nil {
			return err
		}
		if err := sess.View.Mkdir(args[0]); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", args[0])
		return nil
	},
}

func init() {
	lsCmd.Flags().BoolVarP(&flagLsRecursive, "recursive", "r", false, "list the whole tree")
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mkdirCmd)
}
