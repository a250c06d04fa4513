package main

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scalefx/hubsync/internal/domain"
	"github.com/scalefx/hubsync/internal/progress"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-file> [remote-path]",
	Short: "Upload a single file to the device",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		localPath := args[0]
		info, err := os.Stat(localPath)
		if err != nil {
			return err
		}

		remotePath := path.Join("/", cfg.Sync.Dest, filepath.Base(localPath))
		if len(args) > 1 {
			remotePath = args[1]
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		result, err := sess.Engine.Upload(domain.TransferSpec{
			Direction:  domain.DirUpload,
			LocalPath:  localPath,
			RemotePath: remotePath,
			SizeBytes:  info.Size(),
		})
		if errors.Is(err, domain.ErrStatusUnclear) {
			fmt.Printf("Sent %s (%s) but the device gave no completion status\n",
				remotePath, progress.FormatBytes(result.BytesMoved))
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Uploaded %s (%s)\n", remotePath, progress.FormatBytes(result.BytesMoved))
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <remote-path> [local-file]",
	Short: "Download a file from the device",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		remotePath := args[0]
		localPath := filepath.Base(remotePath)
		if len(args) > 1 {
			localPath = args[1]
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		result, err := sess.Engine.Download(domain.TransferSpec{
			Direction:  domain.DirDownload,
			LocalPath:  localPath,
			RemotePath: remotePath,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Downloaded %s -> %s (%s)\n",
			remotePath, localPath, progress.FormatBytes(result.BytesMoved))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
}
