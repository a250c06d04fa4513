package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scalefx/hubsync/internal/service"
)

var flagConfigRemote string

var pushConfigCmd = &cobra.Command{
	Use:   "push-config <local-file>",
	Short: "Upload a device config file and activate it",
	Long: `Uploads the config file to the device, confirms the stored size,
triggers a config reload and reads the active config back to check that
it parsed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.View.Init(); err != nil {
			return err
		}

		pusher := service.NewConfigPusher(sess.Engine, sess.Codec)
		if err := pusher.Push(args[0], flagConfigRemote); err != nil {
			return err
		}

		fmt.Printf("Config %s active on device\n", flagConfigRemote)
		return nil
	},
}

func init() {
	pushConfigCmd.Flags().StringVar(&flagConfigRemote, "remote", "/config.yaml", "remote config path")
	rootCmd.AddCommand(pushConfigCmd)
}
