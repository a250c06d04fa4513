package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scalefx/hubsync/internal/verify"
)

var flagExpectBuild int

var verifyFirmwareCmd = &cobra.Command{
	Use:   "verify-firmware <expected-version>",
	Short: "Check that the device runs the expected firmware",
	Long: `Asks the device for its firmware version and build number and
compares them against the expected values. A leading "v" on the version
is ignored on both sides.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		result, err := verify.Firmware(sess.Codec, args[0], flagExpectBuild)
		switch result.Outcome {
		case verify.Verified:
			fmt.Printf("Verified: firmware %s build %d\n", result.ActualVersion, result.ActualBuild)
			return nil
		case verify.Mismatch:
			fmt.Printf("Mismatch: device runs %s build %d\n", result.ActualVersion, result.ActualBuild)
		default:
			fmt.Println("Could not read a firmware version from the device")
		}
		return err
	},
}

func init() {
	verifyFirmwareCmd.Flags().IntVar(&flagExpectBuild, "build", 0, "expected build number")
	rootCmd.AddCommand(verifyFirmwareCmd)
}
