package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/scalefx/hubsync/internal/codec"
	"github.com/scalefx/hubsync/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device liveness, firmware and runtime status",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		resp, err := sess.Codec.Send("ping", codec.DefaultWait)
		if err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		if resp.Empty() {
			return fmt.Errorf("%w: device did not answer ping", domain.ErrNoResponse)
		}
		fmt.Printf("Device on %s is responding\n", sess.Port)

		if obj, err := sess.Codec.SendJSON("version", codec.DefaultWait); err == nil {
			fw := codec.String(obj, "firmware")
			if fw == "" {
				fw = codec.String(obj, "version")
			}
			if fw != "" {
				fmt.Printf("Firmware: %s", fw)
				if build := codec.Int(obj, "build"); build > 0 {
					fmt.Printf(" build %d", build)
				}
				if platform := codec.String(obj, "platform"); platform != "" {
					fmt.Printf(" (%s)", platform)
				}
				fmt.Println()
			}
		}

		obj, err := sess.Codec.SendJSON("status", codec.DefaultWait)
		if err != nil {
			// Older firmware has no JSON status; show the text form as-is.
			resp, terr := sess.Codec.Send("status", codec.DefaultWait)
			if terr != nil || resp.Empty() {
				return nil
			}
			for _, line := range resp.Lines() {
				fmt.Println(line)
			}
			return nil
		}

		keys := make([]string, 0, len(obj))
		for k := range obj {
			if k == "status" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s: %v\n", k, obj[k])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
