package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scalefx/hubsync/internal/channel"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "List serial ports and show which one looks like the device",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := channel.ListPorts()
		if err != nil {
			return fmt.Errorf("port enumeration failed: %w", err)
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}

		match, found := channel.Detect(ports)
		for _, p := range ports {
			marker := " "
			if found && p.Name == match {
				marker = "*"
			}
			fmt.Printf("%s %-16s VID=%-6s %s\n", marker, p.Name, p.VID, p.Description)
		}

		if !found {
			fmt.Println("\nNo device recognized; pass --port explicitly")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
