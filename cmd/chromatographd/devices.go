package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available DAQ devices",
	Run: func(*cobra.Command, []string) {
		// Hardware bindings are external to this daemon; only the
		// built-in simulated device can be enumerated here.
		fmt.Println("sim")
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
