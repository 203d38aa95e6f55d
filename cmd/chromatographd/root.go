package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chromatographd",
	Short: "Valve sequencing and data acquisition for the gas chromatograph",
	Long: `chromatographd drives the chromatograph's valve manifold through the
programmed cycle (prime, wait, sequence, sample, close) and records the
detector's differential signal. Acquisition runs until interrupted; valves
are always left closed.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("device", "d", "", "DAQ device name")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warning, error)")
}
