package main

import (
	"fmt"

	"github.com/dalphys/chromatographd/internal/config"
	"github.com/dalphys/chromatographd/internal/daq"
	"github.com/dalphys/chromatographd/internal/errors"
	"github.com/dalphys/chromatographd/internal/logger"
	"github.com/dalphys/chromatographd/internal/pid"
	"github.com/spf13/cobra"
)

var valveCmd = &cobra.Command{
	Use:   "valve",
	Short: "Manually control the operator valves",
	Long: `Opens or shuts one of the operator-controlled valves. Only V1 and V7
are operator-controlled; the rest belong to the automatic sequence.`,
}

var valveOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Open an operator valve",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return setManualValve(cmd, true)
	},
}

var valveShutCmd = &cobra.Command{
	Use:   "shut",
	Short: "Shut an operator valve",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return setManualValve(cmd, false)
	},
}

func init() {
	rootCmd.AddCommand(valveCmd)
	valveCmd.AddCommand(valveOpenCmd, valveShutCmd)
	valveCmd.PersistentFlags().IntP("valve", "v", 0, "Valve number (1 or 7)")
}

func setManualValve(cmd *cobra.Command, open bool) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFile, logger.IsService()); err != nil {
		return err
	}

	n, err := cmd.Flags().GetInt("valve")
	if err != nil {
		return err
	}
	valve, err := daq.ParseValve(n)
	if err != nil {
		return err
	}
	if !valve.ManualOnly() {
		return errors.New(errors.ErrAutoValveInManual).WithData(valve.String())
	}

	// The runner owns the valves while the daemon is up; manual control
	// is locked out until the run finishes.
	if pid.Active() {
		return errors.New(errors.ErrAlreadyRunning).
			WithMessage("an acquisition run is active; stop it before commanding valves")
	}

	port, err := daq.OpenPort(cfg.Device)
	if err != nil {
		return err
	}
	defer port.Close()

	if err := port.SetValve(valve, open); err != nil {
		return err
	}

	state := "shut"
	if open {
		state = "opened"
	}
	fmt.Printf("%s %s\n", valve, state)

	return nil
}
