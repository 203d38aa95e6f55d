package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dalphys/chromatographd/internal/acq"
	"github.com/dalphys/chromatographd/internal/config"
	"github.com/dalphys/chromatographd/internal/daq"
	"github.com/dalphys/chromatographd/internal/logger"
	"github.com/dalphys/chromatographd/internal/metrics"
	"github.com/dalphys/chromatographd/internal/pid"
	"github.com/dalphys/chromatographd/internal/recorder"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the acquisition cycle loop",
	Long: `Runs cycles back to back until interrupted: prime the carrier valve,
wait out the cycle time, apply the valve program, sample the detector,
close every valve. SIGINT or SIGTERM cancels cooperatively; valves are
closed before the process exits.`,
	RunE: runAcquisition,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().DurationP("cycle-time", "c", 0, "Wait after priming before the valve program")
	runCmd.Flags().DurationP("sample-window", "T", 0, "Total sampling duration per cycle")
	runCmd.Flags().DurationP("sample-delta", "t", 0, "Interval between samples")
	runCmd.Flags().Int("channel", 0, "Differential analog input channel")
	runCmd.Flags().Int("reads-per-sample", 0, "Raw readings averaged into one sample")
	runCmd.Flags().Duration("max-read-latency", 0, "Fail the cycle if one read blocks longer than this")
	runCmd.Flags().Duration("drift-tolerance", 0, "Flag the cycle when sampling drift exceeds this")
	runCmd.Flags().Int("buffer", 0, "Per-observer event backlog limit")
	runCmd.Flags().StringP("output", "o", "", "Append sample data to this file")
	runCmd.Flags().String("database", "", "Record cycles into this sqlite database")
	runCmd.Flags().String("listen", "", "Serve Prometheus metrics on this address")
	runCmd.Flags().String("log-file", "", "Also log to this rotated file")
}

func runAcquisition(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFile, logger.IsService()); err != nil {
		return err
	}

	cycleCfg, err := cfg.CycleConfig()
	if err != nil {
		return err
	}

	if err := pid.Write(); err != nil {
		return err
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	port, err := daq.OpenPort(cfg.Device)
	if err != nil {
		return err
	}
	defer port.Close()

	runner := acq.NewRunner(port)
	runner.SetQueueDepth(cfg.Buffer)

	if err := runner.AddObserver(consoleObserver()); err != nil {
		return err
	}

	var closers []interface{ Close() error }
	if cfg.Output != "" {
		csv, err := recorder.NewCSV(cfg.Output, cycleCfg)
		if err != nil {
			return err
		}
		closers = append(closers, csv)
		if err := runner.AddObserver(csv); err != nil {
			return err
		}
	}
	if cfg.Database != "" {
		repo, err := recorder.NewRepository(cfg.Database)
		if err != nil {
			return err
		}
		closers = append(closers, repo)
		if err := runner.AddObserver(repo); err != nil {
			return err
		}
	}
	if cfg.Listen != "" {
		prom := metrics.New(cfg.Listen)
		closers = append(closers, prom)
		if err := runner.AddObserver(prom); err != nil {
			return err
		}
	}

	closeSinks := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close sink")
			}
		}
	}

	if err := runner.Start(cycleCfg); err != nil {
		closeSinks()
		return err
	}

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		logger.Info().Msg("termination signal received, cancelling run")
		runner.Cancel()
	}()

	runner.Wait()
	closeSinks()

	return nil
}

// consoleObserver reproduces the classic command line output: one
// "time signal" line per sample, a marker between datasets.
func consoleObserver() acq.Observer {
	return acq.ObserverFunc(func(e acq.Event) {
		switch ev := e.(type) {
		case acq.SampleCollected:
			fmt.Printf("%g %g\n", ev.Sample.Offset.Seconds(), ev.Sample.Value)
		case acq.CycleCompleted:
			fmt.Println("# Dataset finished")
		case acq.CycleCancelled:
			fmt.Println("# Dataset cancelled")
		case acq.CycleFailed:
			fmt.Printf("# Dataset failed: %v\n", ev.Err)
		}
	})
}
