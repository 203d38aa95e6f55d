package config

import (
	"os"
	"strings"
	"time"

	"github.com/dalphys/chromatographd/internal/acq"
	"github.com/dalphys/chromatographd/internal/daq"
	"github.com/dalphys/chromatographd/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName = "chromatographd"
	configType = "toml"
	envPrefix  = "CHROMATOGRAPHD"

	DefaultLogLevel = "info"
)

// StepConfig is one valve program entry as authored in the config file.
type StepConfig struct {
	Valve int           `mapstructure:"valve"`
	Open  bool          `mapstructure:"open"`
	Hold  time.Duration `mapstructure:"hold"`
}

// Config is the full configuration surface of the daemon. Values come
// from the TOML config file, CHROMATOGRAPHD_* environment variables and
// command line flags, in increasing priority.
type Config struct {
	Device         string        `mapstructure:"device"`
	Channel        int           `mapstructure:"channel"`
	CycleTime      time.Duration `mapstructure:"cycle_time"`
	SampleWindow   time.Duration `mapstructure:"sample_window"`
	SampleDelta    time.Duration `mapstructure:"sample_delta"`
	ReadsPerSample int           `mapstructure:"reads_per_sample"`
	MaxReadLatency time.Duration `mapstructure:"max_read_latency"`
	DriftTolerance time.Duration `mapstructure:"drift_tolerance"`
	Buffer         int           `mapstructure:"buffer"`
	Output         string        `mapstructure:"output"`
	Database       string        `mapstructure:"database"`
	Listen         string        `mapstructure:"listen"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFile        string        `mapstructure:"log_file"`
	Program        []StepConfig  `mapstructure:"program"`
}

// Load reads configuration from all sources and validates it. The flags
// set may be nil (no flag overrides). An explicit config file path is
// taken from the CHROMATOGRAPHD_CONFIG environment variable; otherwise
// chromatographd.toml is searched for in /etc and the working directory.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("device", "sim")
	v.SetDefault("channel", 1)
	v.SetDefault("cycle_time", 5*time.Minute)
	v.SetDefault("sample_window", 30*time.Second)
	v.SetDefault("sample_delta", 500*time.Millisecond)
	v.SetDefault("reads_per_sample", acq.DefaultReadsPerSample)
	v.SetDefault("max_read_latency", acq.DefaultMaxReadLatency)
	v.SetDefault("drift_tolerance", acq.DefaultDriftTolerance)
	v.SetDefault("buffer", acq.DefaultQueueDepth)
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(envPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(errors.ErrReadConfig, err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(errors.ErrReadConfig, err)
			}
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// flagKeys maps command line flag names to their configuration keys.
var flagKeys = map[string]string{
	"device":           "device",
	"channel":          "channel",
	"cycle-time":       "cycle_time",
	"sample-window":    "sample_window",
	"sample-delta":     "sample_delta",
	"reads-per-sample": "reads_per_sample",
	"max-read-latency": "max_read_latency",
	"drift-tolerance":  "drift_tolerance",
	"buffer":           "buffer",
	"output":           "output",
	"database":         "database",
	"listen":           "listen",
	"log-level":        "log_level",
	"log-file":         "log_file",
}

// bindFlags overlays flags the user actually set. Unchanged flags are
// skipped so their zero defaults cannot shadow config file values.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for flagName, key := range flagKeys {
		f := flags.Lookup(flagName)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrap(errors.ErrBindFlags, err)
		}
	}

	return nil
}

// Validate checks the configuration before any hardware is opened.
func (c *Config) Validate() error {
	if c.Device == "" {
		return errors.New(errors.ErrMissingConfig).WithMessage("device must be set")
	}
	if c.ReadsPerSample < 1 {
		return errors.New(errors.ErrInvalidConfig).
			WithMessage("reads_per_sample must be at least 1").
			WithData(c.ReadsPerSample)
	}
	if c.Buffer < 1 {
		return errors.New(errors.ErrInvalidConfig).
			WithMessage("buffer must be at least 1").
			WithData(c.Buffer)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warning", "warn", "error":
	default:
		return errors.New(errors.ErrInvalidLogLevel).WithData(c.LogLevel)
	}

	cycleCfg, err := c.CycleConfig()
	if err != nil {
		return err
	}

	return cycleCfg.Validate()
}

// CycleConfig converts the file-level configuration into the acquisition
// core's cycle configuration. An empty program means the default valve
// schedule.
func (c *Config) CycleConfig() (acq.CycleConfig, error) {
	program := acq.DefaultProgram()
	if len(c.Program) > 0 {
		program = make(acq.Program, 0, len(c.Program))
		for _, step := range c.Program {
			valve, err := daq.ParseValve(step.Valve)
			if err != nil {
				return acq.CycleConfig{}, err
			}
			program = append(program, acq.Step{Valve: valve, Open: step.Open, Hold: step.Hold})
		}
	}

	return acq.CycleConfig{
		CycleTime:      c.CycleTime,
		SampleWindow:   c.SampleWindow,
		SampleDelta:    c.SampleDelta,
		Channel:        c.Channel,
		ReadsPerSample: c.ReadsPerSample,
		MaxReadLatency: c.MaxReadLatency,
		DriftTolerance: c.DriftTolerance,
		Program:        program,
	}, nil
}
