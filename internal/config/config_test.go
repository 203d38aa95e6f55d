package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dalphys/chromatographd/internal/config"
	"github.com/dalphys/chromatographd/internal/daq"
	"github.com/dalphys/chromatographd/internal/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chromatographd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CHROMATOGRAPHD_CONFIG", path)
}

func TestLoad(t *testing.T) {
	writeConfig(t, `
device = "sim0"
channel = 2
cycle_time = "2m"
sample_window = "20s"
sample_delta = "250ms"
reads_per_sample = 5
output = "/tmp/chromatograph.dat"
database = "/tmp/cycles.db"
log_level = "debug"

[[program]]
valve = 3
open = true
hold = "500ms"

[[program]]
valve = 5
open = true
hold = "500ms"
`)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "sim0", cfg.Device)
	assert.Equal(t, 2, cfg.Channel)
	assert.Equal(t, 2*time.Minute, cfg.CycleTime)
	assert.Equal(t, 20*time.Second, cfg.SampleWindow)
	assert.Equal(t, 250*time.Millisecond, cfg.SampleDelta)
	assert.Equal(t, 5, cfg.ReadsPerSample)
	assert.Equal(t, "/tmp/chromatograph.dat", cfg.Output)
	assert.Equal(t, "/tmp/cycles.db", cfg.Database)
	assert.Equal(t, "debug", cfg.LogLevel)
	require.Len(t, cfg.Program, 2)
	assert.Equal(t, 3, cfg.Program[0].Valve)
	assert.Equal(t, 500*time.Millisecond, cfg.Program[0].Hold)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHROMATOGRAPHD_CONFIG", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "sim", cfg.Device)
	assert.Equal(t, 1, cfg.Channel)
	assert.Equal(t, 5*time.Minute, cfg.CycleTime)
	assert.Equal(t, 30*time.Second, cfg.SampleWindow)
	assert.Equal(t, 500*time.Millisecond, cfg.SampleDelta)
	assert.Equal(t, 10, cfg.ReadsPerSample)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Empty(t, cfg.Program, "empty program falls back to the default schedule")

	cycleCfg, err := cfg.CycleConfig()
	require.NoError(t, err)
	assert.NotEmpty(t, cycleCfg.Program)
}

func TestLoadInvalidTiming(t *testing.T) {
	writeConfig(t, `
sample_window = "1s"
sample_delta = "2s"
`)

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidConfig, errors.Code(err))
}

func TestLoadInvalidLogLevel(t *testing.T) {
	writeConfig(t, `
log_level = "loud"
`)

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidLogLevel, errors.Code(err))
}

func TestLoadManualValveInProgram(t *testing.T) {
	writeConfig(t, `
[[program]]
valve = 1
open = true
hold = "1s"
`)

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrManualValveInAuto, errors.Code(err))
}

func TestLoadInvalidFormat(t *testing.T) {
	writeConfig(t, "this is not TOML")

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrReadConfig, errors.Code(err))
}

func TestFlagOverrides(t *testing.T) {
	writeConfig(t, `
cycle_time = "5m"
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Duration("cycle-time", 0, "")
	flags.String("device", "", "")
	require.NoError(t, flags.Parse([]string{"--cycle-time", "30s"}))

	cfg, err := config.Load(flags)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.CycleTime, "changed flag beats config file")
	assert.Equal(t, "sim", cfg.Device, "unchanged flag does not shadow the default")
}

func TestCycleConfig(t *testing.T) {
	writeConfig(t, `
[[program]]
valve = 6
open = true
hold = "2s"
`)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	cycleCfg, err := cfg.CycleConfig()
	require.NoError(t, err)
	require.Len(t, cycleCfg.Program, 1)
	assert.Equal(t, daq.V6, cycleCfg.Program[0].Valve)
	assert.True(t, cycleCfg.Program[0].Open)
	assert.Equal(t, 2*time.Second, cycleCfg.Program[0].Hold)
}
