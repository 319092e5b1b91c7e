package config

import (
  "go/parser"
  "go/token"
  "os"
  "path/filepath"
  "testing"
  "time"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
  t.Helper()
  path := filepath.Join(t.TempDir(), "config.yaml")
  require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
  return path
}

func TestLoadDefaults(t *testing.T) {
  t.Setenv("CONFIG_FILE", "")
  t.Setenv("HOME", "/home/observer")

  cfg, err := Load("")
  require.NoError(t, err)

  assert.Equal(t, 2e-3, cfg.SamplingPeriod)
  assert.Equal(t, "Plots", cfg.PlotsDir)
  assert.Equal(t, "ettus.astro.gla.ac.uk", cfg.Remote.Host)
  assert.Equal(t, "/home/observer/.ssh/known_hosts", cfg.Remote.KnownHostsFile)
  assert.Equal(t, []int{4, 5}, cfg.Policy.RawHours)
  assert.Equal(t, []string{"F0", "F1", "F2", "DM"}, cfg.Timing.FitParams)
  assert.Equal(t, 14.0, cfg.Style.FontSize)
}

func TestLoadFileThenEnv(t *testing.T) {

  path := writeFile(t, `
sampling_period: 0.004
plots_dir: out
remote:
  host: localhost
  port: 2222
  timeout: 5s
style:
  font_size: 10
  figure_size:
    width: 8
policy:
  raw_hours: [3]
timing:
  fit_params: [F0]
`)
  t.Setenv("CONFIG_FILE", path)
  t.Setenv("REMOTE_HOST", "example.org")
  t.Setenv("REMOTE_TIMEOUT", "1m")
  t.Setenv("STYLE_X_TICK_SIZE", "9")
  t.Setenv("STYLE_FIGURE_SIZE_HEIGHT", "6")
  t.Setenv("POLICY_PREPROC_HOURS", "4, 5,,9")
  t.Setenv("TIMING_FIT_PARAMS", "F0,DM")
  t.Setenv("TIMING_MIN_SNR", "7.5")
  t.Setenv("LOG_LEVEL", "debug")

  cfg, err := Load("")
  require.NoError(t, err)

  assert.Equal(t, 0.004, cfg.SamplingPeriod)
  assert.Equal(t, "out", cfg.PlotsDir)
  assert.Equal(t, "example.org", cfg.Remote.Host)
  assert.Equal(t, 2222, cfg.Remote.Port)
  assert.Equal(t, time.Minute, cfg.Remote.Timeout)
  assert.Equal(t, 10.0, cfg.Style.FontSize)
  assert.Equal(t, 9.0, cfg.Style.XTickSize)
  assert.Equal(t, 8.0, cfg.Style.FigureSize.Width)
  assert.Equal(t, 6.0, cfg.Style.FigureSize.Height)
  assert.Equal(t, []int{3}, cfg.Policy.RawHours)
  assert.Equal(t, []int{4, 5, 9}, cfg.Policy.PreprocHours)
  assert.Equal(t, 8, cfg.Policy.DoubledPreprocHours)
  assert.Equal(t, []string{"F0", "DM"}, cfg.Timing.FitParams)
  assert.Equal(t, 7.5, cfg.Timing.MinSNR)
  assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadExplicitPathWins(t *testing.T) {
  t.Setenv("CONFIG_FILE", writeFile(t, "plots_dir: env\n"))

  cfg, err := Load(writeFile(t, "plots_dir: flag\n"))
  require.NoError(t, err)
  assert.Equal(t, "flag", cfg.PlotsDir)
}

func TestLoadErrors(t *testing.T) {
  t.Setenv("CONFIG_FILE", "")

  _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
  assert.ErrorContains(t, err, "read file")

  _, err = Load(writeFile(t, "plots_dir: [\n"))
  assert.ErrorContains(t, err, "decode yaml")

  t.Setenv("REMOTE_PORT", "ssh")
  _, err = Load("")
  assert.ErrorContains(t, err, "REMOTE_PORT")
}

func TestValidate(t *testing.T) {
  cfg := Default()
  require.NoError(t, cfg.Validate())

  cfg.SamplingPeriod = 0
  cfg.Format = "gif"
  cfg.LogFormat = "xml"
  err := cfg.Validate()
  assert.ErrorContains(t, err, "sampling period")
  assert.ErrorContains(t, err, "gif")
  assert.ErrorContains(t, err, "xml")

  cfg = Default()
  cfg.Policy.DoubledPreprocHours = 9
  assert.ErrorContains(t, cfg.Validate(), "doubled preproc hours 9")
}

func TestSnake(t *testing.T) {
  for in, want := range map[string]string{
    "Host":           "Host",
    "KnownHostsFile": "Known_Hosts_File",
    "XTickSize":      "X_Tick_Size",
    "MinSNR":         "Min_SNR",
    "MaxErrorUS":     "Max_Error_US",
    "F0Value":        "F0_Value",
  } {
    assert.Equal(t, want, snake(in), in)
  }
}

func TestSplitList(t *testing.T) {
  assert.Equal(t, []string{"F0", "DM"}, SplitList(" F0 ,,DM "))
  assert.Nil(t, SplitList(""))
}

func TestCompare(t *testing.T) {
  cfg := Default()
  cfg.WorkDir = "/tmp/work"

  opts := cfg.Compare()
  assert.Equal(t, 2e-3, opts.SamplingPeriod)
  assert.Equal(t, "Plots", opts.PlotsDir)
  assert.Equal(t, "/tmp/work", opts.WorkDir)
  assert.Equal(t, cfg.Policy, opts.Policy)
}

// The gnuplot binding panics at load time without gnuplot installed, so
// only the display package may import it.
func TestNoGnuplotImport(t *testing.T) {
  fset := token.NewFileSet()
  for _, dir := range []string{".", "../render", "../timing", "../compare", "../axis", "../series"} {
    pkgs, err := parser.ParseDir(fset, dir, nil, parser.ImportsOnly)
    require.NoError(t, err)
    for _, pkg := range pkgs {
      for name, file := range pkg.Files {
        for _, imp := range file.Imports {
          assert.NotEqual(t, `"github.com/Arafatk/glot"`, imp.Path.Value, name)
        }
      }
    }
  }
}
