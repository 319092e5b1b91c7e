// Command compare plots one recording, preprocessed above raw, from files
// already on disk.
package main

import (
  "flag"
  "fmt"
  "io"
  "os"

  "go.uber.org/zap"

  "github.com/HamletTheHamster/pulsar-plots/internal/compare"
  "github.com/HamletTheHamster/pulsar-plots/internal/config"
  "github.com/HamletTheHamster/pulsar-plots/internal/logging"
  "github.com/HamletTheHamster/pulsar-plots/internal/render"
  "github.com/HamletTheHamster/pulsar-plots/internal/render/gnuplot"
)

func main() {

  gps, dir, configPath, display := flags()

  cfg, err := config.Load(configPath)
  if err != nil {
    fmt.Fprintln(os.Stderr, err)
    os.Exit(1)
  }
  if display {
    cfg.Display = true
  }

  logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
  if err != nil {
    fmt.Fprintln(os.Stderr, err)
    os.Exit(1)
  }
  defer logger.Sync()

  rr, displayCloser := renderer(cfg)
  _, err = compare.Single(gps, dir, cfg.Compare(), rr, logger)
  logging.Close(logger, "display", displayCloser)
  if err != nil {
    logger.Fatal("plot failed", zap.Float64("gps", gps), zap.Error(err))
  }
}

// renderer writes files, or opens gnuplot windows when cfg.Display is set.
// The closer releases the windows' gnuplot processes.
func renderer(cfg config.Config) (render.Renderer, io.Closer) {
  if cfg.Display {
    d := gnuplot.New(cfg.Style)
    return d, d
  }
  return render.File{Style: cfg.Style}, io.NopCloser(nil)
}

func flags() (
  float64, string, string, bool,
) {

  var gps float64
  var dir, configPath string
  var display bool

  flag.Float64Var(&gps, "gps", 0, "GPS start time of the recording, e.g. 1183079651.114455")
  flag.StringVar(&dir, "dir", ".", "directory holding the raw and preprocessed files")
  flag.StringVar(&configPath, "config", "", "YAML config file (default $CONFIG_FILE)")
  flag.BoolVar(&display, "display", false, "open gnuplot windows instead of writing a file")
  flag.Parse()

  if gps <= 0 {
    fmt.Println("Specify the recording start time with -gps=")
    os.Exit(1)
  }

  return gps, dir, configPath, display
}
