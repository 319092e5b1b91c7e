// Command compareall plots every raw recording on the observatory server
// that has not been plotted yet, downloading each preprocessed counterpart
// for the length of one plot.
package main

import (
  "context"
  "flag"
  "fmt"
  "io"
  "os"
  "os/signal"
  "syscall"

  "go.uber.org/zap"

  "github.com/HamletTheHamster/pulsar-plots/internal/compare"
  "github.com/HamletTheHamster/pulsar-plots/internal/config"
  "github.com/HamletTheHamster/pulsar-plots/internal/logging"
  "github.com/HamletTheHamster/pulsar-plots/internal/render"
  "github.com/HamletTheHamster/pulsar-plots/internal/render/gnuplot"
  "github.com/HamletTheHamster/pulsar-plots/internal/remote"
)

func main() {

  configPath, display := flags()

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

  ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
  err = run(ctx, cfg, logger)
  stop()
  if err != nil {
    logger.Error("run stopped", zap.Error(err))
    logger.Sync()
    os.Exit(1)
  }
  logger.Sync()
}

func run(
  ctx context.Context,
  cfg config.Config,
  logger *zap.Logger,
) error {

  if cfg.WorkDir == "" {
    dir, err := os.MkdirTemp("", "pulsar-plots-")
    if err != nil {
      return err
    }
    defer os.RemoveAll(dir)
    cfg.WorkDir = dir
  }
  if err := os.MkdirAll(cfg.PlotsDir, 0o755); err != nil {
    return err
  }

  session, err := remote.Dial(cfg.Remote)
  if err != nil {
    return err
  }
  defer logging.Close(logger, "session", session)
  logger.Info("Connection successfully established",
    zap.String("host", cfg.Remote.Host),
    zap.String("dir", cfg.Remote.Dir))

  rr, display := renderer(cfg)
  defer logging.Close(logger, "display", display)

  batch := &compare.Batch{
    Source:   session,
    Renderer: rr,
    Options:  cfg.Compare(),
    Log:      logger,
  }
  report, err := batch.Run(ctx)
  logger.Info("batch finished",
    zap.Int("plotted", report.Plotted),
    zap.Int("skipped", report.Skipped),
    zap.Int("failed", report.Failed))

  return err
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
  string, bool,
) {

  var configPath string
  var display bool

  flag.StringVar(&configPath, "config", "", "YAML config file (default $CONFIG_FILE)")
  flag.BoolVar(&display, "display", false, "open gnuplot windows instead of writing files")
  flag.Parse()

  return configPath, display
}
