// Command timing plots pre-fit timing residuals of a pulsar ephemeris
// against its TOAs, refits the spin-down parameters by weighted least
// squares and plots the post-fit residuals.
package main

import (
  "flag"
  "fmt"
  "os"
  "path/filepath"

  "go.uber.org/zap"

  "github.com/HamletTheHamster/pulsar-plots/internal/config"
  "github.com/HamletTheHamster/pulsar-plots/internal/gpstime"
  "github.com/HamletTheHamster/pulsar-plots/internal/logging"
  "github.com/HamletTheHamster/pulsar-plots/internal/render"
  "github.com/HamletTheHamster/pulsar-plots/internal/timing"
)

func main() {

  configPath, overrides := flags()

  cfg, err := config.Load(configPath)
  if err != nil {
    fmt.Fprintln(os.Stderr, err)
    os.Exit(1)
  }
  overrides(&cfg.Timing)

  logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
  if err != nil {
    fmt.Fprintln(os.Stderr, err)
    os.Exit(1)
  }
  defer logger.Sync()

  if err := run(cfg, logger); err != nil {
    logger.Fatal("timing failed", zap.Error(err))
  }
}

func run(
  cfg config.Config,
  logger *zap.Logger,
) error {

  tc := cfg.Timing

  model, err := readPar(tc.Par)
  if err != nil {
    return err
  }
  toas, err := readTim(tc.Tim)
  if err != nil {
    return err
  }
  logger.Info("loaded", zap.String("psr", model.PSR()), zap.Int("toas", len(toas)))

  if tc.Results != "" {
    f, err := os.Open(tc.Results)
    if err != nil {
      return err
    }
    snr, err := timing.ReadSNR(f)
    f.Close()
    if err != nil {
      return err
    }
    toas = timing.FilterSNR(toas, snr, tc.MinSNR)
    logger.Info("S/N filter", zap.Float64("min", tc.MinSNR), zap.Int("kept", len(toas)))
  }
  if tc.MaxErrorUS > 0 {
    toas = timing.FilterError(toas, tc.MaxErrorUS)
    logger.Info("error filter", zap.Float64("max_us", tc.MaxErrorUS), zap.Int("kept", len(toas)))
  }

  logSummary(logger, timing.Summarize(toas))

  rr := render.File{Style: cfg.Style}
  psr := model.PSR()

  pre, err := timing.Prefit(model, toas)
  if err != nil {
    return err
  }
  path, err := timing.PlotPrefit(rr, tc.OutDir, psr, pre)
  if err != nil {
    return err
  }
  logger.Info("pre-fit residuals", zap.Float64("rms_us", pre.RMS()), zap.String("plot", path))

  fitter := &timing.Fitter{Model: model, TOAs: toas}
  fit, err := fitter.Fit(tc.FitParams...)
  if err != nil {
    return err
  }
  for _, p := range fit.Params {
    logger.Info("fitted",
      zap.String("param", p.Name),
      zap.Float64("prefit", p.Prefit),
      zap.Float64("postfit", p.Postfit),
      zap.Float64("uncertainty", p.Uncertainty))
  }

  path, err = timing.PlotPostfit(rr, tc.OutDir, psr, fit.Postfit)
  if err != nil {
    return err
  }
  logger.Info("post-fit residuals",
    zap.Float64("rms_us", fit.Postfit.RMS()),
    zap.Float64("chi2", fit.Chi2),
    zap.Int("dof", fit.DOF),
    zap.Float64("reduced_chi2", fit.ReducedChi2),
    zap.String("plot", path))

  if tc.WritePar != "" {
    if err := writePar(filepath.Join(tc.OutDir, tc.WritePar), fit.Model); err != nil {
      return err
    }
    logger.Info("wrote post-fit ephemeris", zap.String("par", tc.WritePar))
  }

  return nil
}

func logSummary(logger *zap.Logger, s timing.Summary) {
  if s.Count == 0 {
    logger.Warn("no TOAs left")
    return
  }
  logger.Info("TOA summary",
    zap.Int("count", s.Count),
    zap.String("first", gpstime.MJDToTime(s.FirstMJD).Format("2006-01-02")),
    zap.String("last", gpstime.MJDToTime(s.LastMJD).Format("2006-01-02")),
    zap.Float64("span_days", s.SpanDays),
    zap.Float64("mean_error_us", s.MeanErrUS),
    zap.Float64("min_error_us", s.MinErrUS),
    zap.Float64("max_error_us", s.MaxErrUS),
    zap.Strings("sites", s.Sites),
    zap.Float64s("freqs_mhz", s.FreqsMHz))
}

func readPar(path string) (*timing.Model, error) {
  f, err := os.Open(path)
  if err != nil {
    return nil, err
  }
  defer f.Close()
  return timing.ParsePar(f)
}

func readTim(path string) ([]timing.TOA, error) {
  f, err := os.Open(path)
  if err != nil {
    return nil, err
  }
  defer f.Close()
  return timing.ParseTim(f)
}

func writePar(path string, m *timing.Model) error {
  f, err := os.Create(path)
  if err != nil {
    return err
  }
  if err := timing.WritePar(f, m); err != nil {
    f.Close()
    return err
  }
  return f.Close()
}

// flags returns the config path and a function applying the timing flags
// that were given on top of the loaded config.
func flags() (
  string, func(*config.Timing),
) {

  var configPath, par, tim, results, fit, out, writePar string
  var snr, maxErr float64

  flag.StringVar(&configPath, "config", "", "YAML config file (default $CONFIG_FILE)")
  flag.StringVar(&par, "par", "", "timing model, e.g. B0329+54.par")
  flag.StringVar(&tim, "tim", "", "TOAs in tempo2 format, e.g. TEMPO_TOAs.txt")
  flag.StringVar(&results, "results", "", "observation,snr CSV used to drop weak observations")
  flag.Float64Var(&snr, "snr", 0, "minimum S/N kept when -results is given")
  flag.Float64Var(&maxErr, "max-error", 0, "drop TOAs with an uncertainty of at least this many μs")
  flag.StringVar(&fit, "fit", "", "comma-separated parameters to fit (default F0,F1,F2,DM)")
  flag.StringVar(&out, "out", "", "directory for the residual plots")
  flag.StringVar(&writePar, "write-par", "", "write the post-fit model to this file in -out")
  flag.Parse()

  set := map[string]bool{}
  flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

  return configPath, func(tc *config.Timing) {
    if par != "" {
      tc.Par = par
    }
    if tim != "" {
      tc.Tim = tim
    }
    if results != "" {
      tc.Results = results
    }
    if set["snr"] {
      tc.MinSNR = snr
    }
    if set["max-error"] {
      tc.MaxErrorUS = maxErr
    }
    if fit != "" {
      tc.FitParams = config.SplitList(fit)
    }
    if out != "" {
      tc.OutDir = out
    }
    if writePar != "" {
      tc.WritePar = writePar
    }
  }
}
