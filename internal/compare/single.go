package compare

import (
  "errors"
  "fmt"
  "os"
  "path/filepath"

  "go.uber.org/zap"

  "github.com/HamletTheHamster/pulsar-plots/internal/render"
  "github.com/HamletTheHamster/pulsar-plots/internal/series"
)

// Single plots one recording whose raw and preprocessed files both sit in
// dir. A missing preprocessed file falls back to the raw-only plot; a
// missing raw file is an error. It returns the output path.
func Single(
  gps float64,
  dir string,
  opts Options,
  r render.Renderer,
  log *zap.Logger,
) (
  string, error,
) {

  raw, err := series.ReadFile(filepath.Join(dir, series.RawName(gps)))
  if err != nil {
    return "", err
  }

  preproc, err := readLocal(filepath.Join(dir, series.PreprocName(gps)))
  if err != nil {
    return "", err
  }
  if !preproc.Found {
    log.Info("preprocessed file does not exist", zap.String("dir", dir))
  }

  plan := Build(gps, raw, preproc, opts.SamplingPeriod, opts.Policy)
  out := OutputName(opts.PlotsDir, series.Key(gps), plan.Flag, opts.format(), preproc.Found)

  if err := r.Render(plan.Figure, out); err != nil {
    return "", fmt.Errorf("compare: %w", err)
  }
  log.Info("plotted", zap.String("output", out), zap.String("flag", plan.Flag))

  return out, nil
}

func readLocal(path string) (series.Lookup, error) {
  s, err := series.ReadFile(path)
  if errors.Is(err, os.ErrNotExist) {
    return series.NotFound, nil
  }
  if err != nil {
    return series.NotFound, err
  }
  return series.Found(s), nil
}
