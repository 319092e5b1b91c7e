package compare

import (
  "context"
  "errors"
  "fmt"
  "os"
  "path/filepath"

  "go.uber.org/zap"

  "github.com/HamletTheHamster/pulsar-plots/internal/remote"
  "github.com/HamletTheHamster/pulsar-plots/internal/render"
  "github.com/HamletTheHamster/pulsar-plots/internal/series"
)

// Source lists the remote data directory and fetches files from it.
// *remote.Session is the production implementation.
type Source interface {
  List() ([]string, error)
  Fetch(name, dstDir string) (remote.Fetched, error)
}

// Report counts what a batch run did.
type Report struct {
  Plotted int
  Skipped int
  Failed  int
}

// Batch plots every raw recording on the server that has no plot yet.
// Raw files are read from a local copy; preprocessed files are downloaded
// to WorkDir for the duration of one plot.
type Batch struct {
  Source   Source
  Renderer render.Renderer
  Options  Options
  Log      *zap.Logger
}

// Run walks the remote raw files in order, one attempt each. A failed
// download is logged and skipped. Malformed recordings and render failures
// stop the run.
func (b *Batch) Run(ctx context.Context) (Report, error) {

  var rep Report

  names, err := b.Source.List()
  if err != nil {
    return rep, err
  }
  raws := remote.Filter(names, series.RawSuffix)
  b.Log.Info("listed remote files",
    zap.Int("raw", len(raws)),
    zap.Int("preprocessed", len(remote.Filter(names, series.PreprocSuffix))))

  for _, name := range raws {
    if err := ctx.Err(); err != nil {
      return rep, err
    }

    gps, err := series.ParseRawName(name)
    if err != nil {
      b.Log.Warn("unreadable start time, moving on", zap.String("file", name), zap.Error(err))
      rep.Failed++
      continue
    }

    plotted, err := b.plot(name, gps)
    switch {
    case errors.Is(err, errFetch):
      b.Log.Error("fetch failed, moving on", zap.String("file", name), zap.Error(err))
      rep.Failed++
    case err != nil:
      return rep, err
    case plotted:
      rep.Plotted++
    default:
      rep.Skipped++
    }
  }

  return rep, nil
}

var errFetch = errors.New("compare: fetch")

// plot handles one raw file and reports whether a plot was produced.
func (b *Batch) plot(
  name string,
  gps float64,
) (
  bool, error,
) {

  key := series.Key(gps)
  log := b.Log.With(zap.String("start", key))

  plotted, err := AlreadyPlotted(b.Options.PlotsDir, key, b.Options.format())
  if err != nil {
    return false, err
  }
  if plotted {
    log.Info("already plotted")
    return false, nil
  }

  raw, err := series.ReadFile(filepath.Join(b.Options.RawDir, name))
  if err != nil {
    return false, err
  }

  preprocName := series.PreprocName(gps)
  defer removeTemp(filepath.Join(b.Options.WorkDir, preprocName), log)

  log.Info("downloading", zap.String("file", preprocName))
  fetched, err := b.Source.Fetch(preprocName, b.Options.WorkDir)
  if err != nil {
    return false, fmt.Errorf("%w: %s: %w", errFetch, preprocName, err)
  }

  preproc := series.NotFound
  if fetched.Found {
    log.Info("downloaded", zap.String("file", preprocName))
    s, err := series.ReadFile(fetched.Path)
    if err != nil {
      return false, err
    }
    preproc = series.Found(s)
  } else {
    log.Info("preprocessed file does not exist")
  }

  plan := Build(gps, raw, preproc, b.Options.SamplingPeriod, b.Options.Policy)
  if plan.Halved {
    log.Info("preprocessed data points doubled, dividing axes by two")
  }
  out := OutputName(b.Options.PlotsDir, key, plan.Flag, b.Options.format(), preproc.Found)

  if err := b.Renderer.Render(plan.Figure, out); err != nil {
    return false, fmt.Errorf("compare: %s: %w", key, err)
  }

  log.Info("file(s) plotted and deleted",
    zap.String("output", out),
    zap.String("flag", plan.Flag),
    zap.Int("raw_hours", plan.Raw.RoundedHours))

  return true, nil
}

// removeTemp deletes a downloaded file whether or not the download found
// anything.
func removeTemp(path string, log *zap.Logger) {
  if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
    log.Warn("could not remove temporary file", zap.String("path", path), zap.Error(err))
  }
}
