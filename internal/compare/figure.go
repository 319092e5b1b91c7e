// Package compare plots raw recordings against their preprocessed
// counterparts, one GPS start time at a time.
package compare

import (
  "fmt"
  "path/filepath"

  "github.com/HamletTheHamster/pulsar-plots/internal/axis"
  "github.com/HamletTheHamster/pulsar-plots/internal/gpstime"
  "github.com/HamletTheHamster/pulsar-plots/internal/render"
  "github.com/HamletTheHamster/pulsar-plots/internal/series"
)

const (
  powerLabel = "Power (arbitrary units)"
  timeLabel  = "Time since start (hours)"
)

// Options are the fixed parameters of a plotting run.
type Options struct {
  SamplingPeriod float64
  PlotsDir       string
  RawDir         string
  WorkDir        string
  Format         string
  Policy         axis.Policy
}

func (o Options) format() string {
  if o.Format == "" {
    return "pdf"
  }
  return o.Format
}

// Plan is everything decided about one plot before it is drawn.
type Plan struct {
  Figure  render.Figure
  Flag    string
  Raw     axis.Duration
  Preproc *axis.Duration

  // Halved is set when the preprocessed length looked sample-doubled.
  Halved bool
}

// Build lays out the figure for one recording: preprocessed above raw when
// the counterpart exists, raw alone otherwise.
func Build(
  gps float64,
  raw series.Series,
  preproc series.Lookup,
  period float64,
  policy axis.Policy,
) (
  Plan,
) {

  rawDur := axis.Normalize(raw.Len(), period)

  var preprocDur *axis.Duration
  if preproc.Found {
    d := axis.Normalize(preproc.Series.Len(), period)
    preprocDur = &d
  }
  halved := preprocDur != nil && policy.Doubled(*preprocDur)
  preprocDur, flag := policy.Assess(rawDur, preprocDur)

  start := gpstime.ISO(gps)
  plan := Plan{Flag: flag, Raw: rawDur, Preproc: preprocDur, Halved: halved}

  if preprocDur != nil {
    plan.Figure = render.Figure{
      Title: "Start of recording: " + start,
      Panels: []render.Panel{
        panel("Preprocessed Data", "", preproc.Series, *preprocDur),
        panel("Raw data", timeLabel, raw, rawDur),
      },
    }
  } else {
    plan.Figure = render.Figure{
      Panels: []render.Panel{
        panel("Raw Data, Start of recording: "+start, timeLabel, raw, rawDur),
      },
    }
  }

  return plan
}

func panel(
  title, xlabel string,
  s series.Series,
  d axis.Duration,
) (
  render.Panel,
) {
  return render.Panel{
    Title:  title,
    XLabel: xlabel,
    YLabel: powerLabel,
    Series: s,
    Major:  d.MajorTicks,
    Minor:  d.MinorTicks,
    Labels: d.HourLabels(),
  }
}

// OutputName is where the plot for key goes.
func OutputName(
  plotsDir, key, flag, format string,
  withPreproc bool,
) (
  string,
) {
  kind := "_GrahamRaw"
  if withPreproc {
    kind = "_Compare_GrahamPreproc_Raw"
  }
  return filepath.Join(plotsDir, key+kind+flag+"."+format)
}

// AlreadyPlotted reports whether any output for key exists in plotsDir.
func AlreadyPlotted(
  plotsDir, key, format string,
) (
  bool, error,
) {
  matches, err := filepath.Glob(filepath.Join(plotsDir, key+"*."+format))
  if err != nil {
    return false, fmt.Errorf("compare: %w", err)
  }
  return len(matches) > 0, nil
}
