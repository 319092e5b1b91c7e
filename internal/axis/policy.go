package axis

import (
  "errors"
  "fmt"
  "slices"
)

// Output filename markers.
const (
  FlagNone            = ""
  FlagPreprocDoubled  = "_preproc_doubled"
  FlagDifferentLength = "_different_length"
)

// Policy holds the data-quality heuristics of the B0329+54 campaign. Both
// are tied to one instrument and one observing program: recordings are
// expected to last 4 or 5 hours, and the preprocessing step is known to
// sometimes duplicate every sample, which shows up as an 8 hour series.
// Neither is a general rule.
type Policy struct {
  // DoubledPreprocHours is the rounded preprocessed length taken to mean
  // every sample was written twice. Zero disables the check.
  DoubledPreprocHours int `yaml:"doubled_preproc_hours"`

  // RawHours and PreprocHours are the rounded lengths that are not flagged.
  RawHours     []int `yaml:"raw_hours"`
  PreprocHours []int `yaml:"preproc_hours"`
}

// DefaultPolicy returns the values used for the 2017 ettus recordings.
func DefaultPolicy() Policy {
  return Policy{
    DoubledPreprocHours: 8,
    RawHours:            []int{4, 5},
    PreprocHours:        []int{4, 5, 8},
  }
}

// Validate rejects a policy Assess cannot apply: the doubled length must
// halve to whole hours, and no length may be negative.
func (p Policy) Validate() error {
  var errs []error
  if p.DoubledPreprocHours < 0 || p.DoubledPreprocHours%2 != 0 {
    errs = append(errs, fmt.Errorf("axis: doubled preproc hours %d must be even and not negative", p.DoubledPreprocHours))
  }
  for _, h := range append(slices.Clone(p.RawHours), p.PreprocHours...) {
    if h < 0 {
      errs = append(errs, fmt.Errorf("axis: expected length %d hours is negative", h))
    }
  }
  return errors.Join(errs...)
}

// Doubled reports whether a preprocessed duration looks sample-doubled.
func (p Policy) Doubled(preproc Duration) bool {
  return p.DoubledPreprocHours > 0 && preproc.RoundedHours == p.DoubledPreprocHours
}

// Assess applies the policy and returns the (possibly halved) preprocessed
// duration along with the filename flag. Pass a nil preproc when there is no
// preprocessed counterpart. A different length wins over a doubled one.
// Nothing here is an error: the plot is always produced.
func (p Policy) Assess(
  raw Duration,
  preproc *Duration,
) (
  *Duration, string,
) {

  flag := FlagNone

  if preproc != nil {
    if p.Doubled(*preproc) {
      halved := preproc.Halved()
      preproc = &halved
      flag = FlagPreprocDoubled
    }
    if !slices.Contains(p.PreprocHours, preproc.RoundedHours) {
      flag = FlagDifferentLength
    }
  }

  if !slices.Contains(p.RawHours, raw.RoundedHours) {
    flag = FlagDifferentLength
  }

  return preproc, flag
}
