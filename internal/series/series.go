// Package series reads the telescope's binary power recordings.
package series

import (
  "bufio"
  "encoding/binary"
  "errors"
  "fmt"
  "io"
  "math"
  "os"
)

const sampleSize = 4

// ErrMalformed is returned for files that are not a whole number of
// float32 samples.
var ErrMalformed = errors.New("series: malformed sample file")

// Series is a power time series sampled at a fixed period. The x value of a
// point is its sample index.
type Series []float32

// Len, XY make Series a gonum plotter.XYer without copying samples.
func (s Series) Len() int { return len(s) }

func (s Series) XY(i int) (float64, float64) {
  return float64(i), float64(s[i])
}

// Lookup is the outcome of asking for a series that may not exist.
type Lookup struct {
  Series Series
  Found  bool
}

// NotFound is the Lookup for a missing series.
var NotFound = Lookup{}

// Found wraps a loaded series.
func Found(s Series) Lookup {
  return Lookup{Series: s, Found: true}
}

// Read decodes little-endian float32 samples until EOF.
func Read(r io.Reader) (Series, error) {
  b, err := io.ReadAll(bufio.NewReader(r))
  if err != nil {
    return nil, fmt.Errorf("series: read: %w", err)
  }
  return decode(b)
}

// ReadFile loads a whole sample file into memory.
func ReadFile(path string) (Series, error) {
  b, err := os.ReadFile(path)
  if err != nil {
    return nil, fmt.Errorf("series: %w", err)
  }
  s, err := decode(b)
  if err != nil {
    return nil, fmt.Errorf("%s: %w", path, err)
  }
  return s, nil
}

func decode(b []byte) (Series, error) {
  if len(b)%sampleSize != 0 {
    return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrMalformed, len(b), sampleSize)
  }
  s := make(Series, len(b)/sampleSize)
  for i := range s {
    s[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*sampleSize:]))
  }
  return s, nil
}

// Write encodes s as little-endian float32 samples.
func Write(w io.Writer, s Series) error {
  bw := bufio.NewWriter(w)
  if err := binary.Write(bw, binary.LittleEndian, []float32(s)); err != nil {
    return fmt.Errorf("series: write: %w", err)
  }
  return bw.Flush()
}
