package series

import (
  "bytes"
  "os"
  "path/filepath"
  "testing"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
)

func TestReadWrite(t *testing.T) {
  want := Series{0, 1.5, -2.25, 3e6}

  var buf bytes.Buffer
  require.NoError(t, Write(&buf, want))
  assert.Equal(t, 16, buf.Len())
  assert.Equal(t, []byte{0, 0, 0xc0, 0x3f}, buf.Bytes()[4:8], "little-endian 1.5")

  got, err := Read(&buf)
  require.NoError(t, err)
  assert.Equal(t, want, got)
}

func TestReadFile(t *testing.T) {
  path := filepath.Join(t.TempDir(), RawName(1183079651.114455))
  f, err := os.Create(path)
  require.NoError(t, err)
  require.NoError(t, Write(f, Series{4, 5, 6}))
  require.NoError(t, f.Close())

  got, err := ReadFile(path)
  require.NoError(t, err)
  assert.Equal(t, 3, got.Len())
  x, y := got.XY(2)
  assert.Equal(t, 2.0, x)
  assert.Equal(t, 6.0, y)
}

func TestRead_Empty(t *testing.T) {
  got, err := Read(bytes.NewReader(nil))
  require.NoError(t, err)
  assert.Zero(t, got.Len())
}

func TestRead_Malformed(t *testing.T) {
  _, err := Read(bytes.NewReader([]byte{1, 2, 3, 4, 5}))
  require.ErrorIs(t, err, ErrMalformed)

  path := filepath.Join(t.TempDir(), "bad.dat")
  require.NoError(t, os.WriteFile(path, []byte{1, 2}, 0o644))
  _, err = ReadFile(path)
  require.ErrorIs(t, err, ErrMalformed)
  assert.Contains(t, err.Error(), "bad.dat")
}

func TestReadFile_Missing(t *testing.T) {
  _, err := ReadFile(filepath.Join(t.TempDir(), "nope.dat"))
  require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLookup(t *testing.T) {
  assert.False(t, NotFound.Found)
  l := Found(Series{1})
  assert.True(t, l.Found)
  assert.Equal(t, Series{1}, l.Series)
}

func TestNames(t *testing.T) {
  tests := []struct {
    name string
    gps  float64
    key  string
  }{
    {"1183079651.114455-PSRB0329-2ms-sampling-dd.dat", 1183079651.114455, "1183079651.114455"},
    {"1183079651-PSRB0329-2ms-sampling-dd.dat", 1183079651, "1183079651.0"},
    {"1183079651.5-PSRB0329-2ms-sampling-dd.dat", 1183079651.5, "1183079651.5"},
  }
  for _, tt := range tests {
    t.Run(tt.key, func(t *testing.T) {
      gps, err := ParseRawName(tt.name)
      require.NoError(t, err)
      assert.Equal(t, tt.gps, gps)
      assert.Equal(t, tt.key, Key(gps))
      assert.Equal(t, tt.key+"-preproc.dat", PreprocName(gps))
      assert.Equal(t, tt.key+RawSuffix, RawName(gps))
    })
  }
}

func TestParseRawName_Errors(t *testing.T) {
  _, err := ParseRawName("1183079651.1-preproc.dat")
  assert.Error(t, err)
  _, err = ParseRawName("abc-PSRB0329-2ms-sampling-dd.dat")
  assert.Error(t, err)
}
