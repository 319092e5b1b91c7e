package logging

import (
  "errors"
  "testing"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
  "go.uber.org/zap"
  "go.uber.org/zap/zapcore"
  "go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {

  log, err := NewLogger("DEBUG", "json")
  require.NoError(t, err)
  assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

  log, err = NewLogger("nonsense", "")
  require.NoError(t, err)
  assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
  assert.True(t, log.Core().Enabled(zapcore.InfoLevel))

  log, err = NewLogger(" warn ", "console")
  require.NoError(t, err)
  assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

  _, err = NewLogger("info", "xml")
  assert.ErrorContains(t, err, "xml")
}

type closer struct {
  err    error
  closed bool
}

func (c *closer) Close() error {
  c.closed = true
  return c.err
}

func TestClose(t *testing.T) {
  core, logs := observer.New(zapcore.DebugLevel)
  log := zap.New(core)

  ok := &closer{}
  Close(log, "session", ok)
  assert.True(t, ok.closed)

  bad := &closer{err: errors.New("connection reset")}
  Close(log, "session", bad)
  assert.True(t, bad.closed)

  entries := logs.All()
  require.Len(t, entries, 2)
  assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
  assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
  assert.Equal(t, "session", entries[1].ContextMap()["resource"])
  assert.Equal(t, "connection reset", entries[1].ContextMap()["error"])
}
