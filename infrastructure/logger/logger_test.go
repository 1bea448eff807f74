package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWritesFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Level:      "debug",
		Outputs:    []string{"file"},
		OutputFile: filepath.Join(dir, "bt.log"),
		ErrorFile:  filepath.Join(dir, "bt.err"),
		Format:     "json",
	}
	l, err := New(cfg)
	require.NoError(t, err)

	l.LogRun("run_probe", "r-1", map[string]interface{}{"strategies": 3})
	l.LogError(errors.New("boom"), nil)
	require.NoError(t, l.Close())

	raw, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first), "file output is always json")
	assert.Equal(t, "run_event", first["msg"])
	assert.Equal(t, "r-1", first["run_id"])
	assert.Equal(t, float64(3), first["strategies"])

	errRaw, err := os.ReadFile(cfg.ErrorFile)
	require.NoError(t, err)
	assert.Contains(t, string(errRaw), `"error":"boom"`)
	assert.NotContains(t, string(errRaw), "run_event")
}

func TestStrategyAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := Wrap(zap.New(core)).WithFields(map[string]interface{}{"run_id": "r-2"})

	l.LogStrategy("strategy_probe", "foresight-close", map[string]interface{}{"pnl": 2.5})

	entries := logs.FilterMessage("strategy_event").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "r-2", ctx["run_id"])
	assert.Equal(t, "foresight-close", ctx["strategy"])
	assert.Equal(t, "strategy_probe", ctx["event"])
	assert.Equal(t, 2.5, ctx["pnl"])
}
