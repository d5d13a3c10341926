package logging

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	cases := map[int]zerolog.Level{
		0: zerolog.WarnLevel,
		1: zerolog.InfoLevel,
		2: zerolog.DebugLevel,
		3: zerolog.TraceLevel,
		9: zerolog.TraceLevel,
	}
	for verbosity, want := range cases {
		assert.Equal(t, want, levelFor(verbosity), "verbosity %d", verbosity)
	}
}

func TestSetupLogFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", LogFileName)
	f, err := setupLogFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.FileExists(t, path)
}

// TestLogOperationStart verifies the completion callback logs a duration.
func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(prev)

	done := LogOperationStart(logger, "mirror")
	done()

	out := buf.String()
	assert.Contains(t, out, `"operation":"mirror"`)
	assert.Contains(t, out, "Operation completed")
	assert.Contains(t, out, `"duration"`)
}
