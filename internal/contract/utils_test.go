package contract

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagLabel(t *testing.T) {
	assert.Equal(t, "1", FlagLabel(true))
	assert.Equal(t, "0", FlagLabel(false))
	assert.Equal(t, "0", ColorFlagLabel(false))
	assert.Contains(t, ColorFlagLabel(true), "1")
	assert.Contains(t, ColorCallName("open"), "open")
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "dump.csv")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		maxWidth int
		expected string
	}{
		{"fits", "/src/a.c", 20, "/src/a.c"},
		{"truncated", "/src/projA/libX/foo.c", 10, "...X/foo.c"},
		{"width too small", "/src/projA/libX/foo.c", 3, "/src/projA/libX/foo.c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncatePath(tt.path, tt.maxWidth)
			assert.Equal(t, tt.expected, got)
			if tt.maxWidth > 3 {
				assert.LessOrEqual(t, len([]rune(got)), tt.maxWidth)
			}
		})
	}
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("sometimes")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "json", slog.LevelWarn)
	logger.Info("observe.drop", "reason", "ignored")
	assert.Empty(t, buf.String())

	logger.Warn("store.integrity", "table", "call_info")
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"msg":"store.integrity"`)
	assert.Contains(t, out, `"table":"call_info"`)
}
