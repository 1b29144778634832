package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	cases := []struct {
		level  Level
		format Format
		want   zapcore.Level
	}{
		{LevelDebug, FormatStructured, zapcore.DebugLevel},
		{LevelWarn, FormatConsole, zapcore.WarnLevel},
		{LevelError, "json", zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		logger, err := New(tc.level, tc.format)
		require.NoError(t, err)
		require.True(t, logger.Core().Enabled(tc.want))
		require.False(t, logger.Core().Enabled(tc.want-1))
	}
}

func TestNewRejectsUnknownValues(t *testing.T) {
	_, err := New("trace", FormatStructured)
	require.ErrorContains(t, err, "unsupported log level")
	_, err = New(LevelInfo, "xml")
	require.ErrorContains(t, err, "unsupported log format")
}
