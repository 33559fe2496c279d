package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}

	for in, want := range tests {
		for _, format := range []string{"json", "console"} {
			l := New(in, format)
			assert.True(t, l.Core().Enabled(want), "level %q format %s", in, format)
			if want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(want-1), "level %q format %s", in, format)
			}
		}
	}
}
