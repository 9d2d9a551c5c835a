package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shiftdesk/shiftdesk/internal/logger"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		cfg     logger.Log
		wantErr error
	}{
		{
			name: "console enabled",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true},
			},
		},
		{
			name: "console writer enabled",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: true},
			},
		},
		{
			name: "missing service name",
			cfg: logger.Log{
				LogLevel: "info",
				AppName:  "test",
			},
			wantErr: logger.ErrServiceNameIsEmpty,
		},
		{
			name: "missing app name",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
			},
			wantErr: logger.ErrAppNameIsEmpty,
		},
		{
			name: "unsupported level",
			cfg: logger.Log{
				LogLevel:    "verbose",
				ServiceName: "test",
				AppName:     "test",
			},
			wantErr: nil, // wrapped parse error, checked separately
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := logger.Init(tc.cfg)

			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.name == "unsupported level":
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}
