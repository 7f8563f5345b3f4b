package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Config{}, wantErr: false},
		{name: "json format", cfg: Config{Level: "debug", Format: "json"}, wantErr: false},
		{name: "console format", cfg: Config{Format: "console"}, wantErr: false},
		{name: "bad format", cfg: Config{Format: "xml"}, wantErr: true},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(&Config{Level: "debug", Fields: map[string]string{"service": "hadisd"}})
	require.NoError(t, err)
	require.NotNil(t, logger)

	// Child loggers share the underlying core.
	child := logger.Named("segment").With()
	assert.NotNil(t, child.Underlying())
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))
	assert.Empty(t, ContextFields(ctx))

	ctx = ContextWithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	assert.Len(t, ContextFields(ctx), 1)
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	logger := NewNop()
	ctx := context.Background()
	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")
	assert.NoError(t, logger.Sync())
}
