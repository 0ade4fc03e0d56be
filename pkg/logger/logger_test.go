package logger_test

import (
	"context"
	"testing"

	"github.com/n8nctl/n8nctl/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("Should return the attached logger when present", func(t *testing.T) {
		l := logger.SetupLogger(logger.DebugLevel, false, true)
		ctx := logger.ContextWithLogger(t.Context(), l)
		assert.Same(t, l, logger.FromContext(ctx))
	})

	t.Run("Should return a default logger when none is attached", func(t *testing.T) {
		l := logger.FromContext(context.Background())
		require.NotNil(t, l)
	})

	t.Run("Should return a default logger for a nil context value", func(t *testing.T) {
		ctx := context.WithValue(t.Context(), logger.LoggerCtxKey, (logger.Logger)(nil))
		require.NotNil(t, logger.FromContext(ctx))
	})
}
