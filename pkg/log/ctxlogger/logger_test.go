package ctxlogger

import (
	"context"
	"testing"

	"github.com/smallbiznis/dunning/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext(t *testing.T) {
	SetServiceName("dunning")
	core, logs := observer.New(zapcore.InfoLevel)

	ctx := correlation.ContextWithCorrelationID(context.Background(), "cid-9")
	ctx = ContextWithOperation(ctx, "crosscheck")
	WithContext(ctx, zap.New(core)).Info("done")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "cid-9", fields["correlation_id"])
	assert.Equal(t, "crosscheck", fields["operation"])
	assert.Equal(t, "dunning", fields["service"])
	assert.Equal(t, "", fields["trace_id"])
}
