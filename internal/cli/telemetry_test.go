package cli_test

import (
	"context"
	"testing"

	"github.com/aretw0/botflow/internal/cli"
	"github.com/aretw0/botflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestSetupTracing_Disabled(t *testing.T) {
	tp, shutdown, err := cli.SetupTracing(context.Background(), config.TracingConfig{}, cli.ServiceName)
	require.NoError(t, err)
	assert.IsType(t, noop.TracerProvider{}, tp)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupTracing_Enabled(t *testing.T) {
	ctx := context.Background()
	tp, shutdown, err := cli.SetupTracing(ctx, config.TracingConfig{Enabled: true, Endpoint: "http://127.0.0.1:4318"}, cli.ServiceName)
	require.NoError(t, err)
	assert.NotNil(t, tp.Tracer(cli.ServiceName))
	// Nothing was recorded, so shutdown does not need the collector to be reachable.
	assert.NoError(t, shutdown(ctx))
}
