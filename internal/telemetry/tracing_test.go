package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabledByDefault(t *testing.T) {
	p, err := Init(context.Background(), Config{ServiceName: "groups-loadtest"}, nil)
	require.NoError(t, err)
	assert.False(t, p.Enabled())

	_, span := p.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestInitStdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	p, err := Init(context.Background(), Config{
		ServiceName: "groups-loadtest",
		Environment: "test",
		Exporter:    ExporterStdout,
		Writer:      &buf,
	}, nil)
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := p.Tracer("test").Start(context.Background(), "add-members")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "add-members")
	assert.Contains(t, buf.String(), "groups-loadtest")
}

func TestInitRejectsUnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), Config{Exporter: "zipkin"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported tracing exporter")
}

func TestInitOTLPRequiresEndpoint(t *testing.T) {
	_, err := Init(context.Background(), Config{Exporter: ExporterOTLP}, nil)
	require.Error(t, err)
}

func TestNilProvider(t *testing.T) {
	var p *Provider
	assert.False(t, p.Enabled())
	require.NoError(t, p.Shutdown(context.Background()))
	ShutdownWithTimeout(context.Background(), p, nil)
	_, span := p.Tracer("x").Start(context.Background(), "y")
	span.End()
}
