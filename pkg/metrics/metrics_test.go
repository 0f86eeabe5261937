package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRegistersCollectors(t *testing.T) {
	promRegistry := prometheus.NewRegistry()
	registry := NewRegistry(promRegistry)

	registry.WorkerPoolSize.WithLabelValues("p").Set(4)
	registry.ConnectionErrors.WithLabelValues("s", "read").Inc()

	families, err := promRegistry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["hellopool_workerpool_size"])
	assert.True(t, names["hellopool_server_connection_errors_total"])
}

func TestNewRegistryTwicePanics(t *testing.T) {
	promRegistry := prometheus.NewRegistry()
	NewRegistry(promRegistry)

	assert.Panics(t, func() { NewRegistry(promRegistry) })
}

func TestConfigResolve(t *testing.T) {
	assert.Same(t, DefaultRegistry, DefaultConfig().Resolve())

	cfg := Config{Enabled: true, Registry: prometheus.NewRegistry()}
	registry := cfg.Resolve()
	require.NotSame(t, DefaultRegistry, registry)

	registry.JobsCompleted.WithLabelValues("x").Add(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(registry.JobsCompleted.WithLabelValues("x")))
}
