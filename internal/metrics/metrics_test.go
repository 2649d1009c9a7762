package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	engine := NewEngine(reg)

	engine.Restarts.Add(3)
	engine.Iterations.Add(1500)
	engine.BestCost.Set(42.5)
	engine.Snapshots.Inc()
	engine.WorkerFailures.Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(engine.Restarts))
	assert.Equal(t, 1500.0, testutil.ToFloat64(engine.Iterations))
	assert.Equal(t, 42.5, testutil.ToFloat64(engine.BestCost))
	assert.Equal(t, 1.0, testutil.ToFloat64(engine.Snapshots))
	assert.Equal(t, 1.0, testutil.ToFloat64(engine.WorkerFailures))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["kiln_search_restarts_total"])
	assert.True(t, names["kiln_search_best_cost"])
}
