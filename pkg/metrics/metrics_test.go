package metrics_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/mvvm/observe"
	"github.com/delaneyj/mvvm/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := map[string]*dto.MetricFamily{}
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func counter(t *testing.T, families map[string]*dto.MetricFamily, name string, labelValue ...string) float64 {
	t.Helper()
	mf, ok := families[name]
	require.True(t, ok, name)
	for _, m := range mf.GetMetric() {
		if len(labelValue) == 0 {
			return m.GetCounter().GetValue()
		}
		for _, lp := range m.GetLabel() {
			if lp.GetValue() == labelValue[0] {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.New(metrics.WithRegistry(reg))
	rctx := observe.NewReactiveContext(observe.WithTracer(c))
	root := observe.Observe(rctx, map[string]any{
		"a": map[string]any{"b": 1},
	})

	w1, err := observe.Watch(root, "a.b", nil)
	require.NoError(t, err)
	w2, err := observe.Watch(root, "a.b", func(v any) error {
		if v == 3 {
			return errors.New("three")
		}
		return nil
	})
	require.NoError(t, err)

	_, err = observe.SetValue(root, "a.b", 2)
	require.NoError(t, err)
	_, err = observe.SetValue(root, "a.b", 3)
	require.ErrorIs(t, err, observe.ErrCallback)

	w1.Dispose()
	w2.Dispose()

	families := gather(t, reg)
	assert.Equal(t, 4.0, counter(t, families, "mvvm_observe_subscriptions_total"))
	assert.Equal(t, 2.0, counter(t, families, "mvvm_observe_publishes_total"))
	assert.Equal(t, 4.0, counter(t, families, "mvvm_observe_refreshes_total", "true"))
	assert.Equal(t, 3.0, counter(t, families, "mvvm_observe_callbacks_total", "ok"))
	assert.Equal(t, 1.0, counter(t, families, "mvvm_observe_callbacks_total", "error"))
	assert.Equal(t, 2.0, counter(t, families, "mvvm_observe_watchers_disposed_total"))

	fanout := families["mvvm_observe_publish_fanout"].GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(2), fanout.GetSampleCount())
	assert.Equal(t, 4.0, fanout.GetSampleSum())
}

func TestCollectorOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(
		metrics.WithRegistry(reg),
		metrics.WithNamespace("app"),
		metrics.WithSubsystem("vm"),
		metrics.WithConstLabels(prometheus.Labels{"scene": "school"}),
		metrics.WithFanoutBuckets([]float64{1, 10}),
	)

	// Counters without label dimensions are exported from the start
	families := gather(t, reg)
	mf, ok := families["app_vm_publishes_total"]
	require.True(t, ok)
	labels := mf.GetMetric()[0].GetLabel()
	require.Len(t, labels, 1)
	assert.Equal(t, "scene", labels[0].GetName())
	assert.Equal(t, "school", labels[0].GetValue())

	assert.Panics(t, func() {
		metrics.New(
			metrics.WithRegistry(reg),
			metrics.WithNamespace("app"),
			metrics.WithSubsystem("vm"),
			metrics.WithConstLabels(prometheus.Labels{"scene": "school"}),
		)
	})
}
