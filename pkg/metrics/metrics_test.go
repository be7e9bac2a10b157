package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_CountsPerLabel(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.PlansGenerated.WithLabelValues(OutcomeSuccess).Inc()
	m.PlansGenerated.WithLabelValues(OutcomeSuccess).Inc()
	m.GateRejections.WithLabelValues("equipment").Add(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PlansGenerated.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PlansGenerated.WithLabelValues(OutcomeNoSafe)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.GateRejections.WithLabelValues("equipment")))
}

func TestDefault_RegistersOnce(t *testing.T) {
	assert.Same(t, Default(), Default())
}
