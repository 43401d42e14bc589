package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(RollbacksTotal)
	RollbacksTotal.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RollbacksTotal))
}

func TestVectorLabels(t *testing.T) {
	before := testutil.ToFloat64(MutationsTotal.WithLabelValues("favorite", "applied"))
	MutationsTotal.WithLabelValues("favorite", "applied").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(MutationsTotal.WithLabelValues("favorite", "applied")))
}

func TestSlotGauge(t *testing.T) {
	SlotSubscribers.WithLabelValues("favorites").Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(SlotSubscribers.WithLabelValues("favorites")))
}
