package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("GET /api/v1/cars", "200")
		IncTransition("collected")
		IncSnapshotSave("ok")
	})

	before := testutil.ToFloat64(checkouts.WithLabelValues("ok"))
	IncCheckout("ok")
	assert.Equal(t, before+1, testutil.ToFloat64(checkouts.WithLabelValues("ok")))

	beforeMalformed := testutil.ToFloat64(malformedSnapshots)
	IncMalformedSnapshot()
	assert.Equal(t, beforeMalformed+1, testutil.ToFloat64(malformedSnapshots))
}
