package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordGeocode(t *testing.T) {
	before := testutil.ToFloat64(geocodeRequests.WithLabelValues("cache_hit"))
	RecordGeocode("cache_hit")
	RecordGeocode("cache_hit")
	assert.Equal(t, before+2, testutil.ToFloat64(geocodeRequests.WithLabelValues("cache_hit")))
}

func TestRecordChartBuild(t *testing.T) {
	before := testutil.ToFloat64(chartBuilds.WithLabelValues("rendered"))
	RecordChartBuild("rendered")
	assert.Equal(t, before+1, testutil.ToFloat64(chartBuilds.WithLabelValues("rendered")))
}

func TestSetChartQueueDepth(t *testing.T) {
	SetChartQueueDepth(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(chartQueueDepth))
}

func TestObserveUpstream(t *testing.T) {
	ObserveUpstream("nominatim", 10*time.Millisecond, nil)
	ObserveUpstream("nominatim", 10*time.Millisecond, errors.New("down"))
	assert.Equal(t, 2, testutil.CollectAndCount(upstreamLatency, "natalis_upstream_request_seconds"))
}
