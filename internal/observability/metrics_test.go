package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSync(t *testing.T) {
	t.Run("success adds inserted counts", func(t *testing.T) {
		okBefore := testutil.ToFloat64(syncRuns.WithLabelValues("ok"))
		actBefore := testutil.ToFloat64(activitiesSynced)
		effBefore := testutil.ToFloat64(effortsSynced)

		RecordSync(3, 7, time.Second, nil)

		assert.Equal(t, okBefore+1, testutil.ToFloat64(syncRuns.WithLabelValues("ok")))
		assert.Equal(t, actBefore+3, testutil.ToFloat64(activitiesSynced))
		assert.Equal(t, effBefore+7, testutil.ToFloat64(effortsSynced))
		assert.Positive(t, testutil.ToFloat64(lastSyncGauge))
	})

	t.Run("failure leaves inserted counts alone", func(t *testing.T) {
		errBefore := testutil.ToFloat64(syncRuns.WithLabelValues("error"))
		actBefore := testutil.ToFloat64(activitiesSynced)

		RecordSync(5, 5, time.Second, errors.New("boom"))

		assert.Equal(t, errBefore+1, testutil.ToFloat64(syncRuns.WithLabelValues("error")))
		assert.Equal(t, actBefore, testutil.ToFloat64(activitiesSynced))
	})
}

func TestRecordBackfillRowAndAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(backfillRows.WithLabelValues("filled"))
	RecordBackfillRow("filled")
	assert.Equal(t, before+1, testutil.ToFloat64(backfillRows.WithLabelValues("filled")))

	before = testutil.ToFloat64(apiRequests.WithLabelValues("segment", "429"))
	RecordAPIRequest("segment", 429)
	assert.Equal(t, before+1, testutil.ToFloat64(apiRequests.WithLabelValues("segment", "429")))
}
