package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "/signup", sanitizePath("/signup"))
	assert.Equal(t, "/admin/update-status", sanitizePath("/admin/update-status"))
	assert.Equal(t, "/other", sanitizePath("/admin/requests/42"))
	assert.Equal(t, "/other", sanitizePath("/wp-login.php"))
}

func TestCollectionStatsCollector(t *testing.T) {
	c := NewCollectionStatsCollector(func(ctx context.Context) (CollectionStats, error) {
		return CollectionStats{
			Users: 3,
			RequestsByStatus: map[string]int{
				"pending": 2,
				"done":    1,
			},
		}, nil
	})

	// up + users + one series per status
	assert.Equal(t, 4, testutil.CollectAndCount(c))
}

func TestCollectionStatsCollector_ReportsDownOnError(t *testing.T) {
	c := NewCollectionStatsCollector(func(ctx context.Context) (CollectionStats, error) {
		return CollectionStats{}, errors.New("permission denied")
	})

	assert.Equal(t, 1, testutil.CollectAndCount(c, "store_up"))
	assert.Equal(t, 0, testutil.CollectAndCount(c, "store_users"))
}

func TestRecordStatusUpdate(t *testing.T) {
	before := testutil.ToFloat64(RequestStatusUpdates.WithLabelValues("done"))
	RecordStatusUpdate("done")
	assert.Equal(t, before+1, testutil.ToFloat64(RequestStatusUpdates.WithLabelValues("done")))
}
