package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorRecordsCounters(t *testing.T) {
	c := NewCollector("test_connector")

	before := testutil.ToFloat64(RecordsExtracted.WithLabelValues("test_connector", "orders", "success"))
	c.RecordExtracted("orders", "success")
	c.RecordExtracted("orders", "success")
	after := testutil.ToFloat64(RecordsExtracted.WithLabelValues("test_connector", "orders", "success"))

	assert.Equal(t, float64(2), after-before)
}

func TestCollectorRecordsWrites(t *testing.T) {
	c := NewCollector("test_dest")

	before := testutil.ToFloat64(RecordsWritten.WithLabelValues("test_dest", "success"))
	c.RecordWritten("success", 25)
	after := testutil.ToFloat64(RecordsWritten.WithLabelValues("test_dest", "success"))

	assert.Equal(t, float64(25), after-before)
}

func TestCollectorPageFetch(t *testing.T) {
	c := NewCollector("test_pages")

	before := testutil.ToFloat64(PagesFetched.WithLabelValues("test_pages", "contacts"))
	c.RecordPageFetch("contacts", 50*time.Millisecond)
	after := testutil.ToFloat64(PagesFetched.WithLabelValues("test_pages", "contacts"))

	assert.Equal(t, float64(1), after-before)
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)

	elapsed := timer.Stop()
	assert.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
}

func TestGetAll(t *testing.T) {
	c := NewCollector("x")
	m := c.GetAll()

	assert.Equal(t, "x", m["component"])
	assert.Contains(t, m, "uptime")
}
