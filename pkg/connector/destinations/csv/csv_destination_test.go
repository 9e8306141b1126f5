package csv

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgate-io/flowgate/pkg/connector/core"
	"github.com/flowgate-io/flowgate/pkg/pool"
	"github.com/flowgate-io/flowgate/pkg/testutil"
)

func newRecord(data map[string]interface{}) *pool.Record {
	r := pool.GetRecord()
	r.Data = data
	return r
}

func TestWriteBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	cfg := testutil.DestinationConfig("csv", path)

	dest, err := NewCSVDestination(cfg)
	require.NoError(t, err)
	require.NoError(t, dest.Initialize(context.Background(), cfg))

	records := []*pool.Record{
		newRecord(map[string]interface{}{"salesorder_id": float64(1), "status": "paid"}),
		newRecord(map[string]interface{}{"salesorder_id": float64(2), "status": "open"}),
	}
	require.NoError(t, dest.WriteBatch(context.Background(), records))
	require.NoError(t, dest.Close(context.Background()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// headers come from the first record, sorted
	assert.Equal(t, []string{"salesorder_id", "status"}, rows[0])
	assert.Equal(t, []string{"1", "paid"}, rows[1])
	assert.Equal(t, []string{"2", "open"}, rows[2])
}

func TestWriteBatchNestedValuesAsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	cfg := testutil.DestinationConfig("csv", path)

	dest, err := NewCSVDestination(cfg)
	require.NoError(t, err)
	require.NoError(t, dest.Initialize(context.Background(), cfg))

	records := []*pool.Record{
		newRecord(map[string]interface{}{
			"contact_id": float64(9),
			"tags":       []interface{}{"vip", "retail"},
		}),
	}
	require.NoError(t, dest.WriteBatch(context.Background(), records))
	require.NoError(t, dest.Close(context.Background()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `["vip","retail"]`, rows[1][1])
}

func TestWriteDrainsOnBatchError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	cfg := testutil.DestinationConfig("csv", path)
	cfg.Performance.BatchSize = 1

	dest, err := NewCSVDestination(cfg)
	require.NoError(t, err)
	require.NoError(t, dest.Initialize(context.Background(), cfg))

	// closing the file makes every subsequent batch flush fail
	require.NoError(t, dest.file.Close())

	records := make(chan *pool.Record)
	errs := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(errs)
		defer close(records)
		for i := 1; i <= 10; i++ {
			records <- newRecord(map[string]interface{}{"salesorder_id": float64(i)})
		}
	}()

	stream := &core.RecordStream{Records: records, Errors: errs}
	err = dest.Write(context.Background(), stream)
	require.Error(t, err)

	// the producer sends on an unbuffered channel, so it only finishes
	// if the aborted write kept draining
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer still blocked after aborted write")
	}
}

func TestInitializeRequiresPath(t *testing.T) {
	cfg := testutil.DestinationConfig("csv", "")

	dest, err := NewCSVDestination(cfg)
	require.NoError(t, err)

	err = dest.Initialize(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path")
}

func TestCompressionAppendsExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	cfg := testutil.DestinationConfig("csv", path)
	cfg.Properties["compression"] = "gzip"

	dest, err := NewCSVDestination(cfg)
	require.NoError(t, err)
	require.NoError(t, dest.Initialize(context.Background(), cfg))
	require.NoError(t, dest.Close(context.Background()))

	_, err = os.Stat(path + ".gz")
	assert.NoError(t, err)
}

func TestMetricsCountsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	cfg := testutil.DestinationConfig("csv", path)

	dest, err := NewCSVDestination(cfg)
	require.NoError(t, err)
	require.NoError(t, dest.Initialize(context.Background(), cfg))

	require.NoError(t, dest.WriteBatch(context.Background(), []*pool.Record{
		newRecord(map[string]interface{}{"a": "1"}),
	}))
	require.NoError(t, dest.Close(context.Background()))

	assert.Equal(t, int64(1), dest.Metrics()["records_written"])
}
