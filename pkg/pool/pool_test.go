package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLifecycle(t *testing.T) {
	r := GetRecord()
	require.NotNil(t, r)

	r.ID = GenerateID("orders")
	r.SetData("salesorder_id", 42)
	r.Metadata.Stream = "orders"
	r.SetTimestamp(time.Now())

	v, ok := r.GetData("salesorder_id")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	r.Release()

	// a fresh record must not leak previous data
	r2 := GetRecord()
	_, ok = r2.GetData("salesorder_id")
	assert.False(t, ok)
	assert.Empty(t, r2.Metadata.Stream)
	r2.Release()
}

func TestGenerateIDUnique(t *testing.T) {
	a := GenerateID("orders")
	b := GenerateID("orders")
	assert.NotEqual(t, a, b)
}

func TestGenericPool(t *testing.T) {
	type buf struct{ data []byte }

	p := New(
		func() *buf { return &buf{data: make([]byte, 0, 64)} },
		func(b *buf) { b.data = b.data[:0] },
	)

	b := p.Get()
	b.data = append(b.data, 1, 2, 3)
	p.Put(b)

	b2 := p.Get()
	assert.Empty(t, b2.data)
	p.Put(b2)
}

func TestBatchSlice(t *testing.T) {
	batch := GetBatchSlice(10)
	assert.Empty(t, batch)

	batch = append(batch, GetRecord())
	PutBatchSlice(batch)

	batch2 := GetBatchSlice(10)
	assert.Empty(t, batch2)
	PutBatchSlice(batch2)
}

func TestBatchSliceGrowKeepsPooled(t *testing.T) {
	small := GetBatchSlice(1)
	PutBatchSlice(small)

	_, missesBefore := BatchSlicePool.Stats()

	// requesting beyond the pooled capacity allocates a bigger slice but
	// must not drop the pooled one
	big := GetBatchSlice(cap(small) + 1)
	assert.Empty(t, big)
	assert.GreaterOrEqual(t, cap(big), cap(small)+1)

	again := GetBatchSlice(1)
	_, missesAfter := BatchSlicePool.Stats()
	assert.Equal(t, missesBefore, missesAfter, "undersized slice must return to the pool")
	PutBatchSlice(again)
}

func TestMapPool(t *testing.T) {
	m := GetMap()
	m["k"] = "v"
	PutMap(m)

	m2 := GetMap()
	assert.Empty(t, m2)
	PutMap(m2)
}
