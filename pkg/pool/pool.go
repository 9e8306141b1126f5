// Package pool provides unified object pooling for Flowgate. Records flow
// from sources to destinations at high volume, so the hot types (records,
// maps, batches) are recycled through typed pools instead of being allocated
// per page.
//
// Example usage:
//
//	record := pool.GetRecord()
//	defer record.Release()
//
//	record.SetData("salesorder_id", 123)
package pool

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Pool is a generic object pool with type safety. It wraps sync.Pool with
// hit/miss statistics and an automatic reset hook.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
	stats struct {
		hits   int64
		misses int64
	}
}

// New creates a typed pool. newFn is called when the pool is empty; reset is
// called before an object is returned to the pool.
func New[T any](newFn func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.misses, 1)
		return newFn()
	}
	return p
}

// Get retrieves an object from the pool.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.hits, 1)
	return p.pool.Get().(T)
}

// Put resets an object and returns it to the pool.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	p.pool.Put(obj)
}

// Stats returns pool hit/miss counters.
func (p *Pool[T]) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&p.stats.hits), atomic.LoadInt64(&p.stats.misses)
}

// RecordMetadata carries source and stream information alongside a record.
type RecordMetadata struct {
	// Source identifies the origin connector
	Source string `json:"source,omitempty"`
	// Stream identifies the logical stream within a multi-stream source
	Stream string `json:"stream,omitempty"`
	// Timestamp when the record was extracted
	Timestamp time.Time `json:"timestamp"`
	// Custom metadata fields for extensibility
	Custom map[string]interface{} `json:"custom,omitempty"`
}

// Record is the unified record type used throughout Flowgate. Records are
// pooled; obtain them with GetRecord and give them back with Release.
type Record struct {
	// ID is a unique identifier for the record
	ID string `json:"id"`
	// Data contains the actual record payload
	Data map[string]interface{} `json:"data"`
	// Metadata contains source and timing information
	Metadata RecordMetadata `json:"metadata"`
}

// RecordPool provides pooling for Record objects.
var RecordPool = New(
	func() *Record {
		return &Record{
			Data: make(map[string]interface{}, 16),
		}
	},
	func(r *Record) {
		r.ID = ""
		for k := range r.Data {
			delete(r.Data, k)
		}
		if r.Metadata.Custom != nil {
			for k := range r.Metadata.Custom {
				delete(r.Metadata.Custom, k)
			}
		}
		r.Metadata = RecordMetadata{}
	},
)

// MapPool provides pooling for map[string]interface{} payloads.
var MapPool = New(
	func() map[string]interface{} {
		return make(map[string]interface{}, 16)
	},
	func(m map[string]interface{}) {
		for k := range m {
			delete(m, k)
		}
	},
)

// BatchSlicePool provides pooling for record batches.
var BatchSlicePool = New(
	func() []*Record {
		return make([]*Record, 0, 1000)
	},
	func(s []*Record) {
		for i := range s {
			s[i] = nil
		}
	},
)

var idCounter uint64

// GetRecord retrieves a Record from the global pool with a fresh timestamp.
func GetRecord() *Record {
	r := RecordPool.Get()
	r.Metadata.Timestamp = time.Now()
	return r
}

// PutRecord returns a record to the global pool.
func PutRecord(record *Record) {
	if record != nil {
		RecordPool.Put(record)
	}
}

// GetMap retrieves a map from the global map pool.
func GetMap() map[string]interface{} {
	return MapPool.Get()
}

// PutMap returns a map to the global map pool.
func PutMap(m map[string]interface{}) {
	if m != nil {
		MapPool.Put(m)
	}
}

// GetBatchSlice retrieves a batch slice, growing it if the requested
// capacity exceeds the pooled default.
func GetBatchSlice(capacity int) []*Record {
	s := BatchSlicePool.Get()[:0]
	if cap(s) < capacity {
		BatchSlicePool.Put(s)
		return make([]*Record, 0, capacity)
	}
	return s
}

// PutBatchSlice returns a batch slice to the pool.
func PutBatchSlice(batch []*Record) {
	BatchSlicePool.Put(batch)
}

// GenerateID produces a process-unique ID with the given prefix.
func GenerateID(prefix string) string {
	n := atomic.AddUint64(&idCounter, 1)
	return prefix + "_" + strconv.FormatUint(n, 10)
}

// SetData sets a data field on the record.
func (r *Record) SetData(key string, value interface{}) {
	if r.Data == nil {
		r.Data = GetMap()
	}
	r.Data[key] = value
}

// GetData retrieves a data field from the record.
func (r *Record) GetData(key string) (interface{}, bool) {
	if r.Data == nil {
		return nil, false
	}
	v, ok := r.Data[key]
	return v, ok
}

// SetMetadata sets a custom metadata field.
func (r *Record) SetMetadata(key string, value interface{}) {
	if r.Metadata.Custom == nil {
		r.Metadata.Custom = GetMap()
	}
	r.Metadata.Custom[key] = value
}

// SetTimestamp sets the record extraction timestamp.
func (r *Record) SetTimestamp(t time.Time) {
	r.Metadata.Timestamp = t
}

// Release returns the record to the global pool.
func (r *Record) Release() {
	PutRecord(r)
}
