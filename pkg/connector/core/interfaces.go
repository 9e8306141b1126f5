package core

import (
	"context"
	"time"

	"github.com/flowgate-io/flowgate/pkg/config"
	"github.com/flowgate-io/flowgate/pkg/pool"
)

// ConnectorType represents the type of connector
type ConnectorType string

const (
	ConnectorTypeSource      ConnectorType = "source"
	ConnectorTypeDestination ConnectorType = "destination"
)

// State represents connector state persisted between sync runs. Sources
// keyed by multiple streams store one entry per stream name.
type State map[string]interface{}

// Position represents a position in the data stream
type Position interface {
	// String returns a string representation of the position
	String() string
	// Compare returns -1 if this < other, 0 if equal, 1 if this > other
	Compare(other Position) int
}

// SyncMode describes how a stream is read.
type SyncMode string

const (
	// SyncModeFullRefresh re-reads the entire stream every run
	SyncModeFullRefresh SyncMode = "full_refresh"
	// SyncModeIncremental reads only records newer than the stored cursor
	SyncModeIncremental SyncMode = "incremental"
)

// StreamDescriptor describes a logical stream exposed by a source.
type StreamDescriptor struct {
	// Name is the stream identifier (e.g., "orders")
	Name string `json:"name"`
	// PrimaryKey is the record field that uniquely identifies a record
	PrimaryKey string `json:"primary_key"`
	// SyncMode is the supported synchronization mode
	SyncMode SyncMode `json:"sync_mode"`
	// CursorField is the record field used for incremental sync, if any
	CursorField string `json:"cursor_field,omitempty"`
}

// Schema represents the data schema of a stream
type Schema struct {
	Name        string
	Description string
	Fields      []Field
	// Raw holds the JSON Schema document when one was loaded externally
	Raw map[string]interface{}
}

// Field represents a field in the schema
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Nullable    bool
	Primary     bool
}

// FieldType represents the data type of a field
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInt       FieldType = "int"
	FieldTypeFloat     FieldType = "float"
	FieldTypeBool      FieldType = "bool"
	FieldTypeTimestamp FieldType = "timestamp"
	FieldTypeJSON      FieldType = "json"
)

// RecordStream represents a stream of records
type RecordStream struct {
	Records <-chan *pool.Record
	Errors  <-chan error
}

// CheckResult is the outcome of a connection check. Message is empty when
// Status is true.
type CheckResult struct {
	Status  bool   `json:"status"`
	Message string `json:"message,omitempty"`
}

// Source is the interface that all source connectors must implement
type Source interface {
	// Core functionality
	Initialize(ctx context.Context, config *config.BaseConfig) error
	Check(ctx context.Context) *CheckResult
	Discover(ctx context.Context) ([]*Schema, error)
	Streams() []StreamDescriptor
	Read(ctx context.Context) (*RecordStream, error)
	Close(ctx context.Context) error

	// State management
	GetState() State
	SetState(state State) error
	GetPosition() Position
	SetPosition(position Position) error

	// Capabilities
	SupportsIncremental() bool

	// Health and metrics
	Health(ctx context.Context) error
	Metrics() map[string]interface{}
}

// Destination is the interface that all destination connectors must implement
type Destination interface {
	Initialize(ctx context.Context, config *config.BaseConfig) error
	Write(ctx context.Context, stream *RecordStream) error
	WriteBatch(ctx context.Context, records []*pool.Record) error
	Close(ctx context.Context) error

	// Health and metrics
	Health(ctx context.Context) error
	Metrics() map[string]interface{}
}

// Connector is the base interface for all connectors
type Connector interface {
	// Metadata
	Name() string
	Type() ConnectorType
	Version() string

	// Lifecycle
	Initialize(ctx context.Context, config *config.BaseConfig) error
	Close(ctx context.Context) error

	// Health and monitoring
	Health(ctx context.Context) error
	Metrics() map[string]interface{}
}

// HealthStatus represents the health status of a connector
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy", "unhealthy", "degraded"
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details"`
	Error     error                  `json:"error,omitempty"`
}
