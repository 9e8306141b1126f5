// Package csv provides a CSV destination connector. It writes extracted
// records to a CSV file with automatic header detection, optional gzip
// compression and append or overwrite modes.
//
// Configuration uses the standard BaseConfig properties:
//
//	cfg.Properties["path"] = "/path/to/output.csv"
//	cfg.Properties["delimiter"] = ","       // optional, default ","
//	cfg.Properties["overwrite"] = "true"    // optional, default "true"
//	cfg.Properties["compression"] = "gzip"  // optional
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/flowgate-io/flowgate/pkg/config"
	"github.com/flowgate-io/flowgate/pkg/connector/base"
	"github.com/flowgate-io/flowgate/pkg/connector/core"
	"github.com/flowgate-io/flowgate/pkg/errors"
	"github.com/flowgate-io/flowgate/pkg/json"
	"github.com/flowgate-io/flowgate/pkg/pool"
)

// CSVDestination writes records to a CSV file.
type CSVDestination struct {
	*base.BaseConnector

	mu      sync.Mutex
	file    *os.File
	gzw     *gzip.Writer
	writer  *csv.Writer
	headers []string

	filePath  string
	delimiter rune
	overwrite bool
	compress  bool

	recordsWritten int64
}

// NewCSVDestination creates an uninitialized CSV destination.
func NewCSVDestination(cfg *config.BaseConfig) (*CSVDestination, error) {
	return &CSVDestination{
		BaseConnector: base.NewBaseConnector("csv", core.ConnectorTypeDestination),
	}, nil
}

// Initialize opens the output file and prepares the writer chain.
func (d *CSVDestination) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	if err := d.BaseConnector.Initialize(ctx, cfg); err != nil {
		return err
	}

	d.filePath = cfg.Property("path", "")
	if d.filePath == "" {
		return errors.New(errors.ErrorTypeConfig, "missing required property: path")
	}

	d.delimiter = ','
	if delim := cfg.Property("delimiter", ","); delim != "" {
		d.delimiter = rune(delim[0])
	}
	d.overwrite, _ = strconv.ParseBool(cfg.Property("overwrite", "true"))
	d.compress = cfg.Property("compression", "") == "gzip"
	if d.compress && filepath.Ext(d.filePath) != ".gz" {
		d.filePath += ".gz"
	}

	if dir := filepath.Dir(d.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create output directory")
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if d.overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	file, err := os.OpenFile(d.filePath, flags, 0o644)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to open output file")
	}
	d.file = file

	var w io.Writer = file
	if d.compress {
		d.gzw = gzip.NewWriter(file)
		w = d.gzw
	}
	d.writer = csv.NewWriter(w)
	d.writer.Comma = d.delimiter

	d.Logger().Info("csv destination initialized",
		zap.String("path", d.filePath),
		zap.Bool("compression", d.compress))
	return nil
}

// Write drains the record stream into the file. If a batch fails
// mid-stream the remaining records are consumed and released so the
// producing goroutine can finish.
func (d *CSVDestination) Write(ctx context.Context, stream *core.RecordStream) error {
	batchSize := d.Config().Performance.BatchSize
	batch := pool.GetBatchSlice(batchSize)
	defer func() { pool.PutBatchSlice(batch) }()

	for {
		select {
		case record, ok := <-stream.Records:
			if !ok {
				if err := d.WriteBatch(ctx, batch); err != nil {
					return err
				}
				// surface a source failure after the channel drains
				if err, ok := <-stream.Errors; ok && err != nil {
					return err
				}
				return nil
			}
			batch = append(batch, record)
			if len(batch) >= batchSize {
				if err := d.WriteBatch(ctx, batch); err != nil {
					drainStream(stream)
					return err
				}
				batch = batch[:0]
			}
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "write cancelled")
		}
	}
}

// drainStream consumes and releases whatever the source still has in
// flight so its goroutine is not stranded on a channel send after an
// aborted write.
func drainStream(stream *core.RecordStream) {
	for record := range stream.Records {
		record.Release()
	}
	<-stream.Errors
}

// WriteBatch writes records and releases them back to the pool.
func (d *CSVDestination) WriteBatch(ctx context.Context, records []*pool.Record) error {
	if len(records) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.writer == nil {
		return errors.New(errors.ErrorTypeInternal, "destination not initialized")
	}

	if d.headers == nil {
		d.headers = headersFrom(records[0])
		if err := d.writer.Write(d.headers); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write headers")
		}
	}

	row := make([]string, len(d.headers))
	for _, record := range records {
		for i, h := range d.headers {
			row[i] = fieldString(record.Data[h])
		}
		if err := d.writer.Write(row); err != nil {
			d.Collector().RecordWritten("failed", 1)
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write record")
		}
		d.recordsWritten++
		record.Release()
	}
	d.writer.Flush()
	if err := d.writer.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "csv flush failed")
	}

	d.Collector().RecordWritten("success", len(records))
	return nil
}

// headersFrom derives stable column order from the first record.
func headersFrom(record *pool.Record) []string {
	headers := make([]string, 0, len(record.Data))
	for k := range record.Data {
		headers = append(headers, k)
	}
	sort.Strings(headers)
	return headers
}

// fieldString renders a record field for CSV output. Nested values are
// serialized as JSON.
func fieldString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Metrics adds destination counters to the base metrics.
func (d *CSVDestination) Metrics() map[string]interface{} {
	m := d.BaseConnector.Metrics()
	d.mu.Lock()
	m["records_written"] = d.recordsWritten
	d.mu.Unlock()
	return m
}

// Close flushes and closes the writer chain.
func (d *CSVDestination) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.writer != nil {
		d.writer.Flush()
	}
	if d.gzw != nil {
		if err := d.gzw.Close(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to close gzip writer")
		}
	}
	if d.file != nil {
		if err := d.file.Close(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to close output file")
		}
		d.file = nil
	}
	return d.BaseConnector.Close(ctx)
}
