// Package jsonl provides a JSON Lines destination connector. Each record
// is written as one JSON object per line, which keeps the output
// streamable and appendable. Optional gzip compression is supported.
//
// Configuration uses the standard BaseConfig properties:
//
//	cfg.Properties["path"] = "/path/to/output.jsonl"
//	cfg.Properties["overwrite"] = "true"    // optional, default "true"
//	cfg.Properties["compression"] = "gzip"  // optional
//	cfg.Properties["include_metadata"] = "true" // optional, default "false"
package jsonl

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
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

// JSONLDestination writes records as newline-delimited JSON.
type JSONLDestination struct {
	*base.BaseConnector

	mu   sync.Mutex
	file *os.File
	gzw  *gzip.Writer
	buf  *bufio.Writer

	filePath        string
	overwrite       bool
	compress        bool
	includeMetadata bool

	recordsWritten int64
}

// NewJSONLDestination creates an uninitialized JSONL destination.
func NewJSONLDestination(cfg *config.BaseConfig) (*JSONLDestination, error) {
	return &JSONLDestination{
		BaseConnector: base.NewBaseConnector("jsonl", core.ConnectorTypeDestination),
	}, nil
}

// Initialize opens the output file and prepares the writer chain.
func (d *JSONLDestination) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	if err := d.BaseConnector.Initialize(ctx, cfg); err != nil {
		return err
	}

	d.filePath = cfg.Property("path", "")
	if d.filePath == "" {
		return errors.New(errors.ErrorTypeConfig, "missing required property: path")
	}

	d.overwrite, _ = strconv.ParseBool(cfg.Property("overwrite", "true"))
	d.compress = cfg.Property("compression", "") == "gzip"
	d.includeMetadata, _ = strconv.ParseBool(cfg.Property("include_metadata", "false"))
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
	d.buf = bufio.NewWriterSize(w, 64*1024)

	d.Logger().Info("jsonl destination initialized",
		zap.String("path", d.filePath),
		zap.Bool("compression", d.compress))
	return nil
}

// Write drains the record stream into the file. If a batch fails
// mid-stream the remaining records are consumed and released so the
// producing goroutine can finish.
func (d *JSONLDestination) Write(ctx context.Context, stream *core.RecordStream) error {
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

// WriteBatch writes records as JSON lines and releases them.
func (d *JSONLDestination) WriteBatch(ctx context.Context, records []*pool.Record) error {
	if len(records) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.buf == nil {
		return errors.New(errors.ErrorTypeInternal, "destination not initialized")
	}

	for _, record := range records {
		var payload interface{} = record.Data
		if d.includeMetadata {
			payload = record
		}
		line, err := json.Marshal(payload)
		if err != nil {
			d.Collector().RecordWritten("failed", 1)
			return errors.Wrap(err, errors.ErrorTypeData, "failed to marshal record")
		}
		if _, err := d.buf.Write(line); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write record")
		}
		if err := d.buf.WriteByte('\n'); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write record")
		}
		d.recordsWritten++
		record.Release()
	}
	if err := d.buf.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "jsonl flush failed")
	}

	d.Collector().RecordWritten("success", len(records))
	return nil
}

// Metrics adds destination counters to the base metrics.
func (d *JSONLDestination) Metrics() map[string]interface{} {
	m := d.BaseConnector.Metrics()
	d.mu.Lock()
	m["records_written"] = d.recordsWritten
	d.mu.Unlock()
	return m
}

// Close flushes and closes the writer chain.
func (d *JSONLDestination) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.buf != nil {
		if err := d.buf.Flush(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "jsonl flush failed")
		}
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
