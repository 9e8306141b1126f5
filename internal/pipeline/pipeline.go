// Package pipeline runs a source-to-destination sync. Execution is
// sequential: records flow through a channel from the source reader to
// the destination writer, and incremental state is checkpointed to disk
// after a successful run.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/flowgate-io/flowgate/pkg/config"
	"github.com/flowgate-io/flowgate/pkg/connector/core"
	"github.com/flowgate-io/flowgate/pkg/connector/registry"
	"github.com/flowgate-io/flowgate/pkg/errors"
	"github.com/flowgate-io/flowgate/pkg/json"
	"github.com/flowgate-io/flowgate/pkg/logger"
)

// Config describes one pipeline run.
type Config struct {
	SourceName        string
	DestinationName   string
	SourceConfig      *config.BaseConfig
	DestinationConfig *config.BaseConfig
	// StatePath is where incremental state is persisted between runs.
	// Empty disables state persistence.
	StatePath string
}

// Pipeline connects one source to one destination.
type Pipeline struct {
	cfg    Config
	logger *zap.Logger

	source      core.Source
	destination core.Destination
}

// New creates a pipeline from registered connectors.
func New(cfg Config) (*Pipeline, error) {
	source, err := registry.CreateSource(cfg.SourceName, cfg.SourceConfig)
	if err != nil {
		return nil, err
	}
	destination, err := registry.CreateDestination(cfg.DestinationName, cfg.DestinationConfig)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:         cfg,
		logger:      logger.Get().With(zap.String("component", "pipeline")),
		source:      source,
		destination: destination,
	}, nil
}

// Run executes one complete sync: initialize, restore state, read every
// stream to exhaustion, write, checkpoint state, close.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()

	if err := p.source.Initialize(ctx, p.cfg.SourceConfig); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "source initialization failed")
	}
	defer p.source.Close(ctx)

	if err := p.destination.Initialize(ctx, p.cfg.DestinationConfig); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "destination initialization failed")
	}
	defer p.destination.Close(ctx)

	if err := p.restoreState(); err != nil {
		return err
	}

	stream, err := p.source.Read(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "source read failed")
	}

	if err := p.destination.Write(ctx, stream); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "destination write failed")
	}

	if err := p.checkpointState(); err != nil {
		return err
	}

	p.logger.Info("sync complete",
		zap.String("source", p.cfg.SourceName),
		zap.String("destination", p.cfg.DestinationName),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// restoreState loads persisted incremental state into the source.
func (p *Pipeline) restoreState() error {
	if p.cfg.StatePath == "" {
		return nil
	}

	raw, err := os.ReadFile(p.cfg.StatePath)
	if err != nil {
		if os.IsNotExist(err) {
			p.logger.Info("no persisted state, starting fresh",
				zap.String("path", p.cfg.StatePath))
			return nil
		}
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to read state file")
	}

	var state core.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "state file is corrupt")
	}
	if err := p.source.SetState(state); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to restore state")
	}

	p.logger.Info("state restored",
		zap.String("path", p.cfg.StatePath),
		zap.Int("streams", len(state)))
	return nil
}

// checkpointState persists the source's incremental state. The write goes
// through a temp file and rename so a crash never leaves a torn state
// file behind.
func (p *Pipeline) checkpointState() error {
	if p.cfg.StatePath == "" {
		return nil
	}

	raw, err := json.Marshal(p.source.GetState())
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to marshal state")
	}

	if dir := filepath.Dir(p.cfg.StatePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create state directory")
		}
	}

	tmp := p.cfg.StatePath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write state file")
	}
	if err := os.Rename(tmp, p.cfg.StatePath); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to replace state file")
	}

	p.logger.Info("state checkpointed", zap.String("path", p.cfg.StatePath))
	return nil
}

// Metrics merges source and destination metrics.
func (p *Pipeline) Metrics() map[string]interface{} {
	return map[string]interface{}{
		"source":      p.source.Metrics(),
		"destination": p.destination.Metrics(),
	}
}
