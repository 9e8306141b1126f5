// Package jubelio implements a source connector for the Jubelio commerce
// REST API. It extracts products, orders, contacts and categories using
// page-based pagination and tracks an incremental cursor per stream.
package jubelio

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flowgate-io/flowgate/pkg/clients"
	"github.com/flowgate-io/flowgate/pkg/config"
	"github.com/flowgate-io/flowgate/pkg/connector/base"
	"github.com/flowgate-io/flowgate/pkg/connector/core"
	"github.com/flowgate-io/flowgate/pkg/errors"
	"github.com/flowgate-io/flowgate/pkg/json"
	"github.com/flowgate-io/flowgate/pkg/metrics"
	"github.com/flowgate-io/flowgate/pkg/pool"
)

const (
	// probePath is a lightweight endpoint used for connection testing.
	probePath = "inventory/categories/item-categories/"

	// maxErrorBodyLen bounds how much of an error response body is
	// surfaced in check messages.
	maxErrorBodyLen = 200
)

// JubelioSource extracts records from the Jubelio API.
type JubelioSource struct {
	*base.BaseConnector

	apiKey    string
	baseURL   string
	startDate string

	client  *clients.HTTPClient
	streams []streamSpec
}

// NewJubelioSource creates an uninitialized Jubelio source.
func NewJubelioSource(cfg *config.BaseConfig) (*JubelioSource, error) {
	return &JubelioSource{
		BaseConnector: base.NewBaseConnector("jubelio", core.ConnectorTypeSource),
		streams:       streamSpecs,
	}, nil
}

// Initialize validates credentials and prepares the HTTP client.
func (s *JubelioSource) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	if err := s.BaseConnector.Initialize(ctx, cfg); err != nil {
		return err
	}

	apiKey, ok := cfg.Security.Credential("api_key")
	if !ok || apiKey == "" {
		return errors.New(errors.ErrorTypeConfig, "missing required configuration field: api_key")
	}
	s.apiKey = apiKey

	baseURL, ok := cfg.Security.Credential("base_url")
	if !ok || baseURL == "" {
		return errors.New(errors.ErrorTypeConfig, "missing required configuration field: base_url")
	}
	s.baseURL = strings.TrimRight(baseURL, "/")

	if start, ok := cfg.Security.Credential("start_date"); ok {
		s.startDate = start
	}

	httpCfg := clients.DefaultHTTPConfig()
	if cfg.Timeouts.Request > 0 {
		httpCfg.RequestTimeout = cfg.Timeouts.Request
	}
	if cfg.Reliability.RateLimitPerSec > 0 {
		httpCfg.RateLimit = float64(cfg.Reliability.RateLimitPerSec)
		httpCfg.RateBurst = cfg.Reliability.RateLimitPerSec
	}
	httpCfg.CircuitBreakerEnabled = cfg.Reliability.CircuitBreaker
	s.client = clients.NewHTTPClient(httpCfg, s.Logger())

	s.Logger().Info("jubelio source initialized",
		zap.String("base_url", s.baseURL),
		zap.Int("streams", len(s.streams)))
	return nil
}

// Check validates the configuration by probing a lightweight endpoint.
// It never retries; the result maps HTTP status codes to user-facing
// messages.
func (s *JubelioSource) Check(ctx context.Context) *core.CheckResult {
	if s.apiKey == "" {
		return &core.CheckResult{Status: false, Message: "Missing required configuration field: api_key"}
	}
	if s.baseURL == "" {
		return &core.CheckResult{Status: false, Message: "Missing required configuration field: base_url"}
	}

	probeTimeout := 30 * time.Second
	if cfg := s.Config(); cfg != nil && cfg.Timeouts.Probe > 0 {
		probeTimeout = cfg.Timeouts.Probe
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	probeURL := s.baseURL + "/" + probePath
	s.Logger().Info("testing connection", zap.String("url", probeURL))

	resp, err := s.client.Get(ctx, probeURL, requestHeaders(s.apiKey))
	if err != nil {
		return &core.CheckResult{Status: false, Message: checkFailureMessage(err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &core.CheckResult{Status: false, Message: "Authentication failed. Please check your API key."}
	case resp.StatusCode == http.StatusForbidden:
		return &core.CheckResult{Status: false, Message: "Access forbidden. Please check your API key permissions."}
	case resp.StatusCode == http.StatusNotFound:
		return &core.CheckResult{Status: false, Message: fmt.Sprintf("API endpoint not found. Please verify the base_url: %s", s.baseURL)}
	case resp.StatusCode >= 500:
		return &core.CheckResult{Status: false, Message: fmt.Sprintf("Server error from Jubelio API: %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return &core.CheckResult{Status: false, Message: clientErrorMessage(resp)}
	case resp.StatusCode == http.StatusOK:
		s.Logger().Info("successfully connected to jubelio api")
		return &core.CheckResult{Status: true}
	default:
		return &core.CheckResult{Status: false, Message: fmt.Sprintf("Unexpected response from API: %d", resp.StatusCode)}
	}
}

// checkFailureMessage maps transport failures to user-facing messages.
func checkFailureMessage(err error) string {
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return "Connection timeout. Please check your network connection and base_url."
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return "Connection timeout. Please check your network connection and base_url."
	}
	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		return "Failed to connect to Jubelio API. Please check your base_url and network connection."
	}
	return fmt.Sprintf("Request error: %v", err)
}

// clientErrorMessage extracts a message from a 4xx response body, falling
// back to a truncated raw body.
func clientErrorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Sprintf("API error: %d", resp.StatusCode)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if msg, ok := parsed["message"].(string); ok && msg != "" {
			return msg
		}
		return fmt.Sprintf("API error: %d", resp.StatusCode)
	}

	text := string(body)
	if len(text) > maxErrorBodyLen {
		text = text[:maxErrorBodyLen]
	}
	return fmt.Sprintf("API error: %d - %s", resp.StatusCode, text)
}

// Discover returns the schema of every stream.
func (s *JubelioSource) Discover(ctx context.Context) ([]*core.Schema, error) {
	schemas := make([]*core.Schema, 0, len(s.streams))
	for _, spec := range s.streams {
		schemas = append(schemas, loadSchema(spec.name))
	}
	return schemas, nil
}

// Streams enumerates the streams this source exposes.
func (s *JubelioSource) Streams() []core.StreamDescriptor {
	descriptors := make([]core.StreamDescriptor, 0, len(s.streams))
	for _, spec := range s.streams {
		descriptors = append(descriptors, spec.descriptor())
	}
	return descriptors
}

// Read extracts all streams sequentially. One stream is fully paginated
// before the next begins; within a stream pages are fetched one at a
// time, each response determining whether another request is issued.
func (s *JubelioSource) Read(ctx context.Context) (*core.RecordStream, error) {
	bufferSize := 1000
	if cfg := s.Config(); cfg != nil && cfg.Performance.BufferSize > 0 {
		bufferSize = cfg.Performance.BufferSize
	}

	records := make(chan *pool.Record, bufferSize)
	errs := make(chan error, 1)

	go func() {
		defer close(records)
		defer close(errs)

		for _, spec := range s.streams {
			if err := s.readStream(ctx, spec, records); err != nil {
				s.Collector().RecordSync("failed")
				errs <- err
				return
			}
		}
		s.Collector().RecordSync("success")
	}()

	return &core.RecordStream{Records: records, Errors: errs}, nil
}

// readStream paginates one stream to exhaustion, emitting records and
// advancing the stream's cursor state as it goes.
func (s *JubelioSource) readStream(ctx context.Context, spec streamSpec, out chan<- *pool.Record) error {
	log := s.Logger().With(zap.String("stream", spec.name))
	state := s.streamState(spec.name)

	pageSize := defaultPageSize
	if cfg := s.Config(); cfg != nil && cfg.Performance.PageSize > 0 {
		pageSize = cfg.Performance.PageSize
	}

	var token *pageToken
	pages := 0
	total := 0

	for {
		params := spec.requestParams(state, token, pageSize)
		reqURL := s.baseURL + "/" + spec.path + "?" + params.Encode()

		body, err := s.fetchPage(ctx, spec, reqURL)
		if err != nil {
			return err
		}
		pages++

		items, envelope := parseResponse(body, log)
		for _, item := range items {
			data, ok := item.(map[string]interface{})
			if !ok {
				// scalar payloads are preserved under a single field
				data = map[string]interface{}{"value": item}
			}

			record := pool.GetRecord()
			record.ID = pool.GenerateID(spec.name)
			record.Data = data
			record.Metadata.Source = s.Name()
			record.Metadata.Stream = spec.name
			record.SetTimestamp(time.Now())

			state = updatedState(state, data)

			select {
			case out <- record:
			case <-ctx.Done():
				record.Release()
				return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "read cancelled")
			}

			s.Collector().RecordExtracted(spec.name, "success")
			total++
		}
		s.setStreamState(spec.name, state)

		token = nextPageToken(reqURL, envelope, log)
		if token == nil {
			break
		}
	}

	log.Info("stream read complete",
		zap.Int("pages", pages),
		zap.Int("records", total))
	return nil
}

// fetchPage issues one GET with the connector's resilience stack applied
// and returns the raw response body.
func (s *JubelioSource) fetchPage(ctx context.Context, spec streamSpec, reqURL string) ([]byte, error) {
	var body []byte
	timer := metrics.NewTimer()

	err := s.ExecuteWithResilience(ctx, func() error {
		resp, err := s.client.Get(ctx, reqURL, requestHeaders(s.apiKey))
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConnection, "request failed")
		}
		defer resp.Body.Close()

		s.Collector().RecordAPIRequest(spec.name, strconv.Itoa(resp.StatusCode))

		if err := classifyStatus(resp.StatusCode); err != nil {
			return err
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConnection, "failed to read response body")
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, fmt.Sprintf("fetching %s page failed", spec.name))
	}

	s.Collector().RecordPageFetch(spec.name, timer.Stop())
	return body, nil
}

// classifyStatus turns a non-2xx status into a typed error so the retry
// policy can tell transient failures from permanent ones.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized:
		return errors.Newf(errors.ErrorTypeAuthentication, "authentication failed (HTTP %d)", status)
	case status == http.StatusForbidden:
		return errors.Newf(errors.ErrorTypePermission, "access forbidden (HTTP %d)", status)
	case status == http.StatusTooManyRequests:
		return errors.Newf(errors.ErrorTypeRateLimit, "rate limited (HTTP %d)", status)
	case status >= 500:
		return errors.Newf(errors.ErrorTypeConnection, "server error (HTTP %d)", status)
	case status >= 400:
		return errors.Newf(errors.ErrorTypeData, "client error (HTTP %d)", status)
	default:
		return errors.Newf(errors.ErrorTypeData, "unexpected status (HTTP %d)", status)
	}
}

// streamState returns the cursor state for one stream. When no state has
// been persisted yet, a configured start_date seeds the cursor.
func (s *JubelioSource) streamState(name string) map[string]string {
	state := make(map[string]string)

	if raw, ok := s.GetState()[name]; ok {
		switch v := raw.(type) {
		case map[string]string:
			for k, val := range v {
				state[k] = val
			}
		case map[string]interface{}:
			// state restored from a JSON checkpoint
			for k, val := range v {
				if str, ok := val.(string); ok {
					state[k] = str
				}
			}
		}
	}

	if len(state) == 0 && s.startDate != "" {
		state[cursorField] = s.startDate
	}
	return state
}

// setStreamState stores the cursor state for one stream.
func (s *JubelioSource) setStreamState(name string, state map[string]string) {
	s.UpdateState(name, state)
}

// SupportsIncremental reports that this source tracks cursors.
func (s *JubelioSource) SupportsIncremental() bool { return true }

// Close shuts down the HTTP client.
func (s *JubelioSource) Close(ctx context.Context) error {
	if s.client != nil {
		s.client.Close()
	}
	return s.BaseConnector.Close(ctx)
}
