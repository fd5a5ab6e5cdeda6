// Package dispatch executes request intents against the Xano metadata API and
// normalizes every outcome into a Result.
//
// Each intent is sent exactly once. There is no retry and no backoff: retry
// policy, if any, belongs to the caller. Success is strictly HTTP 200 with a
// JSON body; everything else becomes a Failure value rather than a Go error,
// so an agent issuing many operations can keep going after any single one
// fails.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/envelope"
)

// maxLoggedBody bounds request bodies written to trace logs.
const maxLoggedBody = 500

// Dispatcher sends intents over HTTP. It holds no mutable state and is safe
// for concurrent use.
type Dispatcher struct {
	config  *Config
	builder *envelope.Builder
	client  *http.Client
	logger  hclog.Logger
}

// New creates a dispatcher. The configuration is validated and frozen here;
// a missing token is reported as an error so the process can refuse to start.
func New(cfg *Config) (*Dispatcher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dispatcher config: %w", err)
	}

	client := c.HTTPClient
	if client == nil {
		client = c.NewHTTPClient()
	}

	builder := envelope.NewBuilder(c.Token, c.DomainSuffix, c.FS)
	if c.BaseURL != "" {
		builder = builder.WithBaseURL(c.BaseURL)
	}

	return &Dispatcher{
		config:  &c,
		builder: builder,
		client:  client,
		logger:  c.Logger.Named("dispatch"),
	}, nil
}

// Builder returns the envelope builder the dispatcher renders intents with.
func (d *Dispatcher) Builder() *envelope.Builder {
	return d.builder
}

// DomainSuffix returns the configured instance domain suffix.
func (d *Dispatcher) DomainSuffix() string {
	return d.config.DomainSuffix
}

// GlobalAPI returns the configured account-wide API root.
func (d *Dispatcher) GlobalAPI() string {
	return d.config.GlobalAPI
}

// Execute sends one intent and returns its normalized result.
func (d *Dispatcher) Execute(ctx context.Context, intent envelope.Intent) Result {
	logger := d.logger.With("operation", intent.Operation, "method", intent.Method, "path", intent.Path())

	req, err := d.builder.Build(ctx, intent)
	if err != nil {
		logger.Warn("failed to build request", "error", err)
		return Fail(NewFailure(FailureRequest, err.Error(), err))
	}

	logger.Debug("making request", "url", req.URL.String())
	if len(intent.Query) > 0 {
		logger.Trace("with params", "query", intent.Query.Encode())
	}
	if intent.HasJSONBody() && logger.IsTrace() {
		if body, _, err := d.builder.Body(intent); err == nil {
			logger.Trace("with data", "body", truncate(body, maxLoggedBody))
		}
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		f := transportFailure(err)
		logger.Warn("exception during request", "error", err, "reason", f.Message)
		return Fail(f)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("failed to read response", "status", resp.StatusCode, "error", err)
		return Fail(&Failure{
			Kind:       FailureTransport,
			Message:    fmt.Sprintf("failed to read response: %v", err),
			StatusCode: resp.StatusCode,
			Err:        err,
		})
	}

	logger.Debug("response received", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		logger.Warn("error response", "status", resp.StatusCode, "body", truncate(respBody, maxDiagnosticBody))
		return Fail(&Failure{
			Kind:       FailureRejected,
			Message:    fmt.Sprintf("API request failed with status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Body:       truncate(respBody, maxDiagnosticBody),
		})
	}

	if !json.Valid(respBody) {
		logger.Warn("error parsing JSON response", "body", truncate(respBody, maxDiagnosticBody))
		return Fail(&Failure{
			Kind:       FailureDecode,
			Message:    "failed to parse response as JSON",
			StatusCode: resp.StatusCode,
			Body:       truncate(respBody, maxDiagnosticBody),
		})
	}

	return Success(json.RawMessage(respBody))
}

// transportFailure classifies an error returned by the HTTP client.
func transportFailure(err error) *Failure {
	msg := fmt.Sprintf("exception during API request: %v", err)

	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		msg = fmt.Sprintf("request was canceled: %v", err)
	case errors.Is(err, context.DeadlineExceeded):
		msg = fmt.Sprintf("request timeout: %v", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		msg = fmt.Sprintf("request timeout: %v", err)
	}

	return NewFailure(FailureTransport, msg, err)
}
