// internal/consumer/runner.go
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/solatis/pactkeeper/internal/core/config"
	"github.com/solatis/pactkeeper/internal/pact"
	"github.com/solatis/pactkeeper/internal/types"
	"github.com/solatis/pactkeeper/internal/verification"
)

// TestFunc is the consumer test body. It talks to the mock server at s.URL().
type TestFunc func(ctx context.Context, s *MockServer) error

// Recorder persists the outcome of a run.
type Recorder interface {
	Record(ctx context.Context, run types.RunRecord) error
}

type runOptions struct {
	writer     pact.Writer
	recorder   Recorder
	serverOpts []MockServerOption
}

// RunOption configures RunConsumerTest.
type RunOption func(*runOptions)

// WithWriter replaces the default directory writer. A nil writer disables writing.
func WithWriter(w pact.Writer) RunOption {
	return func(o *runOptions) { o.writer = w }
}

// WithRecorder records every run, whatever its result.
func WithRecorder(r Recorder) RunOption {
	return func(o *runOptions) { o.recorder = r }
}

// WithServerOptions passes options through to the mock server.
func WithServerOptions(opts ...MockServerOption) RunOption {
	return func(o *runOptions) { o.serverOpts = append(o.serverOpts, opts...) }
}

// RunConsumerTest runs test against a mock server for p and returns the
// verification result. The server is listening before test starts and is
// stopped before any comparison happens. On Ok the pact is written.
func RunConsumerTest(ctx context.Context, p *pact.Pact, cfg config.MockProviderConfig, test TestFunc, opts ...RunOption) verification.Result {
	o := runOptions{writer: pact.DirWriter{Dir: cfg.PactDir}}
	for _, opt := range opts {
		opt(&o)
	}

	started := time.Now().UTC()
	result := run(ctx, p, cfg, test, o)

	slog.Info("consumer: test finished",
		"consumer", p.Consumer.Name,
		"provider", p.Provider.Name,
		"outcome", verification.Kind(result),
		"duration", time.Since(started))

	if o.recorder != nil {
		record := types.RunRecord{
			ID:          types.NewRunID(),
			Consumer:    p.Consumer.Name,
			Provider:    p.Provider.Name,
			Outcome:     verification.Kind(result),
			Description: result.Description(),
			Mismatches:  verification.CountMismatches(result),
			StartedAt:   started,
			FinishedAt:  time.Now().UTC(),
		}
		if err := o.recorder.Record(context.WithoutCancel(ctx), record); err != nil {
			slog.Warn("consumer: failed to record run", "run_id", record.ID, "error", err)
		}
	}
	return result
}

func run(ctx context.Context, p *pact.Pact, cfg config.MockProviderConfig, test TestFunc, o runOptions) verification.Result {
	server := NewMockServer(p, cfg, o.serverOpts...)
	if err := server.Start(); err != nil {
		return verification.Error{Cause: err, MockServerState: verification.Ok{}}
	}

	testErr := runTest(ctx, server, test)

	// Stop with a fresh context so a cancelled test context still drains.
	if err := server.Stop(context.WithoutCancel(ctx)); err != nil {
		slog.Warn("consumer: mock server shutdown", "error", err)
	}

	state := server.Result()
	if testErr != nil {
		return verification.Error{Cause: testErr, MockServerState: state}
	}
	if !verification.IsOk(state) {
		return state
	}

	if o.writer != nil {
		if err := o.writer.WritePact(p, cfg.PactVersion); err != nil {
			return verification.Error{Cause: err, MockServerState: verification.Ok{}}
		}
	}
	return verification.Ok{}
}

// runTest calls test, converting a panic into an error.
func runTest(ctx context.Context, s *MockServer, test TestFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("test function panicked: %w", e)
				return
			}
			err = fmt.Errorf("test function panicked: %v", r)
		}
	}()
	if test == nil {
		return errors.New("no test function given")
	}
	return test(ctx, s)
}
