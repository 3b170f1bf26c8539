package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestNoopLoggerCoverageExtra tests all noop logger methods to increase coverage
func TestNoopLoggerCoverageExtra(_ *testing.T) {
	logger := noopLogger{}

	// Test all logger methods - they should not panic
	logger.Debug("test debug message", "key", "value")
	logger.Info("test info message", "key", "value")
	logger.Warn("test warn message", "key", "value")
	logger.Error("test error message", "key", "value")
}

func TestNoopObservabilityDefaults(t *testing.T) {
	opts := defaultServiceOptions()
	ctx, span := opts.tracer.Start(context.Background(), "op")
	if ctx == nil || span == nil {
		t.Fatal("expected noop tracer to return context and span")
	}
	span.End(errors.New("boom"))
	opts.metrics.Observe(ctx, "op", false, time.Second)
	opts.audit.Record(ctx, AuditEntry{Operation: "op"})
	if _, ok := opts.entropy.(CryptoEntropy); !ok {
		t.Fatalf("expected crypto entropy by default, got %T", opts.entropy)
	}
	if _, ok := opts.payments.(ExactPayment); !ok {
		t.Fatalf("expected exact payment by default, got %T", opts.payments)
	}
}
