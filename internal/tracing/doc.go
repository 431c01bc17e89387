/*
Package tracing provides lightweight request tracing for debugging
production issues.

# Overview

This package follows OpenTelemetry concepts with a minimal implementation
tailored to a single-service deployment: spans are collected through a
buffered channel and exported as structured log entries.

# Features

- Trace context propagation via HTTP headers
- Span creation with parent-child relationships
- Automatic trace ID generation (prefixed ULIDs)
- Gin middleware for automatic instrumentation
- Low overhead with buffered span collection

# Usage

	tracer := tracing.New("pageforge", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

	span.SetTag("key", "value")

# Trace Format

Traces use HTTP headers for propagation:
- X-Trace-ID: Unique identifier for the entire request flow
- X-Span-ID: Identifier for the current operation
*/
package tracing
