package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aora/backend"

// Span represents a logical unit of work tied to a request trace. It wraps an
// OpenTelemetry span and a logger annotated with the span's identifiers.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
	span   trace.Span
}

// StartSpan derives a child span from the provided context, enriching the logger
// with tracing metadata. It returns the derived context and the span handle.
// When no tracer provider is installed the identifiers are generated locally.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, otelSpan := otel.Tracer(tracerName).Start(ctx, name)
	logger := FromContext(ctx)
	parentSpanID := SpanIDFromContext(ctx)

	traceID, spanID := "", ""
	if sc := otelSpan.SpanContext(); sc.IsValid() {
		traceID = sc.TraceID().String()
		spanID = sc.SpanID().String()
	} else {
		traceID = TraceIDFromContext(ctx)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		spanID = uuid.NewString()
	}

	if TraceIDFromContext(ctx) != traceID {
		ctx = WithTraceID(ctx, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
	}

	logger = logger.With(
		slog.String("span_id", spanID),
		slog.String("span_name", name),
	)
	if parentSpanID != "" {
		logger = logger.With(slog.String("parent_span_id", parentSpanID))
	}

	ctx = WithLogger(ctx, logger)
	ctx = WithSpanID(ctx, spanID)

	return ctx, &Span{
		name:   name,
		logger: logger,
		start:  time.Now(),
		span:   otelSpan,
	}
}

// Logger returns the span-scoped logger.
func (s *Span) Logger() *slog.Logger {
	if s == nil {
		return slog.Default()
	}
	return s.logger
}

// Fail records err on the span. It is a no-op for a nil error.
func (s *Span) Fail(err error) {
	if s == nil || err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// End finalizes the span and emits a completion log entry.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.span.End()
	s.logger.Debug("span completed", slog.Duration("duration", time.Since(s.start)))
}
