package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// requestSpan hands the caller's otel span to gocb as the parent of the
// spans it creates for a request.
type requestSpan struct {
	span trace.Span
}

var (
	_ gocb.RequestSpan          = requestSpan{}
	_ gocb.OtelAwareRequestSpan = requestSpan{}
)

func parentSpan(ctx context.Context) gocb.RequestSpan {
	return requestSpan{span: trace.SpanFromContext(ctx)}
}

func (s requestSpan) End() { s.span.End() }

func (s requestSpan) Context() gocb.RequestSpanContext { return s.span.SpanContext() }

func (s requestSpan) AddEvent(name string, timestamp time.Time) {
	s.span.AddEvent(name, trace.WithTimestamp(timestamp))
}

func (s requestSpan) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case uint32:
		s.span.SetAttributes(attribute.Int64(key, int64(v)))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprint(v)))
	}
}

func (s requestSpan) Wrapped() trace.Span { return s.span }
