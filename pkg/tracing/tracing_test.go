package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useRecorder 安装内存Recorder作为全局Provider，测试结束后恢复
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	prev := otel.GetTracerProvider()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return rec
}

func TestInitTracer(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	// gRPC连接是惰性的，没有Collector也能初始化成功
	shutdown, err := InitTracer("library-test", "localhost:4317")
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	_, span := StartSpan(context.Background(), "test", "Op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	_ = shutdown(context.Background())
}

func TestStartSpan_ParentChild(t *testing.T) {
	rec := useRecorder(t)

	ctx, root := StartSpan(context.Background(), "book", "BorrowBook")
	_, child := StartSpan(ctx, "book", "MarkBorrowed")
	child.End()
	root.End()

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "MarkBorrowed", spans[0].Name())
	assert.Equal(t, spans[1].SpanContext().TraceID(), spans[0].SpanContext().TraceID())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestEndSpan(t *testing.T) {
	rec := useRecorder(t)

	_, ok := StartSpan(context.Background(), "book", "ok")
	EndSpan(ok, nil)
	_, failed := StartSpan(context.Background(), "book", "failed")
	EndSpan(failed, errors.New("book unavailable"))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "book unavailable", spans[1].Status().Description)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}

func TestExtractIDs(t *testing.T) {
	assert.Empty(t, ExtractTraceID(context.Background()))
	assert.Empty(t, ExtractSpanID(context.Background()))

	useRecorder(t)
	ctx, span := StartSpan(context.Background(), "test", "Op")
	defer span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), ExtractTraceID(ctx))
	assert.Equal(t, span.SpanContext().SpanID().String(), ExtractSpanID(ctx))
	assert.Len(t, ExtractTraceID(ctx), 32)
}
