package tracing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Fleet span attributes
const (
	CollectionKey   = attribute.Key("fleet.collection")
	RecordCountKey  = attribute.Key("fleet.records")
	ViewKey         = attribute.Key("analytics.view")
	PeriodKindKey   = attribute.Key("analytics.period")
	ReportKindKey   = attribute.Key("report.kind")
	ReportFormatKey = attribute.Key("report.format")
	VehicleIDKey    = attribute.Key("vehicle.id")
	DriverIDKey     = attribute.Key("driver.id")
)

// Redis span attributes
const (
	RedisCommandKey = attribute.Key("redis.command")
	RedisKeyKey     = attribute.Key("redis.key")
)

// TraceBackendFetch wraps one collection read against the fleet backend.
// fn returns the number of decoded records.
func TraceBackendFetch(ctx context.Context, tracerName, collection string, fn func(context.Context) (int, error)) error {
	ctx, span := StartSpan(ctx, tracerName, "fleet.fetch "+collection,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(CollectionKey.String(collection)),
	)
	defer span.End()

	n, err := fn(ctx)
	span.SetAttributes(RecordCountKey.Int(n))
	finish(span, err)
	return err
}

// TraceRedisCommand wraps a Redis command with tracing
func TraceRedisCommand(ctx context.Context, tracerName, command, key string, fn func() error) error {
	_, span := StartSpan(ctx, tracerName, fmt.Sprintf("redis.%s", command),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			RedisCommandKey.String(command),
			RedisKeyKey.String(key),
		),
	)
	defer span.End()

	err := fn()
	if errors.Is(err, redis.Nil) {
		finish(span, nil)
	} else {
		finish(span, err)
	}
	return err
}

// TraceCompute wraps a pure analytics computation (view, chart or report layout).
func TraceCompute(ctx context.Context, tracerName, operation string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	span.SetAttributes(attribute.Int64("duration_ms", time.Since(start).Milliseconds()))
	finish(span, err)
	return err
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
