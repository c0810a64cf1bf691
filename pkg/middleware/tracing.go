package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader echoes the server span's trace id to the console
const TraceIDHeader = "X-Trace-ID"

// TracingMiddleware opens a server span per API call, continuing the
// caller's trace when one is propagated. Spans are named after the gin
// route and tagged with the fleet entities the route addresses.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(serviceName)
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		name := c.Request.Method + " " + route
		if route == "" {
			name = c.Request.Method + " unmatched"
		}

		ctx, span := tracer.Start(ctx, name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(append([]attribute.KeyValue{
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
				attribute.String("http.request_id", c.GetString(CorrelationIDKey)),
			}, fleetAttributes(c, route)...)...),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		if span.SpanContext().HasTraceID() {
			c.Header(TraceIDHeader, span.SpanContext().TraceID().String())
		}

		c.Next()

		// Set by AuthMiddleware further down the chain.
		if access := c.GetString("user_access"); access != "" {
			span.SetAttributes(
				attribute.String("enduser.id", c.GetString("user_id")),
				attribute.String("fleet.access", access),
			)
		}

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		for _, err := range c.Errors {
			span.RecordError(err.Err)
		}
		switch {
		case len(c.Errors) > 0:
			span.SetStatus(codes.Error, c.Errors.Last().Error())
		case status >= 500:
			span.SetStatus(codes.Error, "server error")
		default:
			span.SetStatus(codes.Ok, "")
		}
	}
}

// fleetAttributes maps route parameters and period filters to span
// attributes: the :id of vehicle and driver details, the report :kind and
// chart :view, and the analytics period query.
func fleetAttributes(c *gin.Context, route string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if id := c.Param("id"); id != "" {
		switch {
		case strings.Contains(route, "/vehicles/"):
			attrs = append(attrs, attribute.String("vehicle.id", id))
		case strings.Contains(route, "/drivers/"):
			attrs = append(attrs, attribute.String("driver.id", id))
		case strings.Contains(route, "/trips/"):
			attrs = append(attrs, attribute.String("trip.id", id))
		case strings.Contains(route, "/alerts/"):
			attrs = append(attrs, attribute.String("alert.id", id))
		}
	}
	if kind := c.Param("kind"); kind != "" {
		attrs = append(attrs, attribute.String("report.kind", kind))
	}
	if view := c.Param("view"); view != "" {
		attrs = append(attrs, attribute.String("analytics.view", view))
	}
	if period := c.Query("period"); period != "" {
		attrs = append(attrs, attribute.String("analytics.period", period))
	}
	return attrs
}
