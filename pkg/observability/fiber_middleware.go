package observability

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alijeyrad/medstage_backend/pkg/reqctx"
)

const tracerName = "github.com/Alijeyrad/medstage_backend/pkg/observability"

// FiberMiddleware traces each request and records request count and latency.
// Requests whose path starts with one of skip (probes, /metrics) pass through
// untraced. Long-lived event streams get a span but no latency sample.
func FiberMiddleware(skip ...string) fiber.Handler {
	tracer := otel.Tracer(tracerName)
	meter := otel.Meter(tracerName)

	requestCounter, _ := meter.Int64Counter(
		"http_server_request_count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	requestDuration, _ := meter.Float64Histogram(
		"http_server_request_duration_ms",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return func(c fiber.Ctx) error {
		for _, prefix := range skip {
			if strings.HasPrefix(c.Path(), prefix) {
				return c.Next()
			}
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Context(), propagation.HeaderCarrier(c.GetReqHeaders()))

		route := c.Route().Path
		ctx, span := tracer.Start(ctx, c.Method()+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.route", route),
				attribute.String("http.scheme", c.Protocol()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
				attribute.String("http.client_ip", c.IP()),
			),
		)
		defer span.End()

		c.SetContext(ctx)
		if span.SpanContext().HasTraceID() {
			c.Set("X-Trace-Id", span.SpanContext().TraceID().String())
		}

		start := time.Now()
		err := c.Next()
		elapsed := float64(time.Since(start).Microseconds()) / 1000

		// The route is only resolved once the router has run.
		route = c.Route().Path
		statusCode := c.Response().StatusCode()
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", statusCode),
		)
		if a, ok := reqctx.ActorFromContext(c.Context()); ok {
			span.SetAttributes(
				attribute.String("enduser.id", a.UserID.String()),
				attribute.String("enduser.role", a.Role.String()),
			)
		}

		attrs := metric.WithAttributes(
			attribute.String("http.method", c.Method()),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", statusCode),
		)
		requestCounter.Add(ctx, 1, attrs)
		if !strings.HasPrefix(string(c.Response().Header.ContentType()), "text/event-stream") {
			requestDuration.Record(ctx, elapsed, attrs)
		}

		if statusCode >= 500 {
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(statusCode))
			if err != nil {
				span.RecordError(err)
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	}
}
