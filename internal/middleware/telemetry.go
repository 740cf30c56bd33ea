package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware returns the handlers that trace HTTP requests using
// OpenTelemetry: the official otelgin middleware plus an enrichment pass.
// The enrichment handler runs inside the request span, after the rest of
// the chain, so it sees attributes set by auth and the handler.
func TracingMiddleware(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName),
		enrichSpan,
	}
}

func enrichSpan(c *gin.Context) {
	c.Next()

	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}

	// Add user context if authenticated
	if userID, exists := c.Get("user_id"); exists {
		if userIDStr, ok := userID.(string); ok {
			span.SetAttributes(attribute.String("user.id", userIDStr))
		}
	}

	if frame := c.Query("timeFrame"); frame != "" {
		span.SetAttributes(attribute.String("query.time_frame", frame))
	}
	if tag := c.Query("tag"); tag != "" {
		span.SetAttributes(attribute.String("query.tag", tag))
	}
	if limit := c.Query("limit"); limit != "" {
		span.SetAttributes(attribute.String("query.limit", limit))
	}

	// Record Gin errors as span events
	for _, ginErr := range c.Errors {
		if ginErr.Err != nil {
			span.RecordError(ginErr.Err, trace.WithStackTrace(true))
			span.SetStatus(codes.Error, ginErr.Error())
		}
	}
}
