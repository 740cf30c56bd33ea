package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DomainEvents provides helper methods for tracing domain operations beyond
// the HTTP spans otelgin already records (votes, badge grants, board
// computations).
type DomainEvents struct {
	tracer trace.Tracer
}

// NewDomainEvents creates a new domain events tracer
func NewDomainEvents() *DomainEvents {
	return &DomainEvents{
		tracer: otel.Tracer("domain-events"),
	}
}

// TraceCastVote creates a span for a vote on a meme
func (de *DomainEvents) TraceCastVote(ctx context.Context, memeID string, direction string) (context.Context, trace.Span) {
	ctx, span := de.tracer.Start(ctx, "vote.cast",
		trace.WithAttributes(
			attribute.String("meme.id", memeID),
			attribute.String("vote.direction", direction),
		),
	)
	return ctx, span
}

// TraceMemePublish creates a span for meme creation, including the image
// upload.
func (de *DomainEvents) TraceMemePublish(ctx context.Context, creatorID string, imageSizeBytes int64) (context.Context, trace.Span) {
	ctx, span := de.tracer.Start(ctx, "meme.publish",
		trace.WithAttributes(
			attribute.String("creator.id", creatorID),
			attribute.Int64("image.size_bytes", imageSizeBytes),
		),
	)
	return ctx, span
}

// TraceBadgeGrant creates a span for a badge grant attempt
func (de *DomainEvents) TraceBadgeGrant(ctx context.Context, userID string, badge string) (context.Context, trace.Span) {
	ctx, span := de.tracer.Start(ctx, "badge.grant",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("badge.name", badge),
		),
	)
	return ctx, span
}

// TraceLeaderboard creates a span for leaderboard computation
func (de *DomainEvents) TraceLeaderboard(ctx context.Context, frame string, limit int) (context.Context, trace.Span) {
	ctx, span := de.tracer.Start(ctx, "leaderboard.compute",
		trace.WithAttributes(
			attribute.String("leaderboard.time_frame", frame),
			attribute.Int("leaderboard.limit", limit),
		),
	)
	return ctx, span
}

// RecordError marks the span failed and records the error
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
}

var globalDomainEvents *DomainEvents

// GetDomainEvents returns the global domain events tracer
func GetDomainEvents() *DomainEvents {
	if globalDomainEvents == nil {
		globalDomainEvents = NewDomainEvents()
	}
	return globalDomainEvents
}
