// Package memehub provides the MemeHub API server.
//
// This package contains the module root. The actual implementation is
// organized into subpackages:
//
//   - internal/handlers: HTTP request handlers for all API endpoints
//   - internal/models: Data models and database schemas
//   - internal/auth: Authentication (native password and Google OAuth)
//   - internal/votes: The vote ledger and meme counter maintenance
//   - internal/badges: Badge threshold evaluation and idempotent grants
//   - internal/leaderboard: Time-windowed creator leaderboards and stats
//   - internal/storage: File storage (S3) operations
//   - internal/database: Database connection and migrations
//   - internal/cache: Redis connection pooling
//   - internal/middleware: HTTP middleware (rate limiting, logging, metrics)
//   - internal/telemetry: OpenTelemetry tracing (OTLP export, domain spans)
//   - internal/seed: Demo data generation
//
// See the individual package documentation for detailed API reference.
package memehub
