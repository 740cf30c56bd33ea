package errors

// ErrorCode represents the type of error
type ErrorCode string

const (
	// ErrNotFound - requested resource does not exist
	ErrNotFound ErrorCode = "NOT_FOUND"
	// ErrUnauthorized - no verified identity for the request
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrForbidden - authenticated but not allowed
	ErrForbidden ErrorCode = "FORBIDDEN"
	// ErrDuplicateVote - user already voted in this direction
	ErrDuplicateVote ErrorCode = "DUPLICATE_VOTE"
	// ErrValidation - request field failed validation
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	// ErrBadRequest - malformed request
	ErrBadRequest ErrorCode = "BAD_REQUEST"
	// ErrAlreadyExists - resource conflicts with an existing one
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"
	// ErrAggregationFailure - a database aggregation query failed
	ErrAggregationFailure ErrorCode = "AGGREGATION_FAILURE"
	// ErrRateLimited - too many requests
	ErrRateLimited ErrorCode = "RATE_LIMITED"
	// ErrInternalError - unexpected server failure
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)
