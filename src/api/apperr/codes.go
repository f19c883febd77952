package apperr

type Code string

const (
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeConflict         Code = "CONFLICT"
	CodeDeadlineExceeded Code = "DEADLINE_EXCEEDED"
	CodeUnavailable      Code = "UNAVAILABLE"
	CodeTooManyRequests  Code = "RESOURCE_EXHAUSTED"
	CodeInternal         Code = "INTERNAL"
)
