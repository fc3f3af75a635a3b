package core

// Reason codes for domain errors surfaced to clients.
const (
	ErrCodeInvalidToken    = "invalid_token"
	ErrCodeAuthTimeout     = "auth_timeout"
	ErrCodeUnauthenticated = "unauthenticated"
	ErrCodeNotAMember      = "not_a_member"
	ErrCodeRoomNotFound    = "room_not_found"
	ErrCodeNotInRoom       = "not_in_room"
	ErrCodeEmptyBody       = "empty_body"
	ErrCodeBadRequest      = "bad_request"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeInternal        = "internal_error"
)

// Scopes name the failing operation in error events.
const (
	ScopeAuth  = "auth"
	ScopeJoin  = "join"
	ScopeLeave = "leave"
	ScopeSend  = "send"
)

// CoreError wraps a reason code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
