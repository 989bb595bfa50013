package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeInvalidPayload   = "invalid_payload"
	ErrCodeValidationFailed = "validation_failed"

	// Queue / match errors
	ErrCodeJoinFailed      = "join_failed"
	ErrCodeAlreadyQueued   = "already_queued"
	ErrCodeAlreadyMatched  = "already_matched"
	ErrCodeNoActiveMatch   = "no_active_match"
	ErrCodeMatchMismatch   = "match_mismatch"
	ErrCodeInvalidMatchID  = "invalid_match_id"
	ErrCodeInvalidGuess    = "invalid_guess"
	ErrCodeUnknownLanguage = "unknown_language"

	// AI errors
	ErrCodeAIUnavailable = "ai_unavailable"
	ErrCodeAIReplyFailed = "ai_reply_failed"

	// WebSocket errors
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeConnectionError    = "connection_error"

	// Admin settings errors
	ErrCodeSettingsFetchFailed  = "settings_fetch_failed"
	ErrCodeSettingsUpdateFailed = "settings_update_failed"

	// Server errors
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternalError    = "internal_error"
	ErrCodeUpstreamError    = "upstream_error"
)
