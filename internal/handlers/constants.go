package handlers

const (
	ErrInvalidFormData     = "Invalid form data"
	ErrNoActiveSession     = "No active training session"
	ErrInternalServerError = "Internal server error"

	// DefaultMemorizeSeconds is the countdown used when no slider value is sent
	DefaultMemorizeSeconds = 10
)
