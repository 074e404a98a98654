package handlers

// API error codes returned in JSON { "error": "...", "code": "..." } for stable client handling.
const (
	ErrCodePasswordIncorrect     = "password_incorrect"
	ErrCodeMaxAttempts           = "max_attempts"
	ErrCodeAdminLocked           = "admin_locked"
	ErrCodeUnverifiedEmail       = "unverified_email"
	ErrCodeUnverifiedPhone       = "unverified_phone"
	ErrCodeInvalidOneTimeCode    = "invalid_one_time_code"
	ErrCodeCodeEmpty             = "code_empty"
	ErrCodeCodeIncorrect         = "code_incorrect"
	ErrCodeNoCodeGenerated       = "no_code_generated"
	ErrCodeAddressTaken          = "address_taken"
	ErrCodeInvalidAddress        = "invalid_address"
	ErrCodeSecondFactorNotSetup  = "second_factor_not_setup"
	ErrCodeSecondFactorConfirmed = "second_factor_confirmed"
	ErrCodeUnauthorized          = "unauthorized"
	ErrCodeInvalidRequest        = "invalid_request"
	ErrCodeNotFound              = "not_found"
	ErrCodeConflict              = "conflict"
	ErrCodeForbidden             = "forbidden"
	ErrCodeInternal              = "internal_error"
)
