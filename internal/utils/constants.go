package utils

const (
	AppName = "happyshaa"

	StatusSuccess = "success"
	StatusError   = "error"
)

// Error codes carried in the response envelope.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyMonitoring   = "ALREADY_MONITORING"
	CodeNotMonitoring       = "NOT_MONITORING"
	CodeNoPendingAlert      = "NO_PENDING_ALERT"
	CodeDispatchInProgress  = "DISPATCH_IN_PROGRESS"
	CodeNoEmergencyContacts = "NO_EMERGENCY_CONTACTS"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeInternal            = "INTERNAL_ERROR"
)

const (
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrValidationFailed = "validation failed"
	ErrRateLimited      = "too many requests"
)
