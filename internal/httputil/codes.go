package httputil

// Machine-readable error codes returned alongside error messages so
// clients can branch without parsing human-readable text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"

	CodeEmailRequired      = "EMAIL_REQUIRED"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodePasswordRequired   = "PASSWORD_REQUIRED"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	CodeNameRequired       = "NAME_REQUIRED"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"

	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeInvalidSession     = "INVALID_SESSION"
	CodeForbidden          = "FORBIDDEN"

	CodeInvalidActionToken = "INVALID_OR_EXPIRED_TOKEN"

	CodeDuplicateApplication = "DUPLICATE_APPLICATION"
	CodeInvalidStatus        = "INVALID_STATUS"
)
