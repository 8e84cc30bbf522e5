package constant

const (
	// PasscodeLength is the fixed length of the numeric login secret.
	PasscodeLength = 6

	// RedactedInput replaces secret-bearing check inputs in audit entries.
	RedactedInput = "[REDACTED]"

	// MaxAuditInputLen caps non-secret check inputs stored in audit entries.
	MaxAuditInputLen = 100

	// SessionCookieName is the cookie carrying the signed session token.
	SessionCookieName = "onestep_session"

	// MaxOTPAttempts caps failed verification attempts per issued code.
	MaxOTPAttempts = 3
)
