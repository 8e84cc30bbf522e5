package domain

import "time"

// User is the account record held by the external user directory. The OSID
// is the user-facing unique identifier issued at signup; DateOfBirth and
// PasscodeHash are nil/empty until the relevant onboarding step completes.
type User struct {
	ID              string
	OSID            string
	Username        string
	DateOfBirth     *time.Time
	PasscodeHash    string
	IsVerified      bool
	IsSetupComplete bool
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RiskLevel classifies an audit entry by how strongly the recorded event
// signals an attack.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// AuditLogEntry is one append-only security-event record. Input is already
// redacted or truncated by the producer; the raw secret never reaches the
// sink.
type AuditLogEntry struct {
	ID        string
	UserID    string // empty when the actor could not be resolved
	EventType string
	Input     string
	Result    string
	Reason    string
	RiskLevel RiskLevel
	Metadata  map[string]any
	CreatedAt time.Time
}

// LoginMethod is the factor that produced a session.
type LoginMethod string

const (
	MethodPasscode  LoginMethod = "passcode"
	MethodBiometric LoginMethod = "biometric"
	MethodOTP       LoginMethod = "otp"
)

// SessionCredential is an issued, signed session. It is immutable; a new
// login supersedes it rather than mutating it.
type SessionCredential struct {
	Token           string
	UserID          string
	OSID            string
	Username        string
	IsSetupComplete bool
	IsVerified      bool
	LoginMethod     LoginMethod
	IssuedAt        time.Time
	ExpiresAt       time.Time
}
