// Package avv implements the Adaptive Verification & Validation risk engine:
// a fixed set of deterministic checks over login secrets, biometric enrollment
// payloads, and connection metadata, each producing a PASS/FAIL/WARNING
// verdict with an optional 0-100 score.
package avv

// CheckType identifies one of the supported verification checks.
type CheckType string

const (
	CheckStrength         CheckType = "STRENGTH"
	CheckPersonalData     CheckType = "PERSONAL_DATA"
	CheckBiometricQuality CheckType = "BIOMETRIC_QUALITY"
	CheckDeviceTrust      CheckType = "DEVICE_TRUST"
	CheckBehavioral       CheckType = "BEHAVIORAL"
)

// Secret reports whether inputs of this check type carry a login secret and
// must therefore be redacted in audit entries.
func (t CheckType) Secret() bool {
	return t == CheckStrength || t == CheckPersonalData
}

// Result is the outcome class of a single check.
type Result string

const (
	ResultPass    Result = "PASS"
	ResultFail    Result = "FAIL"
	ResultWarning Result = "WARNING"
)

// Context carries the auxiliary fields a check may consume. All fields are
// optional; checks that require one degrade to WARNING when it is absent.
type Context struct {
	DateOfBirth string `json:"dateOfBirth,omitempty"` // ISO date, YYYY-MM-DD
	UserAgent   string `json:"userAgent,omitempty"`
	IPAddress   string `json:"ipAddress,omitempty"`
	InputTimeMs *int   `json:"inputTimeMs,omitempty"`
}

// CheckRequest is a single evaluation request. It is immutable and not
// persisted beyond the audit entry written for its verdict.
type CheckRequest struct {
	Type    CheckType
	Input   string
	Context Context
	UserID  string // optional, recorded in the audit entry when known
}

// Verdict is the structured outcome of one check.
type Verdict struct {
	Result   Result         `json:"result"`
	Reason   string         `json:"reason,omitempty"`
	Score    *int           `json:"score,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// resultForScore maps an additive score onto the shared PASS/WARNING/FAIL
// ladder used by the heuristic checks.
func resultForScore(score, passAt, warnAt int) Result {
	switch {
	case score >= passAt:
		return ResultPass
	case score >= warnAt:
		return ResultWarning
	default:
		return ResultFail
	}
}

func intPtr(v int) *int { return &v }
