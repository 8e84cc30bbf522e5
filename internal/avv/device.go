package avv

import (
	"net"
	"strings"
)

// Heuristic thresholds shared by the device-trust and behavioural checks.
// These are weak signals carried over for behavioural parity, not
// cryptographically meaningful measurements.
const (
	heuristicPassAt = 70
	heuristicWarnAt = 50

	maxTypingTimeMs = 30000
)

// scoreDeviceTrust scores connection metadata, starting from full trust and
// deducting for automation markers and implausible client shapes. The
// loopback deduction only applies in production, where a loopback origin
// means the client address was lost or spoofed.
func scoreDeviceTrust(userAgent, ipAddress, env string) (int, []string) {
	score := 100
	var flags []string

	ua := strings.ToLower(userAgent)
	if strings.Contains(ua, "bot") || strings.Contains(ua, "crawler") || len(userAgent) < 20 {
		score -= 30
		flags = append(flags, "suspicious_user_agent")
	}

	if ip := net.ParseIP(ipAddress); ip != nil && ip.IsLoopback() && env == "production" {
		score -= 20
		flags = append(flags, "loopback_origin")
	}

	if len(userAgent) < 50 {
		score -= 10
		flags = append(flags, "short_user_agent")
	}

	return score, flags
}

// scoreBehavioral scores the shape and timing of a submitted input from a
// neutral baseline.
func scoreBehavioral(input string, inputTimeMs *int) (int, []string) {
	score := 50
	var flags []string

	if n := len(input); n >= 6 && n <= 20 {
		score += 20
	} else {
		flags = append(flags, "unusual_input_length")
	}

	if containsDigit(input) && containsLetter(input) {
		score += 15
	}

	if inputTimeMs != nil && *inputTimeMs < maxTypingTimeMs {
		score += 15
	} else if inputTimeMs == nil {
		flags = append(flags, "no_timing_data")
	}

	return score, flags
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func containsLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
