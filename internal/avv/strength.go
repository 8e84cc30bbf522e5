package avv

import (
	"errors"

	"github.com/onestepid/onestep-auth/pkg/constant"
)

// ErrFormat is returned when a candidate secret is not exactly six ASCII
// digits. Format violations are a request error, not a low score.
var ErrFormat = errors.New("passcode must be exactly 6 digits")

// StrengthReport is the result of scoring a candidate passcode.
type StrengthReport struct {
	Score    int
	Feedback []string
	IsWeak   bool
}

const weakThreshold = 60

// denyList holds passcodes common enough to be guessed outright.
var denyList = map[string]struct{}{
	"000000": {},
	"111111": {},
	"123456": {},
	"654321": {},
	"123123": {},
	"456456": {},
}

// ScoreStrength evaluates a six-digit passcode additively: length (+20),
// absence of obvious patterns (+30), digit variety (+25/+15/0), and absence
// from the deny-list (+25). Scores below 60 are weak. The function is pure.
func ScoreStrength(secret string) (StrengthReport, error) {
	if !isSixDigits(secret) {
		return StrengthReport{}, ErrFormat
	}

	score := 0
	var feedback []string

	if len(secret) >= 6 {
		score += 20
	}

	if isObviousPattern(secret) {
		feedback = append(feedback, "Avoid obvious patterns like 111111 or 123456")
	} else {
		score += 30
	}

	switch d := distinctDigits(secret); {
	case d >= 4:
		score += 25
	case d >= 2:
		score += 15
	default:
		feedback = append(feedback, "Use different digits for better security")
	}

	if _, denied := denyList[secret]; denied {
		feedback = append(feedback, "This passcode is too common and easily guessed")
	} else {
		score += 25
	}

	if score > 100 {
		score = 100
	}

	return StrengthReport{
		Score:    score,
		Feedback: feedback,
		IsWeak:   score < weakThreshold,
	}, nil
}

func isSixDigits(s string) bool {
	if len(s) != constant.PasscodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isObviousPattern matches all-identical digits and the straight ascending
// (012345..456789) and descending (987654..432109, wrapping at zero) runs.
func isObviousPattern(s string) bool {
	identical, asc, desc := true, true, true
	for i := 1; i < len(s); i++ {
		prev, cur := int(s[i-1]-'0'), int(s[i]-'0')
		if cur != prev {
			identical = false
		}
		if cur != prev+1 {
			asc = false
		}
		if cur != (prev+9)%10 {
			desc = false
		}
	}
	// descents starting below 4 wrap outside the guessable range
	if desc && s[0]-'0' < 4 {
		desc = false
	}
	return identical || asc || desc
}

func distinctDigits(s string) int {
	var seen [10]bool
	n := 0
	for i := 0; i < len(s); i++ {
		d := s[i] - '0'
		if !seen[d] {
			seen[d] = true
			n++
		}
	}
	return n
}
