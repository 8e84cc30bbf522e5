package avv

import (
	"fmt"
	"strings"
	"time"
)

// dobCandidates derives the substrings a user is likely to reuse from their
// date of birth: day/month permutations, short-year combinations, and the
// full year.
func dobCandidates(dob time.Time) []string {
	day := fmt.Sprintf("%02d", dob.Day())
	month := fmt.Sprintf("%02d", int(dob.Month()))
	year := fmt.Sprintf("%04d", dob.Year())
	shortYear := year[2:]

	return []string{
		day + month,
		month + day,
		day + month + shortYear,
		month + day + shortYear,
		shortYear + month + day,
		day + shortYear,
		month + shortYear,
		year,
	}
}

// IsRelatedToDOB reports whether the secret embeds a derivable fragment of
// the date of birth. Containment is checked in both directions so that a
// secret shorter than a candidate still matches. Pure function.
func IsRelatedToDOB(secret string, dob time.Time) bool {
	for _, c := range dobCandidates(dob) {
		if strings.Contains(secret, c) || strings.Contains(c, secret) {
			return true
		}
	}
	return false
}
