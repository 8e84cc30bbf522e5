package avv

import "encoding/json"

// biometricPayload is the enrollment material produced by the platform
// credential API. Signature verification happens in the platform library;
// this check only scores completeness of the handed-over payload.
type biometricPayload struct {
	CredentialID      string `json:"credentialId"`
	PublicKey         string `json:"publicKey"`
	AuthenticatorData string `json:"authenticatorData"`
}

const (
	biometricPassAt = 80
	biometricWarnAt = 60
)

// scoreBiometricQuality scores presence of the three required enrollment
// fields. A payload that is not valid JSON is a malformed request, reported
// via ok=false.
func scoreBiometricQuality(input string) (score int, missing []string, ok bool) {
	var p biometricPayload
	if err := json.Unmarshal([]byte(input), &p); err != nil {
		return 0, nil, false
	}

	if p.CredentialID != "" {
		score += 30
	} else {
		missing = append(missing, "credentialId")
	}
	if p.PublicKey != "" {
		score += 40
	} else {
		missing = append(missing, "publicKey")
	}
	if p.AuthenticatorData != "" {
		score += 30
	} else {
		missing = append(missing, "authenticatorData")
	}

	return score, missing, true
}
