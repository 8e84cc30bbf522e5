package dto

import "github.com/onestepid/onestep-auth/internal/auth/domain"

type SessionUserOutput struct {
	OSID            string `json:"osId"`
	Username        string `json:"username"`
	IsSetupComplete bool   `json:"isSetupComplete"`
}

type SessionOutput struct {
	SessionToken string            `json:"sessionToken"`
	User         SessionUserOutput `json:"user"`
}

func NewSessionOutput(cred *domain.SessionCredential) *SessionOutput {
	return &SessionOutput{
		SessionToken: cred.Token,
		User: SessionUserOutput{
			OSID:            cred.OSID,
			Username:        cred.Username,
			IsSetupComplete: cred.IsSetupComplete,
		},
	}
}
