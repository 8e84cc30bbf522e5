package dto

import "github.com/onestepid/onestep-auth/internal/avv"

type CheckInput struct {
	CheckType string      `json:"checkType"`
	Input     string      `json:"input"`
	Context   avv.Context `json:"context"`
	UserID    string      `json:"-"`
}
