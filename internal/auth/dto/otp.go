package dto

type RequestOTPInput struct {
	Identifier string `json:"identifier"`
	IPAddress  string `json:"-"`
}

type VerifyOTPInput struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}
