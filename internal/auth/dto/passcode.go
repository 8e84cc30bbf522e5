package dto

type CreatePasscodeInput struct {
	Passcode string `json:"passcode"`
}

type VerifyPasscodeInput struct {
	Identifier string `json:"identifier"`
	Passcode   string `json:"passcode"`
	IPAddress  string `json:"-"`
	UserAgent  string `json:"-"`
}
