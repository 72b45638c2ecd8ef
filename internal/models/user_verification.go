package models

// VerifyRequest carries the emailed one-time code.
type VerifyRequest struct {
	OTP string `json:"otp" binding:"required,otp"`
}
