package models

import (
	"encoding/json"
	"strings"
)

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	FirstName   string `json:"firstName" binding:"required,min=2,max=100"`
	LastName    string `json:"lastName" binding:"required,min=2,max=100"`
	Email       string `json:"email" binding:"required,email,max=254"`
	Password    string `json:"password" binding:"required,strongpassword"`
	DateOfBirth string `json:"dateOfBirth" binding:"required,pastdate"`
	Phone       string `json:"phone" binding:"required,min=5,max=32"`
	Street      string `json:"street" binding:"required,min=3,max=200"`
	Town        string `json:"town" binding:"required,min=2,max=100"`
	Country     string `json:"country" binding:"required,max=64"`
	State       string `json:"state" binding:"max=64"`
	ZipCode     string `json:"zipCode" binding:"required,min=3,max=16"`
}

// UnmarshalJSON trims surrounding whitespace from every field except the
// password, so length rules apply to what is stored.
func (r *SignupRequest) UnmarshalJSON(data []byte) error {
	type plain SignupRequest
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = SignupRequest(v)
	for _, f := range []*string{
		&r.FirstName, &r.LastName, &r.Email, &r.DateOfBirth, &r.Phone,
		&r.Street, &r.Town, &r.Country, &r.State, &r.ZipCode,
	} {
		*f = strings.TrimSpace(*f)
	}
	return nil
}
