package models

import "time"

// Address belongs to exactly one user and is written once, at signup.
type Address struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Street    string    `json:"street"`
	Town      string    `json:"town"`
	State     string    `json:"state"`
	Country   string    `json:"country"`
	ZipCode   string    `json:"zipCode"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
