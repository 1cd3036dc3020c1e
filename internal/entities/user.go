package entities

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Seller       bool
	CreatedAt    time.Time
}
