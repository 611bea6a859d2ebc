package models

import "time"

// User is an identity record from the user_account table. Accounts are
// created by administrative provisioning (cmd/create-user); this service
// only ever reads them.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
