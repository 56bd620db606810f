package model

import "time"

// User represents an application user record as stored in the `users`
// table.  PasswordHash is never serialised.
//
// Fields:
//  ID           – opaque UUID assigned at registration.
//  Name         – display name.
//  Email        – unique (exact match) email address.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation, immutable.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser is the view of a user returned to clients.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public strips everything but id, name and email.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
