package models

import "time"

// Role is the closed set of user roles. Anything else is rejected at the
// boundary.
type Role string

const (
	RoleUser   Role = "user"
	RoleWriter Role = "writer"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleWriter, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password,omitempty"` // bcrypt hash, stripped from API responses
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Sanitized returns a copy safe to hand to callers outside the directory.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

type Post struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"authorId"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Published   bool      `json:"published"`
	Views       int       `json:"views"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Approved  bool      `json:"approved"`
}
