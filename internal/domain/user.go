package domain

import (
	"time"
)

const defaultAvatar = "https://icon-library.com/images/anonymous-avatar-icon/anonymous-avatar-icon-25.jpg"

// User represents a user entity.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Bio          string    `json:"bio,omitempty"`
	ProfilePic   string    `json:"profile_pic,omitempty"`
	Contacts     []string  `json:"contacts,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	FirstName string `json:"firstname" binding:"required,min=1,max=50"`
	LastName  string `json:"lastname" binding:"max=50"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest represents a refresh token request.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateUserRequest represents a profile update request. Email and password
// changes go through dedicated flows and are not accepted here.
type UpdateUserRequest struct {
	Name       *string `json:"name"`
	Bio        *string `json:"bio"`
	ProfilePic *string `json:"profile_pic"`
}

// SearchUsersRequest represents a user search request.
type SearchUsersRequest struct {
	Search string `form:"search"`
}

// AuthResponse represents authentication response with tokens.
type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    int64        `json:"expires_at"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Bio        string    `json:"bio,omitempty"`
	ProfilePic string    `json:"profile_pic,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToResponse converts User to UserResponse.
func (u *User) ToResponse() UserResponse {
	pic := u.ProfilePic
	if pic == "" {
		pic = defaultAvatar
	}
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Bio:        u.Bio,
		ProfilePic: pic,
		CreatedAt:  u.CreatedAt,
	}
}

// Ref returns the compact user reference used on the wire.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, ProfilePic: u.ProfilePic}
}
