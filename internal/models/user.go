package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

/** --------------------ENTITIES-------------------- */

// User represents the user entity.
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `json:"-"` // Password is hashed and not returned in responses
	// Avatar and Bio are optional profile fields.
	Avatar string `json:"avatar,omitempty"`
	Bio    string `json:"bio,omitempty"`
	Role   string `gorm:"not null;default:'user'" json:"role"`
	// BannedAt is set by admin moderation. A banned user cannot log in.
	BannedAt *time.Time `json:"bannedAt,omitempty"`

	Rooms []*Room `gorm:"many2many:room_members" json:"rooms,omitempty"`
}

// IsBanned reports whether the user is currently banned.
func (u *User) IsBanned() bool {
	return u.BannedAt != nil
}

/** -------------------- DTOs -------------------- */

// Request
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the request for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" binding:"omitempty,min=3,max=50"`
	Avatar   *string `json:"avatar,omitempty"`
	Bio      *string `json:"bio,omitempty" binding:"omitempty,max=500"`
}

// Response
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginResponse represents the response for a successful login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// NewUserResponse maps a user entity to its public representation.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
