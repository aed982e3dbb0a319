package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */

// Room is a chat room. Membership lives in the room_members join table and is
// consulted fresh at fan-out time; it is never cached by the relay.
type Room struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
	OwnerID     uint   `gorm:"not null" json:"ownerId"`

	Members []*User `gorm:"many2many:room_members" json:"members,omitempty"`
}

/** -------------------- DTOs -------------------- */

type CreateRoomRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

type UpdateRoomRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=500"`
}

type RoomResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     uint      `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type RoomDetailResponse struct {
	RoomResponse
	Members []UserResponse `json:"members"`
}

// NewRoomResponse maps a room entity to its public representation.
func NewRoomResponse(r *Room) RoomResponse {
	return RoomResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		OwnerID:     r.OwnerID,
		CreatedAt:   r.CreatedAt,
	}
}
