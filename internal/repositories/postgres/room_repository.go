package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/korsetof/chatmod/internal/models"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomRepository persists rooms and their membership.
type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a room and adds the owner as its first member.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}
		owner := models.User{Model: gorm.Model{ID: room.OwnerID}}
		if err := tx.Model(room).Association("Members").Append(&owner); err != nil {
			return fmt.Errorf("failed to add owner to room: %w", err)
		}
		return nil
	})
}

func (r *RoomRepository) FindByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).Preload("Members").First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	if err := r.db.WithContext(ctx).Save(room).Error; err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	return nil
}

// Delete removes the room, its membership rows and its messages.
func (r *RoomRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", id).Delete(&models.RoomMessage{}).Error; err != nil {
			return fmt.Errorf("failed to delete room messages: %w", err)
		}
		if err := tx.Exec("DELETE FROM room_members WHERE room_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete room members: %w", err)
		}
		res := tx.Delete(&models.Room{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete room: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRoomNotFound
		}
		return nil
	})
}

func (r *RoomRepository) AddMember(ctx context.Context, roomID, userID uint) error {
	room := models.Room{Model: gorm.Model{ID: roomID}}
	member := models.User{Model: gorm.Model{ID: userID}}
	if err := r.db.WithContext(ctx).Model(&room).Association("Members").Append(&member); err != nil {
		return fmt.Errorf("failed to add room member: %w", err)
	}
	return nil
}

func (r *RoomRepository) RemoveMember(ctx context.Context, roomID, userID uint) error {
	room := models.Room{Model: gorm.Model{ID: roomID}}
	member := models.User{Model: gorm.Model{ID: userID}}
	if err := r.db.WithContext(ctx).Model(&room).Association("Members").Delete(&member); err != nil {
		return fmt.Errorf("failed to remove room member: %w", err)
	}
	return nil
}

// IsMember reports whether the user currently belongs to the room.
func (r *RoomRepository) IsMember(ctx context.Context, roomID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("room_members").
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check room membership: %w", err)
	}
	return count > 0, nil
}

// RoomsForUser returns every room the user belongs to.
func (r *RoomRepository) RoomsForUser(ctx context.Context, userID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Joins("JOIN room_members ON room_members.room_id = rooms.id").
		Where("room_members.user_id = ?", userID).
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}
