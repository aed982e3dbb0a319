package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/korsetof/chatmod/internal/models"
)

// MessageRepository persists direct and room messages.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateDirectMessage stores one direct message and returns it with its
// database-assigned id and timestamp.
func (r *MessageRepository) CreateDirectMessage(ctx context.Context, senderID, receiverID uint, content string, mediaType models.MediaType, mediaURL string) (*models.DirectMessage, error) {
	msg := &models.DirectMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		MediaType:  mediaType,
		MediaURL:   mediaURL,
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to create direct message: %w", err)
	}
	return msg, nil
}

// CreateRoomMessage stores one room message and returns it with its
// database-assigned id and timestamp.
func (r *MessageRepository) CreateRoomMessage(ctx context.Context, roomID, senderID uint, content string, mediaType models.MediaType, mediaURL string) (*models.RoomMessage, error) {
	msg := &models.RoomMessage{
		RoomID:    roomID,
		UserID:    senderID,
		Content:   content,
		MediaType: mediaType,
		MediaURL:  mediaURL,
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to create room message: %w", err)
	}
	return msg, nil
}

// RoomMemberIDs returns the current member ids of a room. Called per message
// so membership changes take effect immediately.
func (r *MessageRepository) RoomMemberIDs(ctx context.Context, roomID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Table("room_members").
		Where("room_id = ?", roomID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get room members: %w", err)
	}
	return ids, nil
}

// Conversation returns the direct messages between two users, newest first.
func (r *MessageRepository) Conversation(ctx context.Context, userID, otherID uint, limit int) ([]models.DirectMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var msgs []models.DirectMessage
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return msgs, nil
}

// RoomHistory returns room messages newest first. A non-zero before id acts
// as a cursor for older pages.
func (r *MessageRepository) RoomHistory(ctx context.Context, roomID uint, limit int, before uint) ([]models.RoomMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Where("room_id = ?", roomID)
	if before > 0 {
		q = q.Where("id < ?", before)
	}
	var msgs []models.RoomMessage
	err := q.Order("created_at DESC").Limit(limit).Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get room history: %w", err)
	}
	return msgs, nil
}

// MarkRead marks every direct message from otherID to userID as read.
func (r *MessageRepository) MarkRead(ctx context.Context, userID, otherID uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.DirectMessage{}).
		Where("receiver_id = ? AND sender_id = ? AND read = ?", userID, otherID, false).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

// UnreadCounts returns the number of unread direct messages per sender.
func (r *MessageRepository) UnreadCounts(ctx context.Context, userID uint) (map[uint]int64, error) {
	type row struct {
		SenderID uint
		Count    int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.DirectMessage{}).
		Select("sender_id, COUNT(*) as count").
		Where("receiver_id = ? AND read = ?", userID, false).
		Group("sender_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.SenderID] = r.Count
	}
	return counts, nil
}
