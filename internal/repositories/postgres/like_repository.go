package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/korsetof/chatmod/internal/models"
)

var ErrAlreadyLiked = errors.New("already liked")

// LikeRepository persists likes between users.
type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Create records that liker likes target. The (liker, target) pair is
// unique.
func (r *LikeRepository) Create(ctx context.Context, likerID, targetID uint) error {
	like := &models.Like{LikerID: likerID, TargetID: targetID}
	err := r.db.WithContext(ctx).Create(like).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyLiked
		}
		return fmt.Errorf("failed to create like: %w", err)
	}
	return nil
}

// Delete removes the like outright so the pair can be liked again later
// without tripping the unique index.
func (r *LikeRepository) Delete(ctx context.Context, likerID, targetID uint) error {
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("liker_id = ? AND target_id = ?", likerID, targetID).
		Delete(&models.Like{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

// Exists reports whether liker has liked target.
func (r *LikeRepository) Exists(ctx context.Context, likerID, targetID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("liker_id = ? AND target_id = ?", likerID, targetID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return count > 0, nil
}

// MutualMatches returns the ids of users who like userID and are liked back.
func (r *LikeRepository) MutualMatches(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Table("likes AS mine").
		Joins("JOIN likes AS theirs ON theirs.liker_id = mine.target_id AND theirs.target_id = mine.liker_id").
		Where("mine.liker_id = ? AND mine.deleted_at IS NULL AND theirs.deleted_at IS NULL", userID).
		Pluck("mine.target_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return ids, nil
}
