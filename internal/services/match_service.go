package services

import (
	"context"
	"errors"

	"github.com/korsetof/chatmod/internal/models"
)

var ErrSelfLike = errors.New("cannot like yourself")

// LikeStore is the persistence surface MatchService needs.
type LikeStore interface {
	Create(ctx context.Context, likerID, targetID uint) error
	Delete(ctx context.Context, likerID, targetID uint) error
	Exists(ctx context.Context, likerID, targetID uint) (bool, error)
	MutualMatches(ctx context.Context, userID uint) ([]uint, error)
}

// MatchService implements likes and mutual matching.
type MatchService struct {
	likes LikeStore
}

func NewMatchService(likes LikeStore) *MatchService {
	return &MatchService{likes: likes}
}

// Like records a like and reports whether it completed a mutual match.
func (s *MatchService) Like(ctx context.Context, likerID, targetID uint) (*models.LikeResponse, error) {
	if likerID == targetID {
		return nil, ErrSelfLike
	}
	if err := s.likes.Create(ctx, likerID, targetID); err != nil {
		return nil, err
	}
	matched, err := s.likes.Exists(ctx, targetID, likerID)
	if err != nil {
		return nil, err
	}
	return &models.LikeResponse{TargetID: targetID, Matched: matched}, nil
}

// Unlike removes a like; removing a non-existent like is a no-op.
func (s *MatchService) Unlike(ctx context.Context, likerID, targetID uint) error {
	return s.likes.Delete(ctx, likerID, targetID)
}

// Matches returns the ids of users in a mutual like with userID.
func (s *MatchService) Matches(ctx context.Context, userID uint) ([]uint, error) {
	return s.likes.MutualMatches(ctx, userID)
}
