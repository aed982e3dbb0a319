package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onlineUsersKey   = "online_users"
	userStatusKeyFmt = "user:%d:status"
	statusTTL        = 5 * time.Minute

	rateLimitKeyFmt = "ratelimit:%s:%d"
)

// PresenceService tracks who is online in Redis. It backs the relay's
// presence hook and the REST presence endpoint.
type PresenceService struct {
	rdb *redis.Client
}

func NewPresenceService(rdb *redis.Client) *PresenceService {
	return &PresenceService{rdb: rdb}
}

// SetUserOnline adds the user to the online set and refreshes their status
// hash.
func (s *PresenceService) SetUserOnline(ctx context.Context, userID uint) error {
	key := fmt.Sprintf(userStatusKeyFmt, userID)
	pipe := s.rdb.Pipeline()
	pipe.SAdd(ctx, onlineUsersKey, userID)
	pipe.HSet(ctx, key, "status", "online", "last_seen", time.Now().Unix())
	pipe.Expire(ctx, key, statusTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set user online: %w", err)
	}
	return nil
}

// SetUserOffline removes the user from the online set and records the last
// seen time.
func (s *PresenceService) SetUserOffline(ctx context.Context, userID uint) error {
	key := fmt.Sprintf(userStatusKeyFmt, userID)
	pipe := s.rdb.Pipeline()
	pipe.SRem(ctx, onlineUsersKey, userID)
	pipe.HSet(ctx, key, "status", "offline", "last_seen", time.Now().Unix())
	pipe.Expire(ctx, key, statusTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set user offline: %w", err)
	}
	return nil
}

// IsUserOnline reports membership in the online set.
func (s *PresenceService) IsUserOnline(ctx context.Context, userID uint) (bool, error) {
	online, err := s.rdb.SIsMember(ctx, onlineUsersKey, userID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check presence: %w", err)
	}
	return online, nil
}

// OnlineUserIDs returns every user currently in the online set.
func (s *PresenceService) OnlineUserIDs(ctx context.Context) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, onlineUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list online users: %w", err)
	}
	return ids, nil
}

// CheckRateLimit counts one hit for (action, user) inside a fixed window and
// reports whether the user is still under the limit.
func (s *PresenceService) CheckRateLimit(ctx context.Context, action string, userID uint, limit int64, window time.Duration) (bool, error) {
	key := fmt.Sprintf(rateLimitKeyFmt, action, userID)
	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}
	if count == 1 {
		if err := s.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	return count <= limit, nil
}
