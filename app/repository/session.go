package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedSessionPrefix = "jobtracker:revoked_session:"

// SessionRepository keeps a deny-list of logged out session ids. Entries
// expire together with the session they block.
type SessionRepository struct {
	rdb redis.UniversalClient
}

func NewSessionRepository(rdb redis.UniversalClient) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

func (r *SessionRepository) Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, revokedSessionPrefix+sessionID, 1, ttl).Err()
}

func (r *SessionRepository) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedSessionPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
