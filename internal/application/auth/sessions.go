package auth

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// UserSessionsPrefix keys the set of session ids a user is signed in with.
const UserSessionsPrefix = "user_sessions:"

// DestroyUserSessions deletes every session of a user plus the tracking set and returns how many
// session keys were removed. sessionPrefix is the session key prefix used by the session store.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, sessionPrefix, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	key := UserSessionsPrefix + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	pipe := rdb.TxPipeline()
	for _, sid := range sessionIDs {
		pipe.Del(ctx, sessionPrefix+sid)
	}
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(sessionIDs), nil
}
