package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rango/models"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	sessionPrefix      = "session:"
	userSessionsPrefix = "user_sessions:"
	// free-form session values live next to the fixed fields in the same hash
	valuePrefix = "v:"
)

// OpenRedisPool initializes a Redis connection pool
func OpenRedisPool(ctx context.Context, dsn string) (*redis.Client, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis dsn: %w", err)
	}

	// Configure connection pooling
	opt.PoolSize = 100
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err = client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func sessionKey(token string) string {
	return sessionPrefix + token
}

func userSessionsKey(userID string) string {
	return userSessionsPrefix + userID
}

// StoreSession saves a session in Redis
func StoreSession(ctx context.Context, client *redis.Client, session *models.Session, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	fields := map[string]any{
		"user_id":       session.UserID,
		"username":      session.Username,
		"created_at":    session.CreatedAt,
		"expires_at":    session.ExpiresAt,
		"last_activity": session.LastActivity,
		"csrf_token":    session.CSRFToken,
		"user_agent":    session.UserAgent,
		"ip_address":    session.IPAddress,
	}
	for k, v := range session.Values {
		fields[valuePrefix+k] = v
	}

	key := sessionKey(session.SessionToken)
	pipe := client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)
	if session.UserID != "" {
		// Add to the user's session index
		pipe.SAdd(ctx, userSessionsKey(session.UserID), key)
		pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// GetSession retrieves session details from Redis. Expired or unknown
// tokens return ErrSessionNotFound.
func GetSession(ctx context.Context, client *redis.Client, sessionToken string, now time.Time) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	data, err := client.HGetAll(ctx, sessionKey(sessionToken)).Result()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}

	expiresAt, err := time.Parse(time.RFC3339, data["expires_at"])
	if err != nil || !now.Before(expiresAt) {
		return nil, ErrSessionNotFound
	}

	session := &models.Session{
		SessionToken: sessionToken,
		UserID:       data["user_id"],
		Username:     data["username"],
		CreatedAt:    data["created_at"],
		ExpiresAt:    data["expires_at"],
		LastActivity: data["last_activity"],
		CSRFToken:    data["csrf_token"],
		UserAgent:    data["user_agent"],
		IPAddress:    data["ip_address"],
		Values:       models.SessionValues{},
	}
	for k, v := range data {
		if name, ok := strings.CutPrefix(k, valuePrefix); ok {
			session.Values[name] = v
		}
	}

	return session, nil
}

// saveValuesScript writes the fields only while the session hash exists, so
// a session deleted mid-request is not recreated without a TTL.
var saveValuesScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

// SaveSessionValues writes the session's values back and bumps its last
// activity. The session TTL is left as is. A session that no longer exists
// in Redis yields ErrSessionNotFound and is not recreated.
func SaveSessionValues(ctx context.Context, client *redis.Client, session *models.Session, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	session.LastActivity = now.UTC().Format(time.RFC3339)
	args := []any{"last_activity", session.LastActivity}
	for k, v := range session.Values {
		args = append(args, valuePrefix+k, v)
	}

	saved, err := saveValuesScript.Run(ctx, client, []string{sessionKey(session.SessionToken)}, args...).Int()
	if err != nil {
		return fmt.Errorf("save session values: %w", err)
	}
	if saved == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes a single session and its reference in the user index
func DeleteSession(ctx context.Context, client *redis.Client, sessionToken string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	key := sessionKey(sessionToken)
	userID, err := client.HGet(ctx, key, "user_id").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete session: %w", err)
	}

	pipe := client.TxPipeline()
	if userID != "" {
		pipe.SRem(ctx, userSessionsKey(userID), key)
	}
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	zap.L().Debug("session deleted", zap.String("user_id", userID))
	return nil
}

// CountUserSessions returns the number of live sessions indexed for a user.
func CountUserSessions(ctx context.Context, client *redis.Client, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := client.SCard(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("count user sessions: %w", err)
	}
	return n, nil
}
