package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mesavista/storefront-core/internal/core/domain"
)

const (
	connectTimeout = 5 * time.Second
	opTimeout      = 3 * time.Second
)

// Connect initialises a Redis client and validates connectivity with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Redis is a Redis-backed SessionStore. Records are namespaced per browser
// session and expire together with the runtime's idle TTL, so abandoned
// sessions clean themselves up.
type Redis struct {
	client *redis.Client
	ns     string
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedis returns a Redis store for one namespace. A ttl <= 0 means records
// never expire.
func NewRedis(client *redis.Client, namespace string, ttl time.Duration, log zerolog.Logger) *Redis {
	return &Redis{client: client, ns: namespace, ttl: ttl, log: log}
}

func (r *Redis) key(record string) string {
	return fmt.Sprintf("storefront:session:%s:%s", r.ns, record)
}

func (r *Redis) SaveSession(sessionKey string, user *domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.key(keySessionKey), sessionKey, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session key: %w", err)
	}
	if user == nil {
		return r.client.Del(ctx, r.key(keyUserData)).Err()
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(keyUserData), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save user snapshot: %w", err)
	}
	return nil
}

func (r *Redis) LoadSession() (string, *domain.User, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	sessionKey, err := r.client.Get(ctx, r.key(keySessionKey)).Result()
	if err != nil || sessionKey == "" {
		return "", nil, false
	}

	rawUser, err := r.client.Get(ctx, r.key(keyUserData)).Bytes()
	if err != nil && err != redis.Nil {
		r.log.Warn().Err(err).Msg("user snapshot unreadable, treating session as absent")
		return "", nil, false
	}
	user, ok := decodeUser(rawUser)
	if !ok {
		_ = r.ClearSession()
		return "", nil, false
	}
	return sessionKey, user, true
}

func (r *Redis) ClearSession() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.client.Del(ctx, r.key(keySessionKey), r.key(keyUserData)).Err()
}

func (r *Redis) SaveCart(lines []domain.CartLine) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if len(lines) == 0 {
		return r.client.Del(ctx, r.key(keyCart)).Err()
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(keyCart), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *Redis) LoadCart() []domain.CartLine {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	raw, err := r.client.Get(ctx, r.key(keyCart)).Bytes()
	if err != nil {
		return nil
	}
	lines, ok := decodeLines(raw)
	if !ok {
		delCtx, cancelDel := context.WithTimeout(context.Background(), opTimeout)
		defer cancelDel()
		_ = r.client.Del(delCtx, r.key(keyCart)).Err()
		return nil
	}
	return lines
}
