package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore implements SessionStore using Redis. Suitable for
// distributed deployments where multiple instances serve the same
// browsing session.
type RedisSessionStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisSessionStore creates a new Redis-based session store whose
// keys expire after ttl
func NewRedisSessionStore(cfg RedisConfig, ttl time.Duration) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSessionStore{
		client:    client,
		keyPrefix: "tracking:session:",
		ttl:       ttl,
	}, nil
}

// NewRedisSessionStoreWithClient creates a store with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisSessionStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisSessionStore {
	if keyPrefix == "" {
		keyPrefix = "tracking:session:"
	}
	return &RedisSessionStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// CheckoutMarker returns the stored marker for a session, or nil
func (s *RedisSessionStore) CheckoutMarker(ctx context.Context, sessionID string) (*CheckoutMarker, error) {
	raw, err := s.client.Get(ctx, s.checkoutKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkout marker: %w", err)
	}

	var marker CheckoutMarker
	if err := json.Unmarshal([]byte(raw), &marker); err != nil {
		return nil, fmt.Errorf("failed to decode checkout marker: %w", err)
	}
	return &marker, nil
}

// SetCheckoutMarker stores or replaces the session's checkout marker
func (s *RedisSessionStore) SetCheckoutMarker(ctx context.Context, sessionID string, marker CheckoutMarker) error {
	encoded, err := json.Marshal(marker)
	if err != nil {
		return fmt.Errorf("failed to encode checkout marker: %w", err)
	}
	if err := s.client.Set(ctx, s.checkoutKey(sessionID), encoded, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store checkout marker: %w", err)
	}
	return nil
}

// PurchaseCompleted reports the session's purchase latch
func (s *RedisSessionStore) PurchaseCompleted(ctx context.Context, sessionID string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.purchasedKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read purchase flag: %w", err)
	}
	return exists > 0, nil
}

// MarkPurchaseCompleted latches the session's purchase flag
func (s *RedisSessionStore) MarkPurchaseCompleted(ctx context.Context, sessionID string) error {
	if err := s.client.Set(ctx, s.purchasedKey(sessionID), "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set purchase flag: %w", err)
	}
	return nil
}

// ClaimOrder atomically claims an order id using SETNX; true only on the
// first claim
func (s *RedisSessionStore) ClaimOrder(ctx context.Context, orderID string) (bool, error) {
	claimed, err := s.client.SetNX(ctx, s.keyPrefix+"order:"+orderID, "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim order: %w", err)
	}
	return claimed, nil
}

// Close closes the Redis client
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

func (s *RedisSessionStore) checkoutKey(sessionID string) string {
	return s.keyPrefix + sessionID + ":checkout"
}

func (s *RedisSessionStore) purchasedKey(sessionID string) string {
	return s.keyPrefix + sessionID + ":purchased"
}

// Ensure RedisSessionStore implements SessionStore
var _ SessionStore = (*RedisSessionStore)(nil)
