package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	fieldCredential        = "credential"
	fieldRefreshCredential = "refresh_credential"
)

// RedisStore persists the record as a two-field Redis hash written by a
// single HSET, so both fields change atomically on the server. Suitable for
// clients whose durable store is shared infrastructure rather than the local
// filesystem.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore describes the newredisstore operation and its observable behavior.
//
// NewRedisStore may return an error when input validation, dependency calls, or security checks fail.
// NewRedisStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewRedisStore(client *redis.Client, keyPrefix string) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil redis client", ErrUnavailable)
	}
	if keyPrefix == "" {
		keyPrefix = "sessionkit"
	}
	return &RedisStore{
		client: client,
		key:    keyPrefix + ":session",
	}, nil
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisStore) Save(ctx context.Context, record Record) error {
	if record.partial() {
		return ErrPartialRecord
	}

	err := s.client.HSet(ctx, s.key,
		fieldCredential, record.Credential,
		fieldRefreshCredential, record.RefreshCredential,
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Load describes the load operation and its observable behavior.
//
// Load may return an error when input validation, dependency calls, or security checks fail.
// Load does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisStore) Load(ctx context.Context) (Record, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return Record{}, nil
	}

	record := Record{
		Credential:        fields[fieldCredential],
		RefreshCredential: fields[fieldRefreshCredential],
	}
	if record.partial() {
		return Record{}, ErrCorrupt
	}

	return record, nil
}

// Clear describes the clear operation and its observable behavior.
//
// Clear may return an error when input validation, dependency calls, or security checks fail.
// Clear does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
