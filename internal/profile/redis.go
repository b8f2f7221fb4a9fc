package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agenthands/blockvoice/internal/core/challenge"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to url and verifies the connection. A zero ttl keeps
// profiles forever.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func key(userID string) string {
	return fmt.Sprintf("profile:%s", userID)
}

// progressKey holds one hash per user, keyed by challenge id.
func progressKey(userID string) string {
	return fmt.Sprintf("progress:%s", userID)
}

func (r *RedisStore) Get(ctx context.Context, userID string) (Profile, error) {
	data, err := r.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return p, nil
}

func (r *RedisStore) Put(ctx context.Context, p Profile) error {
	p.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := r.client.Set(ctx, key(p.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set profile: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, key(userID), progressKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

func (r *RedisStore) Progress(ctx context.Context, userID string) ([]challenge.Progress, error) {
	fields, err := r.client.HGetAll(ctx, progressKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	out := make([]challenge.Progress, 0, len(fields))
	for id, data := range fields {
		var p challenge.Progress
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal progress for %s: %w", id, err)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChallengeID < out[j].ChallengeID })
	return out, nil
}

// SaveProgress merges under WATCH so concurrent sessions of one user cannot
// lose a completion.
func (r *RedisStore) SaveProgress(ctx context.Context, p challenge.Progress) (challenge.Progress, error) {
	k := progressKey(p.UserID)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		prev, err := tx.HGet(ctx, k, p.ChallengeID).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var old challenge.Progress
			if err := json.Unmarshal(prev, &old); err != nil {
				return fmt.Errorf("failed to unmarshal progress: %w", err)
			}
			p = challenge.Merge(old, p)
		}
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal progress: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, k, p.ChallengeID, data)
			if r.ttl > 0 {
				pipe.Expire(ctx, k, r.ttl)
			}
			return nil
		})
		return err
	}, k)
	if err != nil {
		return challenge.Progress{}, fmt.Errorf("failed to save progress: %w", err)
	}
	return p, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
