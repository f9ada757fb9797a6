// Package cache holds the Redis-backed star tallies.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/strove-app/strove/internal/config"
)

const starKeyPrefix = "postings:stars:"

// StarSets stores one Redis set of profile ids per posting.
type StarSets struct {
	rdb *redis.Client
}

func NewStarSets(ctx context.Context, cfg config.RedisConfig) (*StarSets, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &StarSets{rdb: rdb}, nil
}

func (s *StarSets) Close() error { return s.rdb.Close() }

func (s *StarSets) Add(ctx context.Context, postingID uint, profileID uuid.UUID) error {
	return s.rdb.SAdd(ctx, StarKey(postingID), profileID.String()).Err()
}

func (s *StarSets) Remove(ctx context.Context, postingID uint, profileID uuid.UUID) error {
	return s.rdb.SRem(ctx, StarKey(postingID), profileID.String()).Err()
}

// Counts walks every star set with SCAN and returns its cardinality.
func (s *StarSets) Counts(ctx context.Context) (map[uint]int64, error) {
	counts := map[uint]int64{}
	iter := s.rdb.Scan(ctx, 0, starKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		id, ok := ParseStarKey(key)
		if !ok {
			continue
		}
		n, err := s.rdb.SCard(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("scard %s: %w", key, err)
		}
		counts[id] = n
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan star keys: %w", err)
	}
	return counts, nil
}

func StarKey(postingID uint) string {
	return starKeyPrefix + strconv.FormatUint(uint64(postingID), 10)
}

func ParseStarKey(key string) (uint, bool) {
	raw, ok := strings.CutPrefix(key, starKeyPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
