package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/networkhq/network-intake/internal/domain"
)

type redisSubmissionRepository struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisSubmissionRepository stores each record as a JSON string under
// <prefix>:submission:<kind>:<email>, created with SETNX.
func NewRedisSubmissionRepository(rdb *redis.Client, prefix string) SubmissionRepository {
	return &redisSubmissionRepository{rdb: rdb, prefix: strings.Trim(prefix, ":")}
}

func (r *redisSubmissionRepository) key(kind domain.SubmissionKind, email string) string {
	return fmt.Sprintf("%s:submission:%s:%s", r.prefix, kind, email)
}

func (r *redisSubmissionRepository) Exists(ctx context.Context, kind domain.SubmissionKind, email string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(kind, email)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *redisSubmissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	ok, err := r.rdb.SetNX(ctx, r.key(sub.Kind, sub.Email), payload, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

func (r *redisSubmissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]domain.Submission, error) {
	kind := "*"
	if filter.Kind != "" {
		kind = string(filter.Kind)
	}
	pattern := fmt.Sprintf("%s:submission:%s:*", r.prefix, kind)

	var keys []string
	iter := r.rdb.Scan(ctx, 0, pattern, 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []domain.Submission{}, nil
	}

	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	items := make([]domain.Submission, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var sub domain.Submission
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			return nil, fmt.Errorf("decode submission: %w", err)
		}
		items = append(items, sub)
	}

	sortNewestFirst(items)
	return page(items, filter), nil
}

func (r *redisSubmissionRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
