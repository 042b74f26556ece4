package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Document number prefixes
const (
	SeqInbound     = "IB"
	SeqOutbound    = "OB"
	SeqStockMove   = "MV"
	SeqStockTaking = "ST"
	SeqPickingTask = "PK"
	SeqPickingWave = "WV"
)

// SequenceRepository issues human-readable document numbers
// (prefix + yyyymmdd + zero-padded daily counter).
type SequenceRepository interface {
	Next(ctx context.Context, prefix string) (string, error)
}

type redisSequenceRepository struct {
	rdb *redis.Client
}

func NewSequenceRepository(rdb *redis.Client) SequenceRepository {
	return &redisSequenceRepository{rdb: rdb}
}

func (r *redisSequenceRepository) Next(ctx context.Context, prefix string) (string, error) {
	day := time.Now().Format("20060102")
	key := fmt.Sprintf("wms:seq:%s:%s", prefix, day)

	n, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("sequence incr: %w", err)
	}
	// Daily counters only need to survive the day they belong to.
	if n == 1 {
		r.rdb.Expire(ctx, key, 48*time.Hour)
	}

	return fmt.Sprintf("%s%s%04d", prefix, day, n), nil
}
