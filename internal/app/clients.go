package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/levelup-backend/internal/observability"
	"github.com/yungbote/levelup-backend/internal/platform/gcp"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
	"github.com/yungbote/levelup-backend/internal/realtime/bus"
)

// Clients are the external connections. Redis fields stay nil when no
// address is configured and the process runs single-replica.
type Clients struct {
	Redis  *goredis.Client
	SSEBus bus.Bus
	Bucket gcp.BucketService
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		b, err := bus.NewRedisBus(log, metrics, bus.RedisOptions{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		})
		if err != nil {
			return out, fmt.Errorf("init redis SSE bus: %w", err)
		}
		out.SSEBus = b
		out.Redis = goredis.NewClient(&goredis.Options{
			Addr:        addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: 5 * time.Second,
		})
	} else {
		log.Warn("REDIS_ADDR not set; SSE fan-out and leaderboard cache stay in process")
	}

	bucket, err := gcp.NewBucketService(ctx, log, gcp.ObjectStorageConfig{
		Mode:             gcp.ObjectStorageMode(cfg.Storage.Mode),
		EmulatorHost:     cfg.Storage.EmulatorHost,
		PublicBaseURL:    cfg.Storage.PublicBaseURL,
		CredentialsJSON:  cfg.Storage.CredentialsJSON,
		AvatarBucket:     cfg.Storage.AvatarBucket,
		SubmissionBucket: cfg.Storage.SubmissionBucket,
	})
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init bucket service: %w", err)
	}
	out.Bucket = bucket
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
