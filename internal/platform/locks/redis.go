package locks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/inkforge-backend/internal/observability"
	"github.com/yungbote/inkforge-backend/internal/platform/httpx"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

const keyPrefix = "inkforge:lock:"

// releaseScript deletes the key only while it still holds our token, so an expired lock
// taken over by another holder is never released by us.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisOptions struct {
	TTL  time.Duration
	Poll time.Duration
}

type redisLocker struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	ttl     time.Duration
	poll    time.Duration
	metrics *observability.Metrics
}

// NewRedis returns a Locker backed by SET NX PX. The TTL bounds how long a crashed
// holder can block others.
func NewRedis(log *logger.Logger, rdb goredis.UniversalClient, opts RedisOptions, metrics *observability.Metrics) (Locker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.Poll <= 0 {
		opts.Poll = 50 * time.Millisecond
	}
	return &redisLocker{
		log:     log.With("service", "RedisLocker"),
		rdb:     rdb,
		ttl:     opts.TTL,
		poll:    opts.Poll,
		metrics: metrics,
	}, nil
}

func (r *redisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	start := time.Now()
	redisKey := keyPrefix + key
	token := uuid.NewString()
	for {
		ok, err := r.rdb.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if err := httpx.SleepContext(ctx, httpx.JitterSleep(r.poll)); err != nil {
			return nil, err
		}
	}
	r.metrics.ObserveLockWait("redis", time.Since(start))

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release must survive the caller's context being cancelled.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			n, err := releaseScript.Run(ctx, r.rdb, []string{redisKey}, token).Int()
			if err != nil && !errors.Is(err, goredis.Nil) {
				r.log.Warn("Redis lock release failed", "key", key, "error", err)
				return
			}
			if n == 0 {
				r.log.Warn("Redis lock expired before release", "key", key, "ttl", r.ttl.String())
			}
		})
	}, nil
}
