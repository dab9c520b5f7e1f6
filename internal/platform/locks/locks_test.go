package locks

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/goleak"

	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLocal_SerializesSameKey(t *testing.T) {
	l := NewLocal(nil)
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "p:maren")
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Fatalf("expected exclusive access, saw %d holders", maxInside)
	}
	if n := l.(*local).size(); n != 0 {
		t.Fatalf("idle keys should be forgotten, %d left", n)
	}
}

func TestLocal_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocal(nil)
	release, err := l.Acquire(context.Background(), "p:maren")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	other, err := l.Acquire(ctx, "p:orin")
	if err != nil {
		t.Fatalf("other key blocked: %v", err)
	}
	other()
}

func TestLocal_AcquireHonoursContext(t *testing.T) {
	l := NewLocal(nil)
	release, err := l.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	release()
	release()
	if n := l.(*local).size(); n != 0 {
		t.Fatalf("expected no keys, got %d", n)
	}
}

func TestRedis_ExclusiveAndTokenRelease(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	defer rdb.Close()

	l, err := NewRedis(logger.Nop(), rdb, RedisOptions{TTL: 2 * time.Second, Poll: 10 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	key := "test:" + t.Name()
	release, err := l.Acquire(context.Background(), key)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, key); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second holder should wait, got %v", err)
	}

	release()
	again, err := l.Acquire(context.Background(), key)
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	again()
}
