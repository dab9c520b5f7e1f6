package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/inkforge-backend/internal/platform/logger"
	"github.com/yungbote/inkforge-backend/internal/platform/neo4jdb"
	"github.com/yungbote/inkforge-backend/internal/platform/openai"
)

type Clients struct {
	OpenAI openai.Client
	Redis  goredis.UniversalClient
	Neo4j  *neo4jdb.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Openai
	oa, err := openai.NewClient(log, cfg.OpenAI)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	// Redis
	var rdb goredis.UniversalClient
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:     addr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("ping redis: %w", err)
		}
	}

	// Neo4j
	graphClient, err := neo4jdb.New(log, cfg.Neo4j)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}

	return Clients{OpenAI: oa, Redis: rdb, Neo4j: graphClient}, nil
}

func (c Clients) Close(ctx context.Context) {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	_ = c.Neo4j.Close(ctx)
}
