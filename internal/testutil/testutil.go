// Package testutil 以 dockertest 啟動整合測試用的 Postgres 與 Redis
package testutil

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"campus-events/config"
	"campus-events/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

const containerTTL = 300 // seconds

type Env struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
	Cfg   *config.Config
}

func newPool() (*dockertest.Pool, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("connect to docker: %w", err)
	}
	if err := pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("ping docker: %w", err)
	}
	pool.MaxWait = 90 * time.Second
	return pool, nil
}

func run(pool *dockertest.Pool, opts *dockertest.RunOptions) (*dockertest.Resource, error) {
	resource, err := pool.RunWithOptions(opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", opts.Repository, err)
	}
	_ = resource.Expire(containerTTL)
	return resource, nil
}

// Setup 啟動 Postgres 與 Redis 並跑完 migration；
// 設定 SKIP_INTEGRATION 或 docker 無法連線時回傳錯誤，呼叫端應略過測試
func Setup() (*Env, func(), error) {
	if os.Getenv("SKIP_INTEGRATION") != "" {
		return nil, nil, fmt.Errorf("SKIP_INTEGRATION is set")
	}

	pool, err := newPool()
	if err != nil {
		return nil, nil, err
	}

	cfg := config.LoadTestConfig()

	pg, err := run(pool, &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=" + cfg.Database.User,
			"POSTGRES_PASSWORD=" + cfg.Database.Password,
			"POSTGRES_DB=" + cfg.Database.DBName,
		},
	})
	if err != nil {
		return nil, nil, err
	}

	rd, err := run(pool, &dockertest.RunOptions{Repository: "redis", Tag: "7-alpine"})
	if err != nil {
		_ = pool.Purge(pg)
		return nil, nil, err
	}

	purge := func() {
		if err := pool.Purge(pg); err != nil {
			log.Printf("failed to purge postgres: %v", err)
		}
		if err := pool.Purge(rd); err != nil {
			log.Printf("failed to purge redis: %v", err)
		}
	}

	cfg.Database.Host = "localhost"
	cfg.Database.Port = pg.GetPort("5432/tcp")
	cfg.Redis.Host = "localhost"
	cfg.Redis.Port = rd.GetPort("6379/tcp")

	var db *pgxpool.Pool
	if err := pool.Retry(func() error {
		var err error
		db, err = database.InitDatabase(&cfg.Database)
		return err
	}); err != nil {
		purge()
		return nil, nil, fmt.Errorf("postgres not ready: %w", err)
	}

	if err := database.Migrate(context.Background(), db); err != nil {
		db.Close()
		purge()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	var rdb *redis.Client
	if err := pool.Retry(func() error {
		var err error
		rdb, err = database.InitRedis(&cfg.Redis)
		return err
	}); err != nil {
		db.Close()
		purge()
		return nil, nil, fmt.Errorf("redis not ready: %w", err)
	}

	log.Println("Test containers ready")

	cleanup := func() {
		db.Close()
		rdb.Close()
		purge()
		log.Println("Test containers removed")
	}

	return &Env{DB: db, Redis: rdb, Cfg: cfg}, cleanup, nil
}

// Truncate 清空所有資料表，保留 schema
func Truncate(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
		TRUNCATE attendance_audit_log, attendances, payments, tickets,
			participations, merch_variants, capacity_ledger, events, users
		RESTART IDENTITY CASCADE
	`)
	return err
}
