package reconcile

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/stylefold/wardrobe/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("reconcile",
	fx.Provide(newRedisClient),
	fx.Provide(NewLocker),
	fx.Provide(New),
)

func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
