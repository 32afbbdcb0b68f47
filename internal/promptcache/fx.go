package promptcache

import (
	"github.com/stylefold/wardrobe/internal/config"
	"github.com/stylefold/wardrobe/internal/promptcache/remotecfg"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("promptcache",
	fx.Provide(remotecfg.New),
	fx.Provide(newCache),
)

func newCache(cfg config.Config, client *remotecfg.Client, log *zap.Logger) *Cache {
	return New(client, log, WithTTL(cfg.PromptCacheTTL))
}
