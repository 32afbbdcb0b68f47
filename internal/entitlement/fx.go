package entitlement

import (
	"github.com/stylefold/wardrobe/internal/entitlement/adapty"
	"github.com/stylefold/wardrobe/internal/entitlement/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("entitlement",
	fx.Provide(func(c *adapty.Client) domain.Resolver { return c }),
	fx.Provide(adapty.New),
)
