package stylist

import (
	"github.com/stylefold/wardrobe/internal/stylist/fal"
	"go.uber.org/fx"
)

var Module = fx.Module("stylist",
	fx.Provide(fal.New),
	fx.Provide(NewModelPicker),
	fx.Provide(New),
)
