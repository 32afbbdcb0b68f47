package userrecord

import (
	"github.com/stylefold/wardrobe/internal/userrecord/domain"
	"github.com/stylefold/wardrobe/internal/userrecord/repository"
	"github.com/stylefold/wardrobe/internal/userrecord/service"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("userrecord",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Invoke(migrate),
)

func migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(&domain.UserRecord{})
}
