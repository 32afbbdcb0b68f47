package main

import (
	"github.com/stylefold/wardrobe/internal/config"
	"github.com/stylefold/wardrobe/internal/entitlement"
	"github.com/stylefold/wardrobe/internal/observability"
	"github.com/stylefold/wardrobe/internal/promptcache"
	"github.com/stylefold/wardrobe/internal/quota"
	"github.com/stylefold/wardrobe/internal/reconcile"
	"github.com/stylefold/wardrobe/internal/server"
	"github.com/stylefold/wardrobe/internal/stylist"
	"github.com/stylefold/wardrobe/internal/userrecord"
	"github.com/stylefold/wardrobe/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		db.Module,

		// Functional domains
		entitlement.Module,
		userrecord.Module,
		quota.Module,
		promptcache.Module,
		stylist.Module,
		reconcile.Module,

		server.Module,
	)
	app.Run()
}
