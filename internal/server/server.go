package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stylefold/wardrobe/internal/config"
	"github.com/stylefold/wardrobe/internal/observability"
	obslogger "github.com/stylefold/wardrobe/internal/observability/logger"
	"github.com/stylefold/wardrobe/internal/reconcile"
	stylistdomain "github.com/stylefold/wardrobe/internal/stylist/domain"
	userrecorddomain "github.com/stylefold/wardrobe/internal/userrecord/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Provide(NewOperationMetrics),
	fx.Invoke(func(m *OperationMetrics) error { return m.Register(prometheus.DefaultRegisterer) }),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Params struct {
	fx.In

	Engine     *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	Stylist    stylistdomain.Service
	Users      userrecorddomain.Service
	Reconciler *reconcile.Service
	Metrics    *OperationMetrics
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	stylistSvc stylistdomain.Service
	userSvc    userrecorddomain.Service
	reconciler *reconcile.Service
	metrics    *OperationMetrics
}

func NewServer(p Params) *Server {
	return &Server{
		engine:     p.Engine,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		stylistSvc: p.Stylist,
		userSvc:    p.Users,
		reconciler: p.Reconciler,
		metrics:    p.Metrics,
	}
}

func (s *Server) RegisterRoutes() {
	v1 := s.engine.Group("/v1")
	v1.POST("/analyze", s.AnalyzeClothing)
	v1.POST("/tryon", s.VirtualTryOn)
	v1.POST("/suggestion", s.OutfitSuggestion)

	users := v1.Group("/users")
	users.POST("/sync", s.SyncUser)
	users.POST("/info", s.GetUserInfo)
	users.POST("/initialize", s.InitializeUser)

	s.engine.POST("/webhooks/adapty", s.HandleAdaptyWebhook)
}

// Engine exposes the underlying router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
