package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
	"github.com/smallbiznis/roomwatt/internal/account/session"
	assignmentdomain "github.com/smallbiznis/roomwatt/internal/assignment/domain"
	"github.com/smallbiznis/roomwatt/internal/authorization"
	"github.com/smallbiznis/roomwatt/internal/config"
	devicedomain "github.com/smallbiznis/roomwatt/internal/device/domain"
	energydomain "github.com/smallbiznis/roomwatt/internal/energy/domain"
	"github.com/smallbiznis/roomwatt/internal/observability"
	obsmiddleware "github.com/smallbiznis/roomwatt/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/roomwatt/internal/observability/metrics"
	obstracing "github.com/smallbiznis/roomwatt/internal/observability/tracing"
	"github.com/smallbiznis/roomwatt/internal/ratelimit"
	roomdomain "github.com/smallbiznis/roomwatt/internal/room/domain"
	usagedomain "github.com/smallbiznis/roomwatt/internal/usage/domain"
	"github.com/smallbiznis/roomwatt/internal/usage/liveevents"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsCfg.RequestLogConfig(classifyErrorForLog)))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server failed", zap.Error(err))
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

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	sessions      *session.Manager
	accountSvc    accountdomain.Service
	authzSvc      authorization.Service
	roomSvc       roomdomain.Service
	deviceSvc     devicedomain.Service
	usageSvc      usagedomain.Service
	energySvc     energydomain.Service
	assignmentSvc assignmentdomain.Service
	liveReadings  *liveevents.Hub
	obsMetrics    *obsmetrics.Metrics
	readingLimit  *ratelimit.ReadingsLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	Sessions      *session.Manager
	AccountSvc    accountdomain.Service
	AuthzSvc      authorization.Service
	RoomSvc       roomdomain.Service
	DeviceSvc     devicedomain.Service
	UsageSvc      usagedomain.Service
	EnergySvc     energydomain.Service
	AssignmentSvc assignmentdomain.Service

	LiveReadings    *liveevents.Hub            `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics        `optional:"true"`
	ReadingsLimiter *ratelimit.ReadingsLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		sessions:      p.Sessions,
		accountSvc:    p.AccountSvc,
		authzSvc:      p.AuthzSvc,
		roomSvc:       p.RoomSvc,
		deviceSvc:     p.DeviceSvc,
		usageSvc:      p.UsageSvc,
		energySvc:     p.EnergySvc,
		assignmentSvc: p.AssignmentSvc,
		liveReadings:  p.LiveReadings,
		obsMetrics:    p.ObsMetrics,
		readingLimit:  p.ReadingsLimiter,
	}

	svc.registerUserRoutes()
	svc.registerAPIRoutes()
	if !svc.cfg.IsProduction() {
		svc.registerTestRoutes()
	}
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerUserRoutes() {
	users := s.engine.Group("/users", s.Authenticate())

	users.POST("/login", s.Login)
	users.POST("/logout", s.Logout)
	users.GET("/me", s.AuthRequired(), s.Me)

	users.GET("", s.authorize(authorization.ObjectUser, authorization.ActionManage), s.ListUsers)
	users.POST("", s.authorize(authorization.ObjectUser, authorization.ActionManage), s.CreateUser)
	users.PUT("/:userId", s.authorize(authorization.ObjectUser, authorization.ActionManage), s.UpdateUser)
	users.DELETE("/:userId", s.authorize(authorization.ObjectUser, authorization.ActionManage), s.DeleteUser)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.Authenticate())

	// -------- Rooms --------
	api.GET("/rooms", s.authorize(authorization.ObjectRoom, authorization.ActionView), s.ListRooms)
	api.POST("/rooms", s.authorize(authorization.ObjectRoom, authorization.ActionManage), s.CreateRoom)
	api.GET("/rooms/:roomId", s.authorize(authorization.ObjectRoom, authorization.ActionView), s.GetRoomByID)

	// -------- Devices --------
	api.GET("/rooms/:roomId/devices", s.authorize(authorization.ObjectDevice, authorization.ActionView), s.ListRoomDevices)
	api.POST("/rooms/:roomId/devices", s.authorize(authorization.ObjectDevice, authorization.ActionManage), s.AddDevice)
	api.PUT("/devices/:deviceId/status", s.authorize(authorization.ObjectDevice, authorization.ActionToggle), s.SetDeviceStatus)
	api.DELETE("/devices/:deviceId", s.authorize(authorization.ObjectDevice, authorization.ActionManage), s.DeleteDevice)
	api.GET("/devices/:deviceId/history", s.authorize(authorization.ObjectDevice, authorization.ActionView), s.GetDeviceHistory)

	// -------- Readings --------
	api.POST("/devices/:deviceId/readings",
		s.authorize(authorization.ObjectDevice, authorization.ActionToggle),
		s.ReadingsRateLimit(),
		s.RecordReading,
	)
	api.GET("/devices/:deviceId/readings", s.authorize(authorization.ObjectDevice, authorization.ActionView), s.ListReadings)

	// -------- Energy --------
	api.GET("/rooms/:roomId/energy", s.authorize(authorization.ObjectEnergy, authorization.ActionView), s.GetRoomEnergySeries)
	api.GET("/rooms/:roomId/energy/summary", s.authorize(authorization.ObjectEnergy, authorization.ActionView), s.GetRoomEnergySummary)
	api.GET("/rooms/:roomId/energy/comparison", s.authorize(authorization.ObjectEnergy, authorization.ActionView), s.GetRoomEnergyComparison)
	api.GET("/rooms/:roomId/energy/by-device-type", s.authorize(authorization.ObjectEnergy, authorization.ActionView), s.GetRoomEnergyByDeviceType)
	api.GET("/rooms/:roomId/energy/live", s.authorize(authorization.ObjectEnergy, authorization.ActionView), s.StreamRoomReadings)
	api.GET("/energy/summary", s.authorize(authorization.ObjectEnergy, authorization.ActionView), s.GetEnergySummary)
	api.GET("/energy/comparison", s.authorize(authorization.ObjectEnergy, authorization.ActionView), s.GetEnergyComparison)

	// -------- Assignments --------
	api.GET("/user-room-assignments", s.authorize(authorization.ObjectAssignment, authorization.ActionView), s.ListAssignments)
	api.GET("/rooms-with-users", s.authorize(authorization.ObjectAssignment, authorization.ActionView), s.ListRoomsWithUsers)
	api.GET("/rooms/:roomId/users", s.authorize(authorization.ObjectAssignment, authorization.ActionView), s.ListRoomUsers)
	api.GET("/users/:userId/room", s.authorizeSelfOr("userId", authorization.ObjectAssignment, authorization.ActionView), s.GetUserRoom)
	api.POST("/users/:userId/room", s.authorize(authorization.ObjectAssignment, authorization.ActionManage), s.AssignUserRoom)
	api.DELETE("/users/:userId/room", s.authorize(authorization.ObjectAssignment, authorization.ActionManage), s.RemoveUserRoom)
}

func (s *Server) registerTestRoutes() {
	test := s.engine.Group("/api/test", s.Authenticate(), s.authorize(authorization.ObjectTestData, authorization.ActionGenerate))

	test.POST("/rooms/:roomId/devices", s.SeedTestDevices)
	test.POST("/rooms/:roomId/devices/:deviceId/energy", s.GenerateTestReadings)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
