// Package handler exposes the application services over HTTP with echo.
package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/greenmap/plant-service/internal/application/interfaces"
	"github.com/greenmap/plant-service/internal/infrastructure/metrics"
)

const defaultBodyLimit = "12M"

type Services struct {
	Users   interfaces.UserService
	Plants  interfaces.PlantService
	Gardens interfaces.GardenService
	Map     interfaces.MapService
	Wiki    interfaces.WikiService
	Surveys interfaces.SurveyService
	AI      interfaces.AIService
	Health  interfaces.HealthChecker
}

type Options struct {
	// BodyLimit caps request bodies, e.g. "12M"; base64 images dominate.
	BodyLimit   string
	CORSOrigins []string
	// ImageDir is served under /images when set.
	ImageDir string
	Metrics  *metrics.Metrics
}

type Server struct {
	echo     *echo.Echo
	services Services
	logger   *zap.Logger
}

func NewServer(services Services, opts Options, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(logger)

	if opts.BodyLimit == "" {
		opts.BodyLimit = defaultBodyLimit
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	if opts.Metrics != nil {
		e.Use(metricsMiddleware(opts.Metrics))
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
	}))
	e.Use(middleware.BodyLimit(opts.BodyLimit))

	s := &Server{echo: e, services: services, logger: logger}
	s.registerRoutes(opts)
	return s
}

func (s *Server) registerRoutes(opts Options) {
	e := s.echo
	auth := requireAuth(s.services.Users)

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if opts.ImageDir != "" {
		e.Static("/images", opts.ImageDir)
	}

	users := e.Group("/user")
	users.POST("/reg", s.handleRegister)
	users.POST("/login", s.handleLogin)
	users.POST("/logout", s.handleLogout, auth)
	users.GET("/info", s.handleGetInfo, auth)
	users.PUT("/info", s.handleUpdateInfo, auth)
	users.PUT("/password", s.handleChangePassword, auth)
	users.GET("", s.handleListUsers, auth)
	users.GET("/:id", s.handleGetUser, auth)

	api := e.Group("/api")
	api.GET("/test", s.handleTest)

	plants := api.Group("/plants", auth)
	plants.POST("/add", s.handleAddPlant)
	plants.GET("/nearby", s.handleNearbyPlants)
	plants.GET("/viewport", s.handleViewportPlants)
	plants.GET("/mine", s.handleMyPlants)
	plants.GET("/liked", s.handleLikedPlants)
	plants.GET("/:id", s.handleGetPlant)
	plants.PUT("/:id", s.handleUpdatePlant)
	plants.DELETE("/:id", s.handleDeletePlant)
	plants.POST("/:id/like", s.handleLikePlant)
	plants.DELETE("/:id/like", s.handleUnlikePlant)

	gardens := api.Group("/gardens", auth)
	gardens.POST("", s.handleCreateGarden)
	gardens.GET("/nearby", s.handleNearbyGardens)
	gardens.GET("/mine", s.handleMyGardens)
	gardens.GET("/:id", s.handleGetGarden)
	gardens.GET("/:id/plants", s.handleGardenPlants)
	gardens.PUT("/:id", s.handleUpdateGarden)
	gardens.DELETE("/:id", s.handleDeleteGarden)
	gardens.POST("/:id/like", s.handleLikeGarden)
	gardens.DELETE("/:id/like", s.handleUnlikeGarden)

	api.GET("/map/nearby", s.handleMapNearby, auth)

	wiki := api.Group("/wiki", auth)
	wiki.GET("", s.handleSearchWiki)
	wiki.GET("/:id", s.handleGetWikiEntry)

	surveys := api.Group("/surveys", auth)
	surveys.POST("", s.handleCreateSurvey)
	surveys.GET("", s.handleListSurveys)
	surveys.GET("/:id", s.handleGetSurvey)
	surveys.PUT("/:id", s.handleUpdateSurvey)
	surveys.DELETE("/:id", s.handleDeleteSurvey)
	surveys.POST("/:id/questions", s.handleAddQuestion)
	surveys.PUT("/:id/questions/:qid", s.handleUpdateQuestion)
	surveys.DELETE("/:id/questions/:qid", s.handleDeleteQuestion)
	surveys.POST("/:id/responses", s.handleSubmitResponse)
	surveys.GET("/:id/responses", s.handleListResponses)
	surveys.GET("/:id/stats", s.handleSurveyStats)

	assistant := api.Group("/ai", auth)
	assistant.POST("/chat", s.handleChat)
	assistant.POST("/identify", s.handleIdentify)
	assistant.POST("/care", s.handleCare)
}

// ServeHTTP lets tests drive the router without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(addr string) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	result := s.services.Health.Check(c.Request().Context())
	if !result.Healthy() {
		return c.JSON(http.StatusServiceUnavailable, Response{
			Code:    http.StatusServiceUnavailable,
			Message: "database unavailable",
			Msg:     "database unavailable",
			Data:    result,
		})
	}
	return OK(c, result)
}

func (s *Server) handleTest(c echo.Context) error {
	return OK(c, "pong")
}
