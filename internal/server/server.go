package server

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"trainboard-backend/internal/common"
	"trainboard-backend/internal/config"
	"trainboard-backend/internal/email"
	"trainboard-backend/internal/handlers"
	"trainboard-backend/internal/models"

	"github.com/go-playground/validator"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	resend "github.com/resend/resend-go/v2"
	"github.com/wader/gormstore/v2"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CustomValidator Source: https://echo.labstack.com/docs/request#validate-data
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	// `level=<scale>` constrains a survey answer to one scale from
	// models.RatingScales.
	_ = v.RegisterValidation("level", func(fl validator.FieldLevel) bool {
		return models.ValidLevel(fl.Param(), fl.Field().String())
	})
	return v
}

type SentryLogger struct {
	echo.Logger
}

func (l *SentryLogger) Error(i ...interface{}) {
	if err, ok := i[0].(error); ok {
		handlers.CaptureError(err)
	} else {
		handlers.CaptureError(fmt.Errorf("%v", i...))
	}
	l.Logger.Error(i...)
}

type Server struct {
	common.ServerState
}

func New(cfg *config.Config) *Server {
	e := echo.New()
	e.Validator = &CustomValidator{validator: newValidator()}
	e.Logger = &SentryLogger{Logger: e.Logger}
	e.Logger.SetLevel(log.DEBUG)

	return &Server{
		common.ServerState{
			Echo:   e,
			Config: cfg,
		},
	}
}

func (s *Server) Initialize() error {
	s.setupDatabase()

	s.setupRedis()

	s.JwtIssuer = handlers.NewJwtAuth(
		s.Config.Auth.SessionSecret,
		time.Duration(s.Config.Auth.TokenMaxAgeHours)*time.Hour,
	)

	s.setupEmailClient()

	s.setupSessionStore()

	s.setupRoutes()

	s.runMigrations()

	s.setupGothProviders()

	s.setupMetrics()

	// Keep last to avoid Recover middleware and panic if something goes
	// wrong on init
	s.setupMiddleware()

	return nil
}

func (s *Server) setupDatabase() {
	dsn := s.Config.Database.DSN
	if dsn == "" {
		s.Echo.Logger.Fatal("DATABASE_DSN environment variable is required")
	}

	var db *gorm.DB
	var err error

	// SQLite DSNs start with "file:" and are used by the test suite;
	// TranslateError turns driver unique-violations into
	// gorm.ErrDuplicatedKey, which the handlers rely on for 409s.
	if strings.HasPrefix(dsn, "file:") {
		db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)})
	} else {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)})
	}

	if err != nil {
		s.Echo.Logger.Fatal(err)
	}
	s.DB = db
}

func (s *Server) setupRedis() {
	url := s.Config.Database.RedisURI

	// Redis only backs the dashboard-stats cache; the portal runs fine
	// without it.
	if url == "" {
		s.Echo.Logger.Warn("REDIS_URI not configured, stats caching will be disabled")
		s.Redis = nil
		return
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		s.Echo.Logger.Warnf("Failed to parse Redis URL: %v, stats caching will be disabled", err)
		s.Redis = nil
		return
	}

	s.Redis = redis.NewClient(opts)

	ctx := context.Background()
	result := s.Redis.Ping(ctx)
	if result.Err() != nil {
		s.Echo.Logger.Warnf("Redis connection failed: %v, stats caching will be disabled", result.Err())
		s.Redis = nil
		return
	}
}

func (s *Server) setupSessionStore() {
	store := gormstore.New(s.DB, []byte(s.Config.Auth.SessionSecret))
	// The session only carries the OAuth round-trip state; it can be short.
	store.SessionOpts.MaxAge = 60 * 60
	store.SessionOpts.SameSite = http.SameSiteLaxMode
	store.SessionOpts.HttpOnly = true

	quit := make(chan struct{})
	go store.PeriodicCleanup(1*time.Hour, quit)

	s.Store = store
}

func (s *Server) runMigrations() {
	err := s.DB.AutoMigrate(
		&models.Participant{},
		&models.Training{},
		&models.Assignment{},
		&models.Feedback{},
		&models.Admin{},
	)
	if err != nil {
		s.Echo.Logger.Fatal(err)
	}
}

func (s *Server) setupMiddleware() {
	s.Echo.Use(middleware.CORS())
	s.Echo.Use(session.Middleware(s.Store))
	s.Echo.Use(middleware.Recover())
	// Tolerate repeated registration so the test suite can boot several
	// servers in one process.
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok && err.Error() == "duplicate metrics collector registration attempted" {
				s.Echo.Logger.Warn("Prometheus middleware already registered, skipping")
			} else {
				panic(r)
			}
		}
	}()
	s.Echo.Use(echoprometheus.NewMiddleware("trainboard_backend"))
}

func (s *Server) setupMetrics() {
	if s.Redis == nil {
		return
	}

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Subsystem: "redis",
			Name:      "connected_clients",
			Help:      "The number of clients currently connected to Redis",
		},
		func() float64 {
			ctx := context.Background()
			connectedClientsRaw := s.Redis.InfoMap(ctx).Item("Clients", "connected_clients")

			connectedClients, err := strconv.ParseFloat(connectedClientsRaw, 64)
			if err != nil {
				return math.NaN()
			}

			return connectedClients
		},
	))
}

func (s *Server) setupGothProviders() {
	gothic.Store = s.Store

	goth.UseProviders(
		google.New(s.Config.Auth.GoogleKey, s.Config.Auth.GoogleSecret, s.Config.Auth.GoogleRedirect, "email", "profile", "openid"),
	)
}

func (s *Server) setupEmailClient() {
	apiKey := s.Config.Resend.APIKey
	if apiKey == "" {
		s.Echo.Logger.Warn("RESEND_API_KEY not configured, email notifications will be disabled")
		return
	}

	resendClient := resend.NewClient(apiKey)
	s.EmailClient = email.NewResendEmailClient(resendClient,
		s.Config.Resend.DefaultSender,
		s.Echo.Logger)
}

func (s *Server) setupRoutes() {
	handlers.SetupSentry(s.Echo, s.Config)

	auth := handlers.NewAuthHandler(s.DB, s.Config, s.JwtIssuer, s.Redis, &handlers.RealGothicProvider{})
	auth.EmailClient = s.EmailClient

	state := common.ServerState{
		DB:          s.DB,
		Config:      s.Config,
		JwtIssuer:   s.JwtIssuer,
		Redis:       s.Redis,
		EmailClient: s.EmailClient,
	}
	participants := handlers.NewParticipantHandler(state)
	trainings := handlers.NewTrainingHandler(state)
	assignments := handlers.NewAssignmentHandler(state)
	feedback := handlers.NewFeedbackHandler(state)
	dashboard := handlers.NewDashboardHandler(state)

	api := s.Echo.Group("/api")

	// Public API endpoints
	api.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})
	api.GET("/metrics", echoprometheus.NewHandler())

	// Authentication endpoints
	api.GET("/auth/social/:provider", auth.SocialLogin)
	api.GET("/auth/social/:provider/callback", auth.SocialLoginCallback)

	// Protected API routes group
	protectedAPI := api.Group("/auth", s.JwtIssuer.Middleware())

	protectedAPI.GET("/me", auth.Me)
	protectedAPI.GET("/my-trainings", auth.MyTrainings)

	// Feedback endpoints (ownership-checked per assignment)
	protectedAPI.POST("/feedback", feedback.Submit)
	protectedAPI.GET("/feedback", feedback.Get)

	// Admin routes group
	adminAPI := protectedAPI.Group("/admin", handlers.RequireAdmin(s.JwtIssuer))

	adminAPI.GET("/participants", participants.List)
	adminAPI.POST("/participants", participants.Create)
	adminAPI.PATCH("/participants", participants.Update)
	adminAPI.POST("/participants/bulk", participants.BulkImport)
	adminAPI.GET("/participants/:participantId", participants.GetOne)
	adminAPI.GET("/participants/:participantId/trainings", participants.Trainings)

	adminAPI.GET("/trainings", trainings.List)
	adminAPI.POST("/trainings", trainings.Create)
	adminAPI.PATCH("/trainings", trainings.Update)
	adminAPI.GET("/trainings/:id", trainings.GetOne)
	adminAPI.GET("/trainings/:id/assignments", trainings.Assignments)
	adminAPI.GET("/trainings/:id/unassigned", trainings.Unassigned)
	adminAPI.GET("/trainings/:id/feedbacks", trainings.Feedbacks)

	adminAPI.GET("/assignments", assignments.List)
	adminAPI.POST("/assignments", assignments.Assign)
	adminAPI.DELETE("/assignments", assignments.Unassign)

	adminAPI.GET("/dashboard-stats", dashboard.Stats)

	// Debug endpoints - only enabled when ENABLE_DEBUG_ENDPOINTS=true
	if s.Config.Server.Debug {
		api.GET("/jwt-debug", func(c echo.Context) error {
			email := c.QueryParam("email")
			isAdmin := c.QueryParam("admin") == "true"
			token, err := s.JwtIssuer.GenerateToken(email, isAdmin)
			if err != nil {
				return c.String(500, "Failed to generate token")
			}
			return c.JSON(200, map[string]string{
				"email": email,
				"token": token,
			})
		})
	}
}

func (s *Server) Start() error {
	serverURL := s.Config.Server.Host + ":" + s.Config.Server.Port

	if s.Config.Server.TLS.Enabled {
		if _, err := os.Stat(s.Config.Server.TLS.CertFile); os.IsNotExist(err) {
			s.Echo.Logger.Warn("TLS certificate file not found, falling back to HTTP")
			return s.Echo.Start(serverURL)
		}
		if _, err := os.Stat(s.Config.Server.TLS.KeyFile); os.IsNotExist(err) {
			s.Echo.Logger.Warn("TLS key file not found, falling back to HTTP")
			return s.Echo.Start(serverURL)
		}
		return s.Echo.StartTLS(serverURL, s.Config.Server.TLS.CertFile, s.Config.Server.TLS.KeyFile)
	}

	return s.Echo.Start(serverURL)
}
