package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"PPEGuard/database/postgres"
	complianceHandler "PPEGuard/internal/api/compliance/handler"
	complianceRepository "PPEGuard/internal/api/compliance/repository"
	complianceService "PPEGuard/internal/api/compliance/service"
	dashboardHandler "PPEGuard/internal/api/dashboard/handler"
	dashboardService "PPEGuard/internal/api/dashboard/service"
	"PPEGuard/internal/api/detection"
	detectionHandler "PPEGuard/internal/api/detection/handler"
	detectionRepository "PPEGuard/internal/api/detection/repository"
	detectionService "PPEGuard/internal/api/detection/service"
	"PPEGuard/internal/middleware"
	"PPEGuard/pkg/classifier"
	"PPEGuard/pkg/events"
	"PPEGuard/pkg/metrics"
	"PPEGuard/pkg/redis"
	"PPEGuard/pkg/s3"
	"PPEGuard/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	db          *sqlx.DB
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	redisServer redis.IRedis
	classifier  classifier.IClassifier
	s3Client    s3.ItfS3
	publisher   events.Publisher
	metrics     *metrics.Metrics
	policy      detection.Policy
	loc         *time.Location
	sessions    detectionRepository.SessionStore
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{
		policy: detection.DefaultPolicy(),
		loc:    time.Local,
	}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if server.classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if server.publisher == nil {
		server.publisher = events.Noop{}
	}
	if server.metrics == nil {
		server.metrics = metrics.New()
	}
	if server.utils == nil {
		server.utils = utils.New()
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log)
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithDatabase connects to Postgres and applies the schema.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithClassifier(client classifier.IClassifier) ServerOption {
	return func(s *Server) error {
		s.classifier = client
		return nil
	}
}

// WithS3Client enables evidence uploads. Without AWS_BUCKET_NAME the server
// runs with uploads disabled.
func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if errors.Is(err, s3.ErrBucketNotConfigured) {
			if s.log != nil {
				s.log.Warn("AWS_BUCKET_NAME not set, evidence uploads disabled")
			}
			return nil
		}
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithEventPublisher(publisher events.Publisher) ServerOption {
	return func(s *Server) error {
		s.publisher = publisher
		return nil
	}
}

func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) error {
		s.metrics = m
		return nil
	}
}

func WithDetectionPolicy(policy detection.Policy) ServerOption {
	return func(s *Server) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		s.policy = policy
		return nil
	}
}

func WithLocation(loc *time.Location) ServerOption {
	return func(s *Server) error {
		s.loc = loc
		return nil
	}
}

// WithMiddleware builds the shared middleware. RATE_LIMIT_RPS and
// RATE_LIMIT_BURST tune the per-IP limiter on session creation.
func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}

		var opts []middleware.Option
		rps, _ := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
		burst, _ := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
		if rps > 0 && burst > 0 {
			opts = append(opts, middleware.WithRateLimit(rate.Limit(rps), burst))
		}

		s.middleware = middleware.New(s.log, opts...)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

// sessionStore picks the session backend from SESSION_STORE (redis or memory).
func (s *Server) sessionStore() detectionRepository.SessionStore {
	if os.Getenv("SESSION_STORE") != "memory" && s.redisServer != nil {
		s.log.Info("Using redis session store")
		return detectionRepository.NewRedisSessionStore(s.redisServer, s.log)
	}

	s.log.Info("Using in-memory session store")
	return detectionRepository.NewMemorySessionStore(s.log, time.Minute)
}

func (s *Server) RegisterHandler() {
	complianceRepo := complianceRepository.New(s.db, s.log, s.loc)

	// Compliance Domain
	complianceServices := complianceService.NewComplianceService(s.log, complianceRepo, s.s3Client, s.publisher, s.metrics, s.utils, s.loc)
	complianceHandlers := complianceHandler.New(s.log, s.validator, s.middleware, complianceServices, s.loc)

	// Detection Domain
	s.sessions = s.sessionStore()
	detectionServices := detectionService.NewDetectionService(s.log, s.policy, s.sessions, s.classifier, complianceServices, s.metrics, s.utils)
	detectionHandlers := detectionHandler.New(s.log, s.validator, s.middleware, detectionServices, s.utils)

	// Dashboard Domain
	dashboardServices := dashboardService.NewDashboardService(s.log, complianceRepo, s.loc)
	dashboardHandlers := dashboardHandler.New(s.log, s.validator, s.middleware, dashboardServices, s.loc)

	s.setupHealthCheck()
	s.setupMetrics()
	s.handlers = append(s.handlers, complianceHandlers, detectionHandlers, dashboardHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests and releases every backend the server owns.
func (s *Server) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.engine.ShutdownWithTimeout(timeout); err != nil {
		errs = append(errs, fmt.Errorf("fiber: %w", err))
	}
	if s.sessions != nil {
		if err := s.sessions.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sessions: %w", err))
		}
	}
	if s.classifier != nil {
		s.classifier.Close()
	}
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("publisher: %w", err))
	}
	if s.redisServer != nil {
		if err := s.redisServer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	return errors.Join(errs...)
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message":    "Server is Healthy!",
			"classifier": s.classifier.IsConnected(),
		})
	})
}

func (s *Server) setupMetrics() {
	s.engine.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
}
