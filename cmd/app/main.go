package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"PPEGuard/internal/config"
	"PPEGuard/pkg/classifier"
	"PPEGuard/pkg/events"
	"PPEGuard/pkg/log"
	"PPEGuard/pkg/metrics"
	"PPEGuard/pkg/redis"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.NewLogger().Fatalf("Error loading .env file: %v", err)
	}
	logger := log.NewLogger()

	loc, err := config.NewLocation()
	if err != nil {
		logger.Fatal(err)
	}

	policy, err := config.NewDetectionPolicy()
	if err != nil {
		logger.Fatal(err)
	}

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()
	redisServer := redis.New(logger)
	ppeClassifier := classifier.New(logger)
	publisher := events.New(events.ConfigFromEnv(), logger)

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithDatabase(),
		config.WithRedisServer(redisServer),
		config.WithClassifier(ppeClassifier),
		config.WithS3Client(),
		config.WithEventPublisher(publisher),
		config.WithMetrics(metrics.New()),
		config.WithDetectionPolicy(policy),
		config.WithLocation(loc),
		config.WithMiddleware(),
		config.WithUtils(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	if err := server.Shutdown(10 * time.Second); err != nil {
		logger.Errorf("Shutdown finished with errors: %v", err)
	}
}
