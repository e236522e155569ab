package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okvist/punchcard/internal/artifact"
	"github.com/okvist/punchcard/internal/database"
	"github.com/okvist/punchcard/internal/logging"
	"github.com/okvist/punchcard/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("PUNCHCARD_LOG_LEVEL"), os.Getenv("PUNCHCARD_LOG_FORMAT"))

	port := os.Getenv("PUNCHCARD_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("PUNCHCARD_DB_PATH")
	if dbPath == "" {
		dbPath = "punchcard.db"
	}

	tokenSecret := os.Getenv("PUNCHCARD_TOKEN_SECRET")
	if tokenSecret == "" {
		log.Fatal("PUNCHCARD_TOKEN_SECRET is required")
	}
	jwtSecret := os.Getenv("PUNCHCARD_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("PUNCHCARD_JWT_SECRET is required")
	}

	tz := time.UTC
	if name := os.Getenv("PUNCHCARD_TZ"); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Fatalf("invalid PUNCHCARD_TZ %q: %v", name, err)
		}
		tz = loc
	}

	var codeTTL time.Duration
	if raw := os.Getenv("PUNCHCARD_CODE_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("invalid PUNCHCARD_CODE_TTL %q: %v", raw, err)
		}
		codeTTL = d
	}

	var lockWait time.Duration
	if raw := os.Getenv("PUNCHCARD_LOCK_WAIT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("invalid PUNCHCARD_LOCK_WAIT %q: %v", raw, err)
		}
		lockWait = d
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	srv, err := server.New(db, server.Config{
		TokenSecret: tokenSecret,
		JWTSecret:   jwtSecret,
		Timezone:    tz,
		CodeTTL:     codeTTL,
		LockWait:    lockWait,
		Artifact: artifact.Config{
			Endpoint:  os.Getenv("PUNCHCARD_S3_ENDPOINT"),
			Bucket:    os.Getenv("PUNCHCARD_S3_BUCKET"),
			Region:    os.Getenv("PUNCHCARD_S3_REGION"),
			AccessKey: os.Getenv("PUNCHCARD_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("PUNCHCARD_S3_SECRET_KEY"),
		},
	}, logger)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Expired rate-limit windows accumulate until evicted.
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupDone:
				return
			}
		}
	}()

	go func() {
		logger.Info("punchcard listening", "port", port, "tz", tz.String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	close(cleanupDone)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
