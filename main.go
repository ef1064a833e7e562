package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tractorbazar/marketplace/internal/pkg/config"
	"github.com/tractorbazar/marketplace/internal/pkg/logger"
	"github.com/tractorbazar/marketplace/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	if err := logger.Init(zapcore.InfoLevel, zap.String("service", "tractorbazar")); err != nil {
		return err
	}
	zlog := logger.Log
	defer zlog.Sync()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	otelShutdown, err := server.InitObservability("tractorbazar", ":9092", zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			zlog.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	srv, err := server.New(cfg, zlog)
	if err != nil {
		return err
	}
	defer srv.Close()

	router, err := srv.SetupRouter()
	if err != nil {
		return err
	}
	srv.SetRouter(router)

	// pprof on a separate port, never exposed publicly.
	server.StartPprofServer(":6060")

	httpServer := srv.HTTPServer()

	done := make(chan bool, 1)
	go server.GracefulShutdown(httpServer, zlog, done)

	zlog.Info("Server starting", zap.String("port", cfg.ServerPort))
	if err := httpServer.ListenAndServe(); err != nil {
		zlog.Error("Server error", zap.Error(err))
	}

	<-done
	zlog.Info("Graceful shutdown complete")

	return nil
}
