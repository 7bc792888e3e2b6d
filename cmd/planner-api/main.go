package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Planner/internal/api"
	"github.com/shaiso/Planner/internal/auth"
	"github.com/shaiso/Planner/internal/clients"
	"github.com/shaiso/Planner/internal/config"
	"github.com/shaiso/Planner/internal/mq"
	"github.com/shaiso/Planner/internal/repo"
	"github.com/shaiso/Planner/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting planner-api")

	cfg := config.Load()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background(), cfg.DatabaseDSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := repo.InitSchema(context.Background(), pool); err != nil {
		logger.Error("failed to init schema", "error", err)
		os.Exit(1)
	}
	logger.Info("study_sessions table ensured")

	// Подключаемся к RabbitMQ. Неудача не роняет старт:
	// фоновый retry подключится, когда брокер станет доступен,
	// до этого момента удалённые логи отбрасываются.
	sink := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err := sink.Init(); err != nil {
		logger.Warn("log sink unavailable, continuing without it", "error", err)
	}
	defer sink.Close()

	emitter := telemetry.NewEmitter(cfg.ServiceName, mq.NewLogPublisher(sink, cfg.ServiceName))
	metrics := telemetry.NewMetricsClient(cfg.MetricsServiceURL, cfg.ServiceName, emitter)

	verifier, err := auth.NewVerifier(auth.Options{
		Secret:        cfg.JWTSecret,
		PublicKeyPEM:  cfg.JWTPublicKey,
		PublicKeyPath: cfg.JWTPublicKeyPath,
	})
	if err != nil {
		logger.Error("failed to create token verifier", "error", err)
		os.Exit(1)
	}

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		Store:       repo.NewSessionRepo(pool),
		Users:       clients.NewUserClient(cfg.UserServiceURL),
		Courses:     clients.NewCourseClient(cfg.CourseServiceURL),
		Verifier:    verifier,
		Emitter:     emitter,
		Metrics:     metrics,
		Logger:      logger,
		CORSOrigin:  cfg.CORSAllowedOrigin,
		DocsEnabled: cfg.SwaggerEnabled,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	addr := ":" + cfg.APIPort

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
