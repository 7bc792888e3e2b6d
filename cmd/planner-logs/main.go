// planner-logs — консольный log-drain: читает записи из logs_queue
// и печатает их в stdout. Удобен в dev окружении, где отдельный
// log-service не поднят, а поток логов посмотреть нужно.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/Planner/internal/config"
	"github.com/shaiso/Planner/internal/mq"
	"github.com/shaiso/Planner/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting planner-logs")

	cfg := config.Load()

	conn := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err := conn.Init(); err != nil {
		logger.Warn("broker unavailable, waiting for it", "error", err)
	}
	defer conn.Close()

	consumer := mq.NewLogConsumer(conn, logger, func(_ context.Context, msg mq.LogMessage) error {
		_, err := fmt.Fprintf(os.Stdout, "%s [%s] %s\n", msg.Timestamp, msg.Service, msg.Message)
		return err
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("stopped")
}
