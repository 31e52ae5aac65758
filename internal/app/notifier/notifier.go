// Package notifier содержит приложение, рассылающее письма по событиям подписок.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/pos-store/internal/config"
	"github.com/magabrotheeeer/pos-store/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/pos-store/internal/lib/sl"
	"github.com/magabrotheeeer/pos-store/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/pos-store/internal/services/sender"
)

// App представляет приложение рассылки.
type App struct {
	senderService *senderservice.SenderService
	conn          *amqp.Connection
	ch            *amqp.Channel
	logger        *slog.Logger
}

// New подключается к брокеру и объявляет очереди событий подписок.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.GetSubscriptionQueues())
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close connection", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)

	return &App{
		senderService: senderservice.NewSenderService(logger, transport),
		conn:          conn,
		ch:            ch,
		logger:        logger,
	}, nil
}

// Run запускает потребителей всех очередей и блокируется до отмены ctx.
// Канал и соединение закрываются после завершения всех начатых обработчиков.
func (a *App) Run(ctx context.Context) error {
	var consumers []<-chan struct{}
	for _, q := range rabbitmq.GetSubscriptionQueues() {
		done, err := rabbitmq.Consume(ctx, a.ch, q.QueueName, a.senderService.Handle, a.logger)
		if err != nil {
			a.close()
			return fmt.Errorf("failed to consume %s: %w", q.QueueName, err)
		}
		consumers = append(consumers, done)
		a.logger.Info("consuming queue", slog.String("queue", q.QueueName))
	}

	<-ctx.Done()
	a.logger.Info("shutting down notifier service")
	for _, done := range consumers {
		<-done
	}
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
