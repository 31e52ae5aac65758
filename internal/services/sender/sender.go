// Package services содержит отправку уведомлений владельцам магазинов
// о состоянии подписки.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/pos-store/internal/lib/sl"
	"github.com/magabrotheeeer/pos-store/internal/lib/smtp"
	"github.com/magabrotheeeer/pos-store/internal/models"
)

const dateLayout = "02.01.2006"

// Transport открывает SMTP-сессию и сообщает адрес отправителя.
type Transport interface {
	Connect() (smtp.Client, error)
	From() string
}

// SenderService превращает события подписок в письма владельцам.
type SenderService struct {
	transport Transport
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport Transport) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// Handle обрабатывает тело сообщения из очереди. Нечитаемые события и события
// без адреса отбрасываются; ошибка возвращается только при сбое отправки,
// чтобы сообщение вернулось в очередь.
func (s *SenderService) Handle(body []byte) error {
	const op = "sender.Handle"
	log := s.log.With(sl.Op(op))

	var event models.SubscriptionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to unmarshal event, dropping", sl.Err(err))
		return nil
	}
	log = log.With(slog.String("type", event.Type), slog.String("user_id", event.UserID.String()))
	if event.Email == "" {
		log.Warn("event has no recipient, dropping")
		return nil
	}

	var subject, text string
	switch event.Type {
	case models.EventSubscriptionExpiring:
		subject = "Подписка скоро закончится"
		text = fmt.Sprintf("Здравствуйте!\n\nВаша подписка (тариф %s) действует до %s.\n"+
			"После этой даты регистрация новых продаж будет недоступна.\n\nПожалуйста, продлите её заранее.",
			event.Plan, event.ExpirationDate.Format(dateLayout))
	case models.EventSubscriptionExpired:
		subject = "Подписка закончилась"
		text = fmt.Sprintf("Здравствуйте!\n\nСрок вашей подписки (тариф %s) истёк %s.\n"+
			"Каталог и история продаж доступны, но новые продажи регистрировать нельзя до продления.",
			event.Plan, event.ExpirationDate.Format(dateLayout))
	default:
		log.Warn("unknown event type, dropping")
		return nil
	}

	if err := s.sendEmail([]string{event.Email}, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	from := s.transport.From()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.Any("to", to))
	return nil
}
