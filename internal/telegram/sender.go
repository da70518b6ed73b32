package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"auto_briefing/internal/logger"
	"auto_briefing/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const defaultProviderError = "Telegram API returned an error."

var ErrInvalidMessage = errors.New("invalid telegram message")

// ValidationError описывает первое нарушенное правило запроса на отправку.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidMessage }

// DeliveryError — отказ Bot API с описанием от провайдера.
type DeliveryError struct {
	Code        int
	Description string
}

func (e *DeliveryError) Error() string { return e.Description }

// Message — запрос на отправку: токен бота, чат и готовый текст MarkdownV2.
type Message struct {
	Token  string `json:"token"`
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

// Validate проверяет обязательные поля в том же порядке, что и форма отправки.
func (m Message) Validate() error {
	switch {
	case len(strings.TrimSpace(m.Token)) < 10:
		return &ValidationError{Field: "token", Message: "Bot token is required"}
	case strings.TrimSpace(m.ChatID) == "":
		return &ValidationError{Field: "chatId", Message: "Channel or chat ID is required"}
	case strings.TrimSpace(m.Text) == "":
		return &ValidationError{Field: "text", Message: "Message text is required"}
	}
	return nil
}

// Sender отправляет сообщения через Bot API одним запросом, без повторов.
type Sender struct {
	endpoint string
	client   *http.Client
	metrics  *metrics.Metrics
}

// NewSender создаёт Sender. endpoint — шаблон вида tgbotapi.APIEndpoint.
func NewSender(endpoint string, timeout time.Duration, m *metrics.Metrics) *Sender {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return &Sender{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		metrics:  m,
	}
}

// Send публикует текст в чат. Ошибка провайдера возвращается как *DeliveryError.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	bot := &tgbotapi.BotAPI{
		Token:  strings.TrimSpace(msg.Token),
		Client: &contextClient{ctx: ctx, client: s.client},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(s.endpoint)

	log := logger.Log.WithField("chat", msg.ChatID)

	_, err := bot.Send(newMessageConfig(strings.TrimSpace(msg.ChatID), msg.Text))
	if err == nil {
		s.count("ok")
		log.Info("Briefing delivered")
		return nil
	}

	if code, description, ok := providerError(err); ok {
		s.count("rejected")
		if description == "" {
			description = defaultProviderError
		}
		log.WithField("code", code).Warnf("Telegram rejected message: %s", description)
		return &DeliveryError{Code: code, Description: description}
	}

	s.count("error")
	log.Errorf("Telegram dispatch failed: %v", err)
	return fmt.Errorf("send message: %w", err)
}

func newMessageConfig(chatID, text string) tgbotapi.MessageConfig {
	var cfg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		cfg = tgbotapi.NewMessage(id, text)
	} else {
		cfg = tgbotapi.NewMessageToChannel(chatID, text)
	}
	cfg.ParseMode = tgbotapi.ModeMarkdownV2
	cfg.DisableWebPagePreview = false
	return cfg
}

func providerError(err error) (int, string, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message, true
	}
	return 0, "", false
}

func (s *Sender) count(result string) {
	if s.metrics != nil {
		s.metrics.TelegramMessages.WithLabelValues(result).Inc()
	}
}

// contextClient привязывает запросы tgbotapi к контексту вызова.
type contextClient struct {
	ctx    context.Context
	client *http.Client
}

func (c *contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}
