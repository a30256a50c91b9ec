package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/akciovadasz/backend/internal/model"
)

var (
	ErrVAPIDNotConfigured = errors.New("VAPID keys not configured")
	ErrNoSubscriptions    = errors.New("no push subscriptions found")
)

// SubscriptionStore is the part of the preference store the push sender needs.
type SubscriptionStore interface {
	PushSubscriptions(ctx context.Context) []model.PushSubscription
	RemovePushSubscription(ctx context.Context, endpoint string) error
}

// WebPushConfig holds the VAPID credentials.
type WebPushConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string // mailto:email or URL
	TTL        int
}

// WebPushSender delivers events to every stored browser subscription.
type WebPushSender struct {
	cfg    WebPushConfig
	subs   SubscriptionStore
	client webpush.HTTPClient
	logger *slog.Logger
}

// NewWebPushSender returns nil when the VAPID keys are missing.
func NewWebPushSender(cfg WebPushConfig, subs SubscriptionStore, client webpush.HTTPClient, logger *slog.Logger) *WebPushSender {
	if cfg.PublicKey == "" || cfg.PrivateKey == "" {
		return nil
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 86400 // 24 hours
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebPushSender{cfg: cfg, subs: subs, client: client, logger: logger}
}

func (s *WebPushSender) Name() string { return "webpush" }

// PublicKey returns the VAPID public key for clients.
func (s *WebPushSender) PublicKey() string { return s.cfg.PublicKey }

// PushPayload is the JSON the service worker receives.
type PushPayload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Icon  string         `json:"icon,omitempty"`
	Tag   string         `json:"tag,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

func payloadFor(event model.Event) PushPayload {
	return PushPayload{
		Title: event.Title,
		Body:  event.Body,
		Icon:  "/icon-192.png",
		Tag:   string(event.Type) + "-" + event.ProductKey,
		Data: map[string]any{
			"type":      string(event.Type),
			"productId": event.ProductID,
			"url":       "/",
		},
	}
}

// Send pushes event to all subscriptions. Subscriptions the push service
// reports as gone (404, 410) are removed.
func (s *WebPushSender) Send(ctx context.Context, event model.Event) error {
	subs := s.subs.PushSubscriptions(ctx)
	if len(subs) == 0 {
		return ErrNoSubscriptions
	}

	payload, err := json.Marshal(payloadFor(event))
	if err != nil {
		return err
	}

	var errs []error
	for _, sub := range subs {
		resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256dh,
				Auth:   sub.Auth,
			},
		}, &webpush.Options{
			HTTPClient:      s.client,
			Subscriber:      s.cfg.Subject,
			VAPIDPublicKey:  s.cfg.PublicKey,
			VAPIDPrivateKey: s.cfg.PrivateKey,
			TTL:             s.cfg.TTL,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("push to %s: %w", sub.Endpoint, err))
			continue
		}
		if resp.Body != nil {
			_ = resp.Body.Close()
		}

		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			s.logger.Info("Removing expired push subscription", slog.String("endpoint", sub.Endpoint))
			if err := s.subs.RemovePushSubscription(ctx, sub.Endpoint); err != nil {
				errs = append(errs, err)
			}
		case resp.StatusCode >= 400:
			errs = append(errs, fmt.Errorf("push to %s: status %d", sub.Endpoint, resp.StatusCode))
		}
	}
	return errors.Join(errs...)
}

// TelegramClient is the subset of *tgbotapi.BotAPI used for delivery.
type TelegramClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender posts events into a single chat.
type TelegramSender struct {
	bot    TelegramClient
	chatID int64
}

func NewTelegramSender(bot TelegramClient, chatID int64) *TelegramSender {
	return &TelegramSender{bot: bot, chatID: chatID}
}

func (s *TelegramSender) Name() string { return "telegram" }

func (s *TelegramSender) Send(_ context.Context, event model.Event) error {
	icon := "📉"
	if event.Type == model.EventExpiry {
		icon = "⏰"
	}
	msg := tgbotapi.NewMessage(s.chatID, fmt.Sprintf("%s %s\n%s\n🏪 %s", icon, event.Title, event.Body, event.Store))
	msg.DisableWebPagePreview = true
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// LogSender writes events to the structured log. Always configured, so a
// deployment without push credentials still records what it would send.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(_ context.Context, event model.Event) error {
	s.logger.Info("Notification",
		slog.String("type", string(event.Type)),
		slog.String("title", event.Title),
		slog.String("body", event.Body),
		slog.String("product_id", event.ProductID),
		slog.String("store", string(event.Store)),
	)
	return nil
}
