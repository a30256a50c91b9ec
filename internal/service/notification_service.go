package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/akciovadasz/backend/internal/apperror"
	"github.com/akciovadasz/backend/internal/model"
)

// Sender delivers one event over a single channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, event model.Event) error
}

// NotificationService owns the notification permission and fans events out
// to every configured sender.
type NotificationService struct {
	prefs   PreferenceStore
	senders []Sender
	logger  *slog.Logger
}

func NewNotificationService(prefs PreferenceStore, logger *slog.Logger, senders ...Sender) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		prefs:   prefs,
		senders: senders,
		logger:  logger,
	}
}

// Permission returns the stored permission; never asked reads as default.
func (s *NotificationService) Permission(ctx context.Context) model.Permission {
	return s.prefs.Permission(ctx)
}

// Granted reports whether events may be delivered.
func (s *NotificationService) Granted(ctx context.Context) bool {
	return s.Permission(ctx) == model.PermissionGranted
}

// SetPermission records the outcome of the client's permission prompt.
func (s *NotificationService) SetPermission(ctx context.Context, value string) (model.Permission, error) {
	p := model.Permission(strings.ToLower(strings.TrimSpace(value)))
	if p != model.PermissionGranted && p != model.PermissionDenied {
		return "", apperror.ValidationError("permission", "must be granted or denied")
	}
	if err := s.prefs.SavePermission(ctx, p); err != nil {
		return "", err
	}
	s.logger.Info("Notification permission updated", slog.String("permission", string(p)))
	return p, nil
}

// Notify hands event to every sender. Delivery is best effort: nothing is
// sent unless permission is granted, and sender failures are only logged.
func (s *NotificationService) Notify(ctx context.Context, event model.Event) {
	if !s.Granted(ctx) {
		s.logger.Debug("Notification suppressed, permission not granted",
			slog.String("type", string(event.Type)),
			slog.String("product_id", event.ProductID),
		)
		return
	}

	for _, sender := range s.senders {
		if err := sender.Send(ctx, event); err != nil {
			s.logger.Warn("Notification delivery failed",
				slog.String("sender", sender.Name()),
				slog.String("type", string(event.Type)),
				slog.String("product_id", event.ProductID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// SenderNames lists the configured delivery channels.
func (s *NotificationService) SenderNames() []string {
	names := make([]string, 0, len(s.senders))
	for _, sender := range s.senders {
		names = append(names, sender.Name())
	}
	return names
}

// PushPublicKey returns the VAPID public key browsers subscribe with.
func (s *NotificationService) PushPublicKey() (string, error) {
	for _, sender := range s.senders {
		if wp, ok := sender.(*WebPushSender); ok {
			return wp.PublicKey(), nil
		}
	}
	return "", ErrVAPIDNotConfigured
}

// Subscribe stores a browser push subscription.
func (s *NotificationService) Subscribe(ctx context.Context, sub model.PushSubscription) error {
	if _, err := s.PushPublicKey(); err != nil {
		return err
	}
	if sub.Endpoint == "" || sub.P256dh == "" || sub.Auth == "" {
		return apperror.BadRequest("endpoint, p256dh and auth are required")
	}
	return s.prefs.AddPushSubscription(ctx, sub)
}

// Unsubscribe forgets the subscription with the given endpoint.
func (s *NotificationService) Unsubscribe(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		return apperror.BadRequest("endpoint is required")
	}
	return s.prefs.RemovePushSubscription(ctx, endpoint)
}
