package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/akciovadasz/backend/internal/model"
)

// Preference keys. The names match what the web client used in browser storage
// so exported profiles stay interchangeable.
const (
	KeyFavorites         = "akciovadasz_favorites"
	KeyComparison        = "akciovadasz_comparison"
	KeyLastFetch         = "akciovadasz_lastFetch"
	KeyExpiryLedger      = "akciovadasz_expiry_notifs"
	KeyPermission        = "akciovadasz_notification_permission"
	KeyPushSubscriptions = "akciovadasz_push_subscriptions"
)

// PreferenceRepository stores typed preference values as JSON in a KVStore.
// Unreadable values are treated as absent: reads never fail.
type PreferenceRepository struct {
	store  KVStore
	logger *slog.Logger

	// serializes read-modify-write sequences on a single key
	mu sync.Mutex
}

func NewPreferenceRepository(store KVStore, logger *slog.Logger) *PreferenceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferenceRepository{store: store, logger: logger}
}

// Favorites

func (r *PreferenceRepository) Favorites(ctx context.Context) []string {
	return load(ctx, r, KeyFavorites, []string{})
}

func (r *PreferenceRepository) SaveFavorites(ctx context.Context, ids []string) error {
	return r.save(ctx, KeyFavorites, nonNil(ids))
}

// Comparison

func (r *PreferenceRepository) Comparison(ctx context.Context) []string {
	return load(ctx, r, KeyComparison, []string{})
}

func (r *PreferenceRepository) SaveComparison(ctx context.Context, ids []string) error {
	return r.save(ctx, KeyComparison, nonNil(ids))
}

// Fetch quota

func (r *PreferenceRepository) FetchQuota(ctx context.Context) model.FetchQuota {
	return load(ctx, r, KeyLastFetch, model.FetchQuota{})
}

func (r *PreferenceRepository) SaveFetchQuota(ctx context.Context, q model.FetchQuota) error {
	return r.save(ctx, KeyLastFetch, q)
}

// Expiry ledger

func (r *PreferenceRepository) ExpiryLedger(ctx context.Context) model.NotificationLedger {
	ledger := load(ctx, r, KeyExpiryLedger, model.NotificationLedger{})
	if ledger == nil {
		ledger = model.NotificationLedger{}
	}
	return ledger
}

// MarkExpiryNotified records that an expiry alert for key and validUntil went
// out. It rereads the stored ledger so concurrent entries are kept.
func (r *PreferenceRepository) MarkExpiryNotified(ctx context.Context, key, validUntil string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger := r.ExpiryLedger(ctx)
	ledger[key] = validUntil
	return r.save(ctx, KeyExpiryLedger, ledger)
}

func (r *PreferenceRepository) ClearExpiryLedger(ctx context.Context) error {
	return r.store.Remove(ctx, KeyExpiryLedger)
}

// Notification permission

func (r *PreferenceRepository) Permission(ctx context.Context) model.Permission {
	return model.ParsePermission(string(load(ctx, r, KeyPermission, model.PermissionDefault)))
}

func (r *PreferenceRepository) SavePermission(ctx context.Context, p model.Permission) error {
	return r.save(ctx, KeyPermission, p)
}

// Push subscriptions

func (r *PreferenceRepository) PushSubscriptions(ctx context.Context) []model.PushSubscription {
	return load(ctx, r, KeyPushSubscriptions, []model.PushSubscription{})
}

// AddPushSubscription inserts sub, replacing an existing entry with the same endpoint.
func (r *PreferenceRepository) AddPushSubscription(ctx context.Context, sub model.PushSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	subs := r.PushSubscriptions(ctx)
	out := make([]model.PushSubscription, 0, len(subs)+1)
	for _, s := range subs {
		if s.Endpoint != sub.Endpoint {
			out = append(out, s)
		}
	}
	out = append(out, sub)
	return r.save(ctx, KeyPushSubscriptions, out)
}

func (r *PreferenceRepository) RemovePushSubscription(ctx context.Context, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.PushSubscriptions(ctx)
	out := make([]model.PushSubscription, 0, len(subs))
	for _, s := range subs {
		if s.Endpoint != endpoint {
			out = append(out, s)
		}
	}
	return r.save(ctx, KeyPushSubscriptions, out)
}

func (r *PreferenceRepository) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, key, data)
}

func load[T any](ctx context.Context, r *PreferenceRepository, key string, def T) T {
	data, err := r.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def
	}
	if err != nil {
		r.logger.Error("Reading preference failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return def
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		r.logger.Warn("Discarding unreadable preference",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return def
	}
	return v
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
