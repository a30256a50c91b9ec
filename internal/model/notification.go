package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/akciovadasz/backend/pkg/datetime"
)

// EventType distinguishes the alert conditions raised by the differ.
type EventType string

const (
	EventPriceDrop EventType = "price_drop"
	EventExpiry    EventType = "expiry"
)

// Event is a notification raised for a favorited product.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	Type        EventType       `json:"type"`
	ProductID   string          `json:"productId"`
	ProductKey  string          `json:"productKey"` // ledger key: id or fingerprint
	ProductName string          `json:"productName"`
	Store       Store           `json:"store"`
	OldPrice    decimal.Decimal `json:"oldPrice"`
	NewPrice    decimal.Decimal `json:"newPrice"`
	ValidUntil  datetime.Date   `json:"validUntil"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NotificationLedger maps a product key to the validUntil already alerted on.
type NotificationLedger map[string]string

// Clone returns an independent copy.
func (l NotificationLedger) Clone() NotificationLedger {
	out := make(NotificationLedger, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Permission mirrors the browser notification permission states.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// ParsePermission accepts the three known states; anything else is default.
func ParsePermission(s string) Permission {
	switch Permission(strings.ToLower(strings.TrimSpace(s))) {
	case PermissionGranted:
		return PermissionGranted
	case PermissionDenied:
		return PermissionDenied
	default:
		return PermissionDefault
	}
}

// PushSubscription is a Web Push endpoint registered by a browser.
type PushSubscription struct {
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dh    string    `db:"p256dh" json:"p256dh"`
	Auth      string    `db:"auth" json:"auth"`
	UserAgent *string   `db:"user_agent" json:"userAgent,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
