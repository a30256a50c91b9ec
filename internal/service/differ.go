package service

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/pkg/currency"
	"github.com/akciovadasz/backend/pkg/datetime"
)

// IdentityMode selects how a product is matched across snapshots.
type IdentityMode string

const (
	// IdentityID matches products by the id the catalog assigned.
	IdentityID IdentityMode = "id"
	// IdentityFingerprint matches by normalized name, store and category,
	// for catalogs that mint new ids on every fetch.
	IdentityFingerprint IdentityMode = "fingerprint"
)

// ParseIdentityMode reads a DIFF_IDENTITY value; unknown values mean id.
func ParseIdentityMode(s string) IdentityMode {
	if IdentityMode(strings.ToLower(strings.TrimSpace(s))) == IdentityFingerprint {
		return IdentityFingerprint
	}
	return IdentityID
}

// Key returns the identity key of p under mode.
func (m IdentityMode) Key(p model.Product) string {
	if m == IdentityFingerprint {
		return p.Fingerprint()
	}
	return p.ID
}

const (
	titlePriceDrop = "Árcsökkenés!"
	titleExpiry    = "Lejáró akció!"
)

// DiffInput is everything the differ looks at.
type DiffInput struct {
	Previous  []model.Product
	Next      []model.Product
	Favorites []string
	Ledger    model.NotificationLedger
	Granted   bool
	Now       time.Time
	Location  *time.Location
	Identity  IdentityMode
}

// DiffResult carries the raised events and the ledger after them. Ledger is
// a copy; the input ledger is never modified.
type DiffResult struct {
	Events []model.Event
	Ledger model.NotificationLedger
}

// Diff compares two successive snapshots for favorited products and raises
// price-drop and expiry events. Price drops fire on every decrease; an
// expiry fires once per product and validUntil.
func Diff(in DiffInput) DiffResult {
	ledger := in.Ledger.Clone()
	res := DiffResult{Events: []model.Event{}, Ledger: ledger}

	if !in.Granted || len(in.Previous) == 0 {
		return res
	}

	previous := make(map[string]model.Product, len(in.Previous))
	for _, p := range in.Previous {
		key := in.Identity.Key(p)
		if _, ok := previous[key]; !ok {
			previous[key] = p
		}
	}

	threshold := datetime.DateOf(datetime.StartOfTomorrow(in.Now, in.Location), in.Location)

	for _, p := range in.Next {
		if !slices.Contains(in.Favorites, p.ID) {
			continue
		}
		key := in.Identity.Key(p)
		old, ok := previous[key]
		if !ok {
			continue
		}

		if p.SalePrice.LessThan(old.SalePrice) {
			res.Events = append(res.Events, newEvent(model.EventPriceDrop, key, p, old, in.Now,
				titlePriceDrop,
				fmt.Sprintf("%s most olcsóbb: %s!", p.Name, currency.Forint(p.SalePrice).Format()),
			))
		}

		validUntil := p.ValidUntil.String()
		if !p.ValidUntil.IsZero() && p.ValidUntil.OnOrBefore(threshold) && ledger[key] != validUntil {
			ledger[key] = validUntil
			res.Events = append(res.Events, newEvent(model.EventExpiry, key, p, old, in.Now,
				titleExpiry,
				fmt.Sprintf("A(z) %s akciója hamarosan lejár!", p.Name),
			))
		}
	}

	return res
}

func newEvent(typ model.EventType, key string, p, old model.Product, now time.Time, title, body string) model.Event {
	return model.Event{
		ID:          uuid.New(),
		Type:        typ,
		ProductID:   p.ID,
		ProductKey:  key,
		ProductName: p.Name,
		Store:       p.Store,
		OldPrice:    old.SalePrice,
		NewPrice:    p.SalePrice,
		ValidUntil:  p.ValidUntil,
		Title:       title,
		Body:        body,
		CreatedAt:   now,
	}
}

// RemapIDs carries a list of ids from the previous snapshot over to the
// matching products of the next one. Ids that cannot be matched are kept
// as they are. Under IdentityID the list is returned unchanged.
func RemapIDs(mode IdentityMode, previous, next []model.Product, ids []string) []string {
	if mode != IdentityFingerprint || len(ids) == 0 {
		return ids
	}

	oldByID := make(map[string]model.Product, len(previous))
	for _, p := range previous {
		oldByID[p.ID] = p
	}
	newByKey := make(map[string]string, len(next))
	for _, p := range next {
		key := p.Fingerprint()
		if _, ok := newByKey[key]; !ok {
			newByKey[key] = p.ID
		}
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		mapped := id
		if old, ok := oldByID[id]; ok {
			if nid, ok := newByKey[old.Fingerprint()]; ok {
				mapped = nid
			}
		}
		if !slices.Contains(out, mapped) {
			out = append(out, mapped)
		}
	}
	return out
}
