// Package service holds the deal engine: snapshot lifecycle, refresh policy,
// filters, favorites, comparison and notifications.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akciovadasz/backend/internal/apperror"
	"github.com/akciovadasz/backend/internal/catalog"
	"github.com/akciovadasz/backend/internal/logger"
	"github.com/akciovadasz/backend/internal/model"
)

// CatalogFetcher produces a fresh product list. Implemented by
// catalog.AIFetcher and scraper.Orchestrator.
type CatalogFetcher interface {
	FetchDeals(ctx context.Context, q model.FetchQuery) ([]model.Product, error)
	Source() string
}

// PreferenceStore is the persisted shopper state. Implemented by
// repository.PreferenceRepository.
type PreferenceStore interface {
	Favorites(ctx context.Context) []string
	SaveFavorites(ctx context.Context, ids []string) error
	Comparison(ctx context.Context) []string
	SaveComparison(ctx context.Context, ids []string) error
	FetchQuota(ctx context.Context) model.FetchQuota
	SaveFetchQuota(ctx context.Context, q model.FetchQuota) error
	ExpiryLedger(ctx context.Context) model.NotificationLedger
	MarkExpiryNotified(ctx context.Context, key, validUntil string) error
	ClearExpiryLedger(ctx context.Context) error
	Permission(ctx context.Context) model.Permission
	SavePermission(ctx context.Context, p model.Permission) error
	PushSubscriptions(ctx context.Context) []model.PushSubscription
	AddPushSubscription(ctx context.Context, sub model.PushSubscription) error
	RemovePushSubscription(ctx context.Context, endpoint string) error
}

// Notifier delivers events. Implemented by NotificationService.
type Notifier interface {
	Permission(ctx context.Context) model.Permission
	Granted(ctx context.Context) bool
	Notify(ctx context.Context, event model.Event)
}

type Suggester interface {
	Suggest(ctx context.Context, query string) []string
}

type Assistant interface {
	Ask(ctx context.Context, query string, products []model.Product) (*catalog.AssistantReply, error)
}

// DealServiceConfig tunes the deal service.
type DealServiceConfig struct {
	FetchTimeout    time.Duration
	Refresh         RefreshPolicy
	Identity        IdentityMode
	DefaultLocation *model.Location
	Now             func() time.Time
}

// DealService owns the current snapshot and everything derived from it.
// Fetches run without the lock; each takes a generation number and its
// result is applied only if no newer generation was applied meanwhile.
type DealService struct {
	cfg       DealServiceConfig
	fetcher   CatalogFetcher
	prefs     PreferenceStore
	notifier  Notifier
	suggester Suggester
	assistant Assistant
	logger    *slog.Logger

	requested atomic.Uint64

	// autoMu serializes AutoRefresh so two ticks cannot spend the same quota slot.
	autoMu sync.Mutex

	// prefsMu guards read-modify-write sequences on stored preferences.
	// Never held together with mu.
	prefsMu    sync.Mutex
	reconciled uint64

	mu             sync.RWMutex
	applied        uint64
	inflight       int
	current        model.Snapshot
	lastErr        string
	searchTerm     string
	location       *model.Location
	locationNotice string
	filters        Filters
	lastDecision   *RefreshDecision
}

func NewDealService(cfg DealServiceConfig, fetcher CatalogFetcher, prefs PreferenceStore, notifier Notifier, log *slog.Logger) *DealService {
	if log == nil {
		log = slog.Default()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.Refresh.Location == nil {
		cfg.Refresh.Location = time.Local
	}
	if cfg.Refresh.StaleAfter <= 0 || cfg.Refresh.DailyLimit <= 0 {
		cfg.Refresh = DefaultRefreshPolicy(cfg.Refresh.Location)
	}
	if cfg.Identity == "" {
		cfg.Identity = IdentityID
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &DealService{
		cfg:      cfg,
		fetcher:  fetcher,
		prefs:    prefs,
		notifier: notifier,
		logger:   log,
		filters:  DefaultFilters(),
		current:  model.Snapshot{Products: []model.Product{}},
	}
}

// WithAssistant enables search suggestions and the shopping assistant.
func (s *DealService) WithAssistant(suggester Suggester, assistant Assistant) *DealService {
	s.suggester = suggester
	s.assistant = assistant
	return s
}

// Snapshot lifecycle

// Load performs the initial fetch. It does not touch the refresh quota.
func (s *DealService) Load(ctx context.Context) (model.Snapshot, error) {
	return s.fetch(ctx, s.currentQuery(), "initial")
}

// Refresh refetches with the active search term and location, bypassing
// the refresh quota.
func (s *DealService) Refresh(ctx context.Context) (model.Snapshot, error) {
	return s.fetch(ctx, s.currentQuery(), "manual")
}

// Search makes term the active search term and fetches. A blank term
// returns to the unfiltered catalog.
func (s *DealService) Search(ctx context.Context, term string) (model.Snapshot, error) {
	s.mu.Lock()
	s.searchTerm = strings.TrimSpace(term)
	s.mu.Unlock()
	return s.fetch(ctx, s.currentQuery(), "search")
}

// AutoRefresh runs one scheduler tick: the quota is reread, and when the
// last fetch is stale and today's quota allows it, a fetch runs and the
// quota is advanced. The quota is recorded even when the fetch fails.
// Concurrent calls run one after another; a waiting call evaluates the quota
// the previous one recorded.
func (s *DealService) AutoRefresh(ctx context.Context) (RefreshDecision, error) {
	s.autoMu.Lock()
	defer s.autoMu.Unlock()

	now := s.cfg.Now()
	decision := s.cfg.Refresh.Evaluate(s.prefs.FetchQuota(ctx), now)

	s.mu.Lock()
	s.lastDecision = &decision
	s.mu.Unlock()

	if !decision.Trigger {
		s.logger.Debug("Automatic refresh not due",
			slog.Bool("stale", decision.Stale),
			slog.Int("today_count", decision.TodayCount),
		)
		return decision, nil
	}

	s.logger.Info("Automatic refresh triggered", slog.Int("today_count", decision.TodayCount))
	_, err := s.fetch(ctx, s.currentQuery(), "auto")
	if qerr := s.prefs.SaveFetchQuota(ctx, decision.Next(now)); qerr != nil {
		err = errors.Join(err, qerr)
	}
	return decision, err
}

// RefreshDecision evaluates the refresh policy without acting on it.
func (s *DealService) RefreshDecision(ctx context.Context) RefreshDecision {
	return s.cfg.Refresh.Evaluate(s.prefs.FetchQuota(ctx), s.cfg.Now())
}

// LastDecision returns the decision of the most recent scheduler tick.
func (s *DealService) LastDecision() *RefreshDecision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastDecision == nil {
		return nil
	}
	d := *s.lastDecision
	return &d
}

func (s *DealService) currentQuery() model.FetchQuery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := model.FetchQuery{SearchTerm: s.searchTerm}
	switch {
	case s.location != nil:
		loc := *s.location
		q.Location = &loc
	case s.cfg.DefaultLocation != nil:
		loc := *s.cfg.DefaultLocation
		q.Location = &loc
	}
	return q
}

func (s *DealService) fetch(ctx context.Context, q model.FetchQuery, reason string) (model.Snapshot, error) {
	gen := s.requested.Add(1)
	log := s.logger.With(slog.Uint64("generation", gen), slog.String("reason", reason))

	s.mu.Lock()
	s.inflight++
	s.lastErr = ""
	s.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(logger.WithGeneration(ctx, gen), s.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	products, err := s.fetcher.FetchDeals(fetchCtx, q)
	duration := time.Since(start)

	s.mu.Lock()
	s.inflight--

	if gen <= s.applied {
		applied := s.applied
		s.mu.Unlock()
		log.Debug("Discarding superseded catalog response",
			slog.Uint64("applied_generation", applied),
			slog.Duration("duration", duration),
		)
		return model.Snapshot{}, apperror.ErrStaleResponse
	}

	if err != nil {
		s.lastErr = apperror.MsgFetchFailed
		s.mu.Unlock()
		log.Error("Catalog fetch failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		if errors.Is(err, apperror.ErrFetchFailed) {
			return model.Snapshot{}, err
		}
		return model.Snapshot{}, apperror.FetchFailed(err)
	}

	now := s.cfg.Now()
	next := model.Snapshot{
		Products:   products,
		FetchedAt:  now,
		Generation: gen,
		SearchTerm: q.SearchTerm,
		Source:     s.fetcher.Source(),
	}
	if next.Products == nil {
		next.Products = []model.Product{}
	}

	previous := s.current.Products
	s.current = next
	s.applied = gen
	s.lastErr = ""
	s.mu.Unlock()

	events := s.reconcile(ctx, gen, previous, next.Products, now)

	log.Info("Catalog snapshot applied",
		slog.Int("products", len(next.Products)),
		slog.Int("events", len(events)),
		slog.Duration("duration", duration),
	)

	for _, e := range events {
		s.notifier.Notify(ctx, e)
	}
	return next, nil
}

// reconcile carries favorites over to the next snapshot, diffs it against
// the previous one and records expiry alerts in the ledger. It runs after
// the snapshot swap, outside mu. A generation older than one already
// reconciled is skipped.
func (s *DealService) reconcile(ctx context.Context, gen uint64, previous, next []model.Product, now time.Time) []model.Event {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()

	if gen <= s.reconciled {
		s.logger.Debug("Skipping reconcile of superseded snapshot",
			slog.Uint64("generation", gen),
			slog.Uint64("reconciled_generation", s.reconciled),
		)
		return nil
	}
	s.reconciled = gen

	favorites := s.prefs.Favorites(ctx)
	if s.cfg.Identity == IdentityFingerprint && len(previous) > 0 {
		favorites = s.remap(ctx, previous, next, favorites, s.prefs.SaveFavorites)
		s.remap(ctx, previous, next, s.prefs.Comparison(ctx), s.prefs.SaveComparison)
	}

	if s.notifier == nil {
		return nil
	}

	res := Diff(DiffInput{
		Previous:  previous,
		Next:      next,
		Favorites: favorites,
		Ledger:    s.prefs.ExpiryLedger(ctx),
		Granted:   s.notifier.Granted(ctx),
		Now:       now,
		Location:  s.cfg.Refresh.Location,
		Identity:  s.cfg.Identity,
	})

	for _, e := range res.Events {
		if e.Type != model.EventExpiry {
			continue
		}
		if err := s.prefs.MarkExpiryNotified(ctx, e.ProductKey, e.ValidUntil.String()); err != nil {
			s.logger.Warn("Failed to record expiry notification",
				slog.String("product_key", e.ProductKey),
				slog.String("error", err.Error()),
			)
		}
	}
	return res.Events
}

func (s *DealService) remap(ctx context.Context, previous, next []model.Product, ids []string, save func(context.Context, []string) error) []string {
	remapped := RemapIDs(s.cfg.Identity, previous, next, ids)
	if slices.Equal(remapped, ids) {
		return ids
	}
	if err := save(ctx, remapped); err != nil {
		s.logger.Warn("Failed to persist remapped ids", slog.String("error", err.Error()))
	}
	return remapped
}

// Views

// Status is the loading and error state of the catalog.
type Status struct {
	Loading        bool       `json:"loading"`
	Error          string     `json:"error,omitempty"`
	Generation     uint64     `json:"generation"`
	FetchedAt      *time.Time `json:"fetchedAt,omitempty"`
	ProductCount   int        `json:"productCount"`
	SearchTerm     string     `json:"searchTerm"`
	Source         string     `json:"source,omitempty"`
	LocationNotice string     `json:"locationNotice,omitempty"`
	HasLocation    bool       `json:"hasLocation"`
}

func (s *DealService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Loading:        s.inflight > 0,
		Error:          s.lastErr,
		Generation:     s.applied,
		ProductCount:   len(s.current.Products),
		SearchTerm:     s.searchTerm,
		Source:         s.current.Source,
		LocationNotice: s.locationNotice,
		HasLocation:    s.location != nil,
	}
	if !s.current.FetchedAt.IsZero() {
		t := s.current.FetchedAt
		st.FetchedAt = &t
	}
	return st
}

// Snapshot returns the current snapshot. The product slice is shared and
// must not be modified.
func (s *DealService) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *DealService) products() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Products
}

// Visible returns the current snapshot narrowed by the active filters.
func (s *DealService) Visible() []model.Product {
	s.mu.RLock()
	products, f := s.current.Products, s.filters
	s.mu.RUnlock()
	return ApplyFilters(products, f)
}

// Categories lists the categories present in the current snapshot.
func (s *DealService) Categories() []string {
	return DistinctCategories(s.products())
}

// Product looks up one product of the current snapshot.
func (s *DealService) Product(id string) (model.Product, error) {
	if p, ok := s.Snapshot().Find(id); ok {
		return p, nil
	}
	return model.Product{}, fmt.Errorf("%w: %s", apperror.ErrUnknownProduct, id)
}

// Filters

func (s *DealService) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.clone()
}

func (s *DealService) SetFilters(f Filters) (Filters, error) {
	if f.Stores == nil {
		f.Stores = []model.Store{}
	}
	if f.Categories == nil {
		f.Categories = []string{}
	}
	if err := f.Validate(); err != nil {
		return Filters{}, err
	}
	s.mu.Lock()
	s.filters = f.clone()
	s.mu.Unlock()
	return f.clone(), nil
}

// ResetFilters restores DefaultFilters.
func (s *DealService) ResetFilters() Filters {
	s.mu.Lock()
	s.filters = DefaultFilters()
	s.mu.Unlock()
	return DefaultFilters()
}

// Favorites

// FavoriteToggle reports the state after a favorite toggle. PromptPermission
// asks the client to show its notification permission prompt.
type FavoriteToggle struct {
	ProductID        string `json:"productId"`
	Favorite         bool   `json:"favorite"`
	PromptPermission bool   `json:"promptPermission"`
}

func (s *DealService) FavoriteIDs(ctx context.Context) []string {
	return s.prefs.Favorites(ctx)
}

// FavoriteProducts returns the favorited products of the current snapshot.
func (s *DealService) FavoriteProducts(ctx context.Context) []model.Product {
	return SelectByIDs(s.products(), s.prefs.Favorites(ctx))
}

func (s *DealService) IsFavorite(ctx context.Context, id string) bool {
	return slices.Contains(s.prefs.Favorites(ctx), id)
}

func (s *DealService) ToggleFavorite(ctx context.Context, id string) (FavoriteToggle, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return FavoriteToggle{}, apperror.ValidationError("id", "product id is required")
	}

	s.prefsMu.Lock()
	ids, added := toggleID(s.prefs.Favorites(ctx), id)
	err := s.prefs.SaveFavorites(ctx, ids)
	s.prefsMu.Unlock()
	if err != nil {
		return FavoriteToggle{}, err
	}

	res := FavoriteToggle{ProductID: id, Favorite: added}
	if added && s.notifier != nil && s.notifier.Permission(ctx) == model.PermissionDefault {
		res.PromptPermission = true
	}
	return res, nil
}

// Comparison

// ComparisonToggle reports the comparison list after a toggle.
type ComparisonToggle struct {
	ProductID string   `json:"productId"`
	Compared  bool     `json:"compared"`
	IDs       []string `json:"ids"`
}

func (s *DealService) ComparisonIDs(ctx context.Context) []string {
	return s.prefs.Comparison(ctx)
}

// ComparedProducts returns the compared products in the order they were added.
func (s *DealService) ComparedProducts(ctx context.Context) []model.Product {
	return ComparedProducts(s.products(), s.prefs.Comparison(ctx))
}

func (s *DealService) IsCompared(ctx context.Context, id string) bool {
	return slices.Contains(s.prefs.Comparison(ctx), id)
}

// ToggleComparison adds or removes id. Adding to a full list is rejected
// with apperror.ErrComparisonFull and leaves the list unchanged.
func (s *DealService) ToggleComparison(ctx context.Context, id string) (ComparisonToggle, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ComparisonToggle{}, apperror.ValidationError("id", "product id is required")
	}

	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()

	current := s.prefs.Comparison(ctx)
	if !slices.Contains(current, id) && len(current) >= MaxComparison {
		return ComparisonToggle{}, apperror.ComparisonFull()
	}

	ids, added := toggleID(current, id)
	if err := s.prefs.SaveComparison(ctx, ids); err != nil {
		return ComparisonToggle{}, err
	}
	return ComparisonToggle{ProductID: id, Compared: added, IDs: ids}, nil
}

func (s *DealService) ClearComparison(ctx context.Context) error {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()
	return s.prefs.SaveComparison(ctx, []string{})
}

// Location

// LocationReport is what the client's geolocation read produced: either
// coordinates or an error code.
type LocationReport struct {
	Latitude  *float64                `json:"latitude,omitempty"`
	Longitude *float64                `json:"longitude,omitempty"`
	Error     model.LocationErrorCode `json:"error,omitempty"`
}

// LocationNotice is the inline notice shown after a failed location read.
type LocationNotice struct {
	Code    model.LocationErrorCode `json:"code,omitempty"`
	Message string                  `json:"message,omitempty"`
}

// ReportLocation stores the client's coordinates for later fetches. A
// failed read clears them and produces a notice; fetching continues
// without location bias.
func (s *DealService) ReportLocation(report LocationReport) (LocationNotice, error) {
	if report.Error == "" {
		if report.Latitude == nil || report.Longitude == nil {
			return LocationNotice{}, apperror.ValidationError("latitude", "latitude and longitude are required")
		}
		lat, lng := *report.Latitude, *report.Longitude
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return LocationNotice{}, apperror.ValidationError("latitude", "coordinates out of range")
		}
		s.mu.Lock()
		s.location = &model.Location{Latitude: lat, Longitude: lng}
		s.locationNotice = ""
		s.mu.Unlock()
		return LocationNotice{}, nil
	}

	notice := LocationNotice{Code: report.Error, Message: report.Error.Message()}
	s.mu.Lock()
	s.location = nil
	s.locationNotice = notice.Message
	s.mu.Unlock()
	s.logger.Info("Location unavailable", slog.String("code", string(report.Error)))
	return notice, nil
}

// Suggestions and assistant

func (s *DealService) Suggest(ctx context.Context, query string) []string {
	if s.suggester == nil {
		return []string{}
	}
	return s.suggester.Suggest(ctx, query)
}

// AssistantAnswer is the assistant's text plus the referenced products.
type AssistantAnswer struct {
	ResponseText string          `json:"responseText"`
	Products     []model.Product `json:"products"`
}

// Ask answers a shopping question about the current snapshot.
func (s *DealService) Ask(ctx context.Context, query string) (*AssistantAnswer, error) {
	if s.assistant == nil {
		return nil, apperror.Unavailable("assistant is not configured")
	}
	products := s.products()
	reply, err := s.assistant.Ask(ctx, query, products)
	if err != nil {
		return nil, err
	}
	return &AssistantAnswer{
		ResponseText: reply.ResponseText,
		Products:     ComparedProducts(products, reply.RelevantProductIDs),
	}, nil
}

// Ledger

func (s *DealService) ExpiryLedger(ctx context.Context) model.NotificationLedger {
	return s.prefs.ExpiryLedger(ctx)
}

func (s *DealService) ClearExpiryLedger(ctx context.Context) error {
	return s.prefs.ClearExpiryLedger(ctx)
}
