// Package app assembles the deal engine from configuration. Both the API
// server and dealctl build their components through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/akciovadasz/backend/internal/catalog"
	"github.com/akciovadasz/backend/internal/config"
	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/internal/repository"
	"github.com/akciovadasz/backend/internal/scraper"
	"github.com/akciovadasz/backend/internal/scraper/browser"
	"github.com/akciovadasz/backend/internal/service"
	"github.com/akciovadasz/backend/pkg/datetime"
)

// Catalog sources accepted in CATALOG_SOURCE.
const (
	SourceAI     = "ai"
	SourceFlyers = "flyers"
)

var ErrNoAPIKey = errors.New("no API key configured for the AI provider")

// App holds the wired components.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Location      *time.Location
	Store         repository.KVStore
	Prefs         *repository.PreferenceRepository
	Fetcher       service.CatalogFetcher
	Flyers        *scraper.Orchestrator // nil unless the catalog comes from flyers
	Notifications *service.NotificationService
	Deals         *service.DealService

	closers []func() error
}

// Options override parts of the wiring, mainly for tests.
type Options struct {
	Store   repository.KVStore
	Fetcher service.CatalogFetcher
	Senders []service.Sender
	Now     func() time.Time
}

// New builds every component described by cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Location: datetime.LoadLocation(cfg.Timezone),
	}

	store := opts.Store
	if store == nil {
		var err error
		store, err = repository.Open(ctx, repository.StoreConfig{
			Backend: cfg.PrefsBackend,
			Path:    cfg.PrefsPath,
			DSN:     cfg.DatabaseURL,
			Driver:  cfg.DatabaseDriver,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open preference store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
	}
	a.Store = store
	a.Prefs = repository.NewPreferenceRepository(store, logger)

	gen, genErr := NewGenerator(cfg)

	a.Fetcher = opts.Fetcher
	if a.Fetcher == nil {
		fetcher, err := a.newFetcher(gen, genErr)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Fetcher = fetcher
	}

	senders := opts.Senders
	if senders == nil {
		senders = a.newSenders()
	}
	a.Notifications = service.NewNotificationService(a.Prefs, logger, senders...)

	dealCfg := service.DealServiceConfig{
		FetchTimeout: cfg.FetchTimeout,
		Refresh: service.RefreshPolicy{
			StaleAfter: cfg.RefreshStaleAfter,
			DailyLimit: cfg.RefreshDailyLimit,
			Location:   a.Location,
		},
		Identity: service.ParseIdentityMode(cfg.DiffIdentity),
		Now:      opts.Now,
	}
	if cfg.HasDefaultLocation() {
		dealCfg.DefaultLocation = &model.Location{Latitude: cfg.DefaultLatitude, Longitude: cfg.DefaultLongitude}
	}
	a.Deals = service.NewDealService(dealCfg, a.Fetcher, a.Prefs, a.Notifications, logger)

	if genErr == nil {
		a.Deals.WithAssistant(catalog.NewSuggester(gen, logger), catalog.NewAssistant(gen, logger))
	} else {
		logger.Warn("AI assistant disabled", slog.String("reason", genErr.Error()))
	}

	return a, nil
}

// NewGenerator returns the configured LLM client.
func NewGenerator(cfg *config.Config) (catalog.Generator, error) {
	switch strings.ToLower(cfg.AIProvider) {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY", ErrNoAPIKey)
		}
		return catalog.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.FetchTimeout), nil
	case "gemini", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY", ErrNoAPIKey)
		}
		return catalog.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.FetchTimeout), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}

func (a *App) newFetcher(gen catalog.Generator, genErr error) (service.CatalogFetcher, error) {
	switch strings.ToLower(a.Config.CatalogSource) {
	case SourceAI, "":
		if genErr != nil {
			return nil, genErr
		}
		return catalog.NewAIFetcher(gen, a.Location, a.Logger), nil

	case SourceFlyers:
		sources, err := scraper.LoadSources(a.Config.FlyerSourcesFile)
		if err != nil {
			return nil, err
		}

		var renderer scraper.Renderer
		if a.Config.FlyerRender && scraper.NeedsBrowser(sources) {
			pool, err := browser.NewPool(browser.DefaultPoolConfig(), a.Logger)
			if err != nil {
				return nil, fmt.Errorf("start browser: %w", err)
			}
			a.closers = append(a.closers, pool.Close)
			renderer = pool
		}

		orch, err := scraper.NewOrchestratorFromSources(scraper.DefaultOrchestratorConfig(), sources, renderer, a.Location, a.Logger)
		if err != nil {
			return nil, err
		}
		a.Flyers = orch
		return orch, nil

	default:
		return nil, fmt.Errorf("unknown catalog source %q", a.Config.CatalogSource)
	}
}

func (a *App) newSenders() []service.Sender {
	senders := []service.Sender{service.NewLogSender(a.Logger)}

	if wp := service.NewWebPushSender(service.WebPushConfig{
		PublicKey:  a.Config.VAPIDPublicKey,
		PrivateKey: a.Config.VAPIDPrivateKey,
		Subject:    a.Config.VAPIDSubject,
	}, a.Prefs, nil, a.Logger); wp != nil {
		senders = append(senders, wp)
	}

	if a.Config.TelegramEnabled() {
		bot, err := tgbotapi.NewBotAPI(a.Config.TelegramBotToken)
		if err != nil {
			a.Logger.Warn("Telegram notifications disabled", slog.String("error", err.Error()))
		} else {
			senders = append(senders, service.NewTelegramSender(bot, a.Config.TelegramChatID))
		}
	}
	return senders
}

// ScraperHealth returns the flyer orchestrator, or nil when the catalog
// does not come from flyers.
func (a *App) ScraperHealth() interface {
	GetHealthStatus() scraper.HealthStatus
} {
	if a.Flyers == nil {
		return nil
	}
	return a.Flyers
}

// Close releases the store and the browser.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
