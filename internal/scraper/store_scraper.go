package scraper

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/akciovadasz/backend/internal/catalog"
	"github.com/akciovadasz/backend/internal/scraper/pdf"
	"github.com/akciovadasz/backend/pkg/currency"
	"github.com/akciovadasz/backend/pkg/datetime"
)

// StoreScraper reads the current flyer of one store.
type StoreScraper interface {
	Store() string
	Scrape(ctx context.Context) ([]catalog.RawProduct, error)
}

// Renderer turns a JavaScript-driven page into HTML. Implemented by
// browser.Pool.
type Renderer interface {
	RenderHTML(ctx context.Context, url, waitFor string) (string, error)
}

// Common user agents for rotation
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// productNamespace seeds the stable ids of scraped products.
var productNamespace = uuid.MustParse("6f1c1f0e-5b1a-4d7e-9a57-3c1b2d8e4a10")

// NewStoreScraper picks the scraper implementation for a source kind.
// renderer may be nil when no source is of kind rendered.
func NewStoreScraper(src FlyerSource, client *http.Client, renderer Renderer, loc *time.Location) (StoreScraper, error) {
	base := baseScraper{src: src, client: client, loc: loc, now: time.Now}
	switch src.Kind {
	case KindHTML:
		return &htmlScraper{baseScraper: base}, nil
	case KindPDF:
		return &pdfScraper{baseScraper: base}, nil
	case KindRendered:
		if renderer == nil {
			return nil, fmt.Errorf("%s: %w: rendered source needs a browser", src.Store, ErrUnsupportedSource)
		}
		return &renderedScraper{baseScraper: base, renderer: renderer}, nil
	default:
		return nil, fmt.Errorf("%s: %w %q", src.Store, ErrUnsupportedSource, src.Kind)
	}
}

type baseScraper struct {
	src    FlyerSource
	client *http.Client
	loc    *time.Location
	now    func() time.Time
}

func (b *baseScraper) Store() string { return string(b.src.Store) }

// fetchDocument fetches a flyer page and parses it with goquery.
func (b *baseScraper) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "hu-HU,hu;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrStoreUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrInvalidResponse, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	return doc, nil
}

// transportError classifies a failed request: timeouts become
// ErrNetworkTimeout, everything else ErrStoreUnavailable.
func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrNetworkTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// defaultValidUntil is the end date used when the flyer prints none.
func (b *baseScraper) defaultValidUntil() string {
	return datetime.DateOf(b.now(), b.loc).AddDays(b.src.ValidDays).String()
}

// productID derives an id that stays the same for the same item across scrapes.
func (b *baseScraper) productID(name, unit string) string {
	key := strings.ToLower(string(b.src.Store) + "|" + strings.TrimSpace(name) + "|" + unit)
	return uuid.NewSHA1(productNamespace, []byte(key)).String()
}

// parseDocument extracts product cards with the source selectors.
func (b *baseScraper) parseDocument(doc *goquery.Document) []catalog.RawProduct {
	sel := b.src.Selectors
	var out []catalog.RawProduct

	doc.Find(sel.Item).Each(func(_ int, card *goquery.Selection) {
		name := cleanText(card.Find(sel.Name).First().Text())
		if name == "" {
			return
		}
		sale, err := currency.ParseAmount(card.Find(sel.SalePrice).First().Text())
		if err != nil {
			return
		}

		original := decimal.Zero
		if sel.OriginalPrice != "" {
			if v, err := currency.ParseAmount(card.Find(sel.OriginalPrice).First().Text()); err == nil {
				original = v
			}
		}

		unit := ""
		if sel.Unit != "" {
			unit = cleanText(card.Find(sel.Unit).First().Text())
		}

		category := b.src.DefaultCategory
		if sel.Category != "" {
			if c := cleanText(card.Find(sel.Category).First().Text()); c != "" {
				category = c
			}
		}

		image := ""
		if sel.Image != "" {
			img := card.Find(sel.Image).First()
			image = img.AttrOr("src", img.AttrOr("data-src", ""))
		}

		validUntil := b.defaultValidUntil()
		if sel.ValidUntil != "" {
			if d, ok := parseFlyerDate(card.Find(sel.ValidUntil).First().Text(), b.now(), b.loc); ok {
				validUntil = d
			}
		}

		out = append(out, catalog.RawProduct{
			ID:            b.productID(name, unit),
			Name:          name,
			Store:         string(b.src.Store),
			Category:      category,
			OriginalPrice: original,
			SalePrice:     sale,
			ValidUntil:    validUntil,
			ImageURL:      image,
			Unit:          unit,
		})
	})
	return out
}

type htmlScraper struct {
	baseScraper
}

func (s *htmlScraper) Scrape(ctx context.Context) ([]catalog.RawProduct, error) {
	doc, err := s.fetchDocument(ctx)
	if err != nil {
		return nil, NewScrapeError(s.Store(), "fetch", err)
	}
	return s.parseDocument(doc), nil
}

type renderedScraper struct {
	baseScraper
	renderer Renderer
}

func (s *renderedScraper) Scrape(ctx context.Context) ([]catalog.RawProduct, error) {
	html, err := s.renderer.RenderHTML(ctx, s.src.URL, s.src.WaitFor)
	if err != nil {
		return nil, NewScrapeError(s.Store(), "render", transportError(err))
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, NewScrapeError(s.Store(), "parse", fmt.Errorf("%w: %v", ErrParsingFailed, err))
	}
	return s.parseDocument(doc), nil
}

type pdfScraper struct {
	baseScraper
}

func (s *pdfScraper) Scrape(ctx context.Context) ([]catalog.RawProduct, error) {
	path, err := pdf.DownloadPDF(ctx, s.client, s.src.URL)
	if err != nil {
		return nil, NewScrapeError(s.Store(), "download", transportError(err))
	}
	defer func() { _ = os.Remove(path) }()

	text, err := pdf.ExtractText(path)
	if err != nil {
		return nil, NewScrapeError(s.Store(), "extract", fmt.Errorf("%w: %v", ErrParsingFailed, err))
	}

	validUntil := s.defaultValidUntil()
	lines := pdf.ParseFlyerText(text)
	out := make([]catalog.RawProduct, 0, len(lines))
	for _, l := range lines {
		out = append(out, catalog.RawProduct{
			ID:            s.productID(l.Name, l.Unit),
			Name:          l.Name,
			Store:         string(s.src.Store),
			Category:      s.src.DefaultCategory,
			OriginalPrice: l.OriginalPrice,
			SalePrice:     l.SalePrice,
			ValidUntil:    validUntil,
			Unit:          l.Unit,
		})
	}
	return out, nil
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
