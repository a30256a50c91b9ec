// Package pdf extracts deal lines from printed (PDF) store flyers.
package pdf

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"github.com/akciovadasz/backend/pkg/currency"
)

// DownloadPDF downloads a PDF to a temp file and returns its path.
// The caller is responsible for removing the temp file.
func DownloadPDF(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	// Set headers to mimic a browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/pdf,*/*")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading PDF: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp("", "flyer_*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return "", fmt.Errorf("writing PDF: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFile.Name())
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	return tmpFile.Name(), nil
}

// ExtractText extracts all text from a PDF file, one page after another.
func ExtractText(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(content)
		text.WriteString("\n")
	}

	return text.String(), nil
}

// FlyerLine is one product parsed from flyer text.
type FlyerLine struct {
	Name          string
	SalePrice     decimal.Decimal
	OriginalPrice decimal.Decimal // zero when the flyer shows a single price
	Unit          string
}

var (
	pricePattern = regexp.MustCompile(`(\d{1,3}(?:[ .]\d{3})*(?:,\d{1,2})?)\s*(?:Ft|,-)`)
	unitPattern  = regexp.MustCompile(`(?i)/\s*(kg|g|l|ml|db|csomag|cs|pár)\b`)
	spacePattern = regexp.MustCompile(`[ ]+`)
)

// ParseFlyerText finds product lines: a name followed by one or two forint
// prices, e.g. "Trappista sajt 2 490 Ft 1 990 Ft/kg". When two prices are
// printed the higher one is the original. A line holding only prices takes
// its name from the line above.
func ParseFlyerText(text string) []FlyerLine {
	lines := strings.Split(normalizeText(text), "\n")

	var out []FlyerLine
	seen := make(map[string]bool)
	prevName := ""

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		locs := pricePattern.FindAllStringSubmatchIndex(line, -1)
		if len(locs) == 0 {
			prevName = line
			continue
		}

		name := strings.TrimSpace(line[:locs[0][0]])
		if !hasLetter(name) {
			name = prevName
		}
		prevName = ""
		if !hasLetter(name) {
			continue
		}

		var prices []decimal.Decimal
		for _, loc := range locs {
			amount, err := currency.ParseAmount(line[loc[2]:loc[3]])
			if err != nil || !amount.IsPositive() {
				continue
			}
			prices = append(prices, amount)
		}
		if len(prices) == 0 {
			continue
		}

		fl := FlyerLine{Name: name, SalePrice: prices[0]}
		if len(prices) >= 2 {
			a, b := prices[0], prices[1]
			fl.SalePrice = decimal.Min(a, b)
			fl.OriginalPrice = decimal.Max(a, b)
		}
		if m := unitPattern.FindStringSubmatch(line[locs[0][0]:]); m != nil {
			fl.Unit = strings.ToLower(m[1])
		}

		key := strings.ToLower(fl.Name) + "|" + fl.SalePrice.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, fl)
	}

	return out
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\t", " ")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = strings.ReplaceAll(text, "\u202f", " ")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return spacePattern.ReplaceAllString(text, " ")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
