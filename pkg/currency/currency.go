// Package currency provides money formatting for shelf prices.
// All monetary amounts are stored as decimal.Decimal to avoid floating-point errors.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents an ISO 4217 currency code.
type Currency string

// Supported currencies.
const (
	HUF Currency = "HUF" // Hungarian Forint
	EUR Currency = "EUR" // Euro
)

// DefaultCurrency is the currency of every catalog price.
const DefaultCurrency = HUF

// CurrencyInfo contains metadata about a currency.
type CurrencyInfo struct {
	Code          Currency
	Name          string
	Symbol        string
	DecimalPlaces int    // Number of decimal places (0 for HUF)
	SymbolBefore  bool   // Whether symbol appears before amount
	ThousandsSep  string // Thousands separator
	DecimalSep    string // Decimal separator
}

var currencies = map[Currency]CurrencyInfo{
	HUF: {Code: HUF, Name: "Hungarian Forint", Symbol: "Ft", DecimalPlaces: 0, SymbolBefore: false, ThousandsSep: " ", DecimalSep: ","},
	EUR: {Code: EUR, Name: "Euro", Symbol: "€", DecimalPlaces: 2, SymbolBefore: false, ThousandsSep: " ", DecimalSep: ","},
}

// GetInfo returns metadata for a currency code.
func GetInfo(code Currency) (CurrencyInfo, bool) {
	info, ok := currencies[code]
	return info, ok
}

// Money represents a monetary amount with currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// NewMoney creates a new Money value.
func NewMoney(amount decimal.Decimal, curr Currency) Money {
	if curr == "" {
		curr = DefaultCurrency
	}
	return Money{Amount: amount, Currency: curr}
}

// Forint is shorthand for a HUF amount.
func Forint(amount decimal.Decimal) Money {
	return NewMoney(amount, HUF)
}

// Format renders the amount with grouped thousands and the currency symbol,
// e.g. "1 299 Ft".
func (m Money) Format() string {
	info, ok := GetInfo(m.Currency)
	if !ok {
		return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
	}

	number := groupDigits(m.Amount.Round(int32(info.DecimalPlaces)), info)
	if info.SymbolBefore {
		return info.Symbol + number
	}
	return number + " " + info.Symbol
}

// String returns the amount as a plain string.
func (m Money) String() string {
	info, ok := GetInfo(m.Currency)
	if !ok {
		return m.Amount.String()
	}
	return m.Amount.Round(int32(info.DecimalPlaces)).String()
}

func groupDigits(amount decimal.Decimal, info CurrencyInfo) string {
	fixed := amount.Abs().StringFixed(int32(info.DecimalPlaces))

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(info.ThousandsSep)
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteString(info.DecimalSep)
		b.WriteString(fracPart)
	}
	return b.String()
}

// ParseAmount reads a shelf price as printed on Hungarian flyers, such as
// "1 299 Ft", "1.299,-" or "499,90". Spaces (including non-breaking ones)
// and dots group thousands; a comma starts the fraction.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == ',':
			return r
		default:
			return -1
		}
	}, s)
	cleaned = strings.TrimRight(cleaned, ",")
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	if cleaned == "" || strings.Contains(cleaned, ",") {
		return decimal.Zero, fmt.Errorf("no amount in %q", s)
	}
	return decimal.NewFromString(cleaned)
}
