package rates

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Source tells a caller where a resolved rate came from. The legacy client
// collapsed "no rate available" into a silent default of 1; tagging the
// result keeps the conversion path total while letting callers tell the
// fallback apart from a real rate.
type Source string

const (
	SourceTable      Source = "table"      // direct hit on the configured pair
	SourceReciprocal Source = "reciprocal" // inverse of the reverse pair
	SourceDefault    Source = "default"    // neither direction configured
)

// DefaultRate is returned when a pair is absent in both directions.
var DefaultRate = decimal.NewFromInt(1)

// Quote is a resolved exchange rate for an ordered currency pair
type Quote struct {
	Rate   decimal.Decimal
	Source Source
}

// Table maps ordered currency-pair keys ("USD-XAF") to positive rates.
// It is immutable at runtime; entries come from the baked-in defaults
// merged with config overrides.
type Table map[string]decimal.Decimal

// DefaultTable returns the rates baked into the client.
func DefaultTable() Table {
	return Table{
		"USD-XAF": decimal.RequireFromString("610.25"),
		"EUR-XAF": decimal.RequireFromString("655.96"),
		"GBP-XAF": decimal.RequireFromString("765.40"),
		"USD-NGN": decimal.RequireFromString("1580.50"),
		"EUR-NGN": decimal.RequireFromString("1699.80"),
		"USD-GHS": decimal.RequireFromString("15.62"),
		"USD-KES": decimal.RequireFromString("129.15"),
		"USD-EUR": decimal.RequireFromString("0.92"),
		"GBP-USD": decimal.RequireFromString("1.27"),
	}
}

// Service resolves exchange rates and performs currency conversion
type Service struct {
	table Table
}

// NewService creates a rate service over the given table.
// A nil table means the baked-in defaults.
func NewService(table Table) *Service {
	if table == nil {
		table = DefaultTable()
	}
	return &Service{table: table}
}

// NewServiceWithOverrides merges configured rate strings over the default
// table. Override values must parse as positive decimals.
func NewServiceWithOverrides(overrides map[string]string) (*Service, error) {
	table := DefaultTable()
	for pair, raw := range overrides {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errors.New("invalid rate for pair " + pair + ": " + raw)
		}
		if rate.LessThanOrEqual(decimal.Zero) {
			return nil, errors.New("rate for pair " + pair + " must be positive")
		}
		table[strings.ToUpper(pair)] = rate
	}
	return &Service{table: table}, nil
}

func pairKey(source, target string) string {
	return source + "-" + target
}

// Resolve returns the rate for the ordered pair (source, target).
// Lookup order:
//  1. the pair itself
//  2. the reverse pair, inverted
//  3. DefaultRate, with found=false
//
// The function is total: it never errors, and found=false is the only
// signal that the returned rate is the fallback rather than real data.
func (s *Service) Resolve(source, target string) (Quote, bool) {
	source = strings.ToUpper(source)
	target = strings.ToUpper(target)

	if source == target {
		return Quote{Rate: DefaultRate, Source: SourceTable}, true
	}

	if rate, ok := s.table[pairKey(source, target)]; ok && rate.IsPositive() {
		return Quote{Rate: rate, Source: SourceTable}, true
	}

	if reverse, ok := s.table[pairKey(target, source)]; ok && reverse.IsPositive() {
		return Quote{Rate: DefaultRate.Div(reverse), Source: SourceReciprocal}, true
	}

	return Quote{Rate: DefaultRate, Source: SourceDefault}, false
}

// ResolveOrDefault is the legacy total lookup: the fallback quote is
// returned as-is when the pair is unknown.
func (s *Service) ResolveOrDefault(source, target string) Quote {
	quote, _ := s.Resolve(source, target)
	return quote
}

// Convert multiplies an amount by a rate using decimal arithmetic.
// No rounding happens here; formatting is a display concern.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate)
}

// FormatAmount renders an amount for display with exactly two fractional
// digits, rounding half to even. Banker's rounding avoids the systematic
// drift that round-half-up introduces when display amounts get summed.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixedBank(2)
}

// ConvertAmount parses a decimal amount string, resolves the pair, and
// returns the 2dp display string together with the quote used.
func (s *Service) ConvertAmount(amount, source, target string) (string, Quote, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return "", Quote{}, errors.New("invalid amount: " + amount)
	}
	if value.IsNegative() {
		return "", Quote{}, errors.New("amount must not be negative")
	}

	quote := s.ResolveOrDefault(source, target)
	return FormatAmount(Convert(value, quote.Rate)), quote, nil
}
