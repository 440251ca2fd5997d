package rates

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_DirectHit(t *testing.T) {
	service := NewService(nil)

	quote, found := service.Resolve("USD", "XAF")
	require.True(t, found)
	assert.Equal(t, SourceTable, quote.Source)
	assert.True(t, quote.Rate.Equal(decimal.RequireFromString("610.25")))
}

func TestResolve_ReciprocalFallback(t *testing.T) {
	service := NewService(nil)

	// XAF-USD is not in the table; the inverse of USD-XAF is used.
	quote, found := service.Resolve("XAF", "USD")
	require.True(t, found)
	assert.Equal(t, SourceReciprocal, quote.Source)

	expected := decimal.NewFromInt(1).Div(decimal.RequireFromString("610.25"))
	assert.True(t, quote.Rate.Equal(expected))
}

func TestResolve_UnknownPairReturnsTaggedDefault(t *testing.T) {
	service := NewService(nil)

	quote, found := service.Resolve("AUD", "JPY")
	assert.False(t, found, "absent in both directions must not report found")
	assert.Equal(t, SourceDefault, quote.Source)
	assert.True(t, quote.Rate.Equal(DefaultRate))
}

func TestResolve_SameCurrency(t *testing.T) {
	service := NewService(nil)

	quote, found := service.Resolve("USD", "usd")
	require.True(t, found)
	assert.True(t, quote.Rate.Equal(decimal.NewFromInt(1)))
}

func TestResolve_CaseInsensitive(t *testing.T) {
	service := NewService(nil)

	quote, found := service.Resolve("usd", "xaf")
	require.True(t, found)
	assert.True(t, quote.Rate.Equal(decimal.RequireFromString("610.25")))
}

func TestResolve_ReciprocalProductIsOne(t *testing.T) {
	// For every pair in the table, rate(a,b) * rate(b,a) must be 1 within
	// decimal division precision.
	service := NewService(nil)
	tolerance := decimal.RequireFromString("0.0000000001")

	for pair := range DefaultTable() {
		var source, target string
		for i := range pair {
			if pair[i] == '-' {
				source, target = pair[:i], pair[i+1:]
				break
			}
		}

		forward, found := service.Resolve(source, target)
		require.True(t, found, "forward %s", pair)
		backward, found := service.Resolve(target, source)
		require.True(t, found, "backward %s", pair)

		product := forward.Rate.Mul(backward.Rate)
		diff := product.Sub(decimal.NewFromInt(1)).Abs()
		assert.True(t, diff.LessThanOrEqual(tolerance),
			"rate(%s)*rate(reverse) = %s", pair, product)
	}
}

func TestNewServiceWithOverrides(t *testing.T) {
	service, err := NewServiceWithOverrides(map[string]string{
		"usd-xaf": "600.00",
		"USD-MAD": "9.85",
	})
	require.NoError(t, err)

	quote, found := service.Resolve("USD", "XAF")
	require.True(t, found)
	assert.True(t, quote.Rate.Equal(decimal.RequireFromString("600.00")))

	quote, found = service.Resolve("USD", "MAD")
	require.True(t, found)
	assert.True(t, quote.Rate.Equal(decimal.RequireFromString("9.85")))
}

func TestNewServiceWithOverrides_RejectsBadRates(t *testing.T) {
	_, err := NewServiceWithOverrides(map[string]string{"USD-XAF": "not-a-number"})
	assert.Error(t, err)

	_, err = NewServiceWithOverrides(map[string]string{"USD-XAF": "-3"})
	assert.Error(t, err)
}

func TestConvert_RoundTrip(t *testing.T) {
	// convert(a, r) / r recovers a within rounding tolerance.
	amounts := []string{"0", "1", "100", "12.34", "999999.99"}
	rate := decimal.RequireFromString("610.25")
	tolerance := decimal.RequireFromString("0.0000000001")

	for _, raw := range amounts {
		amount := decimal.RequireFromString(raw)
		converted := Convert(amount, rate)
		back := converted.Div(rate)
		assert.True(t, back.Sub(amount).Abs().LessThanOrEqual(tolerance),
			"round trip for %s", raw)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"61025":    "61025.00",
		"0":        "0.00",
		"1.005":    "1.00", // half to even
		"1.015":    "1.02",
		"12.349":   "12.35",
		"12.344":   "12.34",
		"0.125":    "0.12",
		"0.135":    "0.14",
		"99999.99": "99999.99",
	}
	for in, want := range cases {
		got := FormatAmount(decimal.RequireFromString(in))
		assert.Equal(t, want, got, "format %s", in)
	}
}

func TestConvertAmount_EndToEnd(t *testing.T) {
	// 100 USD at the fixed 610.25 table rate displays as 61025.00 XAF.
	service := NewService(nil)

	display, quote, err := service.ConvertAmount("100", "USD", "XAF")
	require.NoError(t, err)
	assert.Equal(t, "61025.00", display)
	assert.Equal(t, SourceTable, quote.Source)
}

func TestConvertAmount_RejectsMalformedAmount(t *testing.T) {
	service := NewService(nil)

	_, _, err := service.ConvertAmount("a lot", "USD", "XAF")
	assert.Error(t, err)

	_, _, err = service.ConvertAmount("-10", "USD", "XAF")
	assert.Error(t, err)
}
