package market

import (
	"fmt"
	"strings"
)

// InstrumentMeta describes a tradeable currency pair.
type InstrumentMeta struct {
	Name          string
	BaseCurrency  string
	QuoteCurrency string
	PipLocation   int
}

// Instruments is the catalogue of pairs the scanner knows how to trade.
var Instruments = map[string]InstrumentMeta{
	"EURUSD": {Name: "EURUSD", BaseCurrency: "EUR", QuoteCurrency: "USD", PipLocation: -4},
	"GBPUSD": {Name: "GBPUSD", BaseCurrency: "GBP", QuoteCurrency: "USD", PipLocation: -4},
	"USDJPY": {Name: "USDJPY", BaseCurrency: "USD", QuoteCurrency: "JPY", PipLocation: -2},
	"AUDUSD": {Name: "AUDUSD", BaseCurrency: "AUD", QuoteCurrency: "USD", PipLocation: -4},
	"USDCAD": {Name: "USDCAD", BaseCurrency: "USD", QuoteCurrency: "CAD", PipLocation: -4},
	"USDCHF": {Name: "USDCHF", BaseCurrency: "USD", QuoteCurrency: "CHF", PipLocation: -4},
	"NZDUSD": {Name: "NZDUSD", BaseCurrency: "NZD", QuoteCurrency: "USD", PipLocation: -4},
	"EURGBP": {Name: "EURGBP", BaseCurrency: "EUR", QuoteCurrency: "GBP", PipLocation: -4},
	"EURJPY": {Name: "EURJPY", BaseCurrency: "EUR", QuoteCurrency: "JPY", PipLocation: -2},
	"GBPJPY": {Name: "GBPJPY", BaseCurrency: "GBP", QuoteCurrency: "JPY", PipLocation: -2},
}

// DefaultBasket is the scan order used when no basket is configured.
var DefaultBasket = []string{
	"EURUSD", "GBPUSD", "USDJPY", "AUDUSD", "USDCAD",
	"USDCHF", "NZDUSD", "EURGBP", "EURJPY", "GBPJPY",
}

// Lookup returns the pair metadata. Unknown six-letter codes are split
// into base and quote so the scanner can still run them.
func Lookup(asset string) (InstrumentMeta, error) {
	name := CanonicalAsset(asset)
	if m, ok := Instruments[name]; ok {
		return m, nil
	}
	if len(name) != 6 {
		return InstrumentMeta{}, fmt.Errorf("unknown instrument: %s", asset)
	}
	return InstrumentMeta{
		Name:          name,
		BaseCurrency:  name[:3],
		QuoteCurrency: name[3:],
		PipLocation:   -4,
	}, nil
}

// CanonicalAsset strips separators and suffixes: "eur_usd", "EUR/USD" and
// "EURUSD-OTC" all map to "EURUSD".
func CanonicalAsset(asset string) string {
	s := strings.ToUpper(strings.TrimSpace(asset))
	if i := strings.Index(s, "-"); i > 0 {
		s = s[:i]
	}
	s = strings.NewReplacer("_", "", "/", "").Replace(s)
	return s
}

// OandaName converts "EURUSD" to "EUR_USD".
func OandaName(asset string) string {
	s := CanonicalAsset(asset)
	if len(s) != 6 {
		return s
	}
	return s[:3] + "_" + s[3:]
}
