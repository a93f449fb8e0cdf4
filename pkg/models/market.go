package models

// MarketEntry is the canonical snapshot of one tradable asset.
//
// Upstream providers use their own field names (market_cap,
// price_change_percentage_24h, sparkline_in_7d); the mapping to this
// shape happens once, in the market client, never in handlers.
type MarketEntry struct {
	ID                       string    `json:"id"`
	Symbol                   string    `json:"symbol"`
	Name                     string    `json:"name"`
	CurrentPrice             float64   `json:"currentPrice"`
	MarketCap                float64   `json:"marketCap,omitempty"`
	TotalVolume              float64   `json:"totalVolume,omitempty"`
	PriceChangePercentage24h float64   `json:"priceChangePercentage24h"`
	Sparkline7d              []float64 `json:"sparkline7d,omitempty"`
}
