package market

import "github.com/seenimoa/coindeck/pkg/models"

// geckoMarket is the provider-native market entry shape
// (CoinGecko /coins/markets). Only the fields the service consumes
// are decoded; the raw passthrough route never goes through this type.
type geckoMarket struct {
	ID                       string          `json:"id"`
	Symbol                   string          `json:"symbol"`
	Name                     string          `json:"name"`
	CurrentPrice             float64         `json:"current_price"`
	MarketCap                float64         `json:"market_cap"`
	TotalVolume              float64         `json:"total_volume"`
	PriceChangePercentage24h float64         `json:"price_change_percentage_24h"`
	Sparkline                *geckoSparkline `json:"sparkline_in_7d,omitempty"`
}

type geckoSparkline struct {
	Price []float64 `json:"price"`
}

// Entry maps the provider-native shape to the canonical MarketEntry.
func (g geckoMarket) Entry() models.MarketEntry {
	e := models.MarketEntry{
		ID:                       g.ID,
		Symbol:                   g.Symbol,
		Name:                     g.Name,
		CurrentPrice:             g.CurrentPrice,
		MarketCap:                g.MarketCap,
		TotalVolume:              g.TotalVolume,
		PriceChangePercentage24h: g.PriceChangePercentage24h,
	}
	if g.Sparkline != nil {
		e.Sparkline7d = g.Sparkline.Price
	}
	return e
}
