// Package utils provides common utility functions for coindeck.
package utils

import (
	"fmt"
	"math"

	"github.com/seenimoa/coindeck/pkg/models"
)

// FormatLargeNumber formats a number in compact K/M/B/T notation.
// e.g., 1927345 → "1.93M", 192734500000 → "192.73B"
func FormatLargeNumber(n float64) string {
	negative := n < 0
	n = math.Abs(n)

	prefix := ""
	if negative {
		prefix = "-"
	}

	switch {
	case n >= 1e12:
		return fmt.Sprintf("%s%.2fT", prefix, n/1e12)
	case n >= 1e9:
		return fmt.Sprintf("%s%.2fB", prefix, n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%s%.2fM", prefix, n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%s%.2fK", prefix, n/1e3)
	default:
		return fmt.Sprintf("%s%.2f", prefix, n)
	}
}

// CapConfidence clamps a model confidence score to at most 0.95.
// A question classifier should never report near-certainty to users.
func CapConfidence(score float64) float64 {
	return math.Min(score, 0.95)
}

// CoinMetrics builds the display-formatted metrics map for one asset.
func CoinMetrics(e models.MarketEntry) map[string]string {
	return map[string]string{
		"price":     fmt.Sprintf("$%v", e.CurrentPrice),
		"marketCap": "$" + FormatLargeNumber(e.MarketCap),
		"volume24h": "$" + FormatLargeNumber(e.TotalVolume),
		"change24h": fmt.Sprintf("%v%%", e.PriceChangePercentage24h),
	}
}

// MarketOverview builds aggregate display metrics over a market snapshot.
func MarketOverview(entries []models.MarketEntry) map[string]string {
	if len(entries) == 0 {
		return map[string]string{}
	}

	var totalCap, totalVolume, changeSum float64
	for _, e := range entries {
		totalCap += e.MarketCap
		totalVolume += e.TotalVolume
		changeSum += e.PriceChangePercentage24h
	}

	return map[string]string{
		"totalMarketCap": "$" + FormatLargeNumber(totalCap),
		"totalVolume":    "$" + FormatLargeNumber(totalVolume),
		"avgChange24h":   fmt.Sprintf("%.2f%%", changeSum/float64(len(entries))),
		"coinsAnalyzed":  fmt.Sprintf("%d", len(entries)),
	}
}
