package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/seenimoa/coindeck/internal/market"
	"github.com/seenimoa/coindeck/pkg/models"
	"github.com/seenimoa/coindeck/pkg/utils"
)

// localAnswer builds an answer from cached market data when the
// insight backend is unreachable. Questions naming a known coin get
// that coin's metrics; anything else gets a market overview. The low
// confidence marks these as degraded-mode answers.
func (s *Server) localAnswer(ctx context.Context, question string) (models.Answer, bool) {
	if id, ok := market.ExtractCoinID(question); ok {
		entry, err := s.market.Coin(ctx, id)
		if err != nil {
			return models.Answer{}, false
		}
		return models.Answer{
			Text: fmt.Sprintf("%s (%s) is trading at $%v, %+.2f%% over the last 24 hours.",
				entry.Name, strings.ToUpper(entry.Symbol),
				entry.CurrentPrice, entry.PriceChangePercentage24h),
			Sentiment:  changeSentiment(entry.PriceChangePercentage24h),
			Confidence: utils.CapConfidence(0.7),
			Metrics:    utils.CoinMetrics(*entry),
		}, true
	}

	entries, err := s.market.Entries(ctx)
	if err != nil || len(entries) == 0 {
		return models.Answer{}, false
	}

	var changeSum float64
	for _, e := range entries {
		changeSum += e.PriceChangePercentage24h
	}
	avg := changeSum / float64(len(entries))

	return models.Answer{
		Text: fmt.Sprintf("Across the top %d coins the market is averaging %+.2f%% over the last 24 hours.",
			len(entries), avg),
		Sentiment:  changeSentiment(avg),
		Confidence: utils.CapConfidence(0.5),
		Metrics:    utils.MarketOverview(entries),
	}, true
}

// changeSentiment labels a 24h percentage change.
func changeSentiment(change float64) string {
	switch {
	case change > 1:
		return "positive"
	case change < -1:
		return "negative"
	default:
		return "neutral"
	}
}
