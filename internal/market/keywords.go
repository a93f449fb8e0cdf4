package market

import "strings"

// coinKeywords maps free-text keywords to provider coin ids. Longer
// phrases must win over their substrings ("bitcoin cash" vs "bitcoin"),
// so lookup scans phrases by descending length.
var coinKeywords = map[string]string{
	// Bitcoin and variations
	"bitcoin": "bitcoin", "btc": "bitcoin",
	"wrapped bitcoin": "bitcoin",
	"bitcoin cash": "bitcoin-cash", "bch": "bitcoin-cash",

	// Ethereum and variations
	"ethereum": "ethereum", "eth": "ethereum",
	"lido staked ether": "ethereum", "steth": "ethereum",

	// Stablecoins
	"tether": "tether", "usdt": "tether",
	"usdc": "usd-coin", "usd coin": "usd-coin",
	"dai":         "dai",
	"ethena usde": "ethena-usd",

	// Major altcoins
	"cardano": "cardano", "ada": "cardano",
	"dogecoin": "dogecoin", "doge": "dogecoin",
	"ripple": "ripple", "xrp": "ripple",
	"solana": "solana", "sol": "solana",
	"polkadot": "polkadot", "dot": "polkadot",
	"chainlink": "chainlink", "link": "chainlink",
	"avalanche": "avalanche-2", "avax": "avalanche-2",
	"litecoin": "litecoin", "ltc": "litecoin",

	// Other notable coins
	"tron": "tron", "trx": "tron",
	"stellar": "stellar", "xlm": "stellar",
	"hedera": "hedera", "hbar": "hedera",
	"shiba inu": "shiba-inu", "shib": "shiba-inu",
	"leo":    "leo-token",
	"mantra": "mantra-dao", "om": "mantra-dao",
	"sui":     "sui",
	"toncoin": "the-open-network", "ton": "the-open-network",
	"pi network": "pi-network", "pi": "pi-network",
}

// ExtractCoinID finds the coin a free-text question is about.
// Multi-word keywords are checked before single words so that
// "wrapped bitcoin" does not resolve as plain "bitcoin".
func ExtractCoinID(question string) (string, bool) {
	q := strings.ToLower(question)

	var bestKeyword, bestID string
	for keyword, id := range coinKeywords {
		if strings.Contains(q, keyword) && len(keyword) > len(bestKeyword) {
			bestKeyword, bestID = keyword, id
		}
	}
	return bestID, bestKeyword != ""
}
