package ratesource

// Static tables served when both the live feed and the cache fail.
// Fiat values are units per USD, crypto values are USD prices.
var (
	staticFiatRates = map[string]float64{
		"USD": 1,
		"PHP": 56.5,
		"EUR": 0.92,
		"GBP": 0.79,
		"JPY": 150,
		"SGD": 1.35,
		"AUD": 1.52,
		"CAD": 1.36,
		"HKD": 7.82,
		"CNY": 7.24,
	}

	staticCryptoPrices = map[string]float64{
		"BTC":  65000,
		"ETH":  3200,
		"USDT": 1,
		"USDC": 1,
		"BNB":  580,
		"SOL":  150,
		"XRP":  0.52,
		"ADA":  0.45,
		"DOGE": 0.15,
	}
)

// coinIDs maps currency codes to the crypto feed's coin identifiers.
var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"USDT": "tether",
	"USDC": "usd-coin",
	"BNB":  "binancecoin",
	"SOL":  "solana",
	"XRP":  "ripple",
	"ADA":  "cardano",
	"DOGE": "dogecoin",
}

func staticTable(feed string) map[string]float64 {
	src := staticFiatRates
	if feed == FeedCrypto {
		src = staticCryptoPrices
	}

	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
