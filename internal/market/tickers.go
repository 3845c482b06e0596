// Package market holds static reference lists of known ticker symbols per
// asset class. Reference data only; nothing here talks to the network.
package market

import (
	"fmt"
	"sort"
	"strings"
)

var cryptoTickers = []string{
	"BTC-USD", "ETH-USD", "SOL1-USD", "ADA-USD", "XRP-USD", "DOT1-USD",
	"LUNA1-USD", "DOGE-USD", "AVAX-USD", "SHIB-USD", "ALGO-USD", "LTC-USD",
	"UNI3-USD", "BCH-USD", "XLM-USD", "TRX-USD", "TON-USD", "BNB-USD",
}

var indicesTickers = []string{
	"^DJI", "^GSPC", "^IXIC", "^VIX", "^HSI", "^N225", "DX-Y.NYB",
}

var forexTickers = []string{
	"EURUSD=X", "JPY=X", "GBPUSD=X", "EURJPY=X",
}

var stocksTickers = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "META", "NVDA", "NFLX", "AMD", "INTC",
	"CRM", "ADBE", "PYPL", "UBER", "LYFT", "ZM", "SQ", "ROKU", "SPOT", "TWTR",
	"BABA", "JD", "PDD", "NIO", "XPEV", "LI", "BIDU", "TME", "VIPS", "YMM",
	"JPM", "BAC", "WFC", "GS", "MS", "C", "USB", "PNC", "TFC", "COF",
}

var commoditiesTickers = []string{
	"GC=F", "SI=F", "ZN=F", "ZS=F",
}

var markets = map[string][]string{
	"crypto":      cryptoTickers,
	"stocks":      stocksTickers,
	"forex":       forexTickers,
	"indices":     indicesTickers,
	"commodities": commoditiesTickers,
}

// List returns the known tickers for a market.
func List(name string) ([]string, error) {
	tickers, ok := markets[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown market %q, supported markets: %s", name, strings.Join(Names(), ", "))
	}
	return append([]string(nil), tickers...), nil
}

// Names returns the supported market names, sorted.
func Names() []string {
	names := make([]string, 0, len(markets))
	for name := range markets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
