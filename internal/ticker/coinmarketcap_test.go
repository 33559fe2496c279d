package ticker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/watch-bridge/internal/common"
	"github.com/i474232898/watch-bridge/internal/convert"
	"github.com/i474232898/watch-bridge/internal/protocol"
)

func TestCoinSlug(t *testing.T) {
	tests := map[protocol.Coin]string{
		protocol.CoinBitcoin:         "bitcoin",
		protocol.CoinEthereum:        "ethereum",
		protocol.CoinRipple:          "ripple",
		protocol.CoinLitecoin:        "litecoin",
		protocol.CoinBitcoinCash:     "bitcoin-cash",
		protocol.CoinEthereumClassic: "ethereum-classic",
		protocol.Coin(0):             "bitcoin",
		protocol.Coin(99):            "bitcoin",
	}
	for coin, want := range tests {
		assert.Equal(t, want, CoinSlug(coin), "coin %d", coin)
	}
}

func TestCurrencyCode(t *testing.T) {
	tests := map[protocol.Currency]string{
		protocol.CurrencyUSD: "usd",
		protocol.CurrencyAUD: "aud",
		protocol.CurrencyCAN: "can",
		protocol.CurrencyNZD: "nzd",
		protocol.CurrencyEUR: "eur",
		protocol.CurrencyPND: "pnd",
		protocol.Currency(0): "usd",
		protocol.Currency(7): "usd",
	}
	for currency, want := range tests {
		assert.Equal(t, want, CurrencyCode(currency), "currency %d", currency)
	}
}

func TestCoinMarketCapProvider_Fetch(t *testing.T) {
	var path, convertParam string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		convertParam = r.URL.Query().Get("convert")
		_, _ = w.Write([]byte(`[{"id": "ethereum", "symbol": "ETH", "price_usd": "2800.12", "price_eur": 2345.6}]`))
	}))
	defer srv.Close()

	p := NewCoinMarketCapProvider(srv.Client(), srv.URL+"/v1/ticker/")
	q, err := p.Fetch(context.Background(), protocol.CoinEthereum, protocol.CurrencyEUR)
	require.NoError(t, err)

	assert.Equal(t, "/v1/ticker/ethereum/", path)
	assert.Equal(t, "EUR", convertParam)
	assert.Equal(t, "2,345.6", q.Display)
	assert.Equal(t, "ethereum", q.Coin)
	assert.Equal(t, "eur", q.Currency)
	assert.Equal(t, protocol.TickerReply{MessageID: 9, Ticker: "2,345.6"}, q.Reply(9))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
		want string
	}{
		{"string price", `[{"price_usd": "15234.5"}]`, "usd", "15.2k"},
		{"number price", `[{"price_aud": 999}]`, "aud", "999"},
		{"exact thousands", `[{"price_usd": "12000"}]`, "usd", "12k"},
		{"sub-dollar", `[{"price_usd": "0.4521"}]`, "usd", "0.4521"},
		{"uses first entry", `[{"price_usd": "1234"}, {"price_usd": "1"}]`, "usd", "1,234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := ParsePrice(strings.NewReader(tt.body), tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, convert.AbbreviateDecimal(price))
		})
	}
}

func TestParsePrice_Malformed(t *testing.T) {
	bodies := map[string]string{
		"not json":      `{"error": "id not found"`,
		"object":        `{"error": "id not found"}`,
		"empty":         `[]`,
		"missing field": `[{"price_usd": "1"}]`,
		"null price":    `[{"price_eur": null}]`,
		"text price":    `[{"price_eur": "n/a"}]`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePrice(strings.NewReader(body), "eur")
			assert.ErrorIs(t, err, common.ErrMalformedProviderResponse)
		})
	}
}
