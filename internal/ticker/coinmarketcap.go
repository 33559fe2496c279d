package ticker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/i474232898/watch-bridge/internal/common"
	"github.com/i474232898/watch-bridge/internal/convert"
	"github.com/i474232898/watch-bridge/internal/protocol"
)

const coinMarketCapBaseURL = "https://api.coinmarketcap.com/v1/ticker"

// Quote is a normalized coin price.
type Quote struct {
	Coin     string
	Currency string
	Price    decimal.Decimal
	Display  string
}

// Reply correlates the quote with the request that asked for it.
func (q Quote) Reply(messageID int32) protocol.TickerReply {
	return protocol.TickerReply{MessageID: messageID, Ticker: q.Display}
}

// Provider fetches a coin price quoted in a fiat currency.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, coin protocol.Coin, currency protocol.Currency) (Quote, error)
}

// CoinSlug maps a coin to its provider path segment. Unknown coins default to bitcoin.
func CoinSlug(c protocol.Coin) string {
	switch c {
	case protocol.CoinEthereum:
		return "ethereum"
	case protocol.CoinRipple:
		return "ripple"
	case protocol.CoinLitecoin:
		return "litecoin"
	case protocol.CoinBitcoinCash:
		return "bitcoin-cash"
	case protocol.CoinEthereumClassic:
		return "ethereum-classic"
	default:
		return "bitcoin"
	}
}

// CurrencyCode maps a currency to its lowercase provider code. Unknown currencies default to usd.
func CurrencyCode(c protocol.Currency) string {
	switch c {
	case protocol.CurrencyAUD:
		return "aud"
	case protocol.CurrencyCAN:
		return "can"
	case protocol.CurrencyNZD:
		return "nzd"
	case protocol.CurrencyEUR:
		return "eur"
	case protocol.CurrencyPND:
		return "pnd"
	default:
		return "usd"
	}
}

// CoinMarketCapProvider implements Provider against the CoinMarketCap v1 ticker API.
type CoinMarketCapProvider struct {
	name    string
	baseURL string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewCoinMarketCapProvider creates the provider; an empty baseURL selects the public endpoint.
func NewCoinMarketCapProvider(client *http.Client, baseURL string) *CoinMarketCapProvider {
	if baseURL == "" {
		baseURL = coinMarketCapBaseURL
	}
	return &CoinMarketCapProvider{
		name:    "coinmarketcap",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: common.HTTPClientConfig{
			Client:  client,
			Backoff: common.DefaultBackoff,
		},
		circuit: common.NewCircuitBreaker("coinmarketcap"),
	}
}

func (p *CoinMarketCapProvider) Name() string {
	return p.name
}

func (p *CoinMarketCapProvider) Fetch(ctx context.Context, coin protocol.Coin, currency protocol.Currency) (Quote, error) {
	slug := CoinSlug(coin)
	code := CurrencyCode(currency)

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("convert", strings.ToUpper(code))
		values.Set("limit", "1")

		u := fmt.Sprintf("%s/%s/?%s", p.baseURL, url.PathEscape(slug), values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := common.DoRequestWithResilience(ctx, p.name, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()

	price, err := ParsePrice(resp.Body, code)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		Coin:     slug,
		Currency: code,
		Price:    price,
		Display:  convert.AbbreviateDecimal(price),
	}, nil
}

// ParsePrice reads the price_<code> field of the first entry of a ticker body. The price may be
// a JSON number or a numeric string.
func ParsePrice(body io.Reader, code string) (decimal.Decimal, error) {
	var entries []map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&entries); err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: coinmarketcap: %v", common.ErrMalformedProviderResponse, err)
	}
	if err := common.Validate.Var(entries, "required,min=1"); err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: coinmarketcap: no ticker entries", common.ErrMalformedProviderResponse)
	}

	field := "price_" + strings.ToLower(code)
	raw, ok := entries[0][field]
	if !ok || string(raw) == "null" {
		return decimal.Decimal{}, fmt.Errorf("%w: coinmarketcap: missing %s", common.ErrMalformedProviderResponse, field)
	}

	var price decimal.Decimal
	if err := price.UnmarshalJSON(raw); err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: coinmarketcap: %s=%s", common.ErrMalformedProviderResponse, field, raw)
	}
	return price, nil
}
