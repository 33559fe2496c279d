package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/watch-bridge/internal/common"
	"github.com/i474232898/watch-bridge/internal/convert"
	"github.com/i474232898/watch-bridge/internal/daytime"
	"github.com/i474232898/watch-bridge/internal/geo"
	"github.com/i474232898/watch-bridge/internal/protocol"
	"github.com/i474232898/watch-bridge/internal/weather"
)

const yahooBaseURL = "https://query.yahooapis.com/v1/public/yql"

// YahooProvider implements the weather.Provider interface for the Yahoo YQL weather table.
type YahooProvider struct {
	name         string
	placesAPIKey string
	baseURL      string
	httpCfg      common.HTTPClientConfig
	circuit      *gobreaker.CircuitBreaker
	now          func() time.Time
}

// NewYahooProvider creates the provider. placesAPIKey is the Flickr places key used to resolve
// coordinates to a WOEID inside the query; an empty baseURL selects the public endpoint.
func NewYahooProvider(client *http.Client, placesAPIKey, baseURL string) *YahooProvider {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	return &YahooProvider{
		name:         "yahoo",
		placesAPIKey: placesAPIKey,
		baseURL:      baseURL,
		httpCfg: common.HTTPClientConfig{
			Client:  client,
			Backoff: common.DefaultBackoff,
		},
		circuit: common.NewCircuitBreaker("yahoo"),
		now:     time.Now,
	}
}

func (p *YahooProvider) Name() string {
	return p.name
}

func (p *YahooProvider) Source() protocol.WeatherSource {
	return protocol.SourceYahoo
}

// YahooQuery builds the YQL expression selecting astronomy, current condition and units for the
// place containing pos.
func YahooQuery(placesAPIKey string, pos geo.Position) string {
	return fmt.Sprintf(
		`select astronomy, item.condition, units.temperature from weather.forecast where woeid in (select place.woeid from flickr.places where api_key="%s" AND lat="%s" AND lon="%s")`,
		placesAPIKey,
		strconv.FormatFloat(pos.Latitude, 'f', -1, 64),
		strconv.FormatFloat(pos.Longitude, 'f', -1, 64),
	)
}

func (p *YahooProvider) Fetch(ctx context.Context, pos geo.Position, unit protocol.TemperatureUnit) (weather.Reading, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("q", YahooQuery(p.placesAPIKey, pos))
		values.Set("format", "json")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := common.DoRequestWithResilience(ctx, p.name, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Reading{}, err
	}
	defer resp.Body.Close()

	payload, err := ParseYahoo(resp.Body)
	if err != nil {
		return weather.Reading{}, err
	}
	return NormalizeYahoo(payload, unit, p.now())
}

// YahooResponse is the YQL result envelope. YQL reports numbers as strings.
type YahooResponse struct {
	Query struct {
		Results *struct {
			Channel struct {
				Astronomy struct {
					Sunrise string `json:"sunrise" validate:"required"`
					Sunset  string `json:"sunset" validate:"required"`
				} `json:"astronomy"`
				Item struct {
					Condition struct {
						Code json.Number `json:"code" validate:"required"`
						Temp json.Number `json:"temp" validate:"required"`
					} `json:"condition"`
				} `json:"item"`
				Units struct {
					Temperature string `json:"temperature" validate:"required"`
				} `json:"units"`
			} `json:"channel"`
		} `json:"results" validate:"required"`
	} `json:"query"`
}

// ParseYahoo decodes and validates a YQL weather body.
func ParseYahoo(body io.Reader) (YahooResponse, error) {
	var payload YahooResponse
	if err := common.DecodePayload("yahoo", body, &payload); err != nil {
		return YahooResponse{}, err
	}
	return payload, nil
}

// NormalizeYahoo converts a validated response into a reading. Sunrise and sunset are clock
// strings resolved against the date of now.
func NormalizeYahoo(payload YahooResponse, unit protocol.TemperatureUnit, now time.Time) (weather.Reading, error) {
	channel := payload.Query.Results.Channel

	code, err := channel.Item.Condition.Code.Int64()
	if err != nil {
		return weather.Reading{}, fmt.Errorf("%w: yahoo condition code %q", common.ErrMalformedProviderResponse, channel.Item.Condition.Code)
	}
	rawTemp, err := channel.Item.Condition.Temp.Float64()
	if err != nil {
		return weather.Reading{}, fmt.Errorf("%w: yahoo temperature %q", common.ErrMalformedProviderResponse, channel.Item.Condition.Temp)
	}

	source, err := convert.ParseSourceUnit(channel.Units.Temperature)
	if err != nil {
		return weather.Reading{}, err
	}
	temp, err := convert.ConvertTemperature(rawTemp, source, unit)
	if err != nil {
		return weather.Reading{}, err
	}

	sunrise, err := daytime.ParseClockTime(now, channel.Astronomy.Sunrise)
	if err != nil {
		return weather.Reading{}, err
	}
	sunset, err := daytime.ParseClockTime(now, channel.Astronomy.Sunset)
	if err != nil {
		return weather.Reading{}, err
	}

	return weather.Reading{
		ConditionCode: int(code),
		Temperature:   temp,
		IsDaylight:    daytime.IsDaylight(now, sunrise, sunset),
	}, nil
}
