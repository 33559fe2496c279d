package providers

import (
	"context"
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

const openWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

// NewOpenWeatherProvider creates the provider; an empty baseURL selects the public endpoint.
func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = openWeatherBaseURL
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: common.HTTPClientConfig{
			Client:  client,
			Backoff: common.DefaultBackoff,
		},
		circuit: common.NewCircuitBreaker("openweather"),
		now:     time.Now,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Source() protocol.WeatherSource {
	return protocol.SourceOpenWeatherMap
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, pos geo.Position, unit protocol.TemperatureUnit) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		// No "units" parameter: temperatures come back in Kelvin.
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(pos.Latitude, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(pos.Longitude, 'f', -1, 64))
		values.Set("appid", p.apiKey)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := common.DoRequestWithResilience(ctx, p.name, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Reading{}, err
	}
	defer resp.Body.Close()

	payload, err := ParseOpenWeather(resp.Body)
	if err != nil {
		return weather.Reading{}, err
	}
	return NormalizeOpenWeather(payload, unit, p.now())
}

// OpenWeatherResponse is the subset of the current-weather body the watch needs.
type OpenWeatherResponse struct {
	Main struct {
		Temp *float64 `json:"temp" validate:"required"`
	} `json:"main"`
	Weather []struct {
		ID *int `json:"id" validate:"required"`
	} `json:"weather" validate:"required,min=1,dive"`
	Sys struct {
		Sunrise *int64 `json:"sunrise" validate:"required"`
		Sunset  *int64 `json:"sunset" validate:"required"`
	} `json:"sys"`
}

// ParseOpenWeather decodes and validates an OpenWeatherMap body.
func ParseOpenWeather(body io.Reader) (OpenWeatherResponse, error) {
	var payload OpenWeatherResponse
	if err := common.DecodePayload("openweathermap", body, &payload); err != nil {
		return OpenWeatherResponse{}, err
	}
	return payload, nil
}

// NormalizeOpenWeather converts a validated response into a reading. Temperatures are Kelvin;
// sunrise and sunset are epoch seconds.
func NormalizeOpenWeather(payload OpenWeatherResponse, unit protocol.TemperatureUnit, now time.Time) (weather.Reading, error) {
	temp, err := convert.ConvertTemperature(*payload.Main.Temp, convert.Kelvin, unit)
	if err != nil {
		return weather.Reading{}, err
	}

	sunrise := time.Unix(*payload.Sys.Sunrise, 0)
	sunset := time.Unix(*payload.Sys.Sunset, 0)

	return weather.Reading{
		ConditionCode: *payload.Weather[0].ID,
		Temperature:   temp,
		IsDaylight:    daytime.IsDaylight(now, sunrise, sunset),
	}, nil
}
