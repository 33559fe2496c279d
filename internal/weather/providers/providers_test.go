package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/watch-bridge/internal/common"
	"github.com/i474232898/watch-bridge/internal/convert"
	"github.com/i474232898/watch-bridge/internal/daytime"
	"github.com/i474232898/watch-bridge/internal/geo"
	"github.com/i474232898/watch-bridge/internal/protocol"
)

const (
	sunriseUnix = 1_700_000_000
	sunsetUnix  = sunriseUnix + 10*3600
)

const openWeatherFixture = `{
	"coord": {"lon": -122.08, "lat": 37.39},
	"weather": [{"id": 800, "main": "Clear", "description": "clear sky"}],
	"main": {"temp": 300, "humidity": 50},
	"sys": {"sunrise": 1700000000, "sunset": 1700036000},
	"name": "Mountain View"
}`

const yahooFixture = `{
	"query": {
		"count": 1,
		"results": {
			"channel": {
				"units": {"temperature": "F"},
				"astronomy": {"sunrise": "7:12 am", "sunset": "5:45 pm"},
				"item": {"condition": {"code": "32", "date": "Thu, 14 Mar 2024 01:00 PM PDT", "temp": "75", "text": "Sunny"}}
			}
		}
	}
}`

func TestOpenWeatherProvider_Fetch(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(openWeatherFixture))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "secret", srv.URL)
	p.now = func() time.Time { return time.Unix(sunriseUnix+3600, 0) }

	r, err := p.Fetch(context.Background(), geo.Position{Latitude: 37.39, Longitude: -122.08}, protocol.Fahrenheit)
	require.NoError(t, err)

	want, err := convert.ConvertTemperature(300, convert.Kelvin, protocol.Fahrenheit)
	require.NoError(t, err)

	assert.Equal(t, 800, r.ConditionCode)
	assert.Equal(t, want, r.Temperature)
	assert.True(t, r.IsDaylight)

	assert.Equal(t, "37.39", got.Get("lat"))
	assert.Equal(t, "-122.08", got.Get("lon"))
	assert.Equal(t, "secret", got.Get("appid"))
	assert.Empty(t, got.Get("units"))
}

func TestOpenWeatherProvider_RequiresAPIKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "", "http://127.0.0.1:1")
	_, err := p.Fetch(context.Background(), geo.Position{}, protocol.Celsius)
	assert.Error(t, err)
}

func TestNormalizeOpenWeather_Night(t *testing.T) {
	payload, err := ParseOpenWeather(strings.NewReader(openWeatherFixture))
	require.NoError(t, err)

	r, err := NormalizeOpenWeather(payload, protocol.Celsius, time.Unix(sunsetUnix+1, 0))
	require.NoError(t, err)
	assert.False(t, r.IsDaylight)
	assert.Equal(t, 27, r.Temperature)

	r, err = NormalizeOpenWeather(payload, protocol.Celsius, time.Unix(sunsetUnix, 0))
	require.NoError(t, err)
	assert.True(t, r.IsDaylight)
}

func TestNormalizeOpenWeather_UnsupportedUnit(t *testing.T) {
	payload, err := ParseOpenWeather(strings.NewReader(openWeatherFixture))
	require.NoError(t, err)

	_, err = NormalizeOpenWeather(payload, protocol.TemperatureUnit(5), time.Unix(sunriseUnix, 0))
	assert.ErrorIs(t, err, convert.ErrUnsupportedUnit)
}

func TestParseOpenWeather_Malformed(t *testing.T) {
	bodies := map[string]string{
		"not json":      `<html>`,
		"missing temp":  `{"weather":[{"id":800}],"main":{},"sys":{"sunrise":1,"sunset":2}}`,
		"empty weather": `{"weather":[],"main":{"temp":280},"sys":{"sunrise":1,"sunset":2}}`,
		"missing id":    `{"weather":[{"main":"Clear"}],"main":{"temp":280},"sys":{"sunrise":1,"sunset":2}}`,
		"missing sys":   `{"weather":[{"id":800}],"main":{"temp":280}}`,
		"string temp":   `{"weather":[{"id":800}],"main":{"temp":"hot"},"sys":{"sunrise":1,"sunset":2}}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOpenWeather(strings.NewReader(body))
			assert.ErrorIs(t, err, common.ErrMalformedProviderResponse)
		})
	}
}

func TestYahooProvider_Fetch(t *testing.T) {
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(yahooFixture))
	}))
	defer srv.Close()

	p := NewYahooProvider(srv.Client(), "flickr-key", srv.URL)
	p.now = func() time.Time { return time.Date(2024, time.March, 14, 13, 0, 0, 0, time.UTC) }

	pos := geo.Position{Latitude: 37.39, Longitude: -122.08}
	r, err := p.Fetch(context.Background(), pos, protocol.Celsius)
	require.NoError(t, err)

	assert.Equal(t, 32, r.ConditionCode)
	assert.Equal(t, 24, r.Temperature)
	assert.True(t, r.IsDaylight)

	values, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	assert.Equal(t, "json", values.Get("format"))
	assert.Equal(t, YahooQuery("flickr-key", pos), values.Get("q"))
	assert.NotContains(t, rawQuery, " ")
	assert.NotContains(t, rawQuery, `"`)
}

func TestYahooQuery_EmbedsCoordinates(t *testing.T) {
	q := YahooQuery("k", geo.Position{Latitude: 51.5, Longitude: -0.125})
	assert.Contains(t, q, `lat="51.5" AND lon="-0.125"`)
	assert.Contains(t, q, `api_key="k"`)
}

func TestNormalizeYahoo(t *testing.T) {
	payload, err := ParseYahoo(strings.NewReader(yahooFixture))
	require.NoError(t, err)

	evening := time.Date(2024, time.March, 14, 18, 0, 0, 0, time.UTC)
	r, err := NormalizeYahoo(payload, protocol.Fahrenheit, evening)
	require.NoError(t, err)
	assert.Equal(t, 75, r.Temperature)
	assert.False(t, r.IsDaylight)

	atSunrise := time.Date(2024, time.March, 14, 7, 12, 0, 0, time.UTC)
	r, err = NormalizeYahoo(payload, protocol.Fahrenheit, atSunrise)
	require.NoError(t, err)
	assert.True(t, r.IsDaylight)
}

func TestNormalizeYahoo_Errors(t *testing.T) {
	celsius := strings.Replace(yahooFixture, `"temperature": "F"`, `"temperature": "C"`, 1)
	payload, err := ParseYahoo(strings.NewReader(celsius))
	require.NoError(t, err)
	_, err = NormalizeYahoo(payload, protocol.Celsius, time.Now())
	assert.ErrorIs(t, err, convert.ErrUnsupportedUnit)

	badClock := strings.Replace(yahooFixture, `"7:12 am"`, `"dawn"`, 1)
	payload, err = ParseYahoo(strings.NewReader(badClock))
	require.NoError(t, err)
	_, err = NormalizeYahoo(payload, protocol.Celsius, time.Now())
	assert.ErrorIs(t, err, daytime.ErrMalformedTimeString)
}

func TestParseYahoo_Malformed(t *testing.T) {
	bodies := map[string]string{
		"null results":   `{"query":{"count":0,"results":null}}`,
		"missing code":   strings.Replace(yahooFixture, `"code": "32", `, "", 1),
		"non-numeric":    strings.Replace(yahooFixture, `"temp": "75"`, `"temp": "warm"`, 1),
		"missing sunset": strings.Replace(yahooFixture, `, "sunset": "5:45 pm"`, "", 1),
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			_, err := ParseYahoo(strings.NewReader(body))
			assert.ErrorIs(t, err, common.ErrMalformedProviderResponse)
		})
	}
}
