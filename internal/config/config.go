package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/watch-bridge/internal/daytime"
	"github.com/i474232898/watch-bridge/internal/geo"
	"github.com/i474232898/watch-bridge/internal/protocol"
)

type AppConfig struct {
	Port      string `mapstructure:"PORT" validate:"required"`
	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"oneof=json console"`

	// Outbound provider calls.
	HTTPTimeout        time.Duration `mapstructure:"HTTP_TIMEOUT" validate:"gt=0"`
	OpenWeatherAPIKey  string        `mapstructure:"OPENWEATHER_API_KEY"`
	OpenWeatherBaseURL string        `mapstructure:"OPENWEATHER_BASE_URL" validate:"omitempty,url"`
	YahooBaseURL       string        `mapstructure:"YAHOO_BASE_URL" validate:"omitempty,url"`
	YahooPlacesAPIKey  string        `mapstructure:"YAHOO_PLACES_API_KEY"`
	TickerBaseURL      string        `mapstructure:"TICKER_BASE_URL" validate:"omitempty,url"`

	// Position acquisition.
	PositionTimeout        time.Duration `mapstructure:"POSITION_TIMEOUT" validate:"gt=0"`
	PositionMaxAge         time.Duration `mapstructure:"POSITION_MAX_AGE" validate:"gte=0"`
	DefaultLatitude        float64       `mapstructure:"DEFAULT_LATITUDE" validate:"gte=-90,lte=90"`
	DefaultLongitude       float64       `mapstructure:"DEFAULT_LONGITUDE" validate:"gte=-180,lte=180"`
	GeocoderAPIKey         string        `mapstructure:"GEOCODER_API_KEY"`
	GeocoderAddressCity    string        `mapstructure:"GEOCODER_ADDRESS_CITY"`
	GeocoderAddressCountry string        `mapstructure:"GEOCODER_ADDRESS_COUNTRY"`

	// Position cache; empty address keeps it in memory.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB" validate:"gte=0"`

	// Outbox retention.
	OutboxMaxHistory int           `mapstructure:"OUTBOX_MAX_HISTORY" validate:"gte=0"` // 0 = unlimited
	OutboxMaxAge     time.Duration `mapstructure:"OUTBOX_MAX_AGE" validate:"gte=0"`     // 0 = unlimited

	RefreshInterval time.Duration `mapstructure:"REFRESH_INTERVAL" validate:"gt=0"`
	RefreshDeviceID string        `mapstructure:"REFRESH_DEVICE_ID"`

	// Settings applied when a request omits them.
	DefaultTemperatureUnits int32 `mapstructure:"DEFAULT_TEMPERATURE_UNITS" validate:"oneof=0 1"`
	DefaultWeatherSource    int32 `mapstructure:"DEFAULT_WEATHER_SOURCE" validate:"oneof=1 2"`
	DefaultTickerOn         bool  `mapstructure:"DEFAULT_TICKER_ON"`
	DefaultCoin             int32 `mapstructure:"DEFAULT_COIN" validate:"min=1,max=6"`
	DefaultCurrency         int32 `mapstructure:"DEFAULT_CURRENCY" validate:"min=1,max=6"`

	WeatherQuietTime      bool `mapstructure:"WEATHER_QUIET_TIME"`
	WeatherQuietTimeStart int  `mapstructure:"WEATHER_QUIET_TIME_START" validate:"min=0,max=23"`
	WeatherQuietTimeStop  int  `mapstructure:"WEATHER_QUIET_TIME_STOP" validate:"min=0,max=23"`
}

var defaults = map[string]any{
	"PORT":                      "8080",
	"LOG_LEVEL":                 "info",
	"LOG_FORMAT":                "console",
	"HTTP_TIMEOUT":              "10s",
	"OPENWEATHER_API_KEY":       "",
	"OPENWEATHER_BASE_URL":      "",
	"YAHOO_BASE_URL":            "",
	"YAHOO_PLACES_API_KEY":      "",
	"TICKER_BASE_URL":           "",
	"POSITION_TIMEOUT":          "15s",
	"POSITION_MAX_AGE":          "8h",
	"DEFAULT_LATITUDE":          0.0,
	"DEFAULT_LONGITUDE":         0.0,
	"GEOCODER_API_KEY":          "",
	"GEOCODER_ADDRESS_CITY":     "",
	"GEOCODER_ADDRESS_COUNTRY":  "",
	"REDIS_ADDR":                "",
	"REDIS_PASSWORD":            "",
	"REDIS_DB":                  0,
	"OUTBOX_MAX_HISTORY":        20,
	"OUTBOX_MAX_AGE":            "1h",
	"REFRESH_INTERVAL":          "30m",
	"REFRESH_DEVICE_ID":         "",
	"DEFAULT_TEMPERATURE_UNITS": int32(protocol.Celsius),
	"DEFAULT_WEATHER_SOURCE":    int32(protocol.SourceOpenWeatherMap),
	"DEFAULT_TICKER_ON":         false,
	"DEFAULT_COIN":              int32(protocol.CoinBitcoin),
	"DEFAULT_CURRENCY":          int32(protocol.CurrencyUSD),
	"WEATHER_QUIET_TIME":        false,
	"WEATHER_QUIET_TIME_START":  23,
	"WEATHER_QUIET_TIME_STOP":   6,
}

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Defaults are the persisted settings used for requests that omit them.
func (c *AppConfig) Defaults() protocol.Defaults {
	return protocol.Defaults{
		TemperatureUnit: protocol.TemperatureUnit(c.DefaultTemperatureUnits),
		WeatherSource:   protocol.WeatherSource(c.DefaultWeatherSource),
		TickerOn:        c.DefaultTickerOn,
		Coin:            protocol.Coin(c.DefaultCoin),
		Currency:        protocol.Currency(c.DefaultCurrency),
	}
}

func (c *AppConfig) QuietWindow() daytime.QuietWindow {
	return daytime.QuietWindow{
		Enabled: c.WeatherQuietTime,
		Start:   c.WeatherQuietTimeStart,
		Stop:    c.WeatherQuietTimeStop,
	}
}

func (c *AppConfig) PositionOptions() geo.Options {
	return geo.Options{
		Timeout:    c.PositionTimeout,
		MaximumAge: c.PositionMaxAge,
	}
}

// UsesGeocoder reports whether a fallback position should be geocoded from an address.
func (c *AppConfig) UsesGeocoder() bool {
	return c.GeocoderAPIKey != "" && c.GeocoderAddressCity != ""
}
