package protocol

import "fmt"

// Kind is the message-type discriminant carried under KeyMessageType.
type Kind int32

const (
	KindReady    Kind = 0
	KindWeather  Kind = 1
	KindSettings Kind = 2
	KindTicker   Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindReady:
		return "ready"
	case KindWeather:
		return "weather"
	case KindSettings:
		return "settings"
	case KindTicker:
		return "ticker"
	default:
		return fmt.Sprintf("kind(%d)", int32(k))
	}
}

// TemperatureUnit is the unit the watch wants temperatures rendered in.
type TemperatureUnit int32

const (
	Celsius    TemperatureUnit = 0
	Fahrenheit TemperatureUnit = 1
)

func (u TemperatureUnit) String() string {
	switch u {
	case Celsius:
		return "celsius"
	case Fahrenheit:
		return "fahrenheit"
	default:
		return fmt.Sprintf("unit(%d)", int32(u))
	}
}

// WeatherSource selects the weather provider.
type WeatherSource int32

const (
	SourceOpenWeatherMap WeatherSource = 1
	SourceYahoo          WeatherSource = 2
)

func (s WeatherSource) String() string {
	switch s {
	case SourceOpenWeatherMap:
		return "openweathermap"
	case SourceYahoo:
		return "yahoo"
	default:
		return fmt.Sprintf("source(%d)", int32(s))
	}
}

// Coin identifies the cryptocurrency shown on the ticker.
type Coin int32

const (
	CoinBitcoin         Coin = 1
	CoinEthereum        Coin = 2
	CoinRipple          Coin = 3
	CoinLitecoin        Coin = 4
	CoinBitcoinCash     Coin = 5
	CoinEthereumClassic Coin = 6
)

// Currency identifies the fiat currency the ticker price is quoted in.
type Currency int32

const (
	CurrencyUSD Currency = 1
	CurrencyAUD Currency = 2
	CurrencyCAN Currency = 3
	CurrencyNZD Currency = 4
	CurrencyEUR Currency = 5
	CurrencyPND Currency = 6
)
