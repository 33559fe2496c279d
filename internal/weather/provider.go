package weather

import (
	"context"

	"github.com/i474232898/watch-bridge/internal/geo"
	"github.com/i474232898/watch-bridge/internal/protocol"
)

// Provider abstracts a weather data source (e.g. OpenWeatherMap, Yahoo).
type Provider interface {
	Name() string
	Source() protocol.WeatherSource
	Fetch(ctx context.Context, pos geo.Position, unit protocol.TemperatureUnit) (Reading, error)
}
