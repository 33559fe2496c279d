package weather

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/i474232898/watch-bridge/internal/geo"
	"github.com/i474232898/watch-bridge/internal/protocol"
)

// Service selects the provider named by a request and fetches current conditions from it.
type Service struct {
	providers map[protocol.WeatherSource]Provider
	logger    *zap.Logger
}

// NewService creates a new Service. A later provider for the same source replaces an earlier one.
func NewService(logger *zap.Logger, providers ...Provider) *Service {
	m := make(map[protocol.WeatherSource]Provider, len(providers))
	for _, p := range providers {
		m[p.Source()] = p
	}
	return &Service{
		providers: m,
		logger:    logger,
	}
}

// Provider returns the adapter for source. Unrecognized sources fail with ErrUnknownProvider
// rather than falling back to a default.
func (s *Service) Provider(source protocol.WeatherSource) (Provider, error) {
	switch source {
	case protocol.SourceOpenWeatherMap, protocol.SourceYahoo:
		p, ok := s.providers[source]
		if !ok {
			return nil, fmt.Errorf("%w: %s is not configured", ErrUnknownProvider, source)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: weather source %d", ErrUnknownProvider, int32(source))
	}
}

// Current fetches normalized conditions at pos from the provider selected by source.
func (s *Service) Current(ctx context.Context, source protocol.WeatherSource, pos geo.Position, unit protocol.TemperatureUnit) (Reading, error) {
	p, err := s.Provider(source)
	if err != nil {
		return Reading{}, err
	}

	s.logger.Debug("fetching current weather",
		zap.String("provider", p.Name()),
		zap.Float64("lat", pos.Latitude),
		zap.Float64("lon", pos.Longitude),
		zap.Stringer("unit", unit),
	)

	r, err := p.Fetch(ctx, pos, unit)
	if err != nil {
		return Reading{}, fmt.Errorf("provider %s: %w", p.Name(), err)
	}
	r.Provider = p.Name()
	return r, nil
}
