package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kelvins/geocoder"
	"go.uber.org/zap"
)

// ErrPositionUnavailable is returned when no usable position can be produced.
var ErrPositionUnavailable = errors.New("position unavailable")

// Position is a latitude/longitude pair in degrees.
type Position struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Options mirror the one-shot "get current position" call of a phone OS.
type Options struct {
	// Timeout bounds how long acquiring a fresh position may take.
	Timeout time.Duration
	// MaximumAge is the oldest cached position that may be returned.
	MaximumAge time.Duration
}

// Locator produces the current position of the phone.
type Locator interface {
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}

// StaticLocator always returns a configured position.
type StaticLocator struct {
	Position Position
}

func (s StaticLocator) CurrentPosition(ctx context.Context, _ Options) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	return s.Position, nil
}

// AddressLocator geocodes a configured postal address with the Google geocoding API.
type AddressLocator struct {
	address geocoder.Address
	geocode func(geocoder.Address) (geocoder.Location, error)
}

// NewAddressLocator sets the package-level geocoder API key and returns a locator for address.
func NewAddressLocator(apiKey string, address geocoder.Address) *AddressLocator {
	geocoder.ApiKey = apiKey
	return &AddressLocator{
		address: address,
		geocode: geocoder.Geocoding,
	}
}

func (a *AddressLocator) CurrentPosition(ctx context.Context, _ Options) (Position, error) {
	type result struct {
		loc geocoder.Location
		err error
	}

	// geocoder has no context support; abandon the lookup when ctx ends.
	ch := make(chan result, 1)
	go func() {
		loc, err := a.geocode(a.address)
		ch <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return Position{}, fmt.Errorf("%w: geocoding %s: %v", ErrPositionUnavailable, a.address.City, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return Position{}, fmt.Errorf("%w: geocoding %s: %v", ErrPositionUnavailable, a.address.City, r.err)
		}
		return Position{Latitude: r.loc.Latitude, Longitude: r.loc.Longitude}, nil
	}
}

// CachingLocator serves the last known position while it is younger than Options.MaximumAge
// and otherwise asks the fallback locator, bounded by Options.Timeout.
type CachingLocator struct {
	cache    Cache
	fallback Locator
	logger   *zap.Logger
	now      func() time.Time
}

func NewCachingLocator(cache Cache, fallback Locator, logger *zap.Logger) *CachingLocator {
	return &CachingLocator{
		cache:    cache,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *CachingLocator) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	cached, err := c.cache.Load(ctx)
	switch {
	case err == nil && c.now().Sub(cached.At) <= opts.MaximumAge:
		return cached.Position, nil
	case err == nil:
		c.logger.Debug("cached position too old", zap.Time("at", cached.At), zap.Duration("max_age", opts.MaximumAge))
	case !errors.Is(err, ErrNoPosition):
		c.logger.Warn("position cache read failed", zap.Error(err))
	}

	if c.fallback == nil {
		return Position{}, fmt.Errorf("%w: no fresh position and no fallback", ErrPositionUnavailable)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	pos, err := c.fallback.CurrentPosition(ctx, opts)
	if err != nil {
		if errors.Is(err, ErrPositionUnavailable) {
			return Position{}, err
		}
		return Position{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}

	if err := c.cache.Store(ctx, Fix{Position: pos, At: c.now()}); err != nil {
		c.logger.Warn("position cache write failed", zap.Error(err))
	}
	return pos, nil
}
