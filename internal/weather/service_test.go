package weather

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/i474232898/watch-bridge/internal/geo"
	"github.com/i474232898/watch-bridge/internal/protocol"
)

type stubProvider struct {
	source protocol.WeatherSource
	r      Reading
	err    error
}

func (s stubProvider) Name() string                   { return s.source.String() }
func (s stubProvider) Source() protocol.WeatherSource { return s.source }
func (s stubProvider) Fetch(context.Context, geo.Position, protocol.TemperatureUnit) (Reading, error) {
	return s.r, s.err
}

func TestService_SelectsProviderBySource(t *testing.T) {
	svc := NewService(zaptest.NewLogger(t),
		stubProvider{source: protocol.SourceOpenWeatherMap, r: Reading{ConditionCode: 800}},
		stubProvider{source: protocol.SourceYahoo, r: Reading{ConditionCode: 32}},
	)

	r, err := svc.Current(context.Background(), protocol.SourceYahoo, geo.Position{}, protocol.Celsius)
	require.NoError(t, err)
	assert.Equal(t, 32, r.ConditionCode)
	assert.Equal(t, "yahoo", r.Provider)

	r, err = svc.Current(context.Background(), protocol.SourceOpenWeatherMap, geo.Position{}, protocol.Celsius)
	require.NoError(t, err)
	assert.Equal(t, 800, r.ConditionCode)
}

func TestService_UnknownSourceDoesNotFallBack(t *testing.T) {
	svc := NewService(zaptest.NewLogger(t), stubProvider{source: protocol.SourceOpenWeatherMap})

	for _, src := range []protocol.WeatherSource{0, 3, -1} {
		_, err := svc.Current(context.Background(), src, geo.Position{}, protocol.Celsius)
		assert.ErrorIs(t, err, ErrUnknownProvider, "source %d", src)
	}

	_, err := svc.Provider(protocol.SourceYahoo)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestService_WrapsProviderErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(zaptest.NewLogger(t), stubProvider{source: protocol.SourceOpenWeatherMap, err: boom})

	_, err := svc.Current(context.Background(), protocol.SourceOpenWeatherMap, geo.Position{}, protocol.Celsius)
	assert.ErrorIs(t, err, boom)
}

func TestReading_Reply(t *testing.T) {
	reply := Reading{ConditionCode: 800, Temperature: 80, IsDaylight: true}.Reply(42)
	assert.Equal(t, protocol.WeatherReply{MessageID: 42, ConditionCode: 800, Temperature: 80, IsDaylight: true}, reply)
}
