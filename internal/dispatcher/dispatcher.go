package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/i474232898/watch-bridge/internal/common"
	"github.com/i474232898/watch-bridge/internal/convert"
	"github.com/i474232898/watch-bridge/internal/daytime"
	"github.com/i474232898/watch-bridge/internal/geo"
	"github.com/i474232898/watch-bridge/internal/metrics"
	"github.com/i474232898/watch-bridge/internal/protocol"
	"github.com/i474232898/watch-bridge/internal/ticker"
	"github.com/i474232898/watch-bridge/internal/weather"
)

var (
	// ErrSendFailed is returned when a reply could not be handed to the sender.
	ErrSendFailed = errors.New("send reply")
	// ErrPipelinePanic is returned when a pipeline stage panicked.
	ErrPipelinePanic = errors.New("pipeline panicked")
)

// Sender delivers replies to the watch.
type Sender interface {
	Send(ctx context.Context, msg protocol.Message) error
}

// Dispatcher turns decoded requests into reply pipelines. Each pipeline runs in its own
// goroutine and shares nothing with other pipelines but the collaborators below.
type Dispatcher struct {
	weather  *weather.Service
	ticker   ticker.Provider
	locator  geo.Locator
	position geo.Options
	logger   *zap.Logger

	// pipelines outlive the inbound call that started them
	base context.Context
	wg   sync.WaitGroup
}

// New creates a Dispatcher. Pipelines run on base until it is cancelled.
func New(base context.Context, logger *zap.Logger, weatherSvc *weather.Service, tickerProvider ticker.Provider, locator geo.Locator, position geo.Options) *Dispatcher {
	return &Dispatcher{
		weather:  weatherSvc,
		ticker:   tickerProvider,
		locator:  locator,
		position: position,
		logger:   logger,
		base:     base,
	}
}

// Dispatch starts the pipelines for req and returns them. Ready requests are acknowledged
// before Dispatch returns. Unsupported kinds start nothing.
func (d *Dispatcher) Dispatch(req protocol.Request, sender Sender) []*Pipeline {
	log := d.logger.With(
		zap.Stringer("kind", req.Kind),
		zap.Int32("message_id", req.MessageID),
	)
	metrics.RequestsTotal.WithLabelValues(kindLabel(req.Kind)).Inc()

	switch req.Kind {
	case protocol.KindReady:
		p := newPipeline(protocol.KindReady, req.MessageID)
		d.finish(log, p, sender, protocol.ReadyReply{}, nil)
		return []*Pipeline{p}

	case protocol.KindWeather:
		pipelines := []*Pipeline{d.start(log, protocol.KindWeather, req.MessageID, sender, func(p *Pipeline) (protocol.Message, error) {
			return d.runWeather(p, req)
		})}
		if req.TickerOn {
			pipelines = append(pipelines, d.startTicker(log, req, sender))
		}
		return pipelines

	case protocol.KindTicker:
		return []*Pipeline{d.startTicker(log, req, sender)}

	default:
		log.Info("dropping unsupported request")
		return nil
	}
}

// Wait blocks until every started pipeline has completed.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) startTicker(log *zap.Logger, req protocol.Request, sender Sender) *Pipeline {
	return d.start(log, protocol.KindTicker, req.TickerMessageID, sender, func(*Pipeline) (protocol.Message, error) {
		return d.runTicker(req)
	})
}

func (d *Dispatcher) start(log *zap.Logger, kind protocol.Kind, messageID int32, sender Sender, run func(*Pipeline) (protocol.Message, error)) *Pipeline {
	p := newPipeline(kind, messageID)
	log = log.With(zap.String("pipeline", p.ID), zap.Stringer("reply_kind", kind))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.finish(log, p, sender, nil, fmt.Errorf("%w: %v", ErrPipelinePanic, r))
			}
		}()

		reply, err := run(p)
		d.finish(log, p, sender, reply, err)
	}()
	return p
}

// finish sends the reply of a successful pipeline and completes its future.
func (d *Dispatcher) finish(log *zap.Logger, p *Pipeline, sender Sender, reply protocol.Message, err error) {
	if err == nil {
		if sendErr := sender.Send(d.base, reply); sendErr != nil {
			err = fmt.Errorf("%w: %v", ErrSendFailed, sendErr)
		}
	}

	if err != nil {
		metrics.PipelineFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		log.Warn("pipeline ended without reply", zap.Error(err))
		p.complete(nil, err)
		return
	}

	metrics.RepliesTotal.WithLabelValues(kindLabel(reply.Kind())).Inc()
	log.Debug("reply sent")
	p.complete(reply, nil)
}

func (d *Dispatcher) runWeather(p *Pipeline, req protocol.Request) (protocol.Message, error) {
	// An unrecognised source fails before any position is requested.
	if _, err := d.weather.Provider(req.WeatherSource); err != nil {
		return nil, err
	}

	p.setState(StateAwaitingPosition)
	pos, err := d.locator.CurrentPosition(d.base, d.position)
	if err != nil {
		if !errors.Is(err, geo.ErrPositionUnavailable) {
			err = fmt.Errorf("%w: %v", geo.ErrPositionUnavailable, err)
		}
		return nil, err
	}

	reading, err := d.weather.Current(d.base, req.WeatherSource, pos, req.TemperatureUnit)
	if err != nil {
		return nil, err
	}
	return reading.Reply(req.MessageID), nil
}

func (d *Dispatcher) runTicker(req protocol.Request) (protocol.Message, error) {
	if d.ticker == nil {
		return nil, errors.New("ticker provider is not configured")
	}
	quote, err := d.ticker.Fetch(d.base, req.Coin, req.Currency)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", d.ticker.Name(), err)
	}
	return quote.Reply(req.TickerMessageID), nil
}

func kindLabel(k protocol.Kind) string {
	switch k {
	case protocol.KindReady, protocol.KindWeather, protocol.KindSettings, protocol.KindTicker:
		return k.String()
	default:
		return "unknown"
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, weather.ErrUnknownProvider):
		return "unknown_provider"
	case errors.Is(err, geo.ErrPositionUnavailable):
		return "position_unavailable"
	case errors.Is(err, convert.ErrUnsupportedUnit):
		return "unsupported_unit"
	case errors.Is(err, daytime.ErrMalformedTimeString):
		return "malformed_time"
	case errors.Is(err, common.ErrMalformedProviderResponse):
		return "malformed_response"
	case errors.Is(err, common.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrSendFailed):
		return "send_failed"
	case errors.Is(err, ErrPipelinePanic):
		return "panic"
	default:
		return "provider_error"
	}
}
