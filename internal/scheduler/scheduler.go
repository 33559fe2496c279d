package scheduler

import (
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/watch-bridge/internal/daytime"
	"github.com/i474232898/watch-bridge/internal/dispatcher"
	"github.com/i474232898/watch-bridge/internal/protocol"
	"github.com/i474232898/watch-bridge/internal/store"
)

const defaultInterval = 30 * time.Minute

// Options configure the periodic refresh.
type Options struct {
	DeviceID string
	Interval time.Duration
	Defaults protocol.Defaults
	Quiet    daytime.QuietWindow
}

// Scheduler periodically dispatches a weather query on behalf of one watch so a fresh reply
// is waiting in its outbox.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	dispatcher *dispatcher.Dispatcher
	outbox     *store.Outbox
	opts       Options
	logger     *zap.Logger

	messageID atomic.Int32
	now       func() time.Time
}

// New creates a new Scheduler.
func New(opts Options, d *dispatcher.Dispatcher, outbox *store.Outbox, logger *zap.Logger) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.Local),
		dispatcher: d,
		outbox:     outbox,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.opts.DeviceID == "" {
		s.logger.Info("scheduler: no refresh device configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.opts.Interval).Do(func() {
		s.RunOnce()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce dispatches one refresh unless the current hour is quiet.
func (s *Scheduler) RunOnce() []*dispatcher.Pipeline {
	log := s.logger.With(zap.String("device", s.opts.DeviceID))

	now := s.now()
	if daytime.InQuietTime(now.Hour(), s.opts.Quiet) {
		log.Debug("scheduler: quiet time, skipping refresh", zap.Int("hour", now.Hour()))
		return nil
	}

	id := s.messageID.Add(1)
	req := protocol.Request{
		Kind:            protocol.KindWeather,
		MessageID:       id,
		TemperatureUnit: s.opts.Defaults.TemperatureUnit,
		WeatherSource:   s.opts.Defaults.WeatherSource,
		TickerOn:        s.opts.Defaults.TickerOn,
		TickerMessageID: id,
		Coin:            s.opts.Defaults.Coin,
		Currency:        s.opts.Defaults.Currency,
	}

	log.Info("scheduler: dispatching refresh", zap.Int32("message_id", id))
	return s.dispatcher.Dispatch(req, s.outbox.For(s.opts.DeviceID))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
