package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"SignalFusion/internal/engine"
	"SignalFusion/internal/model"
	"SignalFusion/internal/notifier"
	"SignalFusion/internal/recorder"
)

// DefaultRunTimeout bounds one scheduled batch across all symbols.
const DefaultRunTimeout = 2 * time.Minute

// ErrRunInProgress is returned by RunNow while another batch is running.
var ErrRunInProgress = errors.New("signal run already in progress")

// Generator produces signals for a batch of symbols.
type Generator interface {
	Symbols() []string
	GenerateAll(ctx context.Context, symbols []string, includeNews bool) []engine.Result
}

// DeliveryObserver records notifier and recorder outcomes.
type DeliveryObserver interface {
	ObserveDelivery(sink string, err error)
}

// Options configures a Scheduler.
type Options struct {
	Spec        string
	Location    *time.Location
	IncludeNews bool
	RunTimeout  time.Duration
	Observer    DeliveryObserver
}

// Report summarizes one batch.
type Report struct {
	Started  time.Time
	Signals  []*model.Signal
	Failures map[string]error
}

// Scheduler runs the signal batch on a cron schedule and fans results out to
// the recorder and notifier.
type Scheduler struct {
	cron     *cron.Cron
	gen      Generator
	notifier notifier.Notifier
	recorder recorder.Recorder
	opts     Options
	ctx      context.Context
	running  sync.Mutex
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates a scheduler and registers the batch job. n may be nil when no
// chat sink is configured.
func New(ctx context.Context, gen Generator, n notifier.Notifier, rec recorder.Recorder, opts Options) (*Scheduler, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = DefaultRunTimeout
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	logger := log.With().Str("component", "scheduler").Logger()

	s := &Scheduler{
		gen:      gen,
		notifier: n,
		recorder: rec,
		opts:     opts,
		ctx:      ctx,
		now:      time.Now,
		logger:   logger,
	}
	cl := cronLogger{logger: logger}
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLocation(opts.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)
	if _, err := s.cron.AddFunc(opts.Spec, s.scheduledRun); err != nil {
		return nil, fmt.Errorf("register signal task %q: %w", opts.Spec, err)
	}
	return s, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	next := s.cron.Entries()[0].Next
	s.logger.Info().Str("spec", s.opts.Spec).Time("next_run", next).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) scheduledRun() {
	if _, err := s.RunNow(s.ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Scheduled run skipped")
	}
}

// RunNow executes one batch immediately. Overlapping runs are rejected with
// ErrRunInProgress.
func (s *Scheduler) RunNow(ctx context.Context) (*Report, error) {
	if !s.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.opts.RunTimeout)
	defer cancel()

	report := &Report{Started: s.now().In(s.opts.Location), Failures: make(map[string]error)}
	s.logger.Info().Msg("Running signal batch")

	var messages []string
	for _, res := range s.gen.GenerateAll(ctx, s.gen.Symbols(), s.opts.IncludeNews) {
		if res.Err != nil {
			report.Failures[res.Symbol] = res.Err
			messages = append(messages, notifier.FormatFailure(res.Symbol, res.Err))
			continue
		}
		report.Signals = append(report.Signals, res.Signal)
		messages = append(messages, notifier.FormatSignal(res.Signal))

		_, err := s.recorder.RecordSignal(ctx, res.Signal)
		s.observe("recorder", err)
		if err != nil {
			s.logger.Error().Err(err).Str("symbol", res.Symbol).Msg("Record signal failed")
		}
	}

	s.logger.Info().
		Int("signals", len(report.Signals)).
		Int("failures", len(report.Failures)).
		Msg("Signal batch finished")

	s.trySend(ctx, notifier.FormatRunHeader(report.Started, len(report.Signals), len(report.Failures)))
	for _, msg := range messages {
		s.trySend(ctx, msg)
	}
	return report, nil
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Send(ctx, text)
	s.observe(s.notifier.Name(), err)
	if err != nil {
		s.logger.Error().Err(err).Str("sink", s.notifier.Name()).Msg("Send notification failed")
	}
}

func (s *Scheduler) observe(sink string, err error) {
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveDelivery(sink, err)
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
