package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"asd-screening-service/internal/detection"
	"asd-screening-service/internal/domain"
)

// Client is the part of the detection service a controller talks to.
type Client interface {
	Start(ctx context.Context, kind domain.ActivityKind) (detection.Response, error)
	Stop(ctx context.Context, kind domain.ActivityKind) (detection.Response, error)
}

const (
	DefaultDuration    = 120 * time.Second
	DefaultTick        = time.Second
	DefaultStopTimeout = 5 * time.Second
)

// Options tune a controller. Zero values fall back to the defaults above.
type Options struct {
	Duration    time.Duration
	Tick        time.Duration
	StopTimeout time.Duration
	NewTicker   TickerFactory
	Logger      *slog.Logger
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Duration < time.Second {
		o.Duration = DefaultDuration
	}
	if o.Tick <= 0 {
		o.Tick = DefaultTick
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = DefaultStopTimeout
	}
	if o.NewTicker == nil {
		o.NewTicker = NewRealTicker
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Controller drives one game session: a countdown paired with start/stop
// requests to the detection service.
//
// Phases move idle -> starting -> running -> stopping -> stopped. A failed
// start goes straight from starting to stopped. The countdown ticker exists
// only while running.
type Controller struct {
	id          string
	kind        domain.ActivityKind
	client      Client
	seconds     int
	tick        time.Duration
	stopTimeout time.Duration
	newTicker   TickerFactory
	logger      *slog.Logger
	now         func() time.Time

	lifetime context.Context
	cancel   context.CancelFunc

	mu          sync.Mutex
	state       domain.GameSessionState
	run         uint64
	ticker      Ticker
	tickDone    chan struct{}
	pendingStop bool
	closed      bool
	subscribers map[chan domain.GameSessionState]struct{}
}

func NewController(id string, kind domain.ActivityKind, client Client, opts Options) *Controller {
	opts = opts.withDefaults()
	lifetime, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:          id,
		kind:        kind,
		client:      client,
		seconds:     int(opts.Duration / time.Second),
		tick:        opts.Tick,
		stopTimeout: opts.StopTimeout,
		newTicker:   opts.NewTicker,
		logger:      opts.Logger.With("component", "game", "session", id, "activity", string(kind)),
		now:         opts.Now,
		lifetime:    lifetime,
		cancel:      cancel,
		subscribers: make(map[chan domain.GameSessionState]struct{}),
	}
	c.state = domain.GameSessionState{
		SessionID:           id,
		Activity:            kind,
		Phase:               domain.PhaseIdle,
		SecondsRemaining:    c.seconds,
		InstructionsVisible: true,
		UpdatedAt:           c.now(),
	}
	return c
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) Kind() domain.ActivityKind { return c.kind }

// Snapshot returns the current state.
func (c *Controller) Snapshot() domain.GameSessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Start asks the detection service to begin and, on success, starts the
// countdown. It blocks until the request settles.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrControllerClosed
	}
	switch c.state.Phase {
	case domain.PhaseRunning:
		c.mu.Unlock()
		return domain.ErrAlreadyRunning
	case domain.PhaseStarting, domain.PhaseStopping:
		c.mu.Unlock()
		return domain.ErrSessionBusy
	}
	c.run++
	run := c.run
	c.pendingStop = false
	c.state.Phase = domain.PhaseStarting
	c.state.LastError = ""
	c.state.StopReason = ""
	c.state.InstructionsVisible = false
	c.publishLocked()
	c.mu.Unlock()

	reqCtx, cancel := c.requestContext(ctx)
	resp, err := c.client.Start(reqCtx, c.kind)
	cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("discarding start response after teardown", "error", err)
		return domain.ErrControllerClosed
	}
	if err != nil {
		c.state.Phase = domain.PhaseStopped
		c.state.StopReason = domain.StopError
		c.state.LastError = startErrorMessage(c.kind, err)
		c.publishLocked()
		c.mu.Unlock()
		c.logger.Warn("start request failed", "error", err)
		return fmt.Errorf("start %s session: %w", c.kind, err)
	}

	c.state.SecondsRemaining = c.seconds
	if c.pendingStop {
		c.pendingStop = false
		c.state.Phase = domain.PhaseStopping
		c.publishLocked()
		c.mu.Unlock()
		c.logger.Info("detection started, stop requested while starting", "message", resp.Message)
		c.finishStop(ctx, run, domain.StopUser)
		return nil
	}
	c.state.Phase = domain.PhaseRunning
	c.startTickerLocked(run)
	c.publishLocked()
	c.mu.Unlock()

	c.logger.Info("detection started", "message", resp.Message)
	return nil
}

// Stop ends a running session. The local session always reaches stopped;
// a failing stop request is only logged. Calling Stop on an idle or stopped
// controller does nothing, and a Stop while starting is applied once the
// start settles.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	switch c.state.Phase {
	case domain.PhaseRunning:
	case domain.PhaseStarting:
		c.pendingStop = true
		c.mu.Unlock()
		return
	default:
		c.mu.Unlock()
		return
	}
	c.stopTickerLocked()
	c.state.Phase = domain.PhaseStopping
	run := c.run
	c.publishLocked()
	c.mu.Unlock()

	c.finishStop(ctx, run, domain.StopUser)
}

// Reset returns a stopped or idle controller to idle with a full countdown.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrControllerClosed
	}
	switch c.state.Phase {
	case domain.PhaseStarting, domain.PhaseRunning, domain.PhaseStopping:
		return domain.ErrSessionRunning
	}
	c.state.Phase = domain.PhaseIdle
	c.state.SecondsRemaining = c.seconds
	c.state.LastError = ""
	c.state.StopReason = ""
	c.state.InstructionsVisible = true
	c.publishLocked()
	return nil
}

// Close tears the controller down: the ticker is cancelled, in-flight
// requests are cancelled and their late results ignored, subscribers are
// closed. A running session gets no stop request (callers wanting one call
// Stop first), but a start still in flight is followed by a best-effort stop.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	startInFlight := c.state.Phase == domain.PhaseStarting
	c.closed = true
	c.pendingStop = false
	c.stopTickerLocked()
	if c.state.Phase != domain.PhaseIdle && c.state.Phase != domain.PhaseStopped {
		c.state.Phase = domain.PhaseStopped
		c.state.StopReason = domain.StopTeardown
	}
	c.state.UpdatedAt = c.now()
	for ch := range c.subscribers {
		delete(c.subscribers, ch)
		close(ch)
	}
	c.mu.Unlock()
	c.cancel()

	if startInFlight {
		ctx, cancel := context.WithTimeout(context.Background(), c.stopTimeout)
		defer cancel()
		if _, err := c.client.Stop(ctx, c.kind); err != nil {
			c.logger.Warn("stop after interrupted start failed", "error", err)
		}
	}
}

// Subscribe returns a channel of state snapshots, starting with the current
// one. Slow readers only ever miss intermediate states, never the latest.
// The caller must invoke cancel to release the subscription.
func (c *Controller) Subscribe() (<-chan domain.GameSessionState, func()) {
	ch := make(chan domain.GameSessionState, 8)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) startTickerLocked(run uint64) {
	t := c.newTicker(c.tick)
	done := make(chan struct{})
	c.ticker = t
	c.tickDone = done
	go c.loop(run, t, done)
}

func (c *Controller) stopTickerLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.tickDone)
	c.ticker = nil
	c.tickDone = nil
}

func (c *Controller) loop(run uint64, t Ticker, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-t.C():
			if c.onTick(run) {
				c.finishStop(context.Background(), run, domain.StopTimeout)
				return
			}
		}
	}
}

// onTick decrements the countdown and reports whether it just expired. On
// expiry the ticker is already cancelled and the phase is stopping.
func (c *Controller) onTick(run uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.run != run || c.state.Phase != domain.PhaseRunning {
		return false
	}
	c.state.SecondsRemaining--
	if c.state.SecondsRemaining > 0 {
		c.publishLocked()
		return false
	}
	c.state.SecondsRemaining = 0
	c.stopTickerLocked()
	c.state.Phase = domain.PhaseStopping
	c.publishLocked()
	return true
}

func (c *Controller) finishStop(parent context.Context, run uint64, reason domain.StopReason) {
	reqCtx, cancel := c.requestContext(parent)
	reqCtx, cancelTimeout := context.WithTimeout(reqCtx, c.stopTimeout)
	_, err := c.client.Stop(reqCtx, c.kind)
	cancelTimeout()
	cancel()
	if err != nil {
		c.logger.Warn("stop request failed", "reason", string(reason), "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run != run || c.state.Phase != domain.PhaseStopping {
		return
	}
	c.state.Phase = domain.PhaseStopped
	c.state.StopReason = reason
	c.publishLocked()
}

// requestContext derives a request context cancelled by either parent or
// the controller's teardown.
func (c *Controller) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	unregister := context.AfterFunc(c.lifetime, cancel)
	return ctx, func() {
		unregister()
		cancel()
	}
}

func (c *Controller) snapshotLocked() domain.GameSessionState {
	s := c.state
	s.Running = s.Phase == domain.PhaseRunning
	s.Remaining = domain.FormatRemaining(s.SecondsRemaining)
	return s
}

func (c *Controller) publishLocked() {
	c.state.UpdatedAt = c.now()
	snap := c.snapshotLocked()
	for ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func startErrorMessage(kind domain.ActivityKind, err error) string {
	var svcErr *detection.ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return fmt.Sprintf("Could not start %s detection. Is the detection service reachable?", kind)
}
