package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/clock"
)

// State is the lifecycle state of a Controller.
type State string

const (
	StateIdle   State = "idle"
	StateActive State = "active"
	StatePaused State = "paused"
)

const (
	DefaultInterval   = 60 * time.Second
	DefaultMaxRetries = 3
	countdownStep     = time.Second
)

// AllowedIntervals lists the refresh periods a Controller accepts.
var AllowedIntervals = []time.Duration{
	30 * time.Second,
	60 * time.Second,
	120 * time.Second,
	300 * time.Second,
}

var (
	ErrInvalidInterval  = errors.New("refresh interval must be one of 30s, 60s, 120s or 300s")
	ErrInvalidRetries   = errors.New("max retries must be at least 1")
	ErrRefreshInFlight  = errors.New("a refresh is already in flight")
	ErrMissingRefreshFn = errors.New("refresh function is required")
)

// ValidInterval reports whether d is one of AllowedIntervals.
func ValidInterval(d time.Duration) bool {
	for _, allowed := range AllowedIntervals {
		if d == allowed {
			return true
		}
	}
	return false
}

// RefreshFunc regenerates whatever the consumer is displaying.
type RefreshFunc func(ctx context.Context) error

// Notification is emitted once when repeated failures pause the controller.
type Notification struct {
	State   State
	Retries int
	Err     error
	At      time.Time
}

func (n Notification) Message() string {
	return fmt.Sprintf("auto refresh paused after %d consecutive failures: %v", n.Retries, n.Err)
}

type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Ticker is the subset of time.Ticker the controller needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds a ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the TickerFactory backed by time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

type Options struct {
	Interval     time.Duration
	MaxRetries   int
	PauseOnError bool
	Clock        clock.Clock
	NewTicker    TickerFactory
	Notifier     Notifier
}

// Snapshot is a point-in-time view of a Controller.
type Snapshot struct {
	State            State
	Interval         time.Duration
	Retries          int
	MaxRetries       int
	SecondsUntilNext int
	InFlight         bool
	LastRefresh      *time.Time
	LastError        error
}

// Controller re-runs a RefreshFunc on a fixed interval. A single loop
// goroutine owns the countdown and trigger tickers; both are released
// together on every disable path.
type Controller struct {
	fn   RefreshFunc
	opts Options

	// lifecycle serialises Enable, Disable and SetInterval.
	lifecycle sync.Mutex

	mu          sync.Mutex
	state       State
	interval    time.Duration
	retries     int
	remaining   int
	inFlight    bool
	lastRefresh *time.Time
	lastErr     error
	parent      context.Context
	stop        chan struct{}
	done        chan struct{}
}

// New validates opts and returns an idle controller.
func New(fn RefreshFunc, opts Options) (*Controller, error) {
	if fn == nil {
		return nil, ErrMissingRefreshFn
	}
	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}
	if !ValidInterval(opts.Interval) {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidInterval, opts.Interval)
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.MaxRetries < 0 {
		return nil, ErrInvalidRetries
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewReal(nil)
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewTimeTicker
	}

	return &Controller{
		fn:       fn,
		opts:     opts,
		state:    StateIdle,
		interval: opts.Interval,
	}, nil
}

// Enable starts periodic refreshing. Enabling a paused controller clears
// the retry counter; enabling an active one is a no-op. The loop stops on
// its own when ctx is done.
func (c *Controller) Enable(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.state == StateActive {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.stopLoop()

	c.mu.Lock()
	c.retries = 0
	c.lastErr = nil
	c.parent = ctx
	c.mu.Unlock()

	c.startLoop()
	slog.Info("Auto refresh enabled", "interval", c.Interval())
	return nil
}

// Disable stops refreshing, cancels an in-flight refresh and waits for it.
func (c *Controller) Disable() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.stopLoop()

	c.mu.Lock()
	wasIdle := c.state == StateIdle
	c.state = StateIdle
	c.remaining = 0
	c.mu.Unlock()

	if !wasIdle {
		slog.Info("Auto refresh disabled")
	}
}

// SetInterval changes the refresh period. An active controller restarts
// both tickers with the new period.
func (c *Controller) SetInterval(d time.Duration) error {
	if !ValidInterval(d) {
		return fmt.Errorf("%w: got %s", ErrInvalidInterval, d)
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	c.interval = d
	active := c.state == StateActive
	c.mu.Unlock()

	if active {
		c.stopLoop()
		c.startLoop()
	}
	return nil
}

// RefreshNow runs the refresh synchronously and returns its error to the
// caller. It does not count toward the retry budget.
func (c *Controller) RefreshNow(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrRefreshInFlight
	}
	c.inFlight = true
	c.mu.Unlock()

	err := c.fn(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if err == nil {
		now := c.opts.Clock.Now()
		c.lastRefresh = &now
		c.retries = 0
		c.lastErr = nil
		if c.state == StateActive {
			c.remaining = c.intervalSeconds()
		}
	}
	return err
}

func (c *Controller) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:            c.state,
		Interval:         c.interval,
		Retries:          c.retries,
		MaxRetries:       c.opts.MaxRetries,
		SecondsUntilNext: c.remaining,
		InFlight:         c.inFlight,
		LastError:        c.lastErr,
	}
	if c.lastRefresh != nil {
		t := *c.lastRefresh
		snap.LastRefresh = &t
	}
	return snap
}

// startLoop must be called with lifecycle held and no loop running.
func (c *Controller) startLoop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx := c.parent
	if ctx == nil {
		ctx = context.Background()
	}

	countdown := c.opts.NewTicker(countdownStep)
	trigger := c.opts.NewTicker(c.interval)
	stop := make(chan struct{})
	done := make(chan struct{})

	c.state = StateActive
	c.remaining = c.intervalSeconds()
	c.stop = stop
	c.done = done

	go c.loop(ctx, countdown, trigger, stop, done)
}

// stopLoop must be called with lifecycle held.
func (c *Controller) stopLoop() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (c *Controller) loop(ctx context.Context, countdown, trigger Ticker, stop <-chan struct{}, done chan<- struct{}) {
	// The notifier runs after teardown so it may call back into the controller.
	var paused *Notification
	defer func() {
		if paused != nil && c.opts.Notifier != nil {
			c.opts.Notifier.Notify(*paused)
		}
	}()
	defer close(done)
	defer countdown.Stop()
	defer trigger.Stop()

	runCtx, cancel := context.WithCancel(WithBackground(ctx))
	var wg sync.WaitGroup
	running := false
	defer func() {
		cancel()
		wg.Wait()
		if running {
			c.mu.Lock()
			c.inFlight = false
			c.mu.Unlock()
		}
	}()

	results := make(chan error, 1)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			c.mu.Lock()
			c.state = StateIdle
			c.remaining = 0
			c.mu.Unlock()
			slog.Info("Auto refresh stopped", "reason", ctx.Err())
			return
		case <-countdown.C():
			c.mu.Lock()
			if c.remaining > 0 {
				c.remaining--
			}
			c.mu.Unlock()
		case <-trigger.C():
			c.mu.Lock()
			if c.inFlight {
				c.mu.Unlock()
				slog.Debug("Auto refresh tick skipped, previous refresh still running")
				continue
			}
			c.inFlight = true
			c.remaining = c.intervalSeconds()
			c.mu.Unlock()

			running = true
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- c.fn(runCtx)
			}()
		case err := <-results:
			running = false
			if paused = c.settle(err); paused != nil {
				slog.Error("Auto refresh paused", "retries", paused.Retries, "error", paused.Err)
				return
			}
		}
	}
}

// settle records the outcome of a scheduled refresh. It returns a
// notification when the failure budget is exhausted.
func (c *Controller) settle(err error) *Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight = false
	now := c.opts.Clock.Now()

	if err == nil {
		c.retries = 0
		c.lastErr = nil
		c.lastRefresh = &now
		return nil
	}

	c.retries++
	c.lastErr = err
	slog.Warn("Auto refresh failed", "retries", c.retries, "max_retries", c.opts.MaxRetries, "error", err)

	if !c.opts.PauseOnError || c.retries < c.opts.MaxRetries {
		return nil
	}

	c.state = StatePaused
	c.remaining = 0
	return &Notification{
		State:   StatePaused,
		Retries: c.retries,
		Err:     err,
		At:      now,
	}
}

func (c *Controller) intervalSeconds() int {
	return int(c.interval / time.Second)
}

type backgroundKey struct{}

// WithBackground marks ctx as belonging to a scheduled, silent refresh.
func WithBackground(ctx context.Context) context.Context {
	return context.WithValue(ctx, backgroundKey{}, true)
}

// IsBackground reports whether ctx was produced by WithBackground.
func IsBackground(ctx context.Context) bool {
	v, _ := ctx.Value(backgroundKey{}).(bool)
	return v
}
