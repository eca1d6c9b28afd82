package game

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"asd-screening-service/internal/detection"
	"asd-screening-service/internal/domain"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	poll    = 5 * time.Millisecond
)

type fakeClient struct {
	mu        sync.Mutex
	starts    int
	stops     int
	startErr  error
	stopErr   error
	startGate chan struct{}
	stopGate  chan struct{}
}

func (f *fakeClient) Start(ctx context.Context, _ domain.ActivityKind) (detection.Response, error) {
	f.mu.Lock()
	f.starts++
	gate, err := f.startGate, f.startErr
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return detection.Response{}, ctx.Err()
		}
	}
	return detection.Response{Message: "started"}, err
}

func (f *fakeClient) Stop(ctx context.Context, _ domain.ActivityKind) (detection.Response, error) {
	f.mu.Lock()
	f.stops++
	gate, err := f.stopGate, f.stopErr
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return detection.Response{}, ctx.Err()
		}
	}
	return detection.Response{Message: "stopped"}, err
}

func (f *fakeClient) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() { m.stopped.Store(true) }

type tickers struct {
	mu  sync.Mutex
	all []*manualTicker
}

func (ts *tickers) factory(time.Duration) Ticker {
	t := &manualTicker{ch: make(chan time.Time)}
	ts.mu.Lock()
	ts.all = append(ts.all, t)
	ts.mu.Unlock()
	return t
}

func (ts *tickers) count() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.all)
}

func (ts *tickers) last(t *testing.T) *manualTicker {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.NotEmpty(t, ts.all, "no ticker created")
	return ts.all[len(ts.all)-1]
}

func newTestController(client *fakeClient) (*Controller, *tickers) {
	ts := &tickers{}
	c := NewController("s1", domain.ActivityEmotion, client, Options{
		Duration:  3 * time.Second,
		NewTicker: ts.factory,
	})
	return c, ts
}

func waitPhase(t *testing.T, c *Controller, phase domain.GamePhase) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Snapshot().Phase == phase }, waitFor, poll,
		"want phase %s, have %s", phase, c.Snapshot().Phase)
}

func TestInitialState(t *testing.T) {
	c, _ := newTestController(&fakeClient{})
	defer c.Close()

	s := c.Snapshot()
	require.Equal(t, domain.PhaseIdle, s.Phase)
	require.False(t, s.Running)
	require.Equal(t, 3, s.SecondsRemaining)
	require.Equal(t, "0:03", s.Remaining)
	require.True(t, s.InstructionsVisible)
	require.Empty(t, s.LastError)
}

func TestStartRunsCountdown(t *testing.T) {
	client := &fakeClient{}
	c, ts := newTestController(client)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))

	s := c.Snapshot()
	require.Equal(t, domain.PhaseRunning, s.Phase)
	require.True(t, s.Running)
	require.False(t, s.InstructionsVisible)
	require.Equal(t, 3, s.SecondsRemaining)

	ts.last(t).ch <- time.Now()
	require.Eventually(t, func() bool { return c.Snapshot().SecondsRemaining == 2 }, waitFor, poll)
	require.True(t, c.Snapshot().Running)

	starts, stops := client.counts()
	require.Equal(t, 1, starts)
	require.Equal(t, 0, stops)
}

func TestCountdownExpiryStopsOnce(t *testing.T) {
	client := &fakeClient{}
	c, ts := newTestController(client)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))
	tk := ts.last(t)
	for i := 0; i < 3; i++ {
		tk.ch <- time.Now()
	}
	waitPhase(t, c, domain.PhaseStopped)

	s := c.Snapshot()
	require.False(t, s.Running)
	require.Equal(t, 0, s.SecondsRemaining)
	require.Equal(t, domain.StopTimeout, s.StopReason)
	require.True(t, tk.stopped.Load())

	// Nobody is listening on the ticker anymore.
	select {
	case tk.ch <- time.Now():
		t.Fatal("tick loop still running after expiry")
	case <-time.After(50 * time.Millisecond):
	}

	_, stops := client.counts()
	require.Equal(t, 1, stops)
	require.Equal(t, 0, c.Snapshot().SecondsRemaining)
}

func TestStopTwiceIssuesSingleRequest(t *testing.T) {
	client := &fakeClient{}
	c, ts := newTestController(client)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))
	c.Stop(context.Background())
	c.Stop(context.Background())

	s := c.Snapshot()
	require.Equal(t, domain.PhaseStopped, s.Phase)
	require.Equal(t, domain.StopUser, s.StopReason)
	require.True(t, ts.last(t).stopped.Load())
	_, stops := client.counts()
	require.Equal(t, 1, stops)
}

func TestConcurrentStopWhileStopping(t *testing.T) {
	client := &fakeClient{stopGate: make(chan struct{})}
	c, _ := newTestController(client)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		c.Stop(context.Background())
		close(done)
	}()
	waitPhase(t, c, domain.PhaseStopping)

	c.Stop(context.Background())
	close(client.stopGate)
	<-done

	waitPhase(t, c, domain.PhaseStopped)
	_, stops := client.counts()
	require.Equal(t, 1, stops)
}

func TestStartFailureSurfacesGenericError(t *testing.T) {
	client := &fakeClient{startErr: detection.ErrUnreachable}
	c, ts := newTestController(client)
	defer c.Close()

	err := c.Start(context.Background())
	require.ErrorIs(t, err, detection.ErrUnreachable)

	s := c.Snapshot()
	require.Equal(t, domain.PhaseStopped, s.Phase)
	require.Equal(t, domain.StopError, s.StopReason)
	require.Contains(t, s.LastError, "emotion")
	require.Equal(t, 3, s.SecondsRemaining)
	require.Zero(t, ts.count())
}

func TestStartFailureKeepsRemainingSeconds(t *testing.T) {
	client := &fakeClient{}
	c, ts := newTestController(client)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))
	tk := ts.last(t)
	for i := 0; i < 3; i++ {
		tk.ch <- time.Now()
	}
	waitPhase(t, c, domain.PhaseStopped)

	client.mu.Lock()
	client.startErr = &detection.ServiceError{Path: "/start-emotion", Status: 500, Message: "camera busy"}
	client.mu.Unlock()

	require.Error(t, c.Start(context.Background()))
	s := c.Snapshot()
	require.Equal(t, "camera busy", s.LastError)
	require.Equal(t, 0, s.SecondsRemaining)
	require.Equal(t, 1, ts.count())
}

func TestStartWhileRunningIsRejected(t *testing.T) {
	client := &fakeClient{}
	c, ts := newTestController(client)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))
	ts.last(t).ch <- time.Now()
	require.Eventually(t, func() bool { return c.Snapshot().SecondsRemaining == 2 }, waitFor, poll)

	require.ErrorIs(t, c.Start(context.Background()), domain.ErrAlreadyRunning)

	starts, _ := client.counts()
	require.Equal(t, 1, starts)
	require.Equal(t, 1, ts.count())
	require.Equal(t, 2, c.Snapshot().SecondsRemaining)
}

func TestStartWhileStartingIsBusy(t *testing.T) {
	client := &fakeClient{startGate: make(chan struct{})}
	c, _ := newTestController(client)
	defer c.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(context.Background()) }()
	waitPhase(t, c, domain.PhaseStarting)

	require.ErrorIs(t, c.Start(context.Background()), domain.ErrSessionBusy)
	close(client.startGate)
	require.NoError(t, <-errCh)

	starts, _ := client.counts()
	require.Equal(t, 1, starts)
	require.Equal(t, domain.PhaseRunning, c.Snapshot().Phase)
}

func TestStopWhileStartingIsDeferred(t *testing.T) {
	client := &fakeClient{startGate: make(chan struct{})}
	c, ts := newTestController(client)
	defer c.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(context.Background()) }()
	waitPhase(t, c, domain.PhaseStarting)

	c.Stop(context.Background())
	_, stops := client.counts()
	require.Equal(t, 0, stops)

	close(client.startGate)
	require.NoError(t, <-errCh)

	s := c.Snapshot()
	require.Equal(t, domain.PhaseStopped, s.Phase)
	require.Equal(t, domain.StopUser, s.StopReason)
	require.Zero(t, ts.count())
	_, stops = client.counts()
	require.Equal(t, 1, stops)
}

func TestStopFailureIsNotSurfaced(t *testing.T) {
	client := &fakeClient{stopErr: errors.New("connection refused")}
	c, _ := newTestController(client)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))
	c.Stop(context.Background())

	s := c.Snapshot()
	require.Equal(t, domain.PhaseStopped, s.Phase)
	require.Empty(t, s.LastError)
}

func TestStopWhenIdleIsNoop(t *testing.T) {
	client := &fakeClient{}
	c, _ := newTestController(client)
	defer c.Close()

	c.Stop(context.Background())

	require.Equal(t, domain.PhaseIdle, c.Snapshot().Phase)
	_, stops := client.counts()
	require.Zero(t, stops)
}

func TestReset(t *testing.T) {
	client := &fakeClient{}
	c, ts := newTestController(client)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))
	require.ErrorIs(t, c.Reset(), domain.ErrSessionRunning)

	ts.last(t).ch <- time.Now()
	require.Eventually(t, func() bool { return c.Snapshot().SecondsRemaining == 2 }, waitFor, poll)
	c.Stop(context.Background())

	require.NoError(t, c.Reset())
	s := c.Snapshot()
	require.Equal(t, domain.PhaseIdle, s.Phase)
	require.Equal(t, 3, s.SecondsRemaining)
	require.True(t, s.InstructionsVisible)
	require.Empty(t, s.StopReason)

	starts, stops := client.counts()
	require.Equal(t, 1, starts)
	require.Equal(t, 1, stops)
}

func TestResetClearsError(t *testing.T) {
	c, _ := newTestController(&fakeClient{startErr: detection.ErrUnreachable})
	defer c.Close()

	require.Error(t, c.Start(context.Background()))
	require.NotEmpty(t, c.Snapshot().LastError)

	require.NoError(t, c.Reset())
	require.Empty(t, c.Snapshot().LastError)
}

func TestCloseDiscardsLateStart(t *testing.T) {
	client := &fakeClient{startGate: make(chan struct{})}
	c, ts := newTestController(client)

	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(context.Background()) }()
	waitPhase(t, c, domain.PhaseStarting)

	c.Close()
	require.ErrorIs(t, <-errCh, domain.ErrControllerClosed)

	s := c.Snapshot()
	require.Equal(t, domain.PhaseStopped, s.Phase)
	require.Equal(t, domain.StopTeardown, s.StopReason)
	require.Zero(t, ts.count())
	require.ErrorIs(t, c.Start(context.Background()), domain.ErrControllerClosed)
	require.ErrorIs(t, c.Reset(), domain.ErrControllerClosed)

	_, stops := client.counts()
	require.Equal(t, 1, stops, "interrupted start must be followed by a stop")
}

func TestUnmountDuringStartSendsStop(t *testing.T) {
	client := &fakeClient{startGate: make(chan struct{})}
	c, _ := newTestController(client)

	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(context.Background()) }()
	waitPhase(t, c, domain.PhaseStarting)

	// Stop during start only defers; Close must still reach the service.
	c.Stop(context.Background())
	c.Close()
	require.ErrorIs(t, <-errCh, domain.ErrControllerClosed)

	starts, stops := client.counts()
	require.Equal(t, 1, starts)
	require.Equal(t, 1, stops)

	c.Close()
	_, stops = client.counts()
	require.Equal(t, 1, stops)
}

func TestNonJSONSuccessUsesGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	c := NewController("s1", domain.ActivityColor, detection.NewClient(detection.Config{BaseURL: srv.URL}), Options{
		Duration:  3 * time.Second,
		NewTicker: (&tickers{}).factory,
	})
	defer c.Close()

	require.Error(t, c.Start(context.Background()))
	s := c.Snapshot()
	require.Equal(t, domain.PhaseStopped, s.Phase)
	require.Equal(t, "Could not start color detection. Is the detection service reachable?", s.LastError)
}

func TestCloseCancelsTicker(t *testing.T) {
	client := &fakeClient{}
	c, ts := newTestController(client)

	require.NoError(t, c.Start(context.Background()))
	c.Close()

	require.True(t, ts.last(t).stopped.Load())
	require.False(t, c.Snapshot().Running)
	_, stops := client.counts()
	require.Zero(t, stops)
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	c, _ := newTestController(&fakeClient{})

	updates, cancel := c.Subscribe()
	defer cancel()

	initial := <-updates
	require.Equal(t, domain.PhaseIdle, initial.Phase)

	require.NoError(t, c.Start(context.Background()))

	var seen []domain.GamePhase
	for len(seen) == 0 || seen[len(seen)-1] != domain.PhaseRunning {
		select {
		case s := <-updates:
			seen = append(seen, s.Phase)
		case <-time.After(waitFor):
			t.Fatalf("timed out, saw %v", seen)
		}
	}
	require.Equal(t, []domain.GamePhase{domain.PhaseStarting, domain.PhaseRunning}, seen)

	c.Close()
	_, ok := <-updates
	require.False(t, ok)
}

func TestIndependentControllers(t *testing.T) {
	client := &fakeClient{}
	a, tsA := newTestController(client)
	defer a.Close()
	b, _ := newTestController(client)
	defer b.Close()

	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, b.Start(context.Background()))

	tsA.last(t).ch <- time.Now()
	require.Eventually(t, func() bool { return a.Snapshot().SecondsRemaining == 2 }, waitFor, poll)
	require.Equal(t, 3, b.Snapshot().SecondsRemaining)

	a.Stop(context.Background())
	require.Equal(t, domain.PhaseRunning, b.Snapshot().Phase)
}
