// Package trade issues short-lived, single-use exchange codes.
//
// A Session is Active until its countdown reaches zero and Expired afterwards. Expired
// sessions can be regenerated into a fresh Active code; regenerating an Active session is
// rejected with ErrSessionActive so a code in use is never silently replaced.
package trade

import (
	"errors"
	"fmt"
	"pokemon-sysbot/internal/domain"
	"sync"
	"time"
)

const (
	DefaultLifetime = 180 * time.Second
	TickInterval    = time.Second
)

var (
	ErrSessionActive  = errors.New("trade session is still active")
	ErrSessionExpired = errors.New("trade session has expired")
	ErrSessionClosed  = errors.New("trade session is closed")
)

type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
)

// Snapshot is a consistent view of a session. The code and its expiry are always read together.
type Snapshot struct {
	ID       string           `json:"id"`
	Code     domain.TradeCode `json:"code"`
	State    State            `json:"state"`
	TimeLeft int              `json:"time_left"`
	Closed   bool             `json:"closed"`
}

func (s Snapshot) Expired() bool {
	return s.State == StateExpired
}

// CopyText is the clipboard form of the code, refused once the code is no longer usable.
func (s Snapshot) CopyText() (string, error) {
	if s.Closed {
		return "", ErrSessionClosed
	}
	if s.Expired() {
		return "", ErrSessionExpired
	}
	return s.Code.Compact(), nil
}

func (s Snapshot) Remaining() string {
	return FormatRemaining(s.TimeLeft)
}

type Session struct {
	id       string
	lifetime time.Duration
	generate CodeGenerator
	now      func() time.Time
	onExpire func(Snapshot)

	mu       sync.Mutex
	code     domain.TradeCode
	state    State
	timeLeft int
	closed   bool
	started  bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
}

type Option func(*Session)

func WithLifetime(d time.Duration) Option {
	return func(s *Session) {
		if d >= TickInterval {
			s.lifetime = d
		}
	}
}

func WithGenerator(g CodeGenerator) Option {
	return func(s *Session) {
		if g != nil {
			s.generate = g
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// OnExpire registers an observer called once per expiry, outside the session lock.
func OnExpire(fn func(Snapshot)) Option {
	return func(s *Session) { s.onExpire = fn }
}

// Create mints the first code and returns an Active session. The countdown only
// advances through Tick until Start is called.
func Create(id string, opts ...Option) (*Session, error) {
	s := &Session{
		id:       id,
		lifetime: DefaultLifetime,
		generate: RandomCode,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	code, err := s.mint("")
	if err != nil {
		return nil, err
	}
	s.activate(code)
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

// mint draws a code different from previous.
func (s *Session) mint(previous string) (string, error) {
	const attempts = 8
	for i := 0; i < attempts; i++ {
		code, err := s.generate()
		if err != nil {
			return "", err
		}
		if !ValidCode(code) {
			return "", fmt.Errorf("generated trade code %q is malformed", code)
		}
		if code != previous {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a fresh trade code after %d attempts", attempts)
}

func (s *Session) activate(code string) {
	s.code = domain.TradeCode{Value: code, CreatedAt: s.now(), Lifetime: s.lifetime}
	s.state = StateActive
	s.timeLeft = int(s.lifetime / TickInterval)
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:       s.id,
		Code:     s.code,
		State:    s.state,
		TimeLeft: s.timeLeft,
		Closed:   s.closed,
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Tick advances the countdown by one second. The transition to Expired happens exactly
// once, and ticks on an expired or closed session change nothing.
func (s *Session) Tick() Snapshot {
	s.mu.Lock()
	if s.closed || s.state == StateExpired {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}

	s.timeLeft--
	expired := false
	if s.timeLeft <= 0 {
		s.timeLeft = 0
		s.state = StateExpired
		expired = true
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if expired && s.onExpire != nil {
		s.onExpire(snap)
	}
	return snap
}

// Regenerate replaces an expired code with a new one and restarts the countdown.
func (s *Session) Regenerate() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.snapshotLocked(), ErrSessionClosed
	}
	if s.state == StateActive {
		return s.snapshotLocked(), ErrSessionActive
	}

	code, err := s.mint(s.code.Value)
	if err != nil {
		return s.snapshotLocked(), err
	}
	s.activate(code)

	if s.started {
		s.startTickerLocked()
	}
	return s.snapshotLocked(), nil
}

// Start drives Tick from a one-second ticker. The ticker stops on expiry and on Close,
// and is restarted by Regenerate. Calling Start again is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.started {
		return
	}
	s.started = true
	if s.state == StateActive {
		s.startTickerLocked()
	}
}

func (s *Session) startTickerLocked() {
	if s.ticker != nil {
		// the previous goroutine saw expiry but has not released its ticker yet
		s.ticker.Stop()
		close(s.stop)
	}
	s.ticker = time.NewTicker(TickInterval)
	s.stop = make(chan struct{})

	s.wg.Add(1)
	go s.run(s.ticker, s.stop)
}

func (s *Session) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if snap := s.Tick(); snap.Expired() || snap.Closed {
				s.mu.Lock()
				ticker.Stop()
				if s.ticker == ticker {
					s.ticker = nil
				}
				s.mu.Unlock()
				return
			}
		}
	}
}

// Ticking reports whether a ticker goroutine is currently running.
func (s *Session) Ticking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticker != nil
}

// Close stops the ticker and waits for the tick goroutine to exit. Safe to call repeatedly.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.ticker = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}
