package clients

import (
	"sync"
	"time"
)

// State is the position of a Breaker.
type State int

const (
	// StateClosed lets every request through and counts failures.
	StateClosed State = iota

	// StateOpen rejects requests until the cool-down has elapsed.
	StateOpen

	// StateHalfOpen admits a limited number of trial requests.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Outcome is how an admitted request ended.
type Outcome int

const (
	// OutcomeSuccess is any answer from the upstream, 4xx included.
	OutcomeSuccess Outcome = iota

	// OutcomeFailure is a transport error or a 5xx after every attempt.
	OutcomeFailure

	// OutcomeAbandoned is a request whose caller gave up first. It neither
	// heals nor trips the breaker.
	OutcomeAbandoned
)

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// MaxFailures is the run of consecutive failures that opens the breaker.
	MaxFailures int

	// CoolDown is how long the breaker stays open before trials start.
	CoolDown time.Duration

	// Trials is both the number of concurrent half-open requests and the
	// run of trial successes needed to close again.
	Trials int
}

// Breaker stops the client from calling an upstream that keeps failing.
//
// Every admission is stamped with the breaker's generation, which changes on
// each transition. Outcomes reported for an older generation are ignored, so
// a slow request that started before the breaker opened cannot close it.
type Breaker struct {
	mu         sync.Mutex
	cfg        BreakerConfig
	state      State
	generation uint64
	streak     int
	inTrial    int
	openedAt   time.Time

	clock    func() time.Time
	onChange func(from, to State)
}

// NewBreaker returns a closed breaker. Non-positive limits are raised to 1.
func NewBreaker(cfg BreakerConfig) *Breaker {
	cfg.MaxFailures = max(cfg.MaxFailures, 1)
	cfg.Trials = max(cfg.Trials, 1)

	return &Breaker{cfg: cfg, clock: time.Now}
}

// OnStateChange registers fn to run after every transition, outside the lock.
func (b *Breaker) OnStateChange(fn func(from, to State)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// State returns the current state. An open breaker whose cool-down has
// elapsed still reports open until the next admission.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// Admit asks to send one request. On success the returned function must be
// called exactly once with the request's outcome.
func (b *Breaker) Admit() (func(Outcome), error) {
	b.mu.Lock()

	var moved *transition

	if b.state == StateOpen && b.clock().Sub(b.openedAt) >= b.cfg.CoolDown {
		moved = b.moveTo(StateHalfOpen)
	}

	switch b.state {
	case StateOpen:
		b.mu.Unlock()
		b.notify(moved)

		return nil, ErrCircuitOpen

	case StateHalfOpen:
		if b.inTrial >= b.cfg.Trials {
			b.mu.Unlock()
			b.notify(moved)

			return nil, ErrCircuitOpen
		}
		b.inTrial++
	}

	generation := b.generation
	b.mu.Unlock()
	b.notify(moved)

	var once sync.Once

	return func(o Outcome) {
		once.Do(func() { b.report(generation, o) })
	}, nil
}

func (b *Breaker) report(generation uint64, o Outcome) {
	b.mu.Lock()

	if generation != b.generation {
		b.mu.Unlock()
		return
	}

	if b.state == StateHalfOpen {
		b.inTrial--
	}

	var moved *transition

	switch o {
	case OutcomeSuccess:
		if b.state == StateHalfOpen {
			b.streak++
			if b.streak >= b.cfg.Trials {
				moved = b.moveTo(StateClosed)
			}
		} else {
			b.streak = 0
		}

	case OutcomeFailure:
		if b.state == StateHalfOpen {
			moved = b.moveTo(StateOpen)
		} else {
			b.streak++
			if b.streak >= b.cfg.MaxFailures {
				moved = b.moveTo(StateOpen)
			}
		}
	}

	b.mu.Unlock()
	b.notify(moved)
}

type transition struct {
	from, to State
	fn       func(from, to State)
}

// moveTo changes state and starts a new generation. Caller holds mu.
func (b *Breaker) moveTo(to State) *transition {
	from := b.state
	b.state = to
	b.generation++
	b.streak = 0
	b.inTrial = 0

	if to == StateOpen {
		b.openedAt = b.clock()
	}

	return &transition{from: from, to: to, fn: b.onChange}
}

func (b *Breaker) notify(t *transition) {
	if t != nil && t.fn != nil {
		t.fn(t.from, t.to)
	}
}
