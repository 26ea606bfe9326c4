package alert

import (
	"errors"
	"time"
)

type State string

const (
	StateIdle         State = "idle"
	StateMonitoring   State = "monitoring"
	StateAlertPending State = "alert_pending"
	StateDispatching  State = "dispatching"
	StateCancelled    State = "cancelled"
)

var (
	ErrAlreadyMonitoring  = errors.New("monitoring already active")
	ErrNotMonitoring      = errors.New("monitoring is not active")
	ErrNoPendingAlert     = errors.New("no pending alert")
	ErrDispatchInProgress = errors.New("alert dispatch already in progress")
)

// Transition is emitted to observers after every state change.
type Transition struct {
	UserID  string       `json:"user_id"`
	From    State        `json:"from"`
	To      State        `json:"to"`
	Session *SessionInfo `json:"session,omitempty"`
	At      time.Time    `json:"at"`
}

type Observer func(Transition)

// Config is the part of the user's settings the arbiter acts on.
type Config struct {
	Countdown time.Duration
	Threshold int
}

const (
	DefaultCountdown = 10 * time.Second
	MinCountdown     = 5 * time.Second
	MaxCountdown     = 30 * time.Second
	DefaultThreshold = 50
)

func (c Config) normalize() Config {
	switch {
	case c.Countdown <= 0:
		c.Countdown = DefaultCountdown
	case c.Countdown < MinCountdown:
		c.Countdown = MinCountdown
	case c.Countdown > MaxCountdown:
		c.Countdown = MaxCountdown
	}
	if c.Threshold < 0 {
		c.Threshold = 0
	}
	if c.Threshold > 100 {
		c.Threshold = 100
	}
	return c
}

// Snapshot is a point-in-time view of an arbiter.
type Snapshot struct {
	UserID           string        `json:"user_id"`
	State            State         `json:"state"`
	Session          *SessionInfo  `json:"session,omitempty"`
	RemainingSeconds float64       `json:"remaining_seconds,omitempty"`
	Countdown        time.Duration `json:"countdown"`
	Threshold        int           `json:"threshold"`
	Epoch            uint64        `json:"epoch"`
}
