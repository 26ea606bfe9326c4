package alert

import (
	"time"

	"happyshaa/internal/models"
)

// Timer is the handle returned by a Scheduler.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. time.AfterFunc satisfies it.
type Scheduler func(d time.Duration, f func()) Timer

func realScheduler(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Session is one in-progress emergency determination. Fields are written
// under the arbiter lock until the session leaves AlertPending and are
// read-only afterwards.
type Session struct {
	ID          string
	UserID      string
	TriggeredAt time.Time
	Type        models.DetectionType
	Confidence  int
	Description string
	Photo       []byte
	Location    *models.GeoPoint
	Deadline    time.Time

	cancelled bool
	timer     Timer
}

// SessionInfo is the photo-less view handed to clients.
type SessionInfo struct {
	ID          string               `json:"id"`
	TriggeredAt time.Time            `json:"triggered_at"`
	Type        models.DetectionType `json:"type"`
	Confidence  int                  `json:"confidence"`
	Description string               `json:"description"`
	Location    *models.GeoPoint     `json:"location,omitempty"`
	Deadline    time.Time            `json:"deadline"`
	Cancelled   bool                 `json:"cancelled"`
}

func (s *Session) Info() *SessionInfo {
	if s == nil {
		return nil
	}
	info := &SessionInfo{
		ID:          s.ID,
		TriggeredAt: s.TriggeredAt,
		Type:        s.Type,
		Confidence:  s.Confidence,
		Description: s.Description,
		Deadline:    s.Deadline,
		Cancelled:   s.cancelled,
	}
	if s.Location != nil {
		loc := *s.Location
		info.Location = &loc
	}
	return info
}
