package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTimeRange is returned when an event ends at or before its start.
var ErrInvalidTimeRange = errors.New("event end must be after start")

// SessionKind tags what a trackable session represents.
type SessionKind string

const (
	KindSingle          SessionKind = "single"
	KindDay             SessionKind = "day"
	KindSession         SessionKind = "session"
	KindMilestone       SessionKind = "milestone"
	KindContinuousCheck SessionKind = "continuous_check"
)

// Session is one trackable, time-bounded unit of an event. EndTime is
// always after StartTime and Weight is always positive.
type Session struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Kind      SessionKind `json:"kind"`
	StartTime time.Time   `json:"startTime"`
	EndTime   time.Time   `json:"endTime"`
	Mandatory bool        `json:"mandatory"`
	Weight    float64     `json:"weight"`
}

func newSession(name string, kind SessionKind, start, end time.Time, mandatory bool, weight float64) Session {
	return Session{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		StartTime: start,
		EndTime:   end,
		Mandatory: mandatory,
		Weight:    weight,
	}
}
