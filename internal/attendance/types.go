package attendance

import (
	"time"

	"campusattend/internal/schedule"
	"campusattend/internal/strategy"
)

// Status is a participant's derived attendance standing. It is cache:
// always recomputable from (marks, config).
type Status string

const (
	StatusPresent Status = "present"
	StatusPartial Status = "partial"
	StatusAbsent  Status = "absent"
	StatusPending Status = "pending"
)

// Criteria is the pass rule used to turn a percentage into a status.
// At most one threshold field is authoritative; AutoCalculate means the
// strategy defaults were applied rather than a caller override.
type Criteria struct {
	Strategy               strategy.Strategy `json:"strategy"`
	MinimumPercentage      *float64          `json:"minimumPercentage,omitempty"`
	RequiredSessionCount   *int              `json:"requiredSessionCount,omitempty"`
	RequiredMilestoneNames []string          `json:"requiredMilestoneNames,omitempty"`
	AutoCalculate          bool              `json:"autoCalculate"`
}

// Config is the per-event attendance configuration produced by
// BuildConfig and stored keyed by event id.
type Config struct {
	EventID     string             `json:"eventId"`
	Strategy    strategy.Strategy  `json:"strategy"`
	Criteria    Criteria           `json:"criteria"`
	Sessions    []schedule.Session `json:"sessions"`
	Generated   bool               `json:"generated"`
	Fingerprint string             `json:"fingerprint"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// Session looks up a configured session by id.
func (c *Config) Session(id string) *schedule.Session {
	for i := range c.Sessions {
		if c.Sessions[i].ID == id {
			return &c.Sessions[i]
		}
	}
	return nil
}

// MarkInfo captures who recorded a presence mark, how, and when.
type MarkInfo struct {
	Timestamp time.Time `json:"timestamp"`
	MarkedBy  string    `json:"markedBy"`
	Method    string    `json:"method"`
	Notes     string    `json:"notes,omitempty"`
}

// Record is a participant's attendance document for one event. Marks is
// keyed by session id; Percentage and Status are the cached result of
// the last evaluation.
type Record struct {
	ParticipantID   string              `json:"participantId"`
	EventID         string              `json:"eventId"`
	Marks           map[string]MarkInfo `json:"marks"`
	Percentage      float64             `json:"percentage"`
	Status          Status              `json:"status"`
	LastEvaluatedAt time.Time           `json:"lastEvaluatedAt"`
}
