package strategy

import (
	"strings"
	"time"
)

// Strategy is the attendance-tracking policy assigned to an event.
type Strategy string

const (
	SingleMark     Strategy = "single_mark"
	DayBased       Strategy = "day_based"
	SessionBased   Strategy = "session_based"
	MilestoneBased Strategy = "milestone_based"
	Continuous     Strategy = "continuous"
)

// All lists every strategy in declaration order.
var All = []Strategy{SingleMark, DayBased, SessionBased, MilestoneBased, Continuous}

// RegistrationMode distinguishes individual and team events.
type RegistrationMode string

const (
	ModeIndividual RegistrationMode = "individual"
	ModeTeam       RegistrationMode = "team"
)

// Descriptor is the immutable event metadata classification and
// synthesis work from. Callers validate it before handing it over.
type Descriptor struct {
	Name             string           `json:"name"`
	Type             string           `json:"type"`
	Description      string           `json:"description"`
	Start            time.Time        `json:"start"`
	End              time.Time        `json:"end"`
	Venue            string           `json:"venue,omitempty"`
	RegistrationMode RegistrationMode `json:"registrationMode"`
	MaxTeamSize      int              `json:"maxTeamSize,omitempty"`
}

// Duration returns the event span.
func (d Descriptor) Duration() time.Duration {
	return d.End.Sub(d.Start)
}

// Blob returns the combined lowercase text used for keyword matching.
func (d Descriptor) Blob() string {
	return strings.ToLower(d.Name + " " + d.Type + " " + d.Description)
}

// Detection is the classifier output. Confidence stays within [0, 0.98].
type Detection struct {
	Strategy   Strategy `json:"strategy"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}
