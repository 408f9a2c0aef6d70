package strategy

import (
	"strings"
	"time"
)

// RuleSet is the immutable signal table driving classification. The
// default set covers common campus archetypes; tests inject smaller ones.
type RuleSet struct {
	// Keywords maps each strategy to the phrases that vote for it.
	// A phrase matching the event name counts 3x, the type 2x, the
	// description 1x.
	Keywords map[Strategy][]string

	// DurationBuckets are checked in order; the first bucket whose
	// ceiling is not exceeded contributes its bonus.
	DurationBuckets []DurationBucket

	// VenueAffinity maps venue keywords to a strategy bonus.
	VenueAffinity []VenueRule

	// Overrides are evaluated in order after generic scoring. The first
	// applicable rule forces its strategy regardless of scores.
	Overrides []OverrideRule

	// TeamBonus and LargeTeamBonus reward team registration mode.
	TeamBonus      float64
	LargeTeamBonus float64
	LargeTeamSize  int
}

// DurationBucket adds a bonus to the strategy typical for events of
// this length. Max is the inclusive ceiling; a zero Max means no upper
// bound and must come last.
type DurationBucket struct {
	Max      time.Duration
	Strategy Strategy
	Bonus    float64
}

// VenueRule maps venue-type keywords to an affinity bonus.
type VenueRule struct {
	Keywords []string
	Strategy Strategy
	Bonus    float64
}

// OverrideRule forces a strategy when a strong archetype is recognised.
type OverrideRule struct {
	Name    string
	Applies func(d Descriptor, blob string) bool
	Force   Strategy
}

// tieBreakOrder resolves equal scores. Deliberate product ordering:
// the more granular policies win over the coarse ones.
var tieBreakOrder = []Strategy{SessionBased, DayBased, MilestoneBased, SingleMark, Continuous}

// calendarDaysSpanned counts the distinct calendar days the event
// touches. An event ending exactly at midnight does not spill into a
// new day.
func calendarDaysSpanned(d Descriptor) int {
	if !d.End.After(d.Start) {
		return 0
	}
	loc := d.Start.Location()
	fy, fm, fd := d.Start.In(loc).Date()
	ly, lm, ld := d.End.Add(-time.Nanosecond).In(loc).Date()
	first := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	last := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	return int(last.Sub(first).Hours()/24) + 1
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// DefaultRules returns the production rule set.
func DefaultRules() *RuleSet {
	return &RuleSet{
		Keywords: map[Strategy][]string{
			SingleMark: {
				"seminar", "guest lecture", "talk", "webinar", "orientation",
				"induction", "awareness", "alumni meet", "inauguration",
			},
			DayBased: {
				"conference", "symposium", "summit", "sports meet", "annual day",
				"bootcamp", "faculty development", "fdp", "training program",
			},
			SessionBased: {
				"hackathon", "ideathon", "workshop", "competition", "contest",
				"placement", "recruitment", "coding", "quiz",
			},
			MilestoneBased: {
				"fest", "cultural", "techfest", "exhibition", "expo",
				"carnival", "celebration",
			},
			Continuous: {
				"internship", "certification", "course", "semester",
				"mentorship", "club activity", "research program",
			},
		},
		DurationBuckets: []DurationBucket{
			{Max: 3 * time.Hour, Strategy: SingleMark, Bonus: 2.0},
			{Max: 6 * time.Hour, Strategy: SessionBased, Bonus: 1.5},
			{Max: 12 * time.Hour, Strategy: SessionBased, Bonus: 1.0},
			{Max: 24 * time.Hour, Strategy: MilestoneBased, Bonus: 1.0},
			{Max: 7 * 24 * time.Hour, Strategy: DayBased, Bonus: 2.0},
			{Max: 30 * 24 * time.Hour, Strategy: Continuous, Bonus: 1.5},
			{Max: 0, Strategy: Continuous, Bonus: 2.5},
		},
		VenueAffinity: []VenueRule{
			{Keywords: []string{"auditorium", "hall"}, Strategy: SingleMark, Bonus: 1.0},
			{Keywords: []string{"ground", "stadium"}, Strategy: DayBased, Bonus: 1.0},
			{Keywords: []string{"lab", "studio"}, Strategy: SessionBased, Bonus: 1.0},
			{Keywords: []string{"open", "cultural"}, Strategy: MilestoneBased, Bonus: 1.0},
		},
		Overrides: []OverrideRule{
			{
				Name:  "medical camp",
				Force: SingleMark,
				Applies: func(_ Descriptor, blob string) bool {
					return containsAny(blob, "medical camp", "blood donation")
				},
			},
			{
				Name:  "placement drive",
				Force: SessionBased,
				Applies: func(_ Descriptor, blob string) bool {
					return containsAny(blob, "placement drive", "recruitment drive")
				},
			},
			{
				Name:  "multi-day conference",
				Force: DayBased,
				Applies: func(d Descriptor, blob string) bool {
					return containsAny(blob, "conference", "symposium") && calendarDaysSpanned(d) >= 2
				},
			},
			{
				Name:  "industrial visit",
				Force: SingleMark,
				Applies: func(_ Descriptor, blob string) bool {
					return containsAny(blob, "industrial visit", "factory visit")
				},
			},
		},
		TeamBonus:      1.0,
		LargeTeamBonus: 0.75,
		LargeTeamSize:  6,
	}
}
