package schedule

import (
	"fmt"
	"strings"
	"time"

	"campusattend/internal/strategy"
)

// Sessions synthesizes the trackable schedule for an event under the
// given strategy. Pure: same inputs produce the same windows (session
// ids aside). Fails only when the descriptor's range is inverted.
func Sessions(d strategy.Descriptor, strat strategy.Strategy) ([]Session, error) {
	if !d.End.After(d.Start) {
		return nil, ErrInvalidTimeRange
	}
	switch strat {
	case strategy.DayBased:
		return dayBased(d), nil
	case strategy.SessionBased:
		return sessionBased(d), nil
	case strategy.MilestoneBased:
		return milestoneBased(d), nil
	case strategy.Continuous:
		return continuous(d), nil
	default:
		return singleMark(d), nil
	}
}

// singleMark issues one window. Long events get the window truncated to
// 80% of the span so marks cannot arrive after the event has wound down.
func singleMark(d strategy.Descriptor) []Session {
	end := d.End
	if dur := d.Duration(); dur > 3*time.Hour {
		end = d.Start.Add(time.Duration(float64(dur) * 0.8))
	}
	return []Session{newSession("Attendance Window", KindSingle, d.Start, end, true, 1)}
}

// dayBased issues one session per calendar day. The first and last day
// clip to the event's actual start/end; intermediate days reuse the
// event's time-of-day window.
func dayBased(d strategy.Descriptor) []Session {
	loc := d.Start.Location()
	firstDay := truncateToDay(d.Start, loc)
	// An event ending exactly at midnight does not spill into a new day.
	lastDay := truncateToDay(d.End.Add(-time.Nanosecond), loc)

	var out []Session
	n := 1
	for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		start := atTimeOfDay(day, d.Start)
		end := atTimeOfDay(day, d.End)
		if day.Equal(firstDay) {
			start = d.Start
		}
		if day.Equal(lastDay) {
			end = d.End
			if !end.After(start) {
				// The event ends at an earlier time-of-day than it
				// starts; open the final day's window at midnight so
				// it stays forward.
				start = day
			}
		} else if !end.After(start) {
			// Overnight window: the daily slot spills past midnight.
			end = end.AddDate(0, 0, 1)
		}
		out = append(out, newSession(fmt.Sprintf("Day %d", n), KindDay, start, end, true, 1))
		n++
	}
	return out
}

func truncateToDay(t time.Time, loc *time.Location) time.Time {
	y, m, dd := t.In(loc).Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, loc)
}

func atTimeOfDay(day, ref time.Time) time.Time {
	r := ref.In(day.Location())
	return time.Date(day.Year(), day.Month(), day.Day(), r.Hour(), r.Minute(), r.Second(), 0, day.Location())
}

// archetype pairs a detector with a session builder. Detectors are
// checked in order; the first match wins.
type archetype struct {
	name    string
	matches func(blob string, dur time.Duration) bool
	build   func(d strategy.Descriptor) []Session
}

var sessionArchetypes = []archetype{
	{
		name: "hackathon-long",
		matches: func(blob string, dur time.Duration) bool {
			return hasAny(blob, "hackathon", "ideathon", "codeathon") && dur >= 20*time.Hour
		},
		build: buildHackathonLong,
	},
	{
		name: "hackathon-short",
		matches: func(blob string, _ time.Duration) bool {
			return hasAny(blob, "hackathon", "ideathon", "codeathon")
		},
		build: buildHackathonShort,
	},
	{
		name: "competition",
		matches: func(blob string, dur time.Duration) bool {
			return hasAny(blob, "competition", "contest", "tournament") && dur >= 8*time.Hour
		},
		build: buildRounds,
	},
	{
		name: "workshop",
		matches: func(blob string, dur time.Duration) bool {
			return hasAny(blob, "workshop", "training", "bootcamp") && dur >= 6*time.Hour
		},
		build: buildHalfDays,
	},
}

func sessionBased(d strategy.Descriptor) []Session {
	blob := d.Blob()
	dur := d.Duration()
	for _, a := range sessionArchetypes {
		if a.matches(blob, dur) {
			return a.build(d)
		}
	}
	return buildGenericSessions(d)
}

func buildHackathonLong(d strategy.Descriptor) []Session {
	dur := d.Duration()
	window := dur / 6
	if window > 2*time.Hour {
		window = 2 * time.Hour
	}
	mid := d.Start.Add(dur / 2)
	return []Session{
		newSession("Opening", KindSession, d.Start, d.Start.Add(window), true, 0.2),
		newSession("Midpoint Checkpoint", KindSession, mid.Add(-window/2), mid.Add(window/2), true, 0.3),
		newSession("Final Demo", KindSession, d.End.Add(-window), d.End, true, 0.5),
	}
}

func buildHackathonShort(d strategy.Descriptor) []Session {
	window := d.Duration() / 4
	if window > time.Hour {
		window = time.Hour
	}
	return []Session{
		newSession("Kickoff", KindSession, d.Start, d.Start.Add(window), true, 0.4),
		newSession("Submission", KindSession, d.End.Add(-window), d.End, true, 0.6),
	}
}

func buildRounds(d strategy.Descriptor) []Session {
	dur := d.Duration()
	n := int(dur / (3 * time.Hour))
	n = clampInt(n, 2, 4)
	slot := dur / time.Duration(n)

	var out []Session
	for i := 0; i < n; i++ {
		start := d.Start.Add(time.Duration(i) * slot)
		end := start.Add(slot)
		name := fmt.Sprintf("Round %d", i+1)
		weight := 0.8
		if i == n-1 {
			name = "Final Round"
			end = d.End
			weight = 1.0
		}
		out = append(out, newSession(name, KindSession, start, end, true, weight))
	}
	return out
}

func buildHalfDays(d strategy.Descriptor) []Session {
	mid := d.Start.Add(d.Duration() / 2)
	return []Session{
		newSession("First Half", KindSession, d.Start, mid, true, 1),
		newSession("Second Half", KindSession, mid, d.End, true, 1),
	}
}

func buildGenericSessions(d strategy.Descriptor) []Session {
	dur := d.Duration()
	n := clampInt(int(dur/(2*time.Hour)), 2, 5)
	slot := dur / time.Duration(n)

	var out []Session
	for i := 0; i < n; i++ {
		start := d.Start.Add(time.Duration(i) * slot)
		end := start.Add(slot)
		if i == n-1 {
			end = d.End
		}
		out = append(out, newSession(fmt.Sprintf("Session %d", i+1), KindSession, start, end, true, 1))
	}
	return out
}

// phase is a named fraction of the event used by milestone templates.
// Weights double as the time split.
type phase struct {
	name   string
	weight float64
}

var milestoneArchetypes = []struct {
	name    string
	matches func(blob string, dur time.Duration) bool
	phases  []phase
}{
	{
		name: "cultural",
		matches: func(blob string, dur time.Duration) bool {
			return hasAny(blob, "cultural", "fest", "celebration", "carnival") && dur >= 8*time.Hour
		},
		phases: []phase{
			{"Registration & Inauguration", 0.2},
			{"Main Events", 0.6},
			{"Closing Ceremony", 0.2},
		},
	},
	{
		name: "technical",
		matches: func(blob string, _ time.Duration) bool {
			return hasAny(blob, "technical", "project", "expo", "exhibition", "demo")
		},
		phases: []phase{
			{"Setup", 0.25},
			{"Presentation & Demo", 0.65},
			{"Evaluation", 0.1},
		},
	},
}

var defaultPhases = []phase{
	{"Start", 0.3},
	{"Main Phase", 0.6},
	{"Completion", 0.1},
}

func milestoneBased(d strategy.Descriptor) []Session {
	blob := d.Blob()
	dur := d.Duration()
	phases := defaultPhases
	for _, a := range milestoneArchetypes {
		if a.matches(blob, dur) {
			phases = a.phases
			break
		}
	}
	return buildPhases(d, phases)
}

func buildPhases(d strategy.Descriptor, phases []phase) []Session {
	dur := d.Duration()
	var out []Session
	t := d.Start
	for i, p := range phases {
		end := t.Add(time.Duration(float64(dur) * p.weight))
		if i == len(phases)-1 {
			end = d.End
		}
		out = append(out, newSession(p.name, KindMilestone, t, end, true, p.weight))
		t = end
	}
	return out
}

// continuous issues periodic checkpoints; cadence widens with span and
// the final checkpoint is clipped to the event end.
func continuous(d strategy.Descriptor) []Session {
	dur := d.Duration()
	var step time.Duration
	switch {
	case dur <= 7*24*time.Hour:
		step = 24 * time.Hour
	case dur <= 30*24*time.Hour:
		step = 3 * 24 * time.Hour
	case dur <= 90*24*time.Hour:
		step = 7 * 24 * time.Hour
	default:
		step = 14 * 24 * time.Hour
	}

	var out []Session
	i := 1
	for t := d.Start; t.Before(d.End); t = t.Add(step) {
		end := t.Add(step)
		if end.After(d.End) {
			end = d.End
		}
		out = append(out, newSession(fmt.Sprintf("Checkpoint %d", i), KindContinuousCheck, t, end, false, 1))
		i++
	}
	return out
}

func hasAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
