package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusattend/internal/schedule"
	"campusattend/internal/strategy"
)

var base = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func session(id string, kind schedule.SessionKind, weight float64, offset, dur time.Duration) schedule.Session {
	return schedule.Session{
		ID:        id,
		Name:      id,
		Kind:      kind,
		StartTime: base.Add(offset),
		EndTime:   base.Add(offset + dur),
		Mandatory: true,
		Weight:    weight,
	}
}

func markedAt(ids ...string) map[string]MarkInfo {
	marks := make(map[string]MarkInfo, len(ids))
	for _, id := range ids {
		marks[id] = MarkInfo{Timestamp: base, MarkedBy: "staff-1", Method: "manual"}
	}
	return marks
}

func TestEvaluateNilRecordIsPending(t *testing.T) {
	cfg := &Config{Strategy: strategy.SessionBased}
	ev := Evaluate(nil, cfg)
	assert.Equal(t, StatusPending, ev.Status)
	assert.Equal(t, 0.0, ev.Percentage)
}

func TestEvaluateSingleMark(t *testing.T) {
	cfg := &Config{
		Strategy: strategy.SingleMark,
		Criteria: Criteria{Strategy: strategy.SingleMark, AutoCalculate: true},
		Sessions: []schedule.Session{session("s1", schedule.KindSingle, 1, 0, 2*time.Hour)},
	}

	present := Evaluate(&Record{Marks: markedAt("s1")}, cfg)
	assert.Equal(t, StatusPresent, present.Status)
	assert.Equal(t, 100.0, present.Percentage)

	absent := Evaluate(&Record{Marks: map[string]MarkInfo{}}, cfg)
	assert.Equal(t, StatusAbsent, absent.Status)
	assert.Equal(t, 0.0, absent.Percentage)
}

func TestEvaluateWeightedSessionsAgainstMinimumPercentage(t *testing.T) {
	minPct := 75.0
	cfg := &Config{
		Strategy: strategy.SessionBased,
		Criteria: Criteria{Strategy: strategy.SessionBased, MinimumPercentage: &minPct},
		Sessions: []schedule.Session{
			session("kickoff", schedule.KindSession, 0.4, 0, time.Hour),
			session("submission", schedule.KindSession, 0.6, 10*time.Hour, time.Hour),
		},
	}

	onlyHeavy := Evaluate(&Record{Marks: markedAt("submission")}, cfg)
	assert.Equal(t, 60.0, onlyHeavy.Percentage)
	assert.Equal(t, StatusPartial, onlyHeavy.Status)

	both := Evaluate(&Record{Marks: markedAt("kickoff", "submission")}, cfg)
	assert.Equal(t, 100.0, both.Percentage)
	assert.Equal(t, StatusPresent, both.Status)

	none := Evaluate(&Record{Marks: map[string]MarkInfo{}}, cfg)
	assert.Equal(t, 0.0, none.Percentage)
	assert.Equal(t, StatusAbsent, none.Status)
}

func TestEvaluateDayBasedHalfAttendance(t *testing.T) {
	minPct := 80.0
	cfg := &Config{
		Strategy: strategy.DayBased,
		Criteria: Criteria{Strategy: strategy.DayBased, MinimumPercentage: &minPct},
		Sessions: []schedule.Session{
			session("day1", schedule.KindDay, 1, 0, 8*time.Hour),
			session("day2", schedule.KindDay, 1, 24*time.Hour, 8*time.Hour),
		},
	}

	ev := Evaluate(&Record{Marks: markedAt("day1")}, cfg)
	assert.Equal(t, 50.0, ev.Percentage)
	assert.Equal(t, StatusPartial, ev.Status)
}

func TestEvaluateRequiredSessionCount(t *testing.T) {
	count := 1
	cfg := &Config{
		Strategy: strategy.SessionBased,
		Criteria: Criteria{Strategy: strategy.SessionBased, RequiredSessionCount: &count},
		Sessions: []schedule.Session{
			session("r1", schedule.KindSession, 1, 0, time.Hour),
			session("r2", schedule.KindSession, 1, 2*time.Hour, time.Hour),
		},
	}

	ev := Evaluate(&Record{Marks: markedAt("r1")}, cfg)
	assert.Equal(t, StatusPresent, ev.Status)
	assert.Equal(t, 50.0, ev.Percentage)
}

func TestEvaluateRequiredMilestones(t *testing.T) {
	cfg := &Config{
		Strategy: strategy.MilestoneBased,
		Criteria: Criteria{
			Strategy:               strategy.MilestoneBased,
			RequiredMilestoneNames: []string{"Setup", "Presentation & Demo", "Evaluation"},
		},
		Sessions: []schedule.Session{
			session("m1", schedule.KindMilestone, 0.25, 0, time.Hour),
			session("m2", schedule.KindMilestone, 0.65, time.Hour, 3*time.Hour),
			session("m3", schedule.KindMilestone, 0.1, 4*time.Hour, time.Hour),
		},
	}

	two := Evaluate(&Record{Marks: markedAt("m1", "m2")}, cfg)
	assert.Equal(t, StatusPartial, two.Status)
	assert.Equal(t, 90.0, two.Percentage)

	all := Evaluate(&Record{Marks: markedAt("m1", "m2", "m3")}, cfg)
	assert.Equal(t, StatusPresent, all.Status)
	assert.Equal(t, 100.0, all.Percentage)
}

func TestEvaluateFallbackThreshold(t *testing.T) {
	cfg := &Config{
		Strategy: strategy.SessionBased,
		Criteria: Criteria{Strategy: strategy.SessionBased},
		Sessions: []schedule.Session{
			session("a", schedule.KindSession, 1, 0, time.Hour),
			session("b", schedule.KindSession, 1, 2*time.Hour, time.Hour),
		},
	}

	half := Evaluate(&Record{Marks: markedAt("a")}, cfg)
	assert.Equal(t, StatusPartial, half.Status)

	full := Evaluate(&Record{Marks: markedAt("a", "b")}, cfg)
	assert.Equal(t, StatusPresent, full.Status)
}

func TestEvaluateRoundsToTwoDecimals(t *testing.T) {
	minPct := 75.0
	cfg := &Config{
		Strategy: strategy.SessionBased,
		Criteria: Criteria{Strategy: strategy.SessionBased, MinimumPercentage: &minPct},
		Sessions: []schedule.Session{
			session("a", schedule.KindSession, 1, 0, time.Hour),
			session("b", schedule.KindSession, 1, 2*time.Hour, time.Hour),
			session("c", schedule.KindSession, 1, 4*time.Hour, time.Hour),
		},
	}

	ev := Evaluate(&Record{Marks: markedAt("a")}, cfg)
	assert.Equal(t, 33.33, ev.Percentage)
}

func TestEvaluateIdempotent(t *testing.T) {
	minPct := 75.0
	cfg := &Config{
		Strategy: strategy.SessionBased,
		Criteria: Criteria{Strategy: strategy.SessionBased, MinimumPercentage: &minPct},
		Sessions: []schedule.Session{
			session("a", schedule.KindSession, 0.4, 0, time.Hour),
			session("b", schedule.KindSession, 0.6, 2*time.Hour, time.Hour),
		},
	}
	rec := &Record{Marks: markedAt("b")}

	first := Evaluate(rec, cfg)
	second := Evaluate(rec, cfg)
	require.Equal(t, first, second)
}

func TestEvaluateIgnoresMarksForUnknownSessions(t *testing.T) {
	minPct := 75.0
	cfg := &Config{
		Strategy: strategy.SessionBased,
		Criteria: Criteria{Strategy: strategy.SessionBased, MinimumPercentage: &minPct},
		Sessions: []schedule.Session{
			session("a", schedule.KindSession, 1, 0, time.Hour),
		},
	}

	ev := Evaluate(&Record{Marks: markedAt("ghost")}, cfg)
	assert.Equal(t, 0.0, ev.Percentage)
	assert.Equal(t, StatusAbsent, ev.Status)
}
