package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusattend/internal/strategy"
)

var base = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func descriptor(name string, dur time.Duration) strategy.Descriptor {
	return strategy.Descriptor{
		Name:  name,
		Start: base,
		End:   base.Add(dur),
	}
}

func assertChronological(t *testing.T, sessions []Session) {
	t.Helper()
	for i, s := range sessions {
		assert.True(t, s.EndTime.After(s.StartTime), "session %d has inverted window", i)
		assert.Positive(t, s.Weight, "session %d weight", i)
		if i > 0 {
			assert.False(t, s.StartTime.Before(sessions[i-1].StartTime), "session %d out of order", i)
		}
	}
}

func TestSessionsInvalidRange(t *testing.T) {
	d := descriptor("Anything", 0)
	_, err := Sessions(d, strategy.SingleMark)
	require.ErrorIs(t, err, ErrInvalidTimeRange)

	d.End = d.Start.Add(-time.Hour)
	_, err = Sessions(d, strategy.DayBased)
	require.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestSingleMarkShortEventSpansFully(t *testing.T) {
	d := descriptor("Guest Lecture", 2*time.Hour)
	sessions, err := Sessions(d, strategy.SingleMark)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	s := sessions[0]
	assert.Equal(t, KindSingle, s.Kind)
	assert.Equal(t, d.Start, s.StartTime)
	assert.Equal(t, d.End, s.EndTime)
	assert.True(t, s.Mandatory)
}

func TestSingleMarkLongEventTruncatesWindow(t *testing.T) {
	d := descriptor("Orientation", 10*time.Hour)
	sessions, err := Sessions(d, strategy.SingleMark)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	assert.Equal(t, d.Start, sessions[0].StartTime)
	assert.Equal(t, d.Start.Add(8*time.Hour), sessions[0].EndTime)
}

func TestDayBasedThreeDayEvent(t *testing.T) {
	d := strategy.Descriptor{
		Name:  "FDP Workshop",
		Start: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 12, 17, 0, 0, 0, time.UTC),
	}
	sessions, err := Sessions(d, strategy.DayBased)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assertChronological(t, sessions)

	assert.Equal(t, d.Start, sessions[0].StartTime)
	assert.Equal(t, d.End, sessions[2].EndTime)
	for i, s := range sessions {
		assert.Equal(t, KindDay, s.Kind)
		assert.Equal(t, 1.0, s.Weight)
		if i > 0 {
			assert.True(t, !sessions[i-1].EndTime.After(s.StartTime),
				"day %d ends after day %d starts", i, i+1)
		}
	}
	// Intermediate day reuses the event's time-of-day window.
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), sessions[1].StartTime)
	assert.Equal(t, time.Date(2026, 3, 11, 17, 0, 0, 0, time.UTC), sessions[1].EndTime)
}

func TestDayBasedEndEarlierThanStartTimeOfDay(t *testing.T) {
	d := strategy.Descriptor{
		Name:  "Residential Training Program",
		Start: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC),
	}
	sessions, err := Sessions(d, strategy.DayBased)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assertChronological(t, sessions)

	// The final day's window opens at midnight: the event ends before
	// its usual daily start time.
	last := sessions[2]
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), last.StartTime)
	assert.Equal(t, d.End, last.EndTime)
}

func TestDayBasedMidnightEndDoesNotAddADay(t *testing.T) {
	d := strategy.Descriptor{
		Name:  "Overnight Event",
		Start: time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
	}
	sessions, err := Sessions(d, strategy.DayBased)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
	assert.Equal(t, d.End, sessions[1].EndTime)
}

func TestHackathonLongThreeSessions(t *testing.T) {
	d := descriptor("Smart Campus Hackathon", 24*time.Hour)
	sessions, err := Sessions(d, strategy.SessionBased)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assertChronological(t, sessions)

	assert.Equal(t, []float64{0.2, 0.3, 0.5}, []float64{sessions[0].Weight, sessions[1].Weight, sessions[2].Weight})
	assert.Equal(t, d.Start, sessions[0].StartTime)
	assert.Equal(t, d.End, sessions[2].EndTime)
	for _, s := range sessions {
		assert.False(t, s.StartTime.Before(d.Start))
		assert.False(t, s.EndTime.After(d.End))
	}
}

func TestHackathonShortTwoSessions(t *testing.T) {
	d := descriptor("Mini Ideathon", 12*time.Hour)
	sessions, err := Sessions(d, strategy.SessionBased)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, 0.4, sessions[0].Weight)
	assert.Equal(t, 0.6, sessions[1].Weight)
	assert.Equal(t, "Kickoff", sessions[0].Name)
	assert.Equal(t, "Submission", sessions[1].Name)
}

func TestCompetitionRounds(t *testing.T) {
	d := descriptor("Coding Contest Finals", 9*time.Hour)
	sessions, err := Sessions(d, strategy.SessionBased)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assertChronological(t, sessions)

	assert.Equal(t, 0.8, sessions[0].Weight)
	assert.Equal(t, 0.8, sessions[1].Weight)
	assert.Equal(t, 1.0, sessions[2].Weight)
	assert.Equal(t, "Final Round", sessions[2].Name)
	assert.Equal(t, d.End, sessions[2].EndTime)
}

func TestWorkshopHalfDays(t *testing.T) {
	d := descriptor("Deep Learning Workshop", 8*time.Hour)
	sessions, err := Sessions(d, strategy.SessionBased)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	mid := d.Start.Add(4 * time.Hour)
	assert.Equal(t, mid, sessions[0].EndTime)
	assert.Equal(t, mid, sessions[1].StartTime)
	assert.Equal(t, 1.0, sessions[0].Weight)
	assert.Equal(t, 1.0, sessions[1].Weight)
}

func TestGenericSessionsSizedByDuration(t *testing.T) {
	tests := []struct {
		dur  time.Duration
		want int
	}{
		{3 * time.Hour, 2},
		{5 * time.Hour, 2},
		{8 * time.Hour, 4},
		{16 * time.Hour, 5},
	}
	for _, tt := range tests {
		d := descriptor("Review Meet", tt.dur)
		sessions, err := Sessions(d, strategy.SessionBased)
		require.NoError(t, err)
		assert.Len(t, sessions, tt.want, "duration %s", tt.dur)
		assertChronological(t, sessions)
		assert.Equal(t, d.End, sessions[len(sessions)-1].EndTime)
	}
}

func TestMilestoneCulturalPhases(t *testing.T) {
	d := descriptor("Spring Fest", 10*time.Hour)
	sessions, err := Sessions(d, strategy.MilestoneBased)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assertChronological(t, sessions)

	assert.Equal(t, "Registration & Inauguration", sessions[0].Name)
	assert.Equal(t, "Main Events", sessions[1].Name)
	assert.Equal(t, "Closing Ceremony", sessions[2].Name)
	assert.Equal(t, []float64{0.2, 0.6, 0.2}, []float64{sessions[0].Weight, sessions[1].Weight, sessions[2].Weight})
	assert.Equal(t, d.End, sessions[2].EndTime)
}

func TestMilestoneTechnicalPhases(t *testing.T) {
	d := descriptor("Project Expo", 6*time.Hour)
	sessions, err := Sessions(d, strategy.MilestoneBased)
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	assert.Equal(t, "Setup", sessions[0].Name)
	assert.Equal(t, "Presentation & Demo", sessions[1].Name)
	assert.Equal(t, "Evaluation", sessions[2].Name)
	assert.Equal(t, 0.25, sessions[0].Weight)
	assert.Equal(t, 0.65, sessions[1].Weight)
	assert.Equal(t, 0.1, sessions[2].Weight)
}

func TestMilestoneGenericPhases(t *testing.T) {
	d := descriptor("Closed Door Meetup", 4*time.Hour)
	sessions, err := Sessions(d, strategy.MilestoneBased)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "Start", sessions[0].Name)
	assert.Equal(t, "Main Phase", sessions[1].Name)
	assert.Equal(t, "Completion", sessions[2].Name)
}

func TestContinuousCadence(t *testing.T) {
	tests := []struct {
		name string
		dur  time.Duration
		want int
	}{
		{"daily within a week", 5 * 24 * time.Hour, 5},
		{"every three days within a month", 14 * 24 * time.Hour, 5},
		{"weekly within a quarter", 60 * 24 * time.Hour, 9},
		{"biweekly beyond", 120 * 24 * time.Hour, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := descriptor("Mentorship Program", tt.dur)
			sessions, err := Sessions(d, strategy.Continuous)
			require.NoError(t, err)
			assert.Len(t, sessions, tt.want)
			assertChronological(t, sessions)

			last := sessions[len(sessions)-1]
			assert.Equal(t, KindContinuousCheck, last.Kind)
			assert.Equal(t, d.End, last.EndTime, "final checkpoint clipped to event end")
		})
	}
}

func TestSessionIDsUnique(t *testing.T) {
	d := descriptor("Coding Contest Finals", 9*time.Hour)
	sessions, err := Sessions(d, strategy.SessionBased)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, s := range sessions {
		require.NotEmpty(t, s.ID)
		require.False(t, seen[s.ID], "duplicate session id")
		seen[s.ID] = true
	}
}
