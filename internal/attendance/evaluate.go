package attendance

import (
	"math"

	"campusattend/internal/schedule"
	"campusattend/internal/strategy"
)

// Percentage such that a config with no criteria at all still resolves.
const fallbackMinimumPercentage = 75.0

// Evaluation is the pure result of judging a record against a config.
type Evaluation struct {
	Status     Status
	Percentage float64
}

// Evaluate derives status and percentage from a record and its config.
// Pure and total: a nil record means the participant was never marked
// and evaluates to pending.
func Evaluate(rec *Record, cfg *Config) Evaluation {
	if rec == nil {
		return Evaluation{Status: StatusPending, Percentage: 0}
	}

	if cfg.Strategy == strategy.SingleMark {
		if len(rec.Marks) > 0 {
			return Evaluation{Status: StatusPresent, Percentage: 100.0}
		}
		return Evaluation{Status: StatusAbsent, Percentage: 0}
	}

	pct := percentage(rec, cfg)
	return Evaluation{Status: statusFor(rec, cfg, pct), Percentage: pct}
}

func percentage(rec *Record, cfg *Config) float64 {
	var total, attended float64
	for _, s := range cfg.Sessions {
		total += s.Weight
		if _, ok := rec.Marks[s.ID]; ok {
			attended += s.Weight
		}
	}
	if total <= 0 {
		return 0
	}
	pct := attended / total * 100.0
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return round2(pct)
}

func statusFor(rec *Record, cfg *Config, pct float64) Status {
	switch {
	case cfg.Criteria.MinimumPercentage != nil:
		if pct >= *cfg.Criteria.MinimumPercentage {
			return StatusPresent
		}
	case cfg.Criteria.RequiredSessionCount != nil:
		if len(rec.Marks) >= *cfg.Criteria.RequiredSessionCount {
			return StatusPresent
		}
	case len(cfg.Criteria.RequiredMilestoneNames) > 0:
		if attendedMilestones(rec, cfg) >= len(cfg.Criteria.RequiredMilestoneNames) {
			return StatusPresent
		}
	default:
		if pct >= fallbackMinimumPercentage {
			return StatusPresent
		}
	}
	if pct > 0 {
		return StatusPartial
	}
	return StatusAbsent
}

func attendedMilestones(rec *Record, cfg *Config) int {
	n := 0
	for _, s := range cfg.Sessions {
		if s.Kind != schedule.KindMilestone {
			continue
		}
		if _, ok := rec.Marks[s.ID]; ok {
			n++
		}
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
