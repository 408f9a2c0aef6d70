package attendance

import (
	"context"
)

// EventAnalytics is the event-level rollup for dashboards.
type EventAnalytics struct {
	EventID         string  `json:"event_id"`
	TotalRegistered int     `json:"total_registered"`
	Present         int     `json:"present"`
	Partial         int     `json:"partial"`
	Absent          int     `json:"absent"`
	Pending         int     `json:"pending"`
	AttendanceRate  float64 `json:"attendance_rate"`
}

// Analytics re-evaluates every record for the event and rolls the
// results up. The cached status on each record is ignored; marks plus
// config are the source of truth. registered is the caller-supplied
// registration count; when it is lower than the number of records seen,
// the record count wins.
func (s *Service) Analytics(ctx context.Context, eventID string, registered int) (*EventAnalytics, error) {
	cfg, err := s.repo.GetConfig(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrConfigNotFound
	}
	records, err := s.repo.ListRecords(ctx, eventID)
	if err != nil {
		return nil, err
	}

	out := &EventAnalytics{EventID: eventID}
	var pctSum float64
	for i := range records {
		ev := Evaluate(&records[i], cfg)
		pctSum += ev.Percentage
		switch ev.Status {
		case StatusPresent:
			out.Present++
		case StatusPartial:
			out.Partial++
		default:
			out.Absent++
		}
	}

	total := registered
	if total < len(records) {
		total = len(records)
	}
	out.TotalRegistered = total
	out.Pending = total - len(records)
	if total > 0 {
		out.AttendanceRate = round2(pctSum / float64(total))
	}
	return out, nil
}
