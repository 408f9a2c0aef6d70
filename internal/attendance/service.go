package attendance

import (
	"context"
	"errors"
	"time"

	"campusattend/internal/metrics"
	"campusattend/internal/schedule"
	"campusattend/internal/strategy"
)

var (
	// ErrConfigNotFound means the event has no attendance config yet.
	ErrConfigNotFound = errors.New("attendance config not found")
	// ErrMissingSessionID means the strategy requires a session id.
	ErrMissingSessionID = errors.New("session id required for this strategy")
	// ErrUnknownSession means the session id is not in the config.
	ErrUnknownSession = errors.New("session not found in attendance config")
)

// Service coordinates config building, mark recording, and evaluation.
type Service struct {
	repo       *Repository
	classifier *strategy.Classifier
	now        func() time.Time
}

// NewService creates a service; a nil classifier selects default rules.
func NewService(repo *Repository, cls *strategy.Classifier) *Service {
	if cls == nil {
		cls = strategy.NewClassifier(nil)
	}
	return &Service{repo: repo, classifier: cls, now: time.Now}
}

// Detect exposes the classifier for preview use.
func (s *Service) Detect(d strategy.Descriptor) strategy.Detection {
	return s.classifier.Detect(d)
}

// BuildConfig classifies the descriptor, synthesizes sessions, applies
// criteria defaults, and persists the config keyed by event id.
func (s *Service) BuildConfig(ctx context.Context, eventID string, d strategy.Descriptor) (*Config, error) {
	det := s.classifier.Detect(d)
	sessions, err := schedule.Sessions(d, det.Strategy)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	cfg := &Config{
		EventID:     eventID,
		Strategy:    det.Strategy,
		Criteria:    defaultCriteria(det.Strategy, sessions),
		Sessions:    sessions,
		Generated:   true,
		Fingerprint: fingerprint(d),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.SaveConfig(ctx, cfg); err != nil {
		return nil, err
	}
	metrics.ClassificationsTotal.WithLabelValues(string(det.Strategy)).Inc()
	return cfg, nil
}

// EnsureConfig returns the stored config, rebuilding it only when the
// descriptor's timing/type fingerprint changed before the event start.
// Once the event has started the stored config is authoritative.
func (s *Service) EnsureConfig(ctx context.Context, eventID string, d strategy.Descriptor) (*Config, error) {
	existing, err := s.repo.GetConfig(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.BuildConfig(ctx, eventID, d)
	}
	if s.now().Before(d.Start) && existing.Fingerprint != fingerprint(d) {
		rebuilt, err := s.BuildConfig(ctx, eventID, d)
		if err != nil {
			return nil, err
		}
		rebuilt.CreatedAt = existing.CreatedAt
		if err := s.repo.SaveConfig(ctx, rebuilt); err != nil {
			return nil, err
		}
		return rebuilt, nil
	}
	return existing, nil
}

// GetConfig returns the stored config or ErrConfigNotFound.
func (s *Service) GetConfig(ctx context.Context, eventID string) (*Config, error) {
	cfg, err := s.repo.GetConfig(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrConfigNotFound
	}
	return cfg, nil
}

func fingerprint(d strategy.Descriptor) string {
	return d.Type + "|" + d.Start.UTC().Format(time.RFC3339) + "|" + d.End.UTC().Format(time.RFC3339)
}

// defaultCriteria applies the per-strategy pass rule used when the
// caller does not override it.
func defaultCriteria(strat strategy.Strategy, sessions []schedule.Session) Criteria {
	c := Criteria{Strategy: strat, AutoCalculate: true}
	switch strat {
	case strategy.DayBased:
		c.MinimumPercentage = floatPtr(80)
	case strategy.SessionBased:
		c.MinimumPercentage = floatPtr(75)
	case strategy.Continuous:
		c.MinimumPercentage = floatPtr(70)
	case strategy.MilestoneBased:
		for _, s := range sessions {
			if s.Mandatory {
				c.RequiredMilestoneNames = append(c.RequiredMilestoneNames, s.Name)
			}
		}
	}
	return c
}

func floatPtr(v float64) *float64 { return &v }

// MarkRequest records one presence or absence mark.
type MarkRequest struct {
	EventID       string
	ParticipantID string
	SessionID     string
	Present       bool
	MarkedBy      string
	Method        string
	Notes         string
}

// Mark upserts a presence mark (or removes it for absence), re-runs the
// evaluator, and persists the refreshed result.
func (s *Service) Mark(ctx context.Context, req MarkRequest) (Evaluation, error) {
	cfg, err := s.repo.GetConfig(ctx, req.EventID)
	if err != nil {
		return Evaluation{}, err
	}
	if cfg == nil {
		metrics.MarksTotal.WithLabelValues("error").Inc()
		return Evaluation{}, ErrConfigNotFound
	}

	sessionID := req.SessionID
	if cfg.Strategy == strategy.SingleMark {
		// Single-mark events have exactly one window; the caller's
		// session id is ignored.
		if len(cfg.Sessions) == 0 {
			metrics.MarksTotal.WithLabelValues("error").Inc()
			return Evaluation{}, ErrUnknownSession
		}
		sessionID = cfg.Sessions[0].ID
	} else {
		if sessionID == "" {
			metrics.MarksTotal.WithLabelValues("error").Inc()
			return Evaluation{}, ErrMissingSessionID
		}
		if cfg.Session(sessionID) == nil {
			metrics.MarksTotal.WithLabelValues("error").Inc()
			return Evaluation{}, ErrUnknownSession
		}
	}

	rec, err := s.repo.GetRecord(ctx, req.EventID, req.ParticipantID)
	if err != nil {
		return Evaluation{}, err
	}
	if rec == nil {
		rec = &Record{
			ParticipantID: req.ParticipantID,
			EventID:       req.EventID,
			Marks:         make(map[string]MarkInfo),
			Status:        StatusPending,
		}
		if err := s.repo.CreateRecord(ctx, rec); err != nil {
			return Evaluation{}, err
		}
	}
	if rec.Marks == nil {
		rec.Marks = make(map[string]MarkInfo)
	}

	if req.Present {
		method := req.Method
		if method == "" {
			method = "manual"
		}
		mi := MarkInfo{
			Timestamp: s.now().UTC(),
			MarkedBy:  req.MarkedBy,
			Method:    method,
			Notes:     req.Notes,
		}
		if err := s.repo.PutMark(ctx, req.EventID, req.ParticipantID, sessionID, mi); err != nil {
			return Evaluation{}, err
		}
		rec.Marks[sessionID] = mi
		metrics.MarksTotal.WithLabelValues("present").Inc()
	} else {
		if err := s.repo.RemoveMark(ctx, req.EventID, req.ParticipantID, sessionID); err != nil {
			return Evaluation{}, err
		}
		delete(rec.Marks, sessionID)
		metrics.MarksTotal.WithLabelValues("absent").Inc()
	}

	ev := Evaluate(rec, cfg)
	if err := s.repo.SaveEvaluation(ctx, req.EventID, req.ParticipantID, ev, s.now().UTC()); err != nil {
		return Evaluation{}, err
	}
	return ev, nil
}

// BulkItem is one entry of a bulk marking call.
type BulkItem struct {
	ParticipantID string `json:"participant_id"`
	SessionID     string `json:"session_id,omitempty"`
	Present       bool   `json:"present"`
	Notes         string `json:"notes,omitempty"`
}

// BulkItemResult reports one item's outcome.
type BulkItemResult struct {
	ParticipantID string  `json:"participant_id"`
	SessionID     string  `json:"session_id,omitempty"`
	Status        Status  `json:"status,omitempty"`
	Percentage    float64 `json:"percentage"`
	Error         string  `json:"error,omitempty"`
}

// BulkReport itemizes successes and failures of a bulk call.
type BulkReport struct {
	Succeeded []BulkItemResult `json:"succeeded"`
	Failed    []BulkItemResult `json:"failed"`
}

// MarkBulk processes items independently. One bad item never blocks the
// rest; there is no cross-item transaction.
func (s *Service) MarkBulk(ctx context.Context, eventID, markedBy string, items []BulkItem) BulkReport {
	report := BulkReport{
		Succeeded: []BulkItemResult{},
		Failed:    []BulkItemResult{},
	}
	for _, item := range items {
		ev, err := s.Mark(ctx, MarkRequest{
			EventID:       eventID,
			ParticipantID: item.ParticipantID,
			SessionID:     item.SessionID,
			Present:       item.Present,
			MarkedBy:      markedBy,
			Method:        "bulk",
			Notes:         item.Notes,
		})
		res := BulkItemResult{ParticipantID: item.ParticipantID, SessionID: item.SessionID}
		if err != nil {
			res.Error = err.Error()
			report.Failed = append(report.Failed, res)
			metrics.BulkItemFailures.Inc()
			continue
		}
		res.Status = ev.Status
		res.Percentage = ev.Percentage
		report.Succeeded = append(report.Succeeded, res)
	}
	return report
}

// ParticipantStatus is the on-demand status view for one participant.
type ParticipantStatus struct {
	ParticipantID    string            `json:"participant_id"`
	EventID          string            `json:"event_id"`
	Status           Status            `json:"status"`
	Percentage       float64           `json:"percentage"`
	SessionsAttended int               `json:"sessions_attended"`
	TotalSessions    int               `json:"total_sessions"`
	NextOpenSession  *schedule.Session `json:"next_open_session,omitempty"`
}

// Status evaluates a participant on demand. A participant with no
// record yet reports pending.
func (s *Service) Status(ctx context.Context, eventID, participantID string) (*ParticipantStatus, error) {
	cfg, err := s.repo.GetConfig(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrConfigNotFound
	}
	rec, err := s.repo.GetRecord(ctx, eventID, participantID)
	if err != nil {
		return nil, err
	}

	ev := Evaluate(rec, cfg)
	out := &ParticipantStatus{
		ParticipantID: participantID,
		EventID:       eventID,
		Status:        ev.Status,
		Percentage:    ev.Percentage,
		TotalSessions: len(cfg.Sessions),
	}
	if rec != nil {
		out.SessionsAttended = len(rec.Marks)
	}

	now := s.now()
	for i := range cfg.Sessions {
		sess := cfg.Sessions[i]
		if !sess.EndTime.After(now) {
			continue
		}
		if rec != nil {
			if _, marked := rec.Marks[sess.ID]; marked {
				continue
			}
		}
		out.NextOpenSession = &sess
		break
	}
	return out, nil
}
