package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"campusattend/internal/store"
)

const (
	configKeyPrefix = "attcfg:"
	recordKeyPrefix = "attrec:"
)

// Repository persists attendance configs and participant records in a
// document store. Configs are keyed by event id, records by
// (event id, participant id).
type Repository struct {
	docs store.DocStore
}

// NewRepository creates a repo.
func NewRepository(docs store.DocStore) *Repository {
	return &Repository{docs: docs}
}

func configKey(eventID string) string {
	return configKeyPrefix + eventID
}

func recordKey(eventID, participantID string) string {
	return recordKeyPrefix + eventID + ":" + participantID
}

// GetConfig returns the config for an event, or nil when absent.
func (r *Repository) GetConfig(ctx context.Context, eventID string) (*Config, error) {
	var cfg Config
	if err := r.docs.Get(ctx, configKey(eventID), &cfg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes the whole config document.
func (r *Repository) SaveConfig(ctx context.Context, cfg *Config) error {
	return r.docs.Upsert(ctx, configKey(cfg.EventID), cfg)
}

// GetRecord returns a participant's record, or nil when absent.
func (r *Repository) GetRecord(ctx context.Context, eventID, participantID string) (*Record, error) {
	var rec Record
	if err := r.docs.Get(ctx, recordKey(eventID, participantID), &rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// CreateRecord writes a fresh record document. Used only for lazy
// creation on first mark; later writes go through the field ops so
// concurrent markers cannot clobber each other's sessions.
func (r *Repository) CreateRecord(ctx context.Context, rec *Record) error {
	return r.docs.Upsert(ctx, recordKey(rec.EventID, rec.ParticipantID), rec)
}

// PutMark upserts one session's mark inside the record document.
func (r *Repository) PutMark(ctx context.Context, eventID, participantID, sessionID string, mi MarkInfo) error {
	return r.docs.UpsertField(ctx, recordKey(eventID, participantID), []string{"marks", sessionID}, mi)
}

// RemoveMark deletes one session's mark; a missing mark is a no-op.
func (r *Repository) RemoveMark(ctx context.Context, eventID, participantID, sessionID string) error {
	return r.docs.DeleteField(ctx, recordKey(eventID, participantID), []string{"marks", sessionID})
}

// SaveEvaluation persists the refreshed derived fields next to the raw
// marks without rewriting the marks map.
func (r *Repository) SaveEvaluation(ctx context.Context, eventID, participantID string, ev Evaluation, at time.Time) error {
	key := recordKey(eventID, participantID)
	if err := r.docs.UpsertField(ctx, key, []string{"percentage"}, ev.Percentage); err != nil {
		return err
	}
	if err := r.docs.UpsertField(ctx, key, []string{"status"}, ev.Status); err != nil {
		return err
	}
	return r.docs.UpsertField(ctx, key, []string{"lastEvaluatedAt"}, at)
}

// ListRecords returns every participant record for an event.
func (r *Repository) ListRecords(ctx context.Context, eventID string) ([]Record, error) {
	raws, err := r.docs.ListPrefix(ctx, recordKeyPrefix+eventID+":")
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
