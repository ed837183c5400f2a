package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
)

// Audit conserve les entrées en mémoire pour les assertions des tests.
type Audit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (s *Audit) Insert(_ context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *Audit) Entries() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditLog{}, s.entries...)
}

func (s *Audit) List(_ context.Context, q store.AuditQuery) ([]models.AuditLog, error) {
	out := []models.AuditLog{}
	for _, e := range s.Entries() {
		switch {
		case q.UserID != "" && e.UserID != q.UserID,
			q.Action != "" && e.Action != q.Action,
			q.Resource != "" && e.Resource != q.Resource,
			q.ResourceID != "" && e.ResourceID != q.ResourceID,
			q.Success != nil && e.Success != *q.Success:
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Audit) Stats(_ context.Context, since time.Time) (store.AuditStats, error) {
	var stats store.AuditStats
	actions := map[string]int64{}
	users := map[string]int64{}
	for _, e := range s.Entries() {
		stats.Total++
		if e.Success {
			stats.Successful++
		}
		if e.Timestamp.After(since) {
			stats.Recent++
		}
		actions[e.Action]++
		if e.UserEmail != "" {
			users[e.UserEmail]++
		}
	}
	stats.TopActions = top(countBy(actions), 10)
	stats.TopUsers = top(countBy(users), 10)
	return stats, nil
}

func top(rows []store.CountByKey, n int) []store.CountByKey {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
