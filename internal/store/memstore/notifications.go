package memstore

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
)

type Notifications struct {
	base
	data map[string]*models.Notification
}

func (s *Notifications) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ApplyDefaults(time.Now())
	s.data[n.ID.Hex()] = clone(n)
	return nil
}

func (s *Notifications) CreateMany(ctx context.Context, ns []*models.Notification) error {
	for _, n := range ns {
		if err := s.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (s *Notifications) List(_ context.Context, q store.NotificationQuery) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []models.Notification
	for _, n := range s.data {
		if n.Recipient != q.Recipient {
			continue
		}
		if q.UnreadOnly && n.IsRead {
			continue
		}
		if q.Type != "" && n.Type != q.Type {
			continue
		}
		if q.Priority != "" && n.Priority != q.Priority {
			continue
		}
		all = append(all, *clone(n))
	}
	sortDesc(all, func(n models.Notification) int64 { return n.CreatedAt.UnixNano() })
	return append([]models.Notification{}, page(all, q.Page, q.Limit)...), nil
}

func (s *Notifications) CountUnread(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, n := range s.data {
		if n.Recipient == recipient && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *Notifications) MarkRead(_ context.Context, recipient, id primitive.ObjectID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.data[id.Hex()]
	if !ok || n.Recipient != recipient {
		return nil, store.ErrNotFound
	}
	n.MarkAsRead(time.Now())
	return clone(n), nil
}

func (s *Notifications) markWhere(match func(*models.Notification) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var count int64
	for _, n := range s.data {
		if !n.IsRead && match(n) {
			n.MarkAsRead(now)
			count++
		}
	}
	return count
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]bool {
	set := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (s *Notifications) MarkManyRead(_ context.Context, recipient primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	set := idSet(ids)
	return s.markWhere(func(n *models.Notification) bool {
		return n.Recipient == recipient && set[n.ID]
	}), nil
}

func (s *Notifications) MarkAllRead(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.markWhere(func(n *models.Notification) bool { return n.Recipient == recipient }), nil
}

func (s *Notifications) deleteWhere(match func(*models.Notification) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for key, n := range s.data {
		if match(n) {
			delete(s.data, key)
			count++
		}
	}
	return count
}

func (s *Notifications) Delete(_ context.Context, recipient, id primitive.ObjectID) error {
	n := s.deleteWhere(func(n *models.Notification) bool { return n.ID == id && n.Recipient == recipient })
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Notifications) DeleteMany(_ context.Context, recipient primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	set := idSet(ids)
	return s.deleteWhere(func(n *models.Notification) bool {
		return n.Recipient == recipient && set[n.ID]
	}), nil
}

func (s *Notifications) DeleteReadOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	return s.deleteWhere(func(n *models.Notification) bool {
		return n.IsRead && n.CreatedAt.Before(cutoff)
	}), nil
}

func (s *Notifications) DeleteAllFor(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.deleteWhere(func(n *models.Notification) bool { return n.Recipient == recipient }), nil
}

func (s *Notifications) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return s.deleteWhere(func(n *models.Notification) bool { return n.IsExpired(now) }), nil
}

func countBy(counts map[string]int64) []store.CountByKey {
	out := make([]store.CountByKey, 0, len(counts))
	for k, v := range counts {
		out = append(out, store.CountByKey{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Key < out[j].Key
		}
		return out[i].Count > out[j].Count
	})
	return out
}

func (s *Notifications) Stats(_ context.Context) (store.NotificationStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats store.NotificationStats
	byType := map[string]int64{}
	byPriority := map[string]int64{}
	for _, n := range s.data {
		stats.Total++
		if !n.IsRead {
			stats.Unread++
		}
		byType[n.Type]++
		byPriority[n.Priority]++
	}
	stats.ByType = countBy(byType)
	stats.ByPriority = countBy(byPriority)
	return stats, nil
}
