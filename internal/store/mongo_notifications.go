package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vendora_back_end/internal/models"
)

type mongoNotifications struct {
	coll *mongo.Collection
}

func (s *mongoNotifications) Create(ctx context.Context, n *models.Notification) error {
	now := time.Now()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	n.ApplyDefaults(now)
	_, err := s.coll.InsertOne(ctx, n)
	return wrap(err, "insertion notification")
}

func (s *mongoNotifications) CreateMany(ctx context.Context, ns []*models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]interface{}, 0, len(ns))
	for _, n := range ns {
		if n.ID.IsZero() {
			n.ID = primitive.NewObjectID()
		}
		n.ApplyDefaults(now)
		docs = append(docs, n)
	}
	_, err := s.coll.InsertMany(ctx, docs)
	return wrap(err, "insertion notifications")
}

func (s *mongoNotifications) List(ctx context.Context, q NotificationQuery) ([]models.Notification, error) {
	filter := bson.M{"recipient": q.Recipient}
	if q.UnreadOnly {
		filter["isRead"] = false
	}
	if q.Type != "" {
		filter["type"] = q.Type
	}
	if q.Priority != "" {
		filter["priority"] = q.Priority
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(Skip(q.Page, q.Limit)).
		SetLimit(int64(q.Limit))

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrap(err, "liste notifications")
	}
	out := []models.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, wrap(err, "décodage notifications")
	}
	return out, nil
}

func (s *mongoNotifications) CountUnread(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"recipient": recipient, "isRead": false})
	return n, wrap(err, "comptage non lues")
}

func (s *mongoNotifications) MarkRead(ctx context.Context, recipient, id primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	if err := s.coll.FindOne(ctx, bson.M{"_id": id, "recipient": recipient}).Decode(&n); err != nil {
		return nil, wrap(err, "lecture notification")
	}
	if n.IsRead {
		return &n, nil
	}
	now := time.Now()
	n.MarkAsRead(now)
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"isRead":    true,
		"readAt":    now,
		"updatedAt": now,
	}})
	if err != nil {
		return nil, wrap(err, "marquage notification")
	}
	return &n, nil
}

func (s *mongoNotifications) markRead(ctx context.Context, filter bson.M) (int64, error) {
	now := time.Now()
	filter["isRead"] = false
	res, err := s.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"isRead":    true,
		"readAt":    now,
		"updatedAt": now,
	}})
	if err != nil {
		return 0, wrap(err, "marquage notifications")
	}
	return res.ModifiedCount, nil
}

func (s *mongoNotifications) MarkManyRead(ctx context.Context, recipient primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	return s.markRead(ctx, bson.M{"recipient": recipient, "_id": bson.M{"$in": ids}})
}

func (s *mongoNotifications) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.markRead(ctx, bson.M{"recipient": recipient})
}

func (s *mongoNotifications) Delete(ctx context.Context, recipient, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "recipient": recipient})
	if err != nil {
		return wrap(err, "suppression notification")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoNotifications) DeleteMany(ctx context.Context, recipient primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"recipient": recipient, "_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, wrap(err, "suppression notifications")
	}
	return res.DeletedCount, nil
}

func (s *mongoNotifications) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"isRead": true, "createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, wrap(err, "nettoyage notifications lues")
	}
	return res.DeletedCount, nil
}

func (s *mongoNotifications) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": now}})
	if err != nil {
		return 0, wrap(err, "purge notifications expirées")
	}
	return res.DeletedCount, nil
}

func (s *mongoNotifications) DeleteAllFor(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"recipient": recipient})
	if err != nil {
		return 0, wrap(err, "suppression notifications utilisateur")
	}
	return res.DeletedCount, nil
}

// countBy groupe les documents du filtre par valeur de champ, du plus fréquent au moins fréquent.
func countBy(ctx context.Context, coll *mongo.Collection, field string, filter bson.M, limit int64) ([]CountByKey, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrap(err, "agrégation "+field)
	}
	var rows []struct {
		Key   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, wrap(err, "décodage agrégation")
	}
	out := make([]CountByKey, 0, len(rows))
	for _, r := range rows {
		out = append(out, CountByKey{Key: r.Key, Count: r.Count})
	}
	return out, nil
}

func (s *mongoNotifications) Stats(ctx context.Context) (NotificationStats, error) {
	var stats NotificationStats
	var err error
	if stats.Total, err = s.coll.CountDocuments(ctx, bson.M{}); err != nil {
		return stats, wrap(err, "comptage notifications")
	}
	if stats.Unread, err = s.coll.CountDocuments(ctx, bson.M{"isRead": false}); err != nil {
		return stats, wrap(err, "comptage non lues")
	}
	if stats.ByType, err = countBy(ctx, s.coll, "type", bson.M{}, 0); err != nil {
		return stats, err
	}
	if stats.ByPriority, err = countBy(ctx, s.coll, "priority", bson.M{}, 0); err != nil {
		return stats, err
	}
	return stats, nil
}
