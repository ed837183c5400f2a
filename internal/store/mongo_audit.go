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

const auditTopLimit = 10

type mongoAudit struct {
	coll *mongo.Collection
}

func (s *mongoAudit) Insert(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err := s.coll.InsertOne(ctx, entry)
	return wrap(err, "insertion audit")
}

func (s *mongoAudit) List(ctx context.Context, q AuditQuery) ([]models.AuditLog, error) {
	filter := bson.M{}
	if q.UserID != "" {
		filter["userId"] = q.UserID
	}
	if q.Action != "" {
		filter["action"] = q.Action
	}
	if q.Resource != "" {
		filter["resource"] = q.Resource
	}
	if q.ResourceID != "" {
		filter["resourceId"] = q.ResourceID
	}
	if q.Success != nil {
		filter["success"] = *q.Success
	}

	opts := options.Find().SetSort(bson.M{"timestamp": -1})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrap(err, "lecture audit")
	}
	logs := []models.AuditLog{}
	if err := cur.All(ctx, &logs); err != nil {
		return nil, wrap(err, "décodage audit")
	}
	return logs, nil
}

func (s *mongoAudit) Stats(ctx context.Context, since time.Time) (AuditStats, error) {
	var stats AuditStats
	var err error
	if stats.Total, err = s.coll.CountDocuments(ctx, bson.M{}); err != nil {
		return stats, wrap(err, "comptage audit")
	}
	if stats.Successful, err = s.coll.CountDocuments(ctx, bson.M{"success": true}); err != nil {
		return stats, wrap(err, "comptage audit réussi")
	}
	if stats.Recent, err = s.coll.CountDocuments(ctx, bson.M{"timestamp": bson.M{"$gt": since}}); err != nil {
		return stats, wrap(err, "comptage audit récent")
	}
	if stats.TopActions, err = countBy(ctx, s.coll, "action", bson.M{}, auditTopLimit); err != nil {
		return stats, err
	}
	if stats.TopUsers, err = countBy(ctx, s.coll, "userEmail", bson.M{"userEmail": bson.M{"$ne": ""}}, auditTopLimit); err != nil {
		return stats, err
	}
	return stats, nil
}
