package store

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vendora_back_end/internal/models"
)

type mongoUsers struct {
	coll *mongo.Collection
}

func (s *mongoUsers) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	_, err := s.coll.InsertOne(ctx, u)
	return wrap(err, "insertion utilisateur")
}

func (s *mongoUsers) Save(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return wrap(err, "mise à jour utilisateur")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, wrap(err, "lecture utilisateur")
	}
	return &u, nil
}

func (s *mongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoUsers) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	out := make(map[primitive.ObjectID]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, wrap(err, "lecture utilisateurs")
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, wrap(err, "décodage utilisateurs")
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (s *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *mongoUsers) FindByResetToken(ctx context.Context, hashedToken string, now time.Time) (*models.User, error) {
	return s.findOne(ctx, bson.M{
		"passwordResetToken":   hashedToken,
		"passwordResetExpires": bson.M{"$gt": now},
	})
}

func (s *mongoUsers) FindBySocialID(ctx context.Context, provider, socialID string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"socialLogins." + provider + ".id": socialID})
}

func (s *mongoUsers) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrap(err, "liste utilisateurs")
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, wrap(err, "décodage utilisateurs")
	}
	return users, nil
}

func (s *mongoUsers) ListIDs(ctx context.Context, filter UserFilter) ([]primitive.ObjectID, error) {
	q := bson.M{}
	if filter.Role != "" {
		q["role"] = filter.Role
	}
	if filter.ActiveOnly {
		q["isActive"] = true
	}
	cur, err := s.coll.Find(ctx, q, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, wrap(err, "liste identifiants utilisateurs")
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, wrap(err, "décodage identifiants")
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (s *mongoUsers) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap(err, "suppression utilisateur")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoUsers) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, wrap(err, "suppression utilisateurs")
	}
	return res.DeletedCount, nil
}
