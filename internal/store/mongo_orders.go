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

// ============================================================
// 🛒 PANIERS
// ============================================================

type mongoCarts struct {
	coll *mongo.Collection
}

func (s *mongoCarts) FindByUser(ctx context.Context, user primitive.ObjectID) (*models.Cart, error) {
	var c models.Cart
	if err := s.coll.FindOne(ctx, bson.M{"user": user}).Decode(&c); err != nil {
		return nil, wrap(err, "lecture panier")
	}
	return &c, nil
}

func (s *mongoCarts) Save(ctx context.Context, c *models.Cart) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"user": c.User}, c, opts)
	return wrap(err, "sauvegarde panier")
}

func (s *mongoCarts) DeleteByUser(ctx context.Context, user primitive.ObjectID) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"user": user})
	return wrap(err, "suppression panier")
}

// ============================================================
// 📦 COMMANDES
// ============================================================

type mongoOrders struct {
	coll *mongo.Collection
}

func (s *mongoOrders) Create(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	o.EnsureOrderNumber()
	_, err := s.coll.InsertOne(ctx, o)
	return wrap(err, "insertion commande")
}

func (s *mongoOrders) Save(ctx context.Context, o *models.Order) error {
	o.UpdatedAt = time.Now()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": o.ID}, o)
	if err != nil {
		return wrap(err, "mise à jour commande")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoOrders) MarkPaid(ctx context.Context, o *models.Order) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": o.ID, "isPaid": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{
			"isPaid":        true,
			"paidAt":        o.PaidAt,
			"paymentResult": o.PaymentResult,
			"status":        o.Status,
			"updatedAt":     o.UpdatedAt,
		}},
	)
	if err != nil {
		return false, wrap(err, "paiement commande")
	}
	return res.MatchedCount == 1, nil
}

func (s *mongoOrders) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, wrap(err, "lecture commande")
	}
	return &o, nil
}

func (s *mongoOrders) FindByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	var o models.Order
	if err := s.coll.FindOne(ctx, bson.M{"stripePaymentIntentId": intentID}).Decode(&o); err != nil {
		return nil, wrap(err, "lecture commande par paiement")
	}
	return &o, nil
}

func (s *mongoOrders) List(ctx context.Context, q OrderQuery) ([]models.Order, int64, error) {
	filter := bson.M{}
	if q.User != nil {
		filter["user"] = *q.User
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.PaymentMethod != "" {
		filter["paymentMethod"] = q.PaymentMethod
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if q.Limit > 0 {
		opts.SetSkip(Skip(q.Page, q.Limit)).SetLimit(int64(q.Limit))
	}

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, wrap(err, "liste commandes")
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, 0, wrap(err, "décodage commandes")
	}
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrap(err, "comptage commandes")
	}
	return orders, total, nil
}

func (s *mongoOrders) Stats(ctx context.Context) (OrderStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":               nil,
			"totalOrders":       bson.M{"$sum": 1},
			"totalRevenue":      bson.M{"$sum": "$totalPrice"},
			"averageOrderValue": bson.M{"$avg": "$totalPrice"},
		}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return OrderStats{}, wrap(err, "statistiques commandes")
	}
	var rows []struct {
		TotalOrders       int64   `bson:"totalOrders"`
		TotalRevenue      float64 `bson:"totalRevenue"`
		AverageOrderValue float64 `bson:"averageOrderValue"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return OrderStats{}, wrap(err, "décodage statistiques")
	}
	if len(rows) == 0 {
		return OrderStats{}, nil
	}
	return OrderStats{
		TotalOrders:       rows[0].TotalOrders,
		TotalRevenue:      rows[0].TotalRevenue,
		AverageOrderValue: rows[0].AverageOrderValue,
	}, nil
}

func (s *mongoOrders) PaidByUser(ctx context.Context, user primitive.ObjectID, limit int) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "paidAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.M{"user": user, "isPaid": true}, opts)
	if err != nil {
		return nil, wrap(err, "commandes payées")
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, wrap(err, "décodage commandes")
	}
	return orders, nil
}

func (s *mongoOrders) HasPurchased(ctx context.Context, user, product primitive.ObjectID) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{
		"user":               user,
		"isPaid":             true,
		"orderItems.product": product,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, wrap(err, "vérification achat")
	}
	return n > 0, nil
}

func (s *mongoOrders) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, wrap(err, "suppression commandes")
	}
	return res.DeletedCount, nil
}
