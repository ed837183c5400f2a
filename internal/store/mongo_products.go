package store

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vendora_back_end/internal/models"
)

type mongoProducts struct {
	coll *mongo.Collection
}

func (s *mongoProducts) Create(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.Prepare()
	_, err := s.coll.InsertOne(ctx, p)
	return wrap(err, "insertion produit")
}

func (s *mongoProducts) Update(ctx context.Context, p *models.Product, fields ...string) error {
	set, unset, err := ProductFields(p, fields...)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now()
	set["updatedAt"] = p.UpdatedAt

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		drop := bson.M{}
		for _, f := range unset {
			drop[f] = ""
		}
		update["$unset"] = drop
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		return wrap(err, "mise à jour produit")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReview pousse l'avis et recalcule la note dans le même pipeline.
// Le filtre sur reviews.user garantit un seul avis par utilisateur.
func (s *mongoProducts) AddReview(ctx context.Context, id primitive.ObjectID, r models.Review) (*models.Product, error) {
	reviews := bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reviews": bson.M{"$concatArrays": bson.A{reviews, bson.A{bson.M{"$literal": r}}}},
		}}},
		{{Key: "$set", Value: bson.M{
			"numReviews": bson.M{"$size": "$reviews"},
			"rating":     bson.M{"$round": bson.A{bson.M{"$avg": "$reviews.rating"}, 1}},
			"updatedAt":  time.Now(),
		}}},
	}

	var p models.Product
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "reviews.user": bson.M{"$ne": r.User}},
		pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, ferr := s.FindByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, wrap(err, "ajout avis")
	}
	return &p, nil
}

// AddImage ajoute l'image en fin de tableau. Si elle est principale (ou la
// première), les autres perdent isPrimary.
func (s *mongoProducts) AddImage(ctx context.Context, id primitive.ObjectID, img models.ProductImage) (*models.Product, error) {
	images := bson.M{"$ifNull": bson.A{"$images", bson.A{}}}
	count := bson.M{"$size": images}
	existing := bson.M{"$map": bson.M{
		"input": images,
		"as":    "img",
		"in": bson.M{"$mergeObjects": bson.A{"$$img", bson.M{
			"isPrimary": bson.M{"$and": bson.A{"$$img.isPrimary", !img.IsPrimary}},
		}}},
	}}
	added := bson.M{
		"url":       bson.M{"$literal": img.URL},
		"alt":       bson.M{"$literal": img.Alt},
		"isPrimary": bson.M{"$or": bson.A{img.IsPrimary, bson.M{"$eq": bson.A{count, 0}}}},
		"order":     count,
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"images":    bson.M{"$concatArrays": bson.A{existing, bson.A{added}}},
			"updatedAt": time.Now(),
		}}},
	}

	var p models.Product
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return nil, wrap(err, "ajout image")
	}
	return &p, nil
}

func (s *mongoProducts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, wrap(err, "lecture produit")
	}
	return &p, nil
}

func (s *mongoProducts) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(bson.M{"reviews": 0}))
	if err != nil {
		return nil, wrap(err, "lecture produits")
	}
	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, wrap(err, "décodage produits")
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func productFilter(q ProductQuery) bson.M {
	filter := bson.M{"isActive": true}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		price := bson.M{}
		if q.MinPrice != nil {
			price["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["$lte"] = *q.MaxPrice
		}
		filter["price"] = price
	}
	if q.Brand != "" {
		filter["brand"] = primitive.Regex{Pattern: regexp.QuoteMeta(q.Brand), Options: "i"}
	}
	if q.Search != "" {
		filter["$text"] = bson.M{"$search": q.Search}
	}
	if q.MinRating != nil {
		filter["rating"] = bson.M{"$gte": *q.MinRating}
	}
	if q.Featured {
		filter["isFeatured"] = true
	}
	return filter
}

func productSort(sortBy string) bson.D {
	switch sortBy {
	case SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}}
	case SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}}
	case SortRating:
		return bson.D{{Key: "rating", Value: -1}}
	case SortName:
		return bson.D{{Key: "name", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

func (s *mongoProducts) List(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	filter := productFilter(q)
	opts := options.Find().
		SetSort(productSort(q.SortBy)).
		SetSkip(Skip(q.Page, q.Limit)).
		SetLimit(int64(q.Limit)).
		SetProjection(bson.M{"reviews": 0})

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, wrap(err, "liste produits")
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, 0, wrap(err, "décodage produits")
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrap(err, "comptage produits")
	}
	return products, total, nil
}

func (s *mongoProducts) Distinct(ctx context.Context, field string) ([]string, error) {
	values, err := s.coll.Distinct(ctx, field, bson.M{"isActive": true})
	if err != nil {
		return nil, wrap(err, "distinct "+field)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok && str != "" {
			out = append(out, str)
		}
	}
	return out, nil
}

func (s *mongoProducts) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"reviews": 0})
	cur, err := s.coll.Find(ctx, bson.M{"isActive": true, "isFeatured": true}, opts)
	if err != nil {
		return nil, wrap(err, "produits vedettes")
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, wrap(err, "décodage produits")
	}
	return products, nil
}

func (s *mongoProducts) LowStock(ctx context.Context) ([]models.Product, error) {
	filter := bson.M{
		"isActive": true,
		"$expr": bson.M{
			"$lte": bson.A{bson.M{"$subtract": bson.A{"$stock", "$reservedStock"}}, "$lowStockThreshold"},
		},
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"reviews": 0}))
	if err != nil {
		return nil, wrap(err, "produits en stock bas")
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, wrap(err, "décodage produits")
	}
	return products, nil
}

func (s *mongoProducts) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"stock": -qty, "purchases": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return wrap(err, "décrément stock")
	}
	if res.MatchedCount == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (s *mongoProducts) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	return wrap(err, "incrément stock")
}

func (s *mongoProducts) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	return wrap(err, "incrément vues")
}

func (s *mongoProducts) AdjustWishlistCount(ctx context.Context, ids []primitive.ObjectID, delta int) error {
	if len(ids) == 0 {
		return nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}}
	if delta < 0 {
		filter["wishlistCount"] = bson.M{"$gte": -delta}
	}
	_, err := s.coll.UpdateMany(ctx, filter, bson.M{"$inc": bson.M{"wishlistCount": delta}})
	return wrap(err, "compteur wishlist")
}

func (s *mongoProducts) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, wrap(err, "suppression produits")
	}
	return res.DeletedCount, nil
}
