package services

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"vendora_back_end/internal/database"
	"vendora_back_end/internal/models"
)

const productIndex = "products"

var ErrSearchUnavailable = errors.New("client Elasticsearch non initialisé")

// SearchIndex indexe les produits et renvoie les identifiants correspondant à une recherche.
type SearchIndex interface {
	Index(ctx context.Context, p *models.Product) error
	Remove(ctx context.Context, id primitive.ObjectID) error
	Search(ctx context.Context, query string, limit int) ([]primitive.ObjectID, error)
}

// Search est l'index actif; les tests le remplacent.
var Search SearchIndex = elasticIndex{}

// searchDocument est la forme indexée d'un produit.
type searchDocument struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Brand       string   `json:"brand,omitempty"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Price       float64  `json:"price"`
	IsActive    bool     `json:"isActive"`
}

type elasticIndex struct{}

//
// --- INDEXATION DANS ELASTICSEARCH ---
//

func (elasticIndex) Index(ctx context.Context, p *models.Product) error {
	if database.Elastic == nil {
		return ErrSearchUnavailable
	}

	data, err := json.Marshal(searchDocument{
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		Category:    p.Category,
		Tags:        p.Tags,
		Price:       p.Price,
		IsActive:    p.IsActive,
	})
	if err != nil {
		return errors.Wrap(err, "sérialisation produit")
	}

	req := esapi.IndexRequest{
		Index:      productIndex,
		DocumentID: p.ID.Hex(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, database.Elastic)
	if err != nil {
		return errors.Wrap(err, "envoi Elastic")
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Errorf("Elastic a renvoyé une erreur pour %s: %s", p.Name, res.String())
	}
	zap.S().Infof("✅ Produit indexé dans Elasticsearch: %s", p.Name)
	return nil
}

func (elasticIndex) Remove(ctx context.Context, id primitive.ObjectID) error {
	if database.Elastic == nil {
		return ErrSearchUnavailable
	}
	req := esapi.DeleteRequest{Index: productIndex, DocumentID: id.Hex(), Refresh: "true"}
	res, err := req.Do(ctx, database.Elastic)
	if err != nil {
		return errors.Wrap(err, "suppression Elastic")
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return errors.Errorf("Elastic suppression %s: %s", id.Hex(), res.String())
	}
	return nil
}

//
// --- RECHERCHE DANS ELASTICSEARCH ---
//

func (elasticIndex) Search(ctx context.Context, query string, limit int) ([]primitive.ObjectID, error) {
	if database.Elastic == nil {
		return nil, ErrSearchUnavailable
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"size":    limit,
		"_source": false,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":     query,
						"fields":    []string{"name^3", "description", "brand^2", "tags^2"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"isActive": true},
				},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, errors.Wrap(err, "encodage requête")
	}

	req := esapi.SearchRequest{
		Index: []string{productIndex},
		Body:  &buf,
	}
	res, err := req.Do(ctx, database.Elastic)
	if err != nil {
		return nil, errors.Wrap(err, "requête Elastic")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.Errorf("Elasticsearch erreur: %s", res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "décodage JSON")
	}

	ids := make([]primitive.ObjectID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		if id, err := primitive.ObjectIDFromHex(hit.ID); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// IndexProductAsync indexe sans bloquer la requête.
func IndexProductAsync(p models.Product) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := Search.Index(ctx, &p); err != nil && !errors.Is(err, ErrSearchUnavailable) {
			zap.L().Warn("⚠️ Indexation produit", zap.String("product", p.ID.Hex()), zap.Error(err))
		}
	}()
}

// RemoveProductAsync retire le produit de l'index sans bloquer.
func RemoveProductAsync(id primitive.ObjectID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := Search.Remove(ctx, id); err != nil && !errors.Is(err, ErrSearchUnavailable) {
			zap.L().Warn("⚠️ Désindexation produit", zap.String("product", id.Hex()), zap.Error(err))
		}
	}()
}
