package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewImage struct {
	URL string `json:"url" bson:"url"`
	Alt string `json:"alt" bson:"alt"`
}

type Review struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	User      primitive.ObjectID `json:"user" bson:"user"`
	Name      string             `json:"name" bson:"name"`
	Rating    int                `json:"rating" bson:"rating"` // 1-5
	Comment   string             `json:"comment" bson:"comment"`
	Verified  bool               `json:"verified" bson:"verified"` // true si l'utilisateur a acheté le produit
	Helpful   int                `json:"helpful" bson:"helpful"`
	Images    []ReviewImage      `json:"images,omitempty" bson:"images,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// HasReviewFrom indique si l'utilisateur a déjà laissé un avis.
func (p *Product) HasReviewFrom(userID primitive.ObjectID) bool {
	for _, r := range p.Reviews {
		if r.User == userID {
			return true
		}
	}
	return false
}

// CalculateAverageRating: moyenne arrondie à une décimale.
func (p *Product) CalculateAverageRating() {
	if len(p.Reviews) == 0 {
		p.Rating = 0
		p.NumReviews = 0
		return
	}
	total := 0
	for _, r := range p.Reviews {
		total += r.Rating
	}
	p.Rating = math.Round(float64(total)/float64(len(p.Reviews))*10) / 10
	p.NumReviews = len(p.Reviews)
}
