package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	AddressHome  = "home"
	AddressWork  = "work"
	AddressOther = "other"
)

type Address struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Type       string             `json:"type" bson:"type" binding:"omitempty,oneof=home work other"`
	Name       string             `json:"name" bson:"name" binding:"omitempty,max=100"`
	Street     string             `json:"street" bson:"street" binding:"omitempty,max=200"`
	City       string             `json:"city" bson:"city" binding:"omitempty,max=100"`
	State      string             `json:"state" bson:"state" binding:"omitempty,max=100"`
	Country    string             `json:"country" bson:"country" binding:"omitempty,max=100"`
	PostalCode string             `json:"postalCode" bson:"postalCode" binding:"omitempty,max=20"`
	Phone      string             `json:"phone,omitempty" bson:"phone,omitempty"`
	IsDefault  bool               `json:"isDefault" bson:"isDefault"`
}

// merge recopie les champs renseignés de update.
func (a *Address) merge(update Address) {
	if update.Type != "" {
		a.Type = update.Type
	}
	if update.Name != "" {
		a.Name = update.Name
	}
	if update.Street != "" {
		a.Street = update.Street
	}
	if update.City != "" {
		a.City = update.City
	}
	if update.State != "" {
		a.State = update.State
	}
	if update.Country != "" {
		a.Country = update.Country
	}
	if update.PostalCode != "" {
		a.PostalCode = update.PostalCode
	}
	if update.Phone != "" {
		a.Phone = update.Phone
	}
}
