package store

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"

	"vendora_back_end/internal/models"
)

// ProductFields encode le produit et ne garde que les champs demandés.
// Un champ absent de l'encodage (omitempty sur une valeur vide) part dans unset.
func ProductFields(p *models.Product, fields ...string) (set bson.M, unset []string, err error) {
	raw, err := bson.Marshal(p)
	if err != nil {
		return nil, nil, errors.Wrap(err, "encodage produit")
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, nil, errors.Wrap(err, "décodage produit")
	}

	set = bson.M{}
	for _, f := range fields {
		if f == "_id" {
			continue
		}
		if v, ok := doc[f]; ok {
			set[f] = v
		} else {
			unset = append(unset, f)
		}
	}
	return set, unset, nil
}
