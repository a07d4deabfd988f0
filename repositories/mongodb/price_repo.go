package mongodb

import (
	// Go Internal Packages
	"context"
	goerrors "errors"

	// Local Packages
	errors "epulsaku/errors"

	// External Packages
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// priceSetting is a single operator-configured selling price override,
// keyed by "provider::productCode".
type priceSetting struct {
	Key   string `bson:"_id"`
	Price int    `bson:"price"`
}

type PriceRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

func NewPriceRepository(client *mongo.Client, database string) *PriceRepository {
	return &PriceRepository{client: client, database: database, collection: "price_settings"}
}

func (r *PriceRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// GetOverride returns the override for the namespaced key, or false
// when none is configured.
func (r *PriceRepository) GetOverride(ctx context.Context, key string) (int, bool, error) {
	var ps priceSetting
	err := r.coll().FindOne(ctx, bson.M{"_id": key}).Decode(&ps)
	if goerrors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.PersistenceErr("find price override", err)
	}
	return ps.Price, true, nil
}

// SetOverride upserts an override price for the namespaced key.
func (r *PriceRepository) SetOverride(ctx context.Context, key string, price int) error {
	upsert := true
	opts := &options.UpdateOptions{Upsert: &upsert}
	_, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"price": price}},
		opts,
	)
	if err != nil {
		return errors.PersistenceErr("set price override", err)
	}
	return nil
}

// DeleteOverride removes an override, reverting the product to the
// tiered markup rule.
func (r *PriceRepository) DeleteOverride(ctx context.Context, key string) error {
	_, err := r.coll().DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return errors.PersistenceErr("delete price override", err)
	}
	return nil
}
