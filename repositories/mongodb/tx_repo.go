package mongodb

import (
	// Go Internal Packages
	"context"
	goerrors "errors"

	// Local Packages
	errors "epulsaku/errors"
	models "epulsaku/models"

	// External Packages
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type TxRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

func NewTxRepository(client *mongo.Client, database string) *TxRepository {
	return &TxRepository{client: client, database: database, collection: "transactions"}
}

func (r *TxRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// Insert persists a new transaction. The store is append-only here:
// duplicate reference ids are a caller responsibility.
func (r *TxRepository) Insert(ctx context.Context, tx models.Transaction) error {
	_, err := r.coll().InsertOne(ctx, tx)
	if err != nil {
		return errors.PersistenceErr("insert transaction", err)
	}
	return nil
}

// FindAll returns every stored transaction, unordered. Callers sort.
func (r *TxRepository) FindAll(ctx context.Context) ([]models.Transaction, error) {
	cur, err := r.coll().Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.PersistenceErr("find transactions", err)
	}
	var txs []models.Transaction
	if err := cur.All(ctx, &txs); err != nil {
		return nil, errors.PersistenceErr("decode transactions", err)
	}
	return txs, nil
}

// FindByID looks up a transaction by its exact reference id.
func (r *TxRepository) FindByID(ctx context.Context, id string) (models.Transaction, error) {
	var tx models.Transaction
	err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&tx)
	if goerrors.Is(err, mongo.ErrNoDocuments) {
		return models.Transaction{}, errors.TxNotFoundErr(id)
	}
	if err != nil {
		return models.Transaction{}, errors.PersistenceErr("find transaction", err)
	}
	return tx, nil
}

// ReplaceIfStatus overwrites the stored document only when its current
// status still equals expected. Returns false when another writer got
// there first; terminal statuses are never regressed through this path.
func (r *TxRepository) ReplaceIfStatus(ctx context.Context, expected string, tx models.Transaction) (bool, error) {
	res, err := r.coll().ReplaceOne(ctx, bson.M{"_id": tx.ID, "status": expected}, tx)
	if err != nil {
		return false, errors.PersistenceErr("replace transaction", err)
	}
	return res.MatchedCount > 0, nil
}

// DeleteByID removes a single transaction.
func (r *TxRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.coll().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.PersistenceErr("delete transaction", err)
	}
	if res.DeletedCount == 0 {
		return errors.TxNotFoundErr(id)
	}
	return nil
}

// DeleteByIDs removes a batch of transactions by id, for retention
// pruning.
func (r *TxRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.coll().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, errors.PersistenceErr("delete transactions", err)
	}
	return res.DeletedCount, nil
}

// FindPending returns every transaction still awaiting a terminal
// status, for reconciliation resync after a restart.
func (r *TxRepository) FindPending(ctx context.Context) ([]models.Transaction, error) {
	cur, err := r.coll().Find(ctx, bson.M{"status": models.StatusPending})
	if err != nil {
		return nil, errors.PersistenceErr("find pending transactions", err)
	}
	var txs []models.Transaction
	if err := cur.All(ctx, &txs); err != nil {
		return nil, errors.PersistenceErr("decode pending transactions", err)
	}
	return txs, nil
}
