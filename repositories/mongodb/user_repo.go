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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

func NewUserRepository(client *mongo.Client, database string) *UserRepository {
	return &UserRepository{client: client, database: database, collection: "users"}
}

func (r *UserRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// FindByUsername looks up a user record.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := r.coll().FindOne(ctx, bson.M{"_id": username}).Decode(&u)
	if goerrors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, errors.UserNotFoundErr(username)
	}
	if err != nil {
		return models.User{}, errors.PersistenceErr("find user", err)
	}
	return u, nil
}

// IncrementFailedPin atomically bumps the failed-attempt counter and
// returns the new count. The increment and the read are one operation,
// so two concurrent failures cannot under-count toward the lockout
// threshold.
func (r *UserRepository) IncrementFailedPin(ctx context.Context, username string) (int, error) {
	after := options.After
	opts := &options.FindOneAndUpdateOptions{ReturnDocument: &after}
	var u models.User
	err := r.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": username},
		bson.M{"$inc": bson.M{"failed_pin_attempts": 1}},
		opts,
	).Decode(&u)
	if goerrors.Is(err, mongo.ErrNoDocuments) {
		return 0, errors.UserNotFoundErr(username)
	}
	if err != nil {
		return 0, errors.PersistenceErr("increment failed pin attempts", err)
	}
	return u.FailedPinAttempts, nil
}

// ResetFailedPin clears the failed-attempt counter.
func (r *UserRepository) ResetFailedPin(ctx context.Context, username string) error {
	return r.updateOne(ctx, username, bson.M{"$set": bson.M{"failed_pin_attempts": 0}}, "reset failed pin attempts")
}

// Disable locks the account. One-way unless administratively cleared.
func (r *UserRepository) Disable(ctx context.Context, username string) error {
	return r.updateOne(ctx, username, bson.M{"$set": bson.M{"is_disabled": true}}, "disable user")
}

// Enable re-activates a locked account and clears the counter.
func (r *UserRepository) Enable(ctx context.Context, username string) error {
	return r.updateOne(ctx, username,
		bson.M{"$set": bson.M{"is_disabled": false, "failed_pin_attempts": 0}}, "enable user")
}

// SetPin stores a new bcrypt PIN hash and clears any lockout state.
func (r *UserRepository) SetPin(ctx context.Context, username, hashedPin string) error {
	return r.updateOne(ctx, username,
		bson.M{"$set": bson.M{"hashed_pin": hashedPin, "failed_pin_attempts": 0, "is_disabled": false}}, "set pin")
}

func (r *UserRepository) updateOne(ctx context.Context, username string, update bson.M, op string) error {
	res, err := r.coll().UpdateOne(ctx, bson.M{"_id": username}, update)
	if err != nil {
		return errors.PersistenceErr(op, err)
	}
	if res.MatchedCount == 0 {
		return errors.UserNotFoundErr(username)
	}
	return nil
}
