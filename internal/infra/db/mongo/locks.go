package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// touchScopeLock bumps a counter on a shared lock document inside the
// current transaction. Mongo transactions read a snapshot, so two racing
// check-then-insert sequences would otherwise both pass the check and both
// commit; writing the same lock document first makes the second transaction
// abort with a write conflict. Outside a session the caller is a plain read
// and no lock is taken.
func touchScopeLock(ctx context.Context, locks *mongo.Collection, scope string) error {
	if mongo.SessionFromContext(ctx) == nil {
		return nil
	}
	_, err := locks.UpdateOne(ctx,
		bson.M{"_id": scope},
		bson.M{"$inc": bson.M{"version": 1}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConcurrentUpdate
	}
	return err
}
