package mongo

import (
	"alcyxob/growrep/internal/domain"
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Connect succeeds lazily, so ping the primary to be sure the server answers.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection, in both mode namespaces.
// Failures are logged and do not stop startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	warn := func(name string, err error) {
		if err != nil {
			log.WithError(err).Warnf("failed to create indexes for collection %s", name)
		}
	}

	for _, m := range domain.Modes {
		name := m.Collection(domain.PostsCollection)
		warn(name, EnsureRecordIndexes(ctx, db.Collection(name)))
	}
	warn(domain.UsersCollection, EnsureUserIndexes(ctx, db.Collection(domain.UsersCollection)))
	warn(credentialCollectionName, EnsureCredentialIndexes(ctx, db.Collection(credentialCollectionName)))
	warn(exportCollectionName, EnsureExportIndexes(ctx, db.Collection(exportCollectionName)))

	log.Debugln("index creation process completed")
}
