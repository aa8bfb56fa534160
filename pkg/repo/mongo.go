// Package repo persists documents in MongoDB for the server deployment.
//
// The CLI works purely with files; the HTTP server optionally backs its
// documents with a mongo collection so sessions survive restarts and several
// instances can share state. Documents are stored whole - one BSON document
// per canvas notebook, keyed by the document id - because a document is
// always read and written as a unit by the store's snapshot model.
package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/canvasnote/canvasnote/pkg/errors"
	"github.com/canvasnote/canvasnote/pkg/model"
)

const (
	defaultDatabase   = "canvasnote"
	defaultCollection = "documents"
	connectTimeout    = 10 * time.Second
)

// Config configures the mongo repository.
type Config struct {
	// URI is the mongodb connection string.
	URI string

	// Database defaults to "canvasnote".
	Database string

	// Collection defaults to "documents".
	Collection string
}

// Repository stores documents in a mongo collection.
type Repository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect establishes the mongo connection and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*Repository, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo URI is empty")
	}
	db := cfg.Database
	if db == "" {
		db = defaultDatabase
	}
	coll := cfg.Collection
	if coll == "" {
		coll = defaultCollection
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}

	return &Repository{
		client: client,
		coll:   client.Database(db).Collection(coll),
	}, nil
}

// Save upserts a document by id.
func (r *Repository) Save(ctx context.Context, d model.Document) error {
	_, err := r.coll.ReplaceOne(ctx,
		bson.M{"_id": d.ID},
		d,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "save document %s", d.ID)
	}
	return nil
}

// Load retrieves a document by id.
func (r *Repository) Load(ctx context.Context, id string) (model.Document, error) {
	var d model.Document
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return model.Document{}, errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	if err != nil {
		return model.Document{}, errors.Wrap(errors.ErrCodeNetwork, err, "load document %s", id)
	}
	return d, nil
}

// Delete removes a document by id. Deleting an absent document is not an
// error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "delete document %s", id)
	}
	return nil
}

// ListInfo is a summary row returned by List.
type ListInfo struct {
	ID       string    `bson:"_id" json:"id"`
	Name     string    `bson:"name" json:"name"`
	Modified time.Time `bson:"modified" json:"modified"`
	Cells    int       `bson:"cells" json:"cells"`
}

// List returns summaries of all stored documents, most recently modified
// first.
func (r *Repository) List(ctx context.Context) ([]ListInfo, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.M{
			"name":     1,
			"modified": 1,
			"cells":    bson.M{"$size": bson.M{"$ifNull": bson.A{"$cells", bson.A{}}}},
		}}},
		{{Key: "$sort", Value: bson.M{"modified": -1}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "list documents")
	}
	defer cur.Close(ctx)

	var out []ListInfo
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "decode document list")
	}
	return out, nil
}

// Close disconnects from mongo.
func (r *Repository) Close(ctx context.Context) error {
	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}
