package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/grexie/n8n-protector/pkg/storage/interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workflowsCollection = "workflows"

type mongoStorageBackend struct {
	db *mongo.Database
}

var _ interfaces.IStorageBackend = &mongoStorageBackend{}

func NewMongoStorageBackend(mongoURL string) (interfaces.IStorageBackend, error) {
	b := &mongoStorageBackend{}

	if u, err := url.Parse(mongoURL); err != nil {
		return nil, err
	} else if db, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURL)); err != nil {
		return nil, err
	} else {
		name := strings.TrimPrefix(u.Path, "/")
		if name == "" {
			name = "protector"
		}
		b.db = db.Database(name)
	}

	if err := b.EnsureIndex(context.Background(), workflowsCollection, mongo.IndexModel{
		Keys:    bson.M{"address": 1},
		Options: options.Index().SetName("address").SetUnique(true),
	}); err != nil {
		return nil, err
	}

	if err := b.EnsureIndex(context.Background(), workflowsCollection, mongo.IndexModel{
		Keys:    bson.M{"createdAt": 1},
		Options: options.Index().SetName("createdAt"),
	}); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *mongoStorageBackend) EnsureIndex(ctx context.Context, collectionName string, model mongo.IndexModel) error {
	c := b.db.Collection(collectionName)

	idxs := c.Indexes()

	v := model.Options.Name
	if v == nil {
		return fmt.Errorf("must provide a name for index")
	}
	expectedName := *v

	cur, err := idxs.List(ctx)
	if err != nil {
		return fmt.Errorf("unable to list indexes: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var d bson.M

		if err := cur.Decode(&d); err != nil {
			return fmt.Errorf("unable to decode bson index document: %w", err)
		}

		if name, ok := d["name"].(string); ok && name == expectedName {
			return nil
		}
	}

	_, err = idxs.CreateOne(ctx, model)
	return err
}
