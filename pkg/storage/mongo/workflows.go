package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/grexie/n8n-protector/pkg/storage/interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type listWorkflowsResult struct {
	Count_ int64
	Page_  []interfaces.ProtectedWorkflow
}

var _ interfaces.ListWorkflowsResult = &listWorkflowsResult{}

func (r *listWorkflowsResult) Count() int64 {
	return r.Count_
}

func (r *listWorkflowsResult) Page() []interfaces.ProtectedWorkflow {
	return r.Page_
}

func (m *mongoStorageBackend) collection() *mongo.Collection {
	return m.db.Collection(workflowsCollection)
}

// listOptions clamps negative paging to the start of the catalog; a zero
// count returns every entry.
func listOptions(offset int64, count int64) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetSkip(max(offset, 0)).SetLimit(max(count, 0))
}

func (m *mongoStorageBackend) ListWorkflows(ctx context.Context, offset int64, count int64) (interfaces.ListWorkflowsResult, error) {
	var r listWorkflowsResult

	opts := listOptions(offset, count)

	if total, err := m.collection().CountDocuments(ctx, bson.M{}); err != nil {
		return nil, err
	} else if cursor, err := m.collection().Find(ctx, bson.M{}, opts); err != nil {
		return nil, err
	} else if err := cursor.All(ctx, &r.Page_); err != nil {
		return nil, err
	} else {
		r.Count_ = total
		if r.Page_ == nil {
			r.Page_ = []interfaces.ProtectedWorkflow{}
		}
		return &r, nil
	}
}

func (m *mongoStorageBackend) GetWorkflow(ctx context.Context, address common.Address) (*interfaces.ProtectedWorkflow, error) {
	var w interfaces.ProtectedWorkflow

	if err := m.collection().FindOne(ctx, bson.M{"address": address}).Decode(&w); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("protected workflow %s not found", address))
		}
		return nil, err
	} else {
		return &w, nil
	}
}

func (m *mongoStorageBackend) SaveWorkflow(ctx context.Context, workflow interfaces.ProtectedWorkflow) error {
	if workflow.AuthorizedUsers == nil {
		workflow.AuthorizedUsers = []string{}
	}

	_, err := m.collection().ReplaceOne(ctx, bson.M{"address": workflow.Address}, &workflow, options.Replace().SetUpsert(true))
	return err
}

func (m *mongoStorageBackend) RemoveWorkflow(ctx context.Context, address common.Address) error {
	_, err := m.collection().DeleteOne(ctx, bson.M{"address": address})
	return err
}

func (m *mongoStorageBackend) ClearWorkflows(ctx context.Context) error {
	_, err := m.collection().DeleteMany(ctx, bson.M{})
	return err
}
