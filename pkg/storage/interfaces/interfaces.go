package interfaces

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// StorageKey is the local storage key holding the protected workflow catalog.
const StorageKey = "protectedWorkflows"

type WorkflowCounts struct {
	Credentials int `json:"credentials" bson:"credentials"`
	Workflows   int `json:"workflows" bson:"workflows"`
}

type ProtectedWorkflow struct {
	Address         common.Address `json:"address" bson:"address"`
	Name            string         `json:"name" bson:"name"`
	CreatedAt       time.Time      `json:"createdAt" bson:"createdAt"`
	Data            WorkflowCounts `json:"data" bson:"data"`
	AuthorizedUsers []string       `json:"authorizedUsers" bson:"authorizedUsers"`
	JSONData        string         `json:"jsonData,omitempty" bson:"jsonData,omitempty"`
}

type IStorageBackend interface {
	ListWorkflows(ctx context.Context, offset int64, count int64) (ListWorkflowsResult, error)
	GetWorkflow(ctx context.Context, address common.Address) (*ProtectedWorkflow, error)
	SaveWorkflow(ctx context.Context, workflow ProtectedWorkflow) error
	RemoveWorkflow(ctx context.Context, address common.Address) error
	ClearWorkflows(ctx context.Context) error
}

type ListWorkflowsResult interface {
	Count() int64
	Page() []ProtectedWorkflow
}
