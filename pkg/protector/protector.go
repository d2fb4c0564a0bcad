package protector

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/grexie/n8n-protector/pkg/dataprotector"
	"github.com/grexie/n8n-protector/pkg/storage/interfaces"
)

type Protector interface {
	ProtectWorkflow(ctx context.Context, req ProtectRequest) (*interfaces.ProtectedWorkflow, error)
	GrantAccess(ctx context.Context, protectedData string, req AccessRequest) (*GrantResult, error)
	GrantedAccess(ctx context.Context, protectedData string, user string, app string) (*dataprotector.GrantedAccessResponse, error)
	RevokeAccess(ctx context.Context, protectedData string, req RevokeRequest) (*RevokeResult, error)

	ListWorkflows(ctx context.Context, offset int64, count int64) (interfaces.ListWorkflowsResult, error)
	GetWorkflow(ctx context.Context, address string) (*interfaces.ProtectedWorkflow, error)
	RemoveWorkflow(ctx context.Context, address string) error
	ClearWorkflows(ctx context.Context) error
}

type protector struct {
	client  dataprotector.Client
	storage interfaces.IStorageBackend
	mu      sync.Mutex
}

var _ Protector = &protector{}

// NewProtector wires the catalog to a DataProtector client. A nil client
// leaves catalog operations available and fails everything else.
func NewProtector(client dataprotector.Client, storage interfaces.IStorageBackend) (Protector, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage backend not set")
	}
	return &protector{client: client, storage: storage}, nil
}

func (p *protector) dataProtector() (dataprotector.Client, error) {
	if p.client == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "wallet not configured, set DATAPROTECTOR_PRIVATE_KEY")
	}
	return p.client, nil
}

func parseAddress(address string) (common.Address, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return common.Address{}, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid protected data address: %s", address))
	}
	return common.HexToAddress(address), nil
}

func (p *protector) ListWorkflows(ctx context.Context, offset int64, count int64) (interfaces.ListWorkflowsResult, error) {
	return p.storage.ListWorkflows(ctx, offset, count)
}

func (p *protector) GetWorkflow(ctx context.Context, address string) (*interfaces.ProtectedWorkflow, error) {
	if a, err := parseAddress(address); err != nil {
		return nil, err
	} else {
		return p.storage.GetWorkflow(ctx, a)
	}
}

func (p *protector) RemoveWorkflow(ctx context.Context, address string) error {
	if a, err := parseAddress(address); err != nil {
		return err
	} else {
		return p.storage.RemoveWorkflow(ctx, a)
	}
}

func (p *protector) ClearWorkflows(ctx context.Context) error {
	return p.storage.ClearWorkflows(ctx)
}
