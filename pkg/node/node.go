// Package node runs DataProtector operations on behalf of the n8n host. Input
// and output follow the host's item convention: one output item per input
// item, each carrying a json payload.
package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/grexie/n8n-protector/pkg/dataprotector"
	"github.com/grexie/n8n-protector/pkg/signer"
)

const (
	OperationProtectData      = "protectData"
	OperationGetProtectedData = "getProtectedData"
	OperationGrantAccess      = "grantAccess"
	OperationGetGrantedAccess = "getGrantedAccess"
	OperationRevokeAccess     = "revokeAccess"
)

var Operations = []string{
	OperationGetGrantedAccess,
	OperationGetProtectedData,
	OperationGrantAccess,
	OperationProtectData,
	OperationRevokeAccess,
}

type Credentials struct {
	PrivateKey string `json:"privateKey"`
}

type Item struct {
	JSON       map[string]any `json:"json"`
	Parameters Parameters     `json:"parameters,omitempty"`
}

type ExecuteRequest struct {
	Credentials    Credentials `json:"credentials"`
	SMSURL         string      `json:"smsUrl,omitempty"`
	Parameters     Parameters  `json:"parameters"`
	Items          []Item      `json:"items"`
	ContinueOnFail bool        `json:"continueOnFail"`
}

type ResultItem struct {
	JSON       map[string]any `json:"json"`
	PairedItem *int           `json:"pairedItem,omitempty"`
}

// OperationError is returned when an item fails and the run does not
// continue on failure.
type OperationError struct {
	ItemIndex int
	Operation string
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("item %d: %s: %v", e.ItemIndex, e.Operation, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// ClientFactory builds a DataProtector client for the executing wallet.
type ClientFactory func(s signer.Signer, smsURL string) (dataprotector.Client, error)

type Executor interface {
	Execute(ctx context.Context, req ExecuteRequest) ([]ResultItem, error)
}

type executor struct {
	signers   signer.Pool
	newClient ClientFactory
	smsURL    string
}

var _ Executor = &executor{}

func NewExecutor(signers signer.Pool, newClient ClientFactory, defaultSMSURL string) (Executor, error) {
	if signers == nil || newClient == nil {
		return nil, errors.New("node executor requires a signer pool and a client factory")
	}
	return &executor{signers: signers, newClient: newClient, smsURL: defaultSMSURL}, nil
}

func (e *executor) Execute(ctx context.Context, req ExecuteRequest) ([]ResultItem, error) {
	s, err := e.signers.Get(req.Credentials.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}

	smsURL := e.smsURL
	if req.SMSURL != "" {
		smsURL = req.SMSURL
	}

	client, err := e.newClient(s, smsURL)
	if err != nil {
		return nil, err
	}

	items := req.Items
	if len(items) == 0 {
		// the host always runs a node with at least one item
		items = []Item{{JSON: map[string]any{}}}
	}

	out := make([]ResultItem, 0, len(items))
	for i, item := range items {
		params := resolver{item: item.Parameters, node: req.Parameters}
		operation := params.String("operation", OperationProtectData)

		result, err := run(ctx, client, operation, params)
		if err != nil {
			if req.ContinueOnFail {
				log.Warnf("item %d: %s failed: %v", i, operation, err)
				index := i
				out = append(out, ResultItem{
					JSON: map[string]any{
						"operation": operation,
						"error":     err.Error(),
						"success":   false,
					},
					PairedItem: &index,
				})
				continue
			}
			return nil, &OperationError{ItemIndex: i, Operation: operation, Err: err}
		}

		out = append(out, ResultItem{
			JSON: map[string]any{
				"operation": operation,
				"result":    result,
				"success":   true,
			},
		})
	}

	return out, nil
}
