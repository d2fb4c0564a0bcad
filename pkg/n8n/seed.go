package n8n

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/grexie/n8n-protector/pkg/dataprotector"
)

const (
	DefaultKeyFile         = "secrets/dataProtector.key"
	DefaultCredentialsFile = "secrets/n8n-credentials.json"
	DefaultWorkflowFile    = "secrets/n8n-workflow.json"
	DefaultSeedApp         = "0xdAB1CAEBe36810B0bc847f407d34a3Ea7Df2dca6"
	DefaultSeedUser        = "0xb631150041fbc4a28b7d8ca43ba0be0b3b03e008"
	DefaultSeedAccesses    = 1000000
)

type SeedOptions struct {
	Name            string
	CredentialsFile string
	WorkflowFile    string
	App             string
	User            string
	NumberOfAccess  uint64
}

func DefaultSeedOptions() SeedOptions {
	return SeedOptions{
		CredentialsFile: DefaultCredentialsFile,
		WorkflowFile:    DefaultWorkflowFile,
		App:             DefaultSeedApp,
		User:            DefaultSeedUser,
		NumberOfAccess:  DefaultSeedAccesses,
	}
}

type SeedResult struct {
	ProtectedData *dataprotector.ProtectedData `json:"protectedData"`
	Access        *dataprotector.GrantedAccess `json:"access"`
}

// ReadKeyFile returns the wallet private key stored in path.
func ReadKeyFile(path string) (string, error) {
	if b, err := os.ReadFile(path); err != nil {
		return "", fmt.Errorf("error reading key file: %w", err)
	} else if key := strings.TrimSpace(string(b)); key == "" {
		return "", fmt.Errorf("key file %s is empty", path)
	} else {
		return key, nil
	}
}

// Seed protects the raw credentials and workflow exports, as the sandbox
// expects them, and grants the enclave app access.
func Seed(ctx context.Context, client dataprotector.Client, o SeedOptions) (*SeedResult, error) {
	credentials, err := os.ReadFile(o.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("error reading credentials: %w", err)
	}
	workflow, err := os.ReadFile(o.WorkflowFile)
	if err != nil {
		return nil, fmt.Errorf("error reading workflow: %w", err)
	}

	protected, err := client.ProtectData(ctx, dataprotector.ProtectDataRequest{
		Name: o.Name,
		Data: map[string]any{
			"credentials": string(credentials),
			"workflow":    string(workflow),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error protecting data: %w", err)
	}
	log.Infof("protected data %s", protected.Address.Hex())

	access, err := client.GrantAccess(ctx, dataprotector.GrantAccessRequest{
		ProtectedData:  protected.Address.Hex(),
		AuthorizedApp:  o.App,
		AuthorizedUser: o.User,
		NumberOfAccess: o.NumberOfAccess,
	})
	if err != nil {
		return &SeedResult{ProtectedData: protected}, fmt.Errorf("error granting access: %w", err)
	}

	return &SeedResult{ProtectedData: protected, Access: access}, nil
}
