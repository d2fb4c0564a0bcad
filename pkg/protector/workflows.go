package protector

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/grexie/n8n-protector/pkg/dataprotector"
	"github.com/grexie/n8n-protector/pkg/storage/interfaces"
	"github.com/grexie/n8n-protector/pkg/workflow"
)

type ProtectRequest struct {
	Name            string                   `json:"name"`
	CredentialsJSON string                   `json:"credentialsJson"`
	WorkflowsJSON   string                   `json:"workflowsJson"`
	UploadMode      dataprotector.UploadMode `json:"uploadMode,omitempty"`
}

func (r ProtectRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Please enter a workflow name")
	} else if strings.TrimSpace(r.CredentialsJSON) == "" || strings.TrimSpace(r.WorkflowsJSON) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Please enter both credentials and workflows data")
	} else if !workflow.ValidateJSON(r.CredentialsJSON) || !workflow.ValidateJSON(r.WorkflowsJSON) {
		return fiber.NewError(fiber.StatusBadRequest, "Please enter valid JSON data")
	}
	return nil
}

// ProtectWorkflow encrypts an n8n export through DataProtector and records the
// resulting protected data in the catalog.
func (p *protector) ProtectWorkflow(ctx context.Context, req ProtectRequest) (*interfaces.ProtectedWorkflow, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	client, err := p.dataProtector()
	if err != nil {
		return nil, err
	}

	data, err := workflow.CompatibleData(req.CredentialsJSON, req.WorkflowsJSON)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	protected, err := client.ProtectData(ctx, dataprotector.ProtectDataRequest{
		Data:       data,
		Name:       req.Name,
		UploadMode: req.UploadMode,
	})
	if err != nil {
		return nil, err
	}

	log.Infof("protected workflow %q at %s", req.Name, protected.Address.Hex())

	if w, err := workflow.NewProtectedWorkflow(protected.Address, req.Name, req.CredentialsJSON, req.WorkflowsJSON); err != nil {
		return nil, err
	} else if err := p.storage.SaveWorkflow(ctx, w); err != nil {
		return nil, err
	} else {
		return &w, nil
	}
}
