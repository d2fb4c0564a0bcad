package protector

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/grexie/n8n-protector/pkg/dataprotector"
	"github.com/grexie/n8n-protector/pkg/storage/interfaces"
)

type AccessRequest struct {
	UserAddress    string `json:"userAddress"`
	AppAddress     string `json:"appAddress"`
	NumberOfAccess int64  `json:"numberOfAccess"`
	PricePerAccess uint64 `json:"pricePerAccess,omitempty"`
}

type RevokeRequest struct {
	UserAddress string `json:"userAddress"`
	AppAddress  string `json:"appAddress"`
}

type GrantResult struct {
	Access   dataprotector.GrantedAccess   `json:"access"`
	Workflow *interfaces.ProtectedWorkflow `json:"workflow,omitempty"`
}

type RevokeResult struct {
	TxHash   string                        `json:"txHash"`
	Access   dataprotector.GrantedAccess   `json:"access"`
	Workflow *interfaces.ProtectedWorkflow `json:"workflow,omitempty"`
}

func validateTarget(protectedData string) (common.Address, error) {
	if strings.TrimSpace(protectedData) == "" {
		return common.Address{}, fiber.NewError(fiber.StatusBadRequest, "No protected workflow selected")
	}
	return parseAddress(protectedData)
}

func (r AccessRequest) Validate() error {
	if strings.TrimSpace(r.UserAddress) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Please enter a user address")
	} else if strings.TrimSpace(r.AppAddress) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Please enter an app address")
	} else if r.NumberOfAccess < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "Please enter a valid number of access (minimum 1)")
	}
	return nil
}

func (p *protector) GrantAccess(ctx context.Context, protectedData string, req AccessRequest) (*GrantResult, error) {
	address, err := validateTarget(protectedData)
	if err != nil {
		return nil, err
	} else if err := req.Validate(); err != nil {
		return nil, err
	}

	client, err := p.dataProtector()
	if err != nil {
		return nil, err
	}

	user := strings.TrimSpace(req.UserAddress)
	access, err := client.GrantAccess(ctx, dataprotector.GrantAccessRequest{
		ProtectedData:  address.Hex(),
		AuthorizedApp:  strings.TrimSpace(req.AppAddress),
		AuthorizedUser: user,
		PricePerAccess: req.PricePerAccess,
		NumberOfAccess: uint64(req.NumberOfAccess),
	})
	if err != nil {
		return nil, err
	}

	log.Infof("granted %d access to %s on %s", req.NumberOfAccess, user, address.Hex())

	w, err := p.updateAuthorizedUsers(ctx, address, func(users []string) []string {
		if slices.IndexFunc(users, func(u string) bool { return strings.EqualFold(u, user) }) >= 0 {
			return users
		}
		return append(users, user)
	})
	if err != nil {
		return nil, err
	}

	return &GrantResult{Access: *access, Workflow: w}, nil
}

func (p *protector) GrantedAccess(ctx context.Context, protectedData string, user string, app string) (*dataprotector.GrantedAccessResponse, error) {
	address, err := validateTarget(protectedData)
	if err != nil {
		return nil, err
	}

	client, err := p.dataProtector()
	if err != nil {
		return nil, err
	}

	return client.GetGrantedAccess(ctx, dataprotector.GetGrantedAccessRequest{
		ProtectedData:  address.Hex(),
		AuthorizedUser: strings.TrimSpace(user),
		AuthorizedApp:  strings.TrimSpace(app),
	})
}

// RevokeAccess revokes the first grant matching user and app. The user is
// dropped from the catalog entry once no grant remains.
func (p *protector) RevokeAccess(ctx context.Context, protectedData string, req RevokeRequest) (*RevokeResult, error) {
	address, err := validateTarget(protectedData)
	if err != nil {
		return nil, err
	} else if strings.TrimSpace(req.UserAddress) == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Please enter a user address")
	} else if strings.TrimSpace(req.AppAddress) == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Please enter an app address")
	}

	client, err := p.dataProtector()
	if err != nil {
		return nil, err
	}

	user := strings.TrimSpace(req.UserAddress)
	granted, err := client.GetGrantedAccess(ctx, dataprotector.GetGrantedAccessRequest{
		ProtectedData:  address.Hex(),
		AuthorizedUser: user,
		AuthorizedApp:  strings.TrimSpace(req.AppAddress),
	})
	if err != nil {
		return nil, err
	} else if granted.Count == 0 || len(granted.GrantedAccess) == 0 {
		return nil, fiber.NewError(fiber.StatusNotFound, "No access to revoke")
	}

	revoked, err := client.RevokeOneAccess(ctx, granted.GrantedAccess[0])
	if err != nil {
		return nil, err
	}

	log.Infof("revoked access of %s on %s in tx %s", user, address.Hex(), revoked.TxHash)

	result := RevokeResult{TxHash: revoked.TxHash, Access: revoked.Access}
	if granted.Count == 1 {
		if result.Workflow, err = p.updateAuthorizedUsers(ctx, address, func(users []string) []string {
			return slices.DeleteFunc(users, func(u string) bool { return strings.EqualFold(u, user) })
		}); err != nil {
			return nil, err
		}
	}

	return &result, nil
}

// updateAuthorizedUsers applies update to a catalog entry if it exists.
// Protected data created elsewhere has no entry and is left alone.
func (p *protector) updateAuthorizedUsers(ctx context.Context, address common.Address, update func([]string) []string) (*interfaces.ProtectedWorkflow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, err := p.storage.GetWorkflow(ctx, address)
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) && fe.Code == fiber.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("loading catalog entry %s: %w", address.Hex(), err)
	}

	w.AuthorizedUsers = update(append([]string{}, w.AuthorizedUsers...))
	if err := p.storage.SaveWorkflow(ctx, *w); err != nil {
		return nil, err
	}
	return w, nil
}
