package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/grexie/n8n-protector/pkg/dataprotector"
	"github.com/grexie/n8n-protector/pkg/workflow"
)

func run(ctx context.Context, client dataprotector.Client, operation string, p resolver) (any, error) {
	switch operation {
	case OperationProtectData:
		return protectData(ctx, client, p)
	case OperationGetProtectedData:
		return client.GetProtectedData(ctx, dataprotector.GetProtectedDataRequest{
			Owner:      p.String("ownerAddress", ""),
			DataSchema: p.String("dataSchema", ""),
		})
	case OperationGrantAccess:
		return grantAccess(ctx, client, p)
	case OperationGetGrantedAccess:
		protectedData := p.String("protectedDataAddressForAccess", "")
		if protectedData == "" {
			return nil, errors.New("protected data address is required")
		}
		return client.GetGrantedAccess(ctx, dataprotector.GetGrantedAccessRequest{ProtectedData: protectedData})
	case OperationRevokeAccess:
		return revokeAccess(ctx, client, p)
	default:
		return nil, fmt.Errorf("unsupported operation: %s", operation)
	}
}

func protectData(ctx context.Context, client dataprotector.Client, p resolver) (any, error) {
	data, err := workflow.Decode(p.String("dataToProtect", "{}"))
	if err != nil {
		return nil, errors.New("data to protect must be valid JSON")
	}

	return client.ProtectData(ctx, dataprotector.ProtectDataRequest{
		Data:       data,
		Name:       p.String("dataName", ""),
		UploadMode: dataprotector.UploadMode(p.String("uploadMode", string(dataprotector.UploadModeIPFS))),
	})
}

func grantAccess(ctx context.Context, client dataprotector.Client, p resolver) (any, error) {
	protectedData := p.String("protectedData", "")
	authorizedApp := p.String("authorizedApp", "")
	if protectedData == "" || authorizedApp == "" {
		return nil, errors.New("protected data address and application address are required")
	}

	pricePerAccess, err := p.Uint("pricePerAccess", 0)
	if err != nil {
		return nil, err
	}
	numberOfAccess, err := p.Uint("numberOfAccess", 1)
	if err != nil {
		return nil, err
	}

	return client.GrantAccess(ctx, dataprotector.GrantAccessRequest{
		ProtectedData:  protectedData,
		AuthorizedApp:  authorizedApp,
		AuthorizedUser: p.String("authorizedUser", ""),
		PricePerAccess: pricePerAccess,
		NumberOfAccess: numberOfAccess,
	})
}

// revokeAccess revokes the first grant for the app, optionally narrowed to a
// user.
func revokeAccess(ctx context.Context, client dataprotector.Client, p resolver) (any, error) {
	protectedData := p.String("protectedDataForRevoke", "")
	app := p.String("appForRevoke", "")
	if protectedData == "" || app == "" {
		return nil, errors.New("protected data address and application address are required")
	}

	granted, err := client.GetGrantedAccess(ctx, dataprotector.GetGrantedAccessRequest{
		ProtectedData:  protectedData,
		AuthorizedApp:  app,
		AuthorizedUser: p.String("userForRevoke", ""),
	})
	if err != nil {
		return nil, err
	} else if granted.Count == 0 || len(granted.GrantedAccess) == 0 {
		return nil, errors.New("no access to revoke")
	}

	return client.RevokeOneAccess(ctx, granted.GrantedAccess[0])
}
