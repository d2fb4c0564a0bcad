// Package dataprotector is a client for the DataProtector gateway. Each
// operation is a single signed round trip; nothing is retried or cached.
package dataprotector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/grexie/n8n-protector/pkg/signer"
)

type Client interface {
	Address() common.Address

	ProtectData(ctx context.Context, req ProtectDataRequest) (*ProtectedData, error)
	GetProtectedData(ctx context.Context, req GetProtectedDataRequest) ([]ProtectedData, error)
	GrantAccess(ctx context.Context, req GrantAccessRequest) (*GrantedAccess, error)
	GetGrantedAccess(ctx context.Context, req GetGrantedAccessRequest) (*GrantedAccessResponse, error)
	RevokeOneAccess(ctx context.Context, access GrantedAccess) (*RevokedAccess, error)
}

type Options struct {
	APIURL     string
	SMSURL     string
	HTTPClient *http.Client
}

type client struct {
	signer signer.Signer
	apiURL string
	smsURL string
	http   *http.Client
}

var _ Client = &client{}

func NewClient(s signer.Signer, o Options) (Client, error) {
	c := client{
		signer: s,
		apiURL: strings.TrimRight(o.APIURL, "/"),
		smsURL: o.SMSURL,
		http:   o.HTTPClient,
	}

	if c.apiURL == "" {
		return nil, fmt.Errorf("dataprotector api url not configured, set DATAPROTECTOR_API_URL")
	} else if _, err := url.Parse(c.apiURL); err != nil {
		return nil, fmt.Errorf("invalid dataprotector api url: %w", err)
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: 2 * time.Minute}
	}

	return &c, nil
}

func (c *client) Address() common.Address {
	return c.signer.Address()
}

func badRequest(format string, args ...any) error {
	return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf(format, args...))
}

func (c *client) ProtectData(ctx context.Context, req ProtectDataRequest) (*ProtectedData, error) {
	if _, ok := req.Data.(map[string]any); !ok {
		return nil, badRequest("data to protect must be a JSON object")
	}

	switch req.UploadMode {
	case "":
		req.UploadMode = UploadModeIPFS
	case UploadModeIPFS, UploadModeArweave:
	default:
		return nil, badRequest("invalid upload mode: %s", req.UploadMode)
	}

	if res, err := call[ProtectedData](ctx, c, http.MethodPost, "/v1/protected-data", nil, &req); err != nil {
		return nil, err
	} else {
		return &res, nil
	}
}

func (c *client) GetProtectedData(ctx context.Context, req GetProtectedDataRequest) ([]ProtectedData, error) {
	query := url.Values{}
	if req.Owner != "" {
		if !common.IsHexAddress(req.Owner) {
			return nil, badRequest("invalid owner address: %s", req.Owner)
		}
		query.Set("owner", req.Owner)
	}
	if req.DataSchema != "" {
		query.Set("dataSchema", req.DataSchema)
	}

	if res, err := call[[]ProtectedData](ctx, c, http.MethodGet, "/v1/protected-data", query, nil); err != nil {
		return nil, err
	} else if res == nil {
		return []ProtectedData{}, nil
	} else {
		return res, nil
	}
}

func (c *client) GrantAccess(ctx context.Context, req GrantAccessRequest) (*GrantedAccess, error) {
	if !common.IsHexAddress(req.ProtectedData) {
		return nil, badRequest("invalid protected data address: %s", req.ProtectedData)
	} else if !IsAddressOrENS(req.AuthorizedApp) {
		return nil, badRequest("invalid authorized app: %s", req.AuthorizedApp)
	} else if req.AuthorizedUser != "" && !IsAddressOrENS(req.AuthorizedUser) {
		return nil, badRequest("invalid authorized user: %s", req.AuthorizedUser)
	}

	if req.NumberOfAccess == 0 {
		req.NumberOfAccess = 1
	}

	if res, err := call[GrantedAccess](ctx, c, http.MethodPost, "/v1/granted-access", nil, &req); err != nil {
		return nil, err
	} else {
		return &res, nil
	}
}

func (c *client) GetGrantedAccess(ctx context.Context, req GetGrantedAccessRequest) (*GrantedAccessResponse, error) {
	query := url.Values{}
	if req.ProtectedData != "" {
		if !common.IsHexAddress(req.ProtectedData) {
			return nil, badRequest("invalid protected data address: %s", req.ProtectedData)
		}
		query.Set("protectedData", req.ProtectedData)
	}
	if req.AuthorizedApp != "" {
		query.Set("authorizedApp", req.AuthorizedApp)
	}
	if req.AuthorizedUser != "" {
		query.Set("authorizedUser", req.AuthorizedUser)
	}

	if res, err := call[GrantedAccessResponse](ctx, c, http.MethodGet, "/v1/granted-access", query, nil); err != nil {
		return nil, err
	} else {
		if res.GrantedAccess == nil {
			res.GrantedAccess = []GrantedAccess{}
		}
		return &res, nil
	}
}

func (c *client) RevokeOneAccess(ctx context.Context, access GrantedAccess) (*RevokedAccess, error) {
	if access.Dataset == "" {
		return nil, badRequest("granted access has no dataset")
	}

	if res, err := call[RevokedAccess](ctx, c, http.MethodPost, "/v1/granted-access/revoke", nil, map[string]any{"grantedAccess": access}); err != nil {
		return nil, err
	} else {
		return &res, nil
	}
}
