package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/grexie/n8n-protector/pkg/auth"
	"github.com/grexie/n8n-protector/pkg/dataprotector"
	"github.com/grexie/n8n-protector/pkg/node"
	"github.com/grexie/n8n-protector/pkg/protector"
	"github.com/grexie/n8n-protector/pkg/signer"
	"github.com/grexie/n8n-protector/pkg/storage/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	apiKey           = "an api key long enough to pass validation"
	protectedAddress = "0x5aB5fcDCf1C2B6b1a4c1e6D4c4F5f9b6B2e4D3a1"
	user             = "0xb631150041fbc4a28b7d8ca43ba0be0b3b03e008"
	defaultApp       = "web3mail.apps.iexec.eth"
	testKey          = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
)

type fakeClient struct {
	grants  []dataprotector.GrantAccessRequest
	granted []dataprotector.GrantedAccess
}

func (f *fakeClient) Address() common.Address {
	return common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
}

func (f *fakeClient) ProtectData(ctx context.Context, req dataprotector.ProtectDataRequest) (*dataprotector.ProtectedData, error) {
	return &dataprotector.ProtectedData{Name: req.Name, Address: common.HexToAddress(protectedAddress)}, nil
}

func (f *fakeClient) GetProtectedData(ctx context.Context, req dataprotector.GetProtectedDataRequest) ([]dataprotector.ProtectedData, error) {
	return []dataprotector.ProtectedData{}, nil
}

func (f *fakeClient) GrantAccess(ctx context.Context, req dataprotector.GrantAccessRequest) (*dataprotector.GrantedAccess, error) {
	f.grants = append(f.grants, req)
	g := dataprotector.GrantedAccess{Dataset: req.ProtectedData, AppRestrict: req.AuthorizedApp, RequesterRestrict: req.AuthorizedUser}
	f.granted = append(f.granted, g)
	return &g, nil
}

func (f *fakeClient) GetGrantedAccess(ctx context.Context, req dataprotector.GetGrantedAccessRequest) (*dataprotector.GrantedAccessResponse, error) {
	return &dataprotector.GrantedAccessResponse{Count: len(f.granted), GrantedAccess: append([]dataprotector.GrantedAccess{}, f.granted...)}, nil
}

func (f *fakeClient) RevokeOneAccess(ctx context.Context, access dataprotector.GrantedAccess) (*dataprotector.RevokedAccess, error) {
	f.granted = f.granted[1:]
	return &dataprotector.RevokedAccess{Access: access, TxHash: "0xfeed"}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newAPI(t *testing.T) (API, *fakeClient) {
	t.Helper()

	fake := &fakeClient{}

	a, err := auth.NewAuth([]string{apiKey})
	require.NoError(t, err)

	storage, err := local.NewLocalStorageBackend(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)
	p, err := protector.NewProtector(fake, storage)
	require.NoError(t, err)

	pool, err := signer.NewPool(4)
	require.NoError(t, err)
	e, err := node.NewExecutor(pool, func(s signer.Signer, smsURL string) (dataprotector.Client, error) {
		return fake, nil
	}, "")
	require.NoError(t, err)

	api, err := NewAPI(a, p, e, defaultApp)
	require.NoError(t, err)
	return api, fake
}

func do(t *testing.T, api API, method string, uri string, body any) (int, envelope) {
	t.Helper()

	var b []byte
	if body != nil {
		var err error
		b, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, uri, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	key := auth.APIKey(apiKey)
	signature, err := key.Sign(time.Now(), auth.SignedData(method, uri, b))
	require.NoError(t, err)
	req.Header.Set(auth.HeaderKeyHash, key.HashString())
	req.Header.Set(auth.HeaderSignature, signature.String())

	return send(t, api, req)
}

func send(t *testing.T, api API, req *http.Request) (int, envelope) {
	t.Helper()

	res, err := api.App().Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return res.StatusCode, env
}

func TestRequiresAPIKey(t *testing.T) {
	api, _ := newAPI(t)

	status, env := send(t, api, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, auth.HeaderKeyHash)
}

func TestWorkflowLifecycle(t *testing.T) {
	api, fake := newAPI(t)

	status, env := do(t, api, http.MethodPost, "/workflows", ProtectWorkflowRequest{
		Name:            "Daily report",
		CredentialsJSON: `[{"id":"1","name":"smtp"}]`,
		WorkflowsJSON:   `[{"id":"w1"},{"id":"w2"}]`,
	})
	require.Equal(t, fiber.StatusOK, status, env.Error)

	var created struct {
		Address common.Address `json:"address"`
		Name    string         `json:"name"`
		Data    struct {
			Credentials int `json:"credentials"`
			Workflows   int `json:"workflows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, common.HexToAddress(protectedAddress), created.Address)
	assert.Equal(t, 1, created.Data.Credentials)
	assert.Equal(t, 2, created.Data.Workflows)

	status, env = do(t, api, http.MethodGet, "/workflows?offset=0&count=10", nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	assert.JSONEq(t, `1`, string(mustField(t, env.Data, "count")))

	status, env = do(t, api, http.MethodPost, "/workflows/"+protectedAddress+"/grant", GrantAccessRequest{
		UserAddress:    user,
		NumberOfAccess: 3,
	})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	require.Len(t, fake.grants, 1)
	assert.Equal(t, defaultApp, fake.grants[0].AuthorizedApp)
	assert.Equal(t, uint64(3), fake.grants[0].NumberOfAccess)

	status, env = do(t, api, http.MethodGet, "/workflows/"+protectedAddress, nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	assert.JSONEq(t, `["`+user+`"]`, string(mustField(t, env.Data, "authorizedUsers")))

	status, env = do(t, api, http.MethodGet, "/workflows/"+protectedAddress+"/access?user="+user, nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	assert.JSONEq(t, `1`, string(mustField(t, env.Data, "count")))

	status, env = do(t, api, http.MethodPost, "/workflows/"+protectedAddress+"/revoke", RevokeAccessRequest{UserAddress: user})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	assert.JSONEq(t, `"0xfeed"`, string(mustField(t, env.Data, "txHash")))

	status, env = do(t, api, http.MethodPost, "/workflows/"+protectedAddress+"/revoke", RevokeAccessRequest{UserAddress: user})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "No access to revoke", env.Error)

	status, env = do(t, api, http.MethodGet, "/status", nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	assert.JSONEq(t, `1`, string(mustField(t, env.Data, "apiKeys")))
	assert.JSONEq(t, `1`, string(mustField(t, env.Data, "workflows")))

	status, _ = do(t, api, http.MethodDelete, "/workflows/"+protectedAddress, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, env = do(t, api, http.MethodGet, "/workflows/"+protectedAddress, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.False(t, env.Success)

	status, _ = do(t, api, http.MethodDelete, "/workflows", nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestProtectWorkflow_Validation(t *testing.T) {
	api, _ := newAPI(t)

	status, env := do(t, api, http.MethodPost, "/workflows", ProtectWorkflowRequest{
		CredentialsJSON: `[]`,
		WorkflowsJSON:   `[]`,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Please enter a workflow name", env.Error)

	status, env = do(t, api, http.MethodPost, "/workflows/not-an-address/grant", GrantAccessRequest{UserAddress: user, NumberOfAccess: 1})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.Error, "invalid protected data address")
}

func TestExecuteNode(t *testing.T) {
	api, _ := newAPI(t)

	status, env := do(t, api, http.MethodPost, "/node/execute", node.ExecuteRequest{
		Credentials:    node.Credentials{PrivateKey: testKey},
		ContinueOnFail: true,
		Items: []node.Item{
			{JSON: map[string]any{}, Parameters: node.Parameters{"operation": node.OperationGetProtectedData}},
			{JSON: map[string]any{}, Parameters: node.Parameters{"operation": "explode"}},
		},
	})
	require.Equal(t, fiber.StatusOK, status, env.Error)

	var items []node.ResultItem
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, true, items[0].JSON["success"])
	assert.Equal(t, "unsupported operation: explode", items[1].JSON["error"])

	status, env = do(t, api, http.MethodPost, "/node/execute", node.ExecuteRequest{
		Credentials: node.Credentials{PrivateKey: testKey},
		Parameters:  node.Parameters{"operation": "explode"},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "item 0: explode: unsupported operation: explode", env.Error)
}

func mustField(t *testing.T, data json.RawMessage, name string) json.RawMessage {
	t.Helper()

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	v, ok := m[name]
	require.True(t, ok, "missing field %s in %s", name, string(data))
	return v
}
