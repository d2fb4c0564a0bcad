package node

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/grexie/n8n-protector/pkg/dataprotector"
	"github.com/grexie/n8n-protector/pkg/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type fakeClient struct {
	address common.Address
	smsURL  string

	protected []dataprotector.ProtectDataRequest
	grants    []dataprotector.GrantAccessRequest
	queries   []dataprotector.GetGrantedAccessRequest
	revoked   []dataprotector.GrantedAccess
	granted   []dataprotector.GrantedAccess
}

var _ dataprotector.Client = &fakeClient{}

func (f *fakeClient) Address() common.Address {
	return f.address
}

func (f *fakeClient) ProtectData(ctx context.Context, req dataprotector.ProtectDataRequest) (*dataprotector.ProtectedData, error) {
	f.protected = append(f.protected, req)
	return &dataprotector.ProtectedData{
		Name:    req.Name,
		Address: common.HexToAddress("0x5aB5fcDCf1C2B6b1a4c1e6D4c4F5f9b6B2e4D3a1"),
		Owner:   f.address,
	}, nil
}

func (f *fakeClient) GetProtectedData(ctx context.Context, req dataprotector.GetProtectedDataRequest) ([]dataprotector.ProtectedData, error) {
	return []dataprotector.ProtectedData{{Name: "owned", Owner: common.HexToAddress(req.Owner)}}, nil
}

func (f *fakeClient) GrantAccess(ctx context.Context, req dataprotector.GrantAccessRequest) (*dataprotector.GrantedAccess, error) {
	f.grants = append(f.grants, req)
	return &dataprotector.GrantedAccess{Dataset: req.ProtectedData, AppRestrict: req.AuthorizedApp}, nil
}

func (f *fakeClient) GetGrantedAccess(ctx context.Context, req dataprotector.GetGrantedAccessRequest) (*dataprotector.GrantedAccessResponse, error) {
	f.queries = append(f.queries, req)
	return &dataprotector.GrantedAccessResponse{Count: len(f.granted), GrantedAccess: f.granted}, nil
}

func (f *fakeClient) RevokeOneAccess(ctx context.Context, access dataprotector.GrantedAccess) (*dataprotector.RevokedAccess, error) {
	f.revoked = append(f.revoked, access)
	return &dataprotector.RevokedAccess{Access: access, TxHash: "0xfeed"}, nil
}

func newExecutor(t *testing.T, fake *fakeClient) Executor {
	t.Helper()

	pool, err := signer.NewPool(4)
	require.NoError(t, err)

	e, err := NewExecutor(pool, func(s signer.Signer, smsURL string) (dataprotector.Client, error) {
		fake.address = s.Address()
		fake.smsURL = smsURL
		return fake, nil
	}, "https://sms.labs.iex.ec")
	require.NoError(t, err)
	return e
}

func TestExecute_ProtectData(t *testing.T) {
	fake := &fakeClient{}
	e := newExecutor(t, fake)

	out, err := e.Execute(context.Background(), ExecuteRequest{
		Credentials: Credentials{PrivateKey: testKey},
		Parameters: Parameters{
			"operation":     OperationProtectData,
			"dataToProtect": `{"email":"a@b.c"}`,
			"dataName":      "contact",
		},
		Items: []Item{{JSON: map[string]any{}}},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, OperationProtectData, out[0].JSON["operation"])
	assert.Equal(t, true, out[0].JSON["success"])
	assert.Nil(t, out[0].PairedItem)

	require.Len(t, fake.protected, 1)
	assert.Equal(t, "contact", fake.protected[0].Name)
	assert.Equal(t, dataprotector.UploadModeIPFS, fake.protected[0].UploadMode)
	assert.Equal(t, map[string]any{"email": "a@b.c"}, fake.protected[0].Data)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), fake.address)
	assert.Equal(t, "https://sms.labs.iex.ec", fake.smsURL)
}

func TestExecute_SMSURLOverride(t *testing.T) {
	fake := &fakeClient{}
	e := newExecutor(t, fake)

	_, err := e.Execute(context.Background(), ExecuteRequest{
		Credentials: Credentials{PrivateKey: testKey},
		SMSURL:      "https://sms.example.com",
		Parameters:  Parameters{"operation": OperationGetProtectedData},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://sms.example.com", fake.smsURL)
}

func TestExecute_GrantAccessDefaultsAndItemOverrides(t *testing.T) {
	fake := &fakeClient{}
	e := newExecutor(t, fake)

	out, err := e.Execute(context.Background(), ExecuteRequest{
		Credentials: Credentials{PrivateKey: testKey},
		Parameters: Parameters{
			"operation":     OperationGrantAccess,
			"protectedData": "0x5aB5fcDCf1C2B6b1a4c1e6D4c4F5f9b6B2e4D3a1",
			"authorizedApp": "web3mail.apps.iexec.eth",
		},
		Items: []Item{
			{JSON: map[string]any{}},
			{JSON: map[string]any{}, Parameters: Parameters{"numberOfAccess": "5", "pricePerAccess": float64(2)}},
		},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Len(t, fake.grants, 2)

	assert.Equal(t, uint64(1), fake.grants[0].NumberOfAccess)
	assert.Equal(t, uint64(0), fake.grants[0].PricePerAccess)
	assert.Equal(t, uint64(5), fake.grants[1].NumberOfAccess)
	assert.Equal(t, uint64(2), fake.grants[1].PricePerAccess)
}

func TestExecute_RevokeAccess(t *testing.T) {
	fake := &fakeClient{granted: []dataprotector.GrantedAccess{{Dataset: "first"}, {Dataset: "second"}}}
	e := newExecutor(t, fake)

	out, err := e.Execute(context.Background(), ExecuteRequest{
		Credentials: Credentials{PrivateKey: testKey},
		Parameters: Parameters{
			"operation":              OperationRevokeAccess,
			"protectedDataForRevoke": "0x5aB5fcDCf1C2B6b1a4c1e6D4c4F5f9b6B2e4D3a1",
			"appForRevoke":           "web3mail.apps.iexec.eth",
			"userForRevoke":          "0xb631150041fbc4a28b7d8ca43ba0be0b3b03e008",
		},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)

	require.Len(t, fake.queries, 1)
	assert.Equal(t, "0xb631150041fbc4a28b7d8ca43ba0be0b3b03e008", fake.queries[0].AuthorizedUser)
	require.Len(t, fake.revoked, 1)
	assert.Equal(t, "first", fake.revoked[0].Dataset)

	result, ok := out[0].JSON["result"].(*dataprotector.RevokedAccess)
	require.True(t, ok)
	assert.Equal(t, "0xfeed", result.TxHash)
}

func TestExecute_ContinueOnFail(t *testing.T) {
	fake := &fakeClient{}
	e := newExecutor(t, fake)

	out, err := e.Execute(context.Background(), ExecuteRequest{
		Credentials:    Credentials{PrivateKey: testKey},
		ContinueOnFail: true,
		Items: []Item{
			{JSON: map[string]any{}, Parameters: Parameters{"operation": OperationGetGrantedAccess}},
			{JSON: map[string]any{}, Parameters: Parameters{"operation": "explode"}},
			{JSON: map[string]any{}, Parameters: Parameters{"operation": OperationGetProtectedData}},
		},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, false, out[0].JSON["success"])
	assert.Equal(t, "protected data address is required", out[0].JSON["error"])
	require.NotNil(t, out[0].PairedItem)
	assert.Equal(t, 0, *out[0].PairedItem)

	assert.Equal(t, "unsupported operation: explode", out[1].JSON["error"])
	require.NotNil(t, out[1].PairedItem)
	assert.Equal(t, 1, *out[1].PairedItem)

	assert.Equal(t, true, out[2].JSON["success"])
}

func TestExecute_StopsOnFailure(t *testing.T) {
	fake := &fakeClient{}
	e := newExecutor(t, fake)

	_, err := e.Execute(context.Background(), ExecuteRequest{
		Credentials: Credentials{PrivateKey: testKey},
		Items: []Item{
			{JSON: map[string]any{}, Parameters: Parameters{"operation": OperationGetProtectedData}},
			{JSON: map[string]any{}, Parameters: Parameters{"operation": OperationProtectData, "dataToProtect": "{oops"}},
		},
	})
	require.Error(t, err)

	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, 1, opErr.ItemIndex)
	assert.Equal(t, OperationProtectData, opErr.Operation)
	assert.EqualError(t, opErr.Err, "data to protect must be valid JSON")
}

func TestExecute_RevokeWithoutGrants(t *testing.T) {
	fake := &fakeClient{}
	e := newExecutor(t, fake)

	_, err := e.Execute(context.Background(), ExecuteRequest{
		Credentials: Credentials{PrivateKey: testKey},
		Parameters: Parameters{
			"operation":              OperationRevokeAccess,
			"protectedDataForRevoke": "0x5aB5fcDCf1C2B6b1a4c1e6D4c4F5f9b6B2e4D3a1",
			"appForRevoke":           "web3mail.apps.iexec.eth",
		},
	})
	assert.ErrorContains(t, err, "no access to revoke")
	assert.Empty(t, fake.revoked)
}

func TestExecute_BadCredentials(t *testing.T) {
	e := newExecutor(t, &fakeClient{})

	_, err := e.Execute(context.Background(), ExecuteRequest{Credentials: Credentials{PrivateKey: "nope"}})
	assert.ErrorContains(t, err, "credentials")
}

func TestResolver(t *testing.T) {
	r := resolver{
		item: Parameters{"numberOfAccess": "-3", "name": " item "},
		node: Parameters{"name": "node", "pricePerAccess": float64(1.5), "data": map[string]any{"a": float64(1)}},
	}

	assert.Equal(t, "item", r.String("name", ""))
	assert.Equal(t, "fallback", r.String("missing", "fallback"))
	assert.Equal(t, `{"a":1}`, r.String("data", ""))

	_, err := r.Uint("numberOfAccess", 1)
	assert.Error(t, err)
	_, err = r.Uint("pricePerAccess", 0)
	assert.Error(t, err)

	n, err := r.Uint("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)
}
