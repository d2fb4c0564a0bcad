package dataprotector

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type UploadMode string

const (
	UploadModeIPFS    UploadMode = "ipfs"
	UploadModeArweave UploadMode = "arweave"
)

type ProtectDataRequest struct {
	Data       any        `json:"data"`
	Name       string     `json:"name,omitempty"`
	UploadMode UploadMode `json:"uploadMode,omitempty"`
}

type ProtectedData struct {
	Name              string         `json:"name"`
	Address           common.Address `json:"address"`
	Owner             common.Address `json:"owner"`
	Schema            map[string]any `json:"schema,omitempty"`
	CreationTimestamp int64          `json:"creationTimestamp"`
	TransactionHash   string         `json:"transactionHash,omitempty"`
	MultiAddr         string         `json:"multiaddr,omitempty"`
}

type GetProtectedDataRequest struct {
	Owner      string `json:"owner,omitempty"`
	DataSchema string `json:"dataSchema,omitempty"`
}

type GrantAccessRequest struct {
	ProtectedData  string `json:"protectedData"`
	AuthorizedApp  string `json:"authorizedApp"`
	AuthorizedUser string `json:"authorizedUser,omitempty"`
	PricePerAccess uint64 `json:"pricePerAccess"`
	NumberOfAccess uint64 `json:"numberOfAccess"`
}

// GrantedAccess is a signed dataset order authorizing an app and user.
type GrantedAccess struct {
	Dataset            string `json:"dataset"`
	DatasetPrice       string `json:"datasetprice"`
	Volume             string `json:"volume"`
	Tag                string `json:"tag"`
	AppRestrict        string `json:"apprestrict"`
	WorkerpoolRestrict string `json:"workerpoolrestrict"`
	RequesterRestrict  string `json:"requesterrestrict"`
	Salt               string `json:"salt"`
	Sign               string `json:"sign"`
	RemainingAccess    int64  `json:"remainingAccess,omitempty"`
}

type GetGrantedAccessRequest struct {
	ProtectedData  string `json:"protectedData,omitempty"`
	AuthorizedApp  string `json:"authorizedApp,omitempty"`
	AuthorizedUser string `json:"authorizedUser,omitempty"`
}

type GrantedAccessResponse struct {
	Count         int             `json:"count"`
	GrantedAccess []GrantedAccess `json:"grantedAccess"`
}

type RevokedAccess struct {
	Access GrantedAccess `json:"access"`
	TxHash string        `json:"txHash"`
}

// IsAddressOrENS accepts a hex address or an ENS name such as
// web3mail.apps.iexec.eth.
func IsAddressOrENS(s string) bool {
	s = strings.TrimSpace(s)
	if common.IsHexAddress(s) {
		return true
	}
	name, ok := strings.CutSuffix(strings.ToLower(s), ".eth")
	return ok && name != "" && !strings.ContainsAny(name, " /")
}
