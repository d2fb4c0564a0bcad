package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grexie/n8n-protector/pkg/n8n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func setup(t *testing.T) {
	t.Helper()
	t.Setenv("ENV", "test")
	t.Setenv("PROTECTOR_STORAGE_BACKEND", "local")
	t.Setenv("PROTECTOR_STORAGE_PATH", filepath.Join(t.TempDir(), "storage.json"))
	t.Setenv("DATAPROTECTOR_PRIVATE_KEY", "")
	t.Setenv("DATAPROTECTOR_API_URL", "http://127.0.0.1:1")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	setup(t)

	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "n8n-protector "))
}

func TestWorkflowsList_Empty(t *testing.T) {
	setup(t)

	out, err := run(t, "", "workflows", "list")
	require.NoError(t, err)

	var r struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, int64(0), r.Count)

	_, err = run(t, "", "workflows", "clear")
	assert.NoError(t, err)
}

func TestGrant_WithoutWallet(t *testing.T) {
	setup(t)

	_, err := run(t, "", "grant", "0x5aB5fcDCf1C2B6b1a4c1e6D4c4F5f9b6B2e4D3a1", "--user", "0xb631150041fbc4a28b7d8ca43ba0be0b3b03e008")
	assert.ErrorContains(t, err, "wallet not configured")
}

func TestProtect_Validation(t *testing.T) {
	setup(t)
	t.Setenv("DATAPROTECTOR_PRIVATE_KEY", testKey)

	_, err := run(t, "", "protect", "--name", "report")
	assert.EqualError(t, err, "Please enter both credentials and workflows data")
}

func TestNodeExec(t *testing.T) {
	setup(t)
	t.Setenv("DATAPROTECTOR_PRIVATE_KEY", testKey)

	out, err := run(t, `{"continueOnFail":true,"parameters":{"operation":"explode"}}`, "node", "exec")
	require.NoError(t, err)

	var items []struct {
		JSON       map[string]any `json:"json"`
		PairedItem *int           `json:"pairedItem"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "unsupported operation: explode", items[0].JSON["error"])
	assert.Equal(t, false, items[0].JSON["success"])
	require.NotNil(t, items[0].PairedItem)
	assert.Equal(t, 0, *items[0].PairedItem)

	_, err = run(t, `not json`, "node", "exec")
	assert.ErrorContains(t, err, "invalid node request")
}

func TestSandbox_WithoutDatasetStillWritesResult(t *testing.T) {
	setup(t)
	t.Setenv("IEXEC_IN", "")
	t.Setenv("IEXEC_DATASET_FILENAME", "")

	out := t.TempDir()
	_, err := run(t, "", "sandbox", "--out", out, "Bob")
	require.NoError(t, err)

	result, err := os.ReadFile(filepath.Join(out, n8n.ResultFile))
	require.NoError(t, err)
	assert.Equal(t, "Bob,"+n8n.MessageProtectedError, string(result))

	_, err = os.Stat(filepath.Join(out, n8n.ComputedFile))
	assert.NoError(t, err)
}
