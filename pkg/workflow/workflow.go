package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/grexie/n8n-protector/pkg/storage/interfaces"
)

var ErrInvalidWorkflowJSON = errors.New("Invalid JSON format in credentials or workflows")

// Decode parses a JSON document, keeping numbers as json.Number so large
// integers survive the round trip.
func Decode(s string) (any, error) {
	var v any

	d := json.NewDecoder(strings.NewReader(s))
	d.UseNumber()
	if err := d.Decode(&v); err != nil {
		return nil, err
	} else if _, err := d.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level JSON value")
	}
	return v, nil
}

// ValidateJSON reports whether s is valid JSON. Blank input is considered
// valid so an untouched form field does not show an error.
func ValidateJSON(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	_, err := Decode(s)
	return err == nil
}

// ParseWorkflowData counts the credentials and workflows held in combined
// workflow JSON. Unparsable input counts as empty.
func ParseWorkflowData(jsonData string) interfaces.WorkflowCounts {
	v, err := Decode(jsonData)
	if err != nil {
		return interfaces.WorkflowCounts{}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return interfaces.WorkflowCounts{}
	}
	return interfaces.WorkflowCounts{
		Credentials: countItems(m["credentials"]),
		Workflows:   countItems(m["workflow"]),
	}
}

func countItems(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case []any:
		return len(t)
	default:
		return 1
	}
}

// CombineWorkflowData joins separate credential and workflow exports into a
// single JSON document.
func CombineWorkflowData(credentialsJSON string, workflowsJSON string) (string, error) {
	credentials, err := Decode(credentialsJSON)
	if err != nil {
		return "", ErrInvalidWorkflowJSON
	}
	workflows, err := Decode(workflowsJSON)
	if err != nil {
		return "", ErrInvalidWorkflowJSON
	}

	var buf bytes.Buffer
	e := json.NewEncoder(&buf)
	e.SetEscapeHTML(false)
	if err := e.Encode(combined{Credentials: credentials, Workflow: workflows}); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

type combined struct {
	Credentials any `json:"credentials"`
	Workflow    any `json:"workflow"`
}

// CompatibleData builds the payload protected for an n8n workflow, with both
// exports reshaped for DataProtector.
func CompatibleData(credentialsJSON string, workflowsJSON string) (map[string]any, error) {
	credentials, err := Decode(credentialsJSON)
	if err != nil {
		return nil, ErrInvalidWorkflowJSON
	}
	workflows, err := Decode(workflowsJSON)
	if err != nil {
		return nil, ErrInvalidWorkflowJSON
	}

	return map[string]any{
		"n8nWorkflow": map[string]any{
			"credentials": ConvertArraysToObjects(credentials),
			"workflow":    ConvertArraysToObjects(workflows),
		},
	}, nil
}

func NewProtectedWorkflow(address common.Address, name string, credentialsJSON string, workflowsJSON string) (interfaces.ProtectedWorkflow, error) {
	combinedData, err := CombineWorkflowData(credentialsJSON, workflowsJSON)
	if err != nil {
		return interfaces.ProtectedWorkflow{}, err
	}

	return interfaces.ProtectedWorkflow{
		Address:         address,
		Name:            name,
		CreatedAt:       time.Now().UTC(),
		Data:            ParseWorkflowData(combinedData),
		AuthorizedUsers: []string{},
		JSONData:        combinedData,
	}, nil
}
