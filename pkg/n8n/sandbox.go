package n8n

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

const (
	ResultFile   = "result.txt"
	ComputedFile = "computed.json"

	MessageImported       = "n8n data imported and all workflows activated"
	MessageProtectedError = "protected data error"
)

// Sandbox restores the protected n8n export into the local n8n instance and
// writes the enclave result files.
type Sandbox interface {
	Run(ctx context.Context, args []string) error
}

type sandbox struct {
	runner       Runner
	deserializer Deserializer
	outDir       string
}

var _ Sandbox = &sandbox{}

// NewSandbox writes its results to outDir, $IEXEC_OUT when empty.
func NewSandbox(runner Runner, deserializer Deserializer, outDir string) (Sandbox, error) {
	if outDir == "" {
		outDir = os.Getenv("IEXEC_OUT")
	}
	if outDir == "" {
		return nil, fmt.Errorf("IEXEC_OUT not set")
	} else if runner == nil || deserializer == nil {
		return nil, fmt.Errorf("sandbox requires a runner and a deserializer")
	}
	return &sandbox{runner: runner, deserializer: deserializer, outDir: outDir}, nil
}

func (s *sandbox) Run(ctx context.Context, args []string) error {
	log.Infof("received %d args", len(args))
	messages := []string{strings.Join(args, " ")}

	if err := s.restore(ctx); err != nil {
		log.Warnf("failed to restore protected data: %v", err)
		messages = append(messages, MessageProtectedError)
	} else {
		messages = append(messages, MessageImported)
	}

	return s.writeResult(messages)
}

func (s *sandbox) restore(ctx context.Context) error {
	credentials, err := s.deserializer.GetString("credentials")
	if err != nil {
		return err
	}
	workflows, err := s.deserializer.GetString("workflow")
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "n8n-import-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	credentialsPath := filepath.Join(dir, "credentials.json")
	workflowsPath := filepath.Join(dir, "workflows.json")

	if err := os.WriteFile(credentialsPath, []byte(credentials), 0600); err != nil {
		return err
	} else if err := os.WriteFile(workflowsPath, []byte(workflows), 0600); err != nil {
		return err
	} else if err := s.runner.ImportCredentials(ctx, credentialsPath); err != nil {
		return err
	} else if err := s.runner.ImportWorkflow(ctx, workflowsPath); err != nil {
		return err
	} else if list, err := s.runner.ListWorkflows(ctx); err != nil {
		return err
	} else {
		log.Infof("available workflows:\n%s", list)
		return s.runner.ActivateAll(ctx)
	}
}

func (s *sandbox) writeResult(messages []string) error {
	resultPath := filepath.Join(s.outDir, ResultFile)
	computed := map[string]string{"deterministic-output-path": resultPath}

	if err := os.WriteFile(resultPath, []byte(strings.Join(messages, ",")), 0644); err != nil {
		log.Warnf("failed to write %s: %v", resultPath, err)
		computed = map[string]string{
			"deterministic-output-path": s.outDir,
			"error-message":             "failed to write result",
		}
	}

	if b, err := json.Marshal(computed); err != nil {
		return err
	} else {
		return os.WriteFile(filepath.Join(s.outDir, ComputedFile), b, 0644)
	}
}
