// Package n8n drives the n8n binary inside the enclave and seeds protected
// workflow data from local exports.
package n8n

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/shlex"
)

type Runner interface {
	ImportCredentials(ctx context.Context, path string) error
	ImportWorkflow(ctx context.Context, path string) error
	ListWorkflows(ctx context.Context) (string, error)
	ActivateAll(ctx context.Context) error
}

type runner struct {
	bin  string
	args []string
}

var _ Runner = &runner{}

// NewRunner splits command into the binary and its leading arguments, so
// values such as "npx n8n" work.
func NewRunner(command string) (Runner, error) {
	if parts, err := shlex.Split(command); err != nil {
		return nil, fmt.Errorf("invalid n8n command %q: %w", command, err)
	} else if len(parts) == 0 {
		return nil, fmt.Errorf("empty n8n command")
	} else {
		return &runner{bin: parts[0], args: parts[1:]}, nil
	}
}

func (r *runner) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.bin, append(append([]string{}, r.args...), args...)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return "", fmt.Errorf("n8n %s failed: %s", args[0], strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("n8n %s failed: %w", args[0], err)
	}

	return stdout.String(), nil
}

func (r *runner) ImportCredentials(ctx context.Context, path string) error {
	if _, err := r.run(ctx, "import:credentials", "--input="+path); err != nil {
		return err
	}
	log.Infof("credentials imported from %s", path)
	return nil
}

func (r *runner) ImportWorkflow(ctx context.Context, path string) error {
	if _, err := r.run(ctx, "import:workflow", "--input="+path); err != nil {
		return err
	}
	log.Infof("workflows imported from %s", path)
	return nil
}

func (r *runner) ListWorkflows(ctx context.Context) (string, error) {
	return r.run(ctx, "list:workflow")
}

func (r *runner) ActivateAll(ctx context.Context) error {
	if _, err := r.run(ctx, "update:workflow", "--all", "--active=true"); err != nil {
		return err
	}
	log.Info("all workflows activated")
	return nil
}
