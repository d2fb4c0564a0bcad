package local

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/grexie/n8n-protector/pkg/storage/interfaces"
)

type localStorageBackend struct {
	items *KeyValueFile
	mu    sync.Mutex
}

var _ interfaces.IStorageBackend = &localStorageBackend{}

func NewLocalStorageBackend(path string) (interfaces.IStorageBackend, error) {
	if items, err := NewKeyValueFile(path); err != nil {
		return nil, err
	} else {
		return &localStorageBackend{items: items}, nil
	}
}

type listWorkflowsResult struct {
	Count_ int64                          `json:"count"`
	Page_  []interfaces.ProtectedWorkflow `json:"page"`
}

var _ interfaces.ListWorkflowsResult = &listWorkflowsResult{}

func (r *listWorkflowsResult) Count() int64 {
	return r.Count_
}

func (r *listWorkflowsResult) Page() []interfaces.ProtectedWorkflow {
	return r.Page_
}

// catalog is the decoded catalog. Entries that do not decode are kept as
// stored so writing the catalog back never drops them.
type catalog struct {
	workflows []interfaces.ProtectedWorkflow
	invalid   []json.RawMessage
}

// load never fails on bad content: an unreadable or non-array value is an
// empty catalog, and unreadable entries are skipped.
func (b *localStorageBackend) load() (*catalog, error) {
	var entries []json.RawMessage
	c := catalog{workflows: []interfaces.ProtectedWorkflow{}}

	if stored, ok, err := b.items.GetItem(interfaces.StorageKey); err != nil {
		return nil, err
	} else if !ok || stored == "" {
		return &c, nil
	} else if err := json.Unmarshal([]byte(stored), &entries); err != nil {
		log.Warnf("error loading workflows from storage: %v", err)
		return &c, nil
	}

	for i, entry := range entries {
		var w interfaces.ProtectedWorkflow
		if string(entry) == "null" {
			c.invalid = append(c.invalid, entry)
		} else if err := json.Unmarshal(entry, &w); err != nil {
			log.Warnf("skipping unreadable workflow %d in storage: %v", i, err)
			c.invalid = append(c.invalid, entry)
		} else {
			c.workflows = append(c.workflows, w)
		}
	}

	return &c, nil
}

func (b *localStorageBackend) store(c *catalog) error {
	entries := make([]any, 0, len(c.workflows)+len(c.invalid))
	for _, w := range c.workflows {
		entries = append(entries, w)
	}
	for _, entry := range c.invalid {
		entries = append(entries, entry)
	}

	if data, err := json.Marshal(entries); err != nil {
		return err
	} else {
		return b.items.SetItem(interfaces.StorageKey, string(data))
	}
}

func (b *localStorageBackend) ListWorkflows(ctx context.Context, offset int64, count int64) (interfaces.ListWorkflowsResult, error) {
	c, err := b.load()
	if err != nil {
		return nil, err
	}
	workflows := c.workflows

	total := int64(len(workflows))
	start := min(max(offset, 0), total)
	end := total
	if count > 0 {
		end = min(start+count, total)
	}

	return &listWorkflowsResult{Count_: total, Page_: workflows[start:end]}, nil
}

func (b *localStorageBackend) GetWorkflow(ctx context.Context, address common.Address) (*interfaces.ProtectedWorkflow, error) {
	if c, err := b.load(); err != nil {
		return nil, err
	} else {
		for _, w := range c.workflows {
			if w.Address == address {
				return &w, nil
			}
		}
		return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("protected workflow %s not found", address))
	}
}

func (b *localStorageBackend) SaveWorkflow(ctx context.Context, workflow interfaces.ProtectedWorkflow) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := b.load()
	if err != nil {
		return err
	}

	found := false
	for i, w := range c.workflows {
		if w.Address == workflow.Address {
			c.workflows[i] = workflow
			found = true
			break
		}
	}
	if !found {
		c.workflows = append(c.workflows, workflow)
	}

	return b.store(c)
}

func (b *localStorageBackend) RemoveWorkflow(ctx context.Context, address common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := b.load()
	if err != nil {
		return err
	}

	filtered := make([]interfaces.ProtectedWorkflow, 0, len(c.workflows))
	for _, w := range c.workflows {
		if w.Address != address {
			filtered = append(filtered, w)
		}
	}
	c.workflows = filtered

	return b.store(c)
}

func (b *localStorageBackend) ClearWorkflows(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.items.RemoveItem(interfaces.StorageKey)
}
