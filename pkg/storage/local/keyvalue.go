package local

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// KeyValueFile is a string key-value store persisted as a single JSON object,
// with the same semantics as browser local storage.
type KeyValueFile struct {
	path string
	mu   sync.Mutex
}

func NewKeyValueFile(path string) (*KeyValueFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return &KeyValueFile{path: path}, nil
}

func (f *KeyValueFile) GetItem(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if items, err := f.read(); err != nil {
		return "", false, err
	} else {
		v, ok := items[key]
		return v, ok, nil
	}
}

func (f *KeyValueFile) SetItem(key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if items, err := f.read(); err != nil {
		return err
	} else {
		items[key] = value
		return f.write(items)
	}
}

func (f *KeyValueFile) RemoveItem(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if items, err := f.read(); err != nil {
		return err
	} else if _, ok := items[key]; !ok {
		return nil
	} else {
		delete(items, key)
		return f.write(items)
	}
}

// read returns an empty map when the file does not exist yet.
func (f *KeyValueFile) read() (map[string]string, error) {
	items := map[string]string{}

	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return items, nil
	} else if err != nil {
		return nil, err
	} else if len(b) == 0 {
		return items, nil
	} else if err := json.Unmarshal(b, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (f *KeyValueFile) write(items map[string]string) error {
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	} else if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	} else if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), f.path)
}
