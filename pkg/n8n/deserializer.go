package n8n

import (
	"archive/zip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strings"
)

const (
	SchemaString      = "string"
	SchemaBool        = "bool"
	SchemaF64         = "f64"
	SchemaI128        = "i128"
	SchemaOctetStream = "application/octet-stream"
)

// Deserializer reads values out of the protected data archive mounted in the
// enclave. Each key is an entry in a zip file, nested keys separated by "/".
type Deserializer interface {
	GetValue(key string, schemaType string) (any, error)
	GetString(key string) (string, error)
}

type deserializer struct {
	path string
}

var _ Deserializer = &deserializer{}

// ProtectedDataPath is where the enclave mounts the dataset:
// $IEXEC_IN/$IEXEC_DATASET_FILENAME.
func ProtectedDataPath() (string, error) {
	in := os.Getenv("IEXEC_IN")
	name := os.Getenv("IEXEC_DATASET_FILENAME")
	if in == "" || name == "" {
		return "", fmt.Errorf("missing protected data: IEXEC_IN and IEXEC_DATASET_FILENAME must be set")
	}
	return filepath.Join(in, name), nil
}

// NewDeserializer reads from path, or from ProtectedDataPath when path is
// empty. The environment is resolved on first read, so a missing dataset
// surfaces as a read error.
func NewDeserializer(path string) Deserializer {
	return &deserializer{path: path}
}

func (d *deserializer) read(key string) ([]byte, error) {
	path := d.path
	if path == "" {
		if p, err := ProtectedDataPath(); err != nil {
			return nil, err
		} else {
			path = p
		}
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load protected data: %w", err)
	}
	defer r.Close()

	key = strings.Trim(key, "/")
	for _, f := range r.File {
		if f.Name != key {
			continue
		}
		if rc, err := f.Open(); err != nil {
			return nil, err
		} else {
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}

	return nil, fmt.Errorf("failed to load path %s", key)
}

func (d *deserializer) GetString(key string) (string, error) {
	if v, err := d.GetValue(key, SchemaString); err != nil {
		return "", err
	} else {
		return v.(string), nil
	}
}

// GetValue decodes the entry for key. Scalars other than strings are borsh
// encoded (little endian).
func (d *deserializer) GetValue(key string, schemaType string) (any, error) {
	b, err := d.read(key)
	if err != nil {
		return nil, err
	}

	switch schemaType {
	case SchemaString:
		return string(b), nil
	case SchemaOctetStream:
		return b, nil
	case SchemaBool:
		if len(b) != 1 || b[0] > 1 {
			return nil, fmt.Errorf("failed to deserialize %q as %s", key, schemaType)
		}
		return b[0] == 1, nil
	case SchemaF64:
		if len(b) != 8 {
			return nil, fmt.Errorf("failed to deserialize %q as %s", key, schemaType)
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	case SchemaI128:
		if len(b) != 16 {
			return nil, fmt.Errorf("failed to deserialize %q as %s", key, schemaType)
		}
		return decodeI128(b), nil
	default:
		return nil, fmt.Errorf("unsupported schema type %q", schemaType)
	}
}

func decodeI128(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}

	n := new(big.Int).SetBytes(be)
	if be[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	return n
}
