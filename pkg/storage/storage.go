package storage

import (
	"fmt"

	"github.com/grexie/n8n-protector/pkg/config"
	"github.com/grexie/n8n-protector/pkg/storage/interfaces"
	"github.com/grexie/n8n-protector/pkg/storage/local"
	"github.com/grexie/n8n-protector/pkg/storage/mongo"
)

func NewStorage(c *config.Config) (interfaces.IStorageBackend, error) {
	switch c.StorageBackend {
	case "local", "":
		return local.NewLocalStorageBackend(c.StoragePath)
	case "mongo":
		return mongo.NewMongoStorageBackend(c.MongoURL)
	default:
		return nil, fmt.Errorf("invalid storage backend: %s, expected local or mongo in PROTECTOR_STORAGE_BACKEND", c.StorageBackend)
	}
}
