package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultPort           = "443"
	DefaultSMSURL         = "https://sms.labs.iex.ec"
	DefaultApp            = "web3mail.apps.iexec.eth"
	DefaultStorageBackend = "local"
	DefaultStoragePath    = ".protector/storage.json"
	DefaultN8NBin         = "n8n"
)

type Config struct {
	Env          string
	Port         string
	InsecureHTTP bool
	Keys         []string

	StorageBackend string
	StoragePath    string
	MongoURL       string

	APIURL     string
	SMSURL     string
	PrivateKey string
	App        string

	N8NBin string
}

// LoadEnv loads each dotenv file that exists, earlier files taking precedence.
func LoadEnv(filenames ...string) {
	for _, filename := range filenames {
		if s, err := os.Stat(filename); err == nil && !s.IsDir() {
			godotenv.Load(filename)
		}
	}
}

// Load reads the dotenv files for the current ENV and builds a Config from the
// process environment.
func Load() (*Config, error) {
	if _, ok := os.LookupEnv("ENV"); !ok {
		os.Setenv("ENV", "development")
	}
	env := os.Getenv("ENV")
	LoadEnv(".env."+env+".local", ".env."+env, ".env.local", ".env")

	return FromEnv()
}

func FromEnv() (*Config, error) {
	c := Config{
		Env:            lookup("ENV", "development"),
		Port:           lookup("PORT", DefaultPort),
		InsecureHTTP:   os.Getenv("PROTECTOR_INSECURE_HTTP") == "true",
		StorageBackend: lookup("PROTECTOR_STORAGE_BACKEND", DefaultStorageBackend),
		StoragePath:    lookup("PROTECTOR_STORAGE_PATH", DefaultStoragePath),
		MongoURL:       strings.TrimSpace(os.Getenv("PROTECTOR_MONGO_URL")),
		APIURL:         strings.TrimRight(strings.TrimSpace(os.Getenv("DATAPROTECTOR_API_URL")), "/"),
		SMSURL:         lookup("DATAPROTECTOR_SMS_URL", DefaultSMSURL),
		PrivateKey:     strings.TrimSpace(os.Getenv("DATAPROTECTOR_PRIVATE_KEY")),
		App:            lookup("DATAPROTECTOR_APP", DefaultApp),
		N8NBin:         lookup("N8N_BIN", DefaultN8NBin),
	}

	for _, k := range strings.Split(os.Getenv("PROTECTOR_KEYS"), ",") {
		if k = strings.TrimSpace(k); k != "" {
			c.Keys = append(c.Keys, k)
		}
	}

	if c.StorageBackend == "mongo" && c.MongoURL == "" {
		return nil, fmt.Errorf("PROTECTOR_MONGO_URL must be set when PROTECTOR_STORAGE_BACKEND is mongo")
	}

	return &c, nil
}

func lookup(name string, fallback string) string {
	if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
