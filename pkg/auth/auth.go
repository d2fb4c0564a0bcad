package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

const (
	HeaderKeyHash   = "X-Protector-Key-Hash"
	HeaderSignature = "X-Protector-Signature"

	// signatures are accepted within this window either side of now
	signatureWindow = 2 * time.Minute
)

// minimum length for 256-bit entropy (32 bytes)
const minAPIKeyLength = 32

type Auth interface {
	APIKeys() APIKeyCollection
	RequireAPIKey(c *fiber.Ctx) error
}

type auth struct {
	apiKeys APIKeyCollection
	now     func() time.Time
}

var _ Auth = &auth{}

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

type Signature string

func (s Signature) Parse() (nonce []byte, timestamp time.Time, hash []byte, err error) {
	components := strings.Split(string(s), ".")
	var tb []byte

	if len(components) != 3 {
		err = fmt.Errorf("invalid signature: %s", s)
		return
	} else if nonce, err = encoding.DecodeString(strings.ToUpper(components[0])); err != nil {
		return
	} else if tb, err = encoding.DecodeString(strings.ToUpper(components[1])); err != nil {
		return
	} else if hash, err = encoding.DecodeString(strings.ToUpper(components[2])); err != nil {
		return
	} else if len(tb) != 8 {
		err = fmt.Errorf("invalid timestamp in signature: %s", s)
		return
	} else {
		timestamp = time.UnixMicro(int64(binary.BigEndian.Uint64(tb)))
		return
	}
}

func (s Signature) String() string {
	return string(s)
}

type APIKey string

func (k APIKey) Hash() [32]byte {
	return sha256.Sum256([]byte(k))
}

func (k APIKey) HashString() string {
	hash := k.Hash()
	return strings.ToLower(encoding.EncodeToString(hash[:]))
}

func (k APIKey) String() string {
	return string(k)
}

func (k APIKey) Validate() error {
	if len(k) < minAPIKeyLength {
		return fmt.Errorf("api key %s... is too short, must be at least %d characters", k.HashString()[:8], minAPIKeyLength)
	}
	return nil
}

func (k APIKey) digest(data []byte, nonce []byte, timestamp time.Time) []byte {
	var tb [8]byte
	binary.BigEndian.PutUint64(tb[:], uint64(timestamp.UnixMicro()))

	hash := hmac.New(sha256.New, []byte(k))
	hash.Write(data)
	hash.Write(nonce)
	hash.Write(tb[:])
	return hash.Sum(nil)
}

func (k APIKey) Verify(now time.Time, data []byte, signature Signature) error {
	if nonce, timestamp, signatureHash, err := signature.Parse(); err != nil {
		return err
	} else if timestamp.Before(now.Add(-signatureWindow)) {
		return fmt.Errorf("signature expired timestamp: %s current time: %s", timestamp, now)
	} else if timestamp.After(now.Add(signatureWindow)) {
		return fmt.Errorf("signature not yet valid timestamp: %s current time: %s", timestamp, now)
	} else if !hmac.Equal(k.digest(data, nonce, timestamp), signatureHash) {
		return fmt.Errorf("invalid signature for data: %s", signature)
	} else {
		return nil
	}
}

func (k APIKey) Sign(timestamp time.Time, data []byte) (Signature, error) {
	var nonce [32]byte
	var tb [8]byte
	binary.BigEndian.PutUint64(tb[:], uint64(timestamp.UnixMicro()))

	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	} else {
		hash := k.digest(data, nonce[:], timestamp)

		return Signature(strings.ToLower(encoding.EncodeToString(nonce[:])) + "." +
			strings.ToLower(encoding.EncodeToString(tb[:])) + "." +
			strings.ToLower(encoding.EncodeToString(hash))), nil
	}
}

type APIKeyCollection []APIKey

func (c APIKeyCollection) GetKeyMatchingHash(hash string) (APIKey, error) {
	if b, err := encoding.DecodeString(strings.ToUpper(hash)); err != nil {
		return "", err
	} else if len(b) != 32 {
		return "", fmt.Errorf("invalid api key hash size: %d", len(b))
	} else {
		var h [32]byte
		copy(h[:], b)
		for _, k := range c {
			if k.Hash() == h {
				return k, nil
			}
		}
		return "", fmt.Errorf("api key for hash not configured: %s", hash)
	}
}

// SignedData is what a request signature covers: method, original URI and
// body.
func SignedData(method string, uri string, body []byte) []byte {
	return append([]byte(method+" "+uri+"\n"), body...)
}

func NewAuth(keys []string) (Auth, error) {
	a := auth{now: time.Now}

	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			key := APIKey(k)
			if err := key.Validate(); err != nil {
				log.Warn(err)
			}
			a.apiKeys = append(a.apiKeys, key)
		}
	}

	if len(a.apiKeys) == 0 {
		return nil, fmt.Errorf("no PROTECTOR_KEYS configured, at least one api key is required")
	}

	return &a, nil
}

func (a *auth) APIKeys() APIKeyCollection {
	return a.apiKeys
}

func (a *auth) RequireAPIKey(c *fiber.Ctx) error {
	keyHash := c.Get(HeaderKeyHash)
	signature := c.Get(HeaderSignature)

	if keyHash == "" {
		log.Warnf("received request with missing header %s", HeaderKeyHash)
		return fiber.NewError(fiber.StatusUnauthorized, fmt.Sprintf("%s header not provided", HeaderKeyHash))
	} else if signature == "" {
		log.Warnf("received request with missing header %s", HeaderSignature)
		return fiber.NewError(fiber.StatusUnauthorized, fmt.Sprintf("%s header not provided", HeaderSignature))
	} else if k, err := a.apiKeys.GetKeyMatchingHash(keyHash); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	} else if err := k.Verify(a.now(), SignedData(c.Method(), c.OriginalURL(), c.BodyRaw()), Signature(signature)); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, fmt.Sprintf("invalid signature for key hash %s: %v", keyHash, err))
	} else {
		return c.Next()
	}
}
