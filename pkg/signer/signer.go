package signer

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Signer is a wallet able to produce EIP-191 personal signatures.
type Signer interface {
	Address() common.Address
	SignMessage(message []byte) ([]byte, error)
}

type signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

var _ Signer = &signer{}

// NewSigner parses a hex encoded secp256k1 private key, with or without the
// 0x prefix and surrounding whitespace as found in key files.
func NewSigner(privateKey string) (Signer, error) {
	privateKey = strings.TrimPrefix(strings.TrimSpace(privateKey), "0x")

	if privateKey == "" {
		return nil, fmt.Errorf("wallet private key not configured")
	} else if key, err := crypto.HexToECDSA(privateKey); err != nil {
		return nil, fmt.Errorf("invalid wallet private key: %w", err)
	} else {
		return &signer{privateKey: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
	}
}

func (s *signer) Address() common.Address {
	return s.address
}

func (s *signer) SignMessage(message []byte) ([]byte, error) {
	if sig, err := crypto.Sign(accounts.TextHash(message), s.privateKey); err != nil {
		return nil, err
	} else {
		sig[crypto.RecoveryIDOffset] += 27
		return sig, nil
	}
}

// Recover returns the address that produced an EIP-191 signature of message.
func Recover(message []byte, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length: %d", len(signature))
	}

	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	if pub, err := crypto.SigToPub(accounts.TextHash(message), sig); err != nil {
		return common.Address{}, err
	} else {
		return crypto.PubkeyToAddress(*pub), nil
	}
}

func EncodeSignature(signature []byte) string {
	return hexutil.Encode(signature)
}

func DecodeSignature(signature string) ([]byte, error) {
	return hexutil.Decode(signature)
}

// Pool caches parsed signers by a hash of their private key, so repeated node
// executions with the same credentials skip key parsing.
type Pool interface {
	Get(privateKey string) (Signer, error)
}

type pool struct {
	cache *lru.Cache[common.Hash, Signer]
}

var _ Pool = &pool{}

func NewPool(size int) (Pool, error) {
	if c, err := lru.New[common.Hash, Signer](size); err != nil {
		return nil, err
	} else {
		return &pool{cache: c}, nil
	}
}

func (p *pool) Get(privateKey string) (Signer, error) {
	key := crypto.Keccak256Hash([]byte(strings.TrimPrefix(strings.TrimSpace(privateKey), "0x")))

	if s, ok := p.cache.Get(key); ok {
		return s, nil
	} else if s, err := NewSigner(privateKey); err != nil {
		return nil, err
	} else {
		p.cache.Add(key, s)
		return s, nil
	}
}
