package signer

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known development key (hardhat account #0).
const (
	testKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestNewSigner(t *testing.T) {
	for _, k := range []string{testKey, testKey[2:], "  " + testKey + "\n"} {
		s, err := NewSigner(k)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(testAddress), s.Address())
	}

	_, err := NewSigner("")
	assert.Error(t, err)
	_, err = NewSigner("0xnothex")
	assert.Error(t, err)
}

func TestSignAndRecover(t *testing.T) {
	s, err := NewSigner(testKey)
	require.NoError(t, err)

	message := []byte(`{"name":"workflow"}1720000000`)
	sig, err := s.SignMessage(message)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	decoded, err := DecodeSignature(EncodeSignature(sig))
	require.NoError(t, err)

	address, err := Recover(message, decoded)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), address)

	other, err := Recover([]byte("tampered"), decoded)
	require.NoError(t, err)
	assert.NotEqual(t, s.Address(), other)

	_, err = Recover(message, sig[:10])
	assert.Error(t, err)
}

func TestPool_CachesSigners(t *testing.T) {
	p, err := NewPool(4)
	require.NoError(t, err)

	a, err := p.Get(testKey)
	require.NoError(t, err)
	b, err := p.Get(testKey[2:])
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = p.Get("garbage")
	assert.Error(t, err)
}
