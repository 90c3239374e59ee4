package nem

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/qora/testnet-faucet/faucet"
)

// Ed25519Signer signs transaction bytes with the master account key.
// It satisfies faucet.Signer.
type Ed25519Signer struct{}

// Sign signs raw with the 32-byte private seed and checks that the
// derived public key matches the one the transaction names as signer.
// A mismatch here means the configured public key and the key file on
// disk have drifted apart; failing fast beats announcing a transaction
// every node will reject.
func (Ed25519Signer) Sign(raw, publicKey, privateKey []byte) ([]byte, error) {
	if len(privateKey) != ed25519.SeedSize {
		return nil, fmt.Errorf("private key must be a %d-byte seed, got %d bytes", ed25519.SeedSize, len(privateKey))
	}
	key := ed25519.NewKeyFromSeed(privateKey)
	derived := key.Public().(ed25519.PublicKey)
	if !bytes.Equal(derived, publicKey) {
		return nil, fmt.Errorf("public key does not match private key")
	}
	return ed25519.Sign(key, raw), nil
}

var _ faucet.Signer = Ed25519Signer{}
