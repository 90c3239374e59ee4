package nem

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/qora/testnet-faucet/faucet"
)

// FileKeySource reads the master account's hex-encoded key pair from
// disk on every call, so rotated keys are picked up without a restart.
// It satisfies faucet.KeySource.
type FileKeySource struct {
	PublicKeyPath  string
	PrivateKeyPath string
}

func (f FileKeySource) Keys(_ context.Context) (publicKey, privateKey []byte, err error) {
	publicKey, err = readHexKey(f.PublicKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("public key: %w", err)
	}
	privateKey, err = readHexKey(f.PrivateKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("private key: %w", err)
	}
	return publicKey, privateKey, nil
}

func readHexKey(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return key, nil
}

var _ faucet.KeySource = FileKeySource{}
