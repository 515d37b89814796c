package snowflake

import (
	"crypto/rsa"
	"encoding/pem"
	"os"

	"github.com/youmark/pkcs8"
	"golang.org/x/xerrors"

	"go.nownabe.dev/bqpipe"
)

// loadPrivateKey reads a PEM-encoded PKCS#8 RSA private key, decrypting
// it when a passphrase is given.
func loadPrivateKey(path, passphrase string) (*rsa.PrivateKey, error) {
	if path == "" {
		return nil, &bqpipe.InvalidRequestError{Reason: "private key path is required for key_pair"}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read private key %s: %w", path, err)
	}

	key, err := parsePrivateKey(raw, passphrase)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse private key %s: %w", path, err)
	}

	return key, nil
}

func parsePrivateKey(raw []byte, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, xerrors.New("no PEM block found")
	}

	if passphrase == "" {
		return pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes)
	}

	return pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, []byte(passphrase))
}
