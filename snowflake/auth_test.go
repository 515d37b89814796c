package snowflake

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/youmark/pkcs8"
)

func testKeyPEM(t *testing.T, passphrase string) ([]byte, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	blockType := "PRIVATE KEY"

	var der []byte
	if passphrase == "" {
		der, err = pkcs8.ConvertPrivateKeyToPKCS8(key)
	} else {
		der, err = pkcs8.ConvertPrivateKeyToPKCS8(key, []byte(passphrase))
		blockType = "ENCRYPTED PRIVATE KEY"
	}
	if err != nil {
		t.Fatal(err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}), key
}

func testKeyFile(t *testing.T, passphrase string) (string, *rsa.PrivateKey) {
	t.Helper()

	raw, key := testKeyPEM(t, passphrase)

	path := filepath.Join(t.TempDir(), "rsa_key.p8")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	return path, key
}

func TestParsePrivateKey(t *testing.T) {
	raw, key := testKeyPEM(t, "")

	parsed, err := parsePrivateKey(raw, "")
	if err != nil {
		t.Fatalf("parsePrivateKey should not cause an error: %v", err)
	}

	if !parsed.Equal(key) {
		t.Error("parsed key should equal the generated key")
	}
}

func TestParsePrivateKey_encrypted(t *testing.T) {
	raw, key := testKeyPEM(t, "open sesame")

	parsed, err := parsePrivateKey(raw, "open sesame")
	if err != nil {
		t.Fatalf("parsePrivateKey should not cause an error: %v", err)
	}

	if !parsed.Equal(key) {
		t.Error("parsed key should equal the generated key")
	}
}

func TestParsePrivateKey_error(t *testing.T) {
	if _, err := parsePrivateKey([]byte("not a key"), ""); err == nil {
		t.Error("plain text should cause an error")
	}

	raw, _ := testKeyPEM(t, "open sesame")
	if _, err := parsePrivateKey(raw, "wrong"); err == nil {
		t.Error("a wrong passphrase should cause an error")
	}
}

func TestLoadPrivateKey(t *testing.T) {
	path, key := testKeyFile(t, "")

	parsed, err := loadPrivateKey(path, "")
	if err != nil {
		t.Fatalf("loadPrivateKey should not cause an error: %v", err)
	}

	if !parsed.Equal(key) {
		t.Error("parsed key should equal the generated key")
	}
}

func TestLoadPrivateKey_error(t *testing.T) {
	if _, err := loadPrivateKey("", ""); err == nil {
		t.Error("an empty path should cause an error")
	}

	if _, err := loadPrivateKey(filepath.Join(t.TempDir(), "missing.p8"), ""); err == nil {
		t.Error("a missing file should cause an error")
	}
}
