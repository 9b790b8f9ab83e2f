package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	sealPrefix     = "hirelink-sealed:v1:"
	saltSize       = 16
	keyIterations  = 100000
	derivedKeySize = 32
)

// sealer encrypts the session file body with AES-GCM under a key derived
// from a passphrase. Each sealed blob carries its own random salt.
type sealer struct {
	passphrase []byte
}

func newSealer(passphrase string) *sealer {
	if passphrase == "" {
		return nil
	}
	return &sealer{passphrase: []byte(passphrase)}
}

func isSealed(data []byte) bool {
	return strings.HasPrefix(string(data), sealPrefix)
}

func (s *sealer) key(salt []byte) []byte {
	return pbkdf2.Key(s.passphrase, salt, keyIterations, derivedKeySize, sha256.New)
}

func (s *sealer) seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}

	gcm, err := newGCM(s.key(salt))
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	blob := append(salt, nonce...)
	blob = gcm.Seal(blob, nonce, plaintext, nil)
	return []byte(sealPrefix + base64.StdEncoding.EncodeToString(blob)), nil
}

func (s *sealer) open(data []byte) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(strings.TrimSpace(string(data)), sealPrefix))
	if err != nil {
		return nil, err
	}
	if len(blob) < saltSize {
		return nil, fmt.Errorf("sealed session too short")
	}

	salt, rest := blob[:saltSize], blob[saltSize:]
	gcm, err := newGCM(s.key(salt))
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(rest) < nonceSize {
		return nil, fmt.Errorf("sealed session too short")
	}
	nonce, ciphertext := rest[:nonceSize], rest[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
