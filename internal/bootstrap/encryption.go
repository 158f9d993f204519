package bootstrap

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/consentforms/consentforms/internal/data/cryptoutil"
)

// CreateEncryptor creates the encryptor that protects the service bind password at rest.
// A 64-character hex key is used as-is; any other key is hashed to 32 bytes.
// An empty key yields a noop encryptor with a warning, which ValidateConfig only
// allows in development.
//
//nolint:ireturn // Returning interface is intentional for encryptor abstraction
func CreateEncryptor(key string, logger *slog.Logger) (cryptoutil.Encryptor, error) {
	if key == "" {
		if logger != nil {
			logger.Warn("encryption key is empty, service bind password will be stored in plaintext")
		}
		return &cryptoutil.NoopEncryptor{}, nil
	}
	return createAESGCMEncryptor(key)
}

func createAESGCMEncryptor(key string) (*cryptoutil.AESGCMEncryptor, error) {
	if key == "" {
		return nil, errors.New("encryption key is required")
	}

	var keyBytes []byte
	if decoded, err := hex.DecodeString(key); err == nil && len(decoded) == 32 {
		keyBytes = decoded
	} else {
		hash := sha256.Sum256([]byte(key))
		keyBytes = hash[:]
	}

	return cryptoutil.NewAESGCMEncryptor(keyBytes)
}
