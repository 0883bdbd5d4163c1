package auth

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const secretKeyBytes = 32

// LoadOrCreateSecret returns the HMAC signing secret stored at path,
// creating it with fresh random bytes if it does not yet exist. The file
// is created with owner-only permissions and is never regenerated once
// written, so tokens signed before a restart remain verifiable after one.
func LoadOrCreateSecret(path string, log zerolog.Logger) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		secret := string(data)
		if secret == "" {
			return "", errStorageError("secret file is empty: " + path)
		}
		return secret, nil
	}
	if !os.IsNotExist(err) {
		return "", errStorageError("read secret file: " + err.Error())
	}

	raw := make([]byte, secretKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", errStorageError("generate secret: " + err.Error())
	}
	secret := hex.EncodeToString(raw)

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", errStorageError("create secret directory: " + err.Error())
		}
	}
	if err := os.WriteFile(path, []byte(secret), 0o600); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to persist signing secret")
		return "", errStorageError("persist secret file: " + err.Error())
	}
	log.Info().Str("path", path).Msg("generated new signing secret")
	return secret, nil
}
