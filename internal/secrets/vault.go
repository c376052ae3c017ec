// Package secrets stores provider credentials (SMS gateway, billing API keys)
// encrypted at rest with age X25519. Ciphertext lives in the settings table as
// base64; only a process holding the private key can read credentials back.
package secrets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"filippo.io/age"

	"github.com/gatherworks/coordinator/internal/store"
)

var (
	// ErrNoPublicKey is returned when no public key is configured for encryption.
	ErrNoPublicKey = errors.New("no public key configured for encryption")
	// ErrNoPrivateKey is returned when no private key is configured for decryption.
	ErrNoPrivateKey = errors.New("no private key configured for decryption")
	// ErrDecryptionFailed is returned when decryption fails.
	ErrDecryptionFailed = errors.New("decryption failed")
	// ErrEncryptionFailed is returned when encryption fails.
	ErrEncryptionFailed = errors.New("encryption failed")
	// ErrInvalidKey is returned when a key is invalid.
	ErrInvalidKey = errors.New("invalid key format")
	// ErrCredentialNotFound is returned when no credential exists under a name.
	ErrCredentialNotFound = errors.New("credential not found")
)

// settingsPrefix namespaces credential rows in the settings table.
const settingsPrefix = "credential."

// Vault encrypts and stores provider credentials.
type Vault struct {
	publicKey  *age.X25519Recipient
	privateKey *age.X25519Identity
	store      store.Store
	logger     *slog.Logger
}

// Config holds the vault's key material. At least one of the keys must be
// set: the public key enables writes, the private key enables reads.
type Config struct {
	// AgePublicKey encrypts new credentials. Format: age1... (Bech32).
	AgePublicKey string
	// AgePrivateKey decrypts stored credentials. Format: AGE-SECRET-KEY-1...
	AgePrivateKey string
}

// NewVault creates a credential vault backed by the settings store.
func NewVault(cfg *Config, st store.Store, logger *slog.Logger) (*Vault, error) {
	if logger == nil {
		logger = slog.Default()
	}

	v := &Vault{store: st, logger: logger}

	if cfg.AgePublicKey != "" {
		recipient, err := age.ParseX25519Recipient(cfg.AgePublicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid public key: %v", ErrInvalidKey, err)
		}
		v.publicKey = recipient
	}
	if cfg.AgePrivateKey != "" {
		identity, err := age.ParseX25519Identity(cfg.AgePrivateKey)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid private key: %v", ErrInvalidKey, err)
		}
		v.privateKey = identity
	}
	if v.publicKey == nil && v.privateKey == nil {
		return nil, fmt.Errorf("%w: no key material configured", ErrInvalidKey)
	}

	return v, nil
}

// CanEncrypt returns true if the vault can store new credentials.
func (v *Vault) CanEncrypt() bool {
	return v.publicKey != nil
}

// CanDecrypt returns true if the vault can read credentials back.
func (v *Vault) CanDecrypt() bool {
	return v.privateKey != nil
}

// Encrypt encrypts plaintext with the configured public key.
func (v *Vault) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	if v.publicKey == nil {
		return nil, ErrNoPublicKey
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, v.publicKey)
	if err != nil {
		v.logger.Error("failed to create age encryptor", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	return buf.Bytes(), nil
}

// Decrypt decrypts age ciphertext with the configured private key.
func (v *Vault) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if v.privateKey == nil {
		return nil, ErrNoPrivateKey
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), v.privateKey)
	if err != nil {
		v.logger.Error("failed to create age decryptor", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return plaintext, nil
}

// Put encrypts a credential and stores it under name.
func (v *Vault) Put(ctx context.Context, name, value string) error {
	ciphertext, err := v.Encrypt(ctx, []byte(value))
	if err != nil {
		return err
	}
	encoded := base64.StdEncoding.EncodeToString(ciphertext)
	if err := v.store.Settings().Set(ctx, settingsPrefix+name, encoded); err != nil {
		return fmt.Errorf("storing credential %q: %w", name, err)
	}

	v.logger.Info("credential stored", slog.String("name", name))
	return nil
}

// Get reads and decrypts the credential stored under name.
func (v *Vault) Get(ctx context.Context, name string) (string, error) {
	encoded, err := v.store.Settings().Get(ctx, settingsPrefix+name)
	if err != nil {
		return "", fmt.Errorf("loading credential %q: %w", name, err)
	}
	if encoded == "" {
		return "", fmt.Errorf("%w: %s", ErrCredentialNotFound, name)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext encoding for %q", ErrDecryptionFailed, name)
	}
	plaintext, err := v.Decrypt(ctx, ciphertext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// GenerateKeyPair generates a new age key pair for the vault.
func GenerateKeyPair() (publicKey, privateKey string, err error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate age key pair: %w", err)
	}
	return identity.Recipient().String(), identity.String(), nil
}
