package secrets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gatherworks/coordinator/internal/notify"
	"github.com/gatherworks/coordinator/internal/store/storetest"
)

func testKeys(t *testing.T) (string, string) {
	t.Helper()
	publicKey, privateKey, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	return publicKey, privateKey
}

func TestVaultPutGetRoundTrip(t *testing.T) {
	publicKey, privateKey := testKeys(t)
	st := storetest.NewMemoryStore()
	vault, err := NewVault(&Config{AgePublicKey: publicKey, AgePrivateKey: privateKey}, st, nil)
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}

	ctx := context.Background()
	if err := vault.Put(ctx, "sms_api_key", "sk-live-0123456789"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := vault.Get(ctx, "sms_api_key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "sk-live-0123456789" {
		t.Errorf("Get = %q, want the stored value", got)
	}

	// The stored setting is not the plaintext.
	raw, err := st.Settings().Get(ctx, "credential.sms_api_key")
	if err != nil {
		t.Fatalf("Settings Get: %v", err)
	}
	if raw == "" || raw == "sk-live-0123456789" {
		t.Errorf("stored value %q is not encrypted", raw)
	}
}

func TestVaultGetMissingCredential(t *testing.T) {
	publicKey, privateKey := testKeys(t)
	vault, err := NewVault(&Config{AgePublicKey: publicKey, AgePrivateKey: privateKey}, storetest.NewMemoryStore(), nil)
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}
	if _, err := vault.Get(context.Background(), "absent"); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("err = %v, want ErrCredentialNotFound", err)
	}
}

func TestVaultKeyDirections(t *testing.T) {
	publicKey, privateKey := testKeys(t)
	st := storetest.NewMemoryStore()
	ctx := context.Background()

	writeOnly, err := NewVault(&Config{AgePublicKey: publicKey}, st, nil)
	if err != nil {
		t.Fatalf("NewVault write-only: %v", err)
	}
	if !writeOnly.CanEncrypt() || writeOnly.CanDecrypt() {
		t.Error("write-only vault should encrypt but not decrypt")
	}
	if err := writeOnly.Put(ctx, "token", "value"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := writeOnly.Get(ctx, "token"); !errors.Is(err, ErrNoPrivateKey) {
		t.Errorf("Get on write-only vault err = %v, want ErrNoPrivateKey", err)
	}

	readOnly, err := NewVault(&Config{AgePrivateKey: privateKey}, st, nil)
	if err != nil {
		t.Fatalf("NewVault read-only: %v", err)
	}
	got, err := readOnly.Get(ctx, "token")
	if err != nil {
		t.Fatalf("Get on read-only vault: %v", err)
	}
	if got != "value" {
		t.Errorf("Get = %q, want value", got)
	}
	if err := readOnly.Put(ctx, "other", "x"); !errors.Is(err, ErrNoPublicKey) {
		t.Errorf("Put on read-only vault err = %v, want ErrNoPublicKey", err)
	}
}

func TestNewVaultRejectsBadConfig(t *testing.T) {
	st := storetest.NewMemoryStore()
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no keys", Config{}},
		{"garbage public key", Config{AgePublicKey: "not-a-key"}},
		{"garbage private key", Config{AgePrivateKey: "not-a-key"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewVault(&tt.cfg, st, nil); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("err = %v, want ErrInvalidKey", err)
			}
		})
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	publicKey, _ := testKeys(t)
	_, otherPrivate := testKeys(t)
	st := storetest.NewMemoryStore()

	writer, err := NewVault(&Config{AgePublicKey: publicKey}, st, nil)
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}
	ciphertext, err := writer.Encrypt(context.Background(), []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	reader, err := NewVault(&Config{AgePrivateKey: otherPrivate}, st, nil)
	if err != nil {
		t.Fatalf("NewVault reader: %v", err)
	}
	if _, err := reader.Decrypt(context.Background(), ciphertext); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("err = %v, want ErrDecryptionFailed", err)
	}
}

func TestVaultProvisionsGatewaySender(t *testing.T) {
	publicKey, privateKey := testKeys(t)
	st := storetest.NewMemoryStore()
	vault, err := NewVault(&Config{AgePublicKey: publicKey, AgePrivateKey: privateKey}, st, nil)
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}

	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ctx := context.Background()
	if err := vault.Put(ctx, notify.CredentialGatewayURL, srv.URL); err != nil {
		t.Fatalf("Put url: %v", err)
	}
	if err := vault.Put(ctx, notify.CredentialGatewayKey, "key-123"); err != nil {
		t.Fatalf("Put key: %v", err)
	}

	sender, err := notify.NewGatewaySenderFromVault(ctx, vault, nil)
	if err != nil {
		t.Fatalf("NewGatewaySenderFromVault: %v", err)
	}
	if err := sender.SendSMS(ctx, "+15550001111", "hi"); err != nil {
		t.Fatalf("SendSMS: %v", err)
	}
	if authHeader != "Bearer key-123" {
		t.Errorf("auth = %q, want the vault-stored API key", authHeader)
	}
}

func TestVaultWithoutGatewayCredentials(t *testing.T) {
	publicKey, privateKey := testKeys(t)
	vault, err := NewVault(&Config{AgePublicKey: publicKey, AgePrivateKey: privateKey}, storetest.NewMemoryStore(), nil)
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}
	if _, err := notify.NewGatewaySenderFromVault(context.Background(), vault, nil); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("err = %v, want ErrCredentialNotFound", err)
	}
}
