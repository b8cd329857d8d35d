package encryption

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"

	"fitsync/internal/config"
	"fitsync/internal/fit"
)

// AgeKeys manages an X25519 key pair on disk. The public key is plaintext;
// the private key is sealed with the user's passphrase via age's scrypt
// recipient.
type AgeKeys struct {
	publicKeyPath  string
	privateKeyPath string
}

var _ fit.KeyManager = (*AgeKeys)(nil)

func NewAgeKeys(cfg config.EncryptionConfig) *AgeKeys {
	return &AgeKeys{
		publicKeyPath:  cfg.PublicKeyPath,
		privateKeyPath: cfg.PrivateKeyPath,
	}
}

// Setup generates a fresh key pair, overwriting any existing one.
func (k *AgeKeys) Setup(passphrase string) error {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	for _, p := range []string{k.publicKeyPath, k.privateKeyPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			return fmt.Errorf("creating key directory: %w", err)
		}
	}

	if err := os.WriteFile(k.publicKeyPath, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	scrypt, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	var sealed bytes.Buffer
	if err := encrypt(&sealed, []byte(identity.String()+"\n"), scrypt); err != nil {
		return fmt.Errorf("sealing private key: %w", err)
	}
	if err := os.WriteFile(k.privateKeyPath, sealed.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	return nil
}

// Unlock opens the private key with passphrase and returns a sealer bound to
// the key pair.
func (k *AgeKeys) Unlock(passphrase string) (fit.Sealer, error) {
	recipient, err := k.recipient()
	if err != nil {
		return nil, err
	}

	sealedKey, err := os.ReadFile(k.privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key file: %w", err)
	}
	scrypt, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}
	keyData, err := decrypt(sealedKey, scrypt)
	if err != nil {
		return nil, fmt.Errorf("decrypting private key: %w", err)
	}

	identities, err := age.ParseIdentities(bytes.NewReader(keyData))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in private key")
	}

	return &AgeSealer{recipient: recipient, identity: identities[0]}, nil
}

// IsConfigured returns true if both key files exist.
func (k *AgeKeys) IsConfigured() bool {
	for _, p := range []string{k.publicKeyPath, k.privateKeyPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

func (k *AgeKeys) recipient() (age.Recipient, error) {
	data, err := os.ReadFile(k.publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}
	recipients, err := age.ParseRecipients(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients found in public key file")
	}
	return recipients[0], nil
}

// AgeSealer encrypts to the public key and decrypts with the unlocked
// identity. The identity lives in memory only.
type AgeSealer struct {
	recipient age.Recipient
	identity  age.Identity
}

var _ fit.Sealer = (*AgeSealer)(nil)

func (s *AgeSealer) Seal(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := encrypt(&buf, plaintext, s.recipient); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *AgeSealer) Open(sealed []byte) ([]byte, error) {
	return decrypt(sealed, s.identity)
}

func encrypt(w io.Writer, plaintext []byte, recipient age.Recipient) error {
	ew, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := ew.Write(plaintext); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}
	if err := ew.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	return nil
}

func decrypt(sealed []byte, identity age.Identity) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(sealed), identity)
	if err != nil {
		return nil, fmt.Errorf("creating decrypted reader: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decrypting data: %w", err)
	}
	return out, nil
}
