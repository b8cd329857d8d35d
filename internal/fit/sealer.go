package fit

// Sealer encrypts record bodies before they leave the device and decrypts
// them on the way back. Open must reject data Seal did not produce.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// KeyManager owns the key material a Sealer is unlocked from.
type KeyManager interface {
	// Setup generates a key pair and protects the private half with passphrase.
	Setup(passphrase string) error

	// Unlock returns a Sealer for the key pair. It fails on a wrong passphrase.
	Unlock(passphrase string) (Sealer, error)

	// IsConfigured reports whether key material exists.
	IsConfigured() bool
}
