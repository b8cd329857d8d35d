package encryption

import (
	"bytes"
	"fmt"

	"fitsync/internal/fit"
)

// plainHeader marks bodies sealed by PlainSealer.
var plainHeader = []byte("FITSEAL\x00")

// PlainSealer is a deterministic, keyless sealer for tests and for the
// "test" encryption type. It only prepends a header.
type PlainSealer struct{}

var _ fit.Sealer = PlainSealer{}

func (PlainSealer) Seal(plaintext []byte) ([]byte, error) {
	out := make([]byte, 0, len(plainHeader)+len(plaintext))
	out = append(out, plainHeader...)
	return append(out, plaintext...), nil
}

func (PlainSealer) Open(sealed []byte) ([]byte, error) {
	if !bytes.HasPrefix(sealed, plainHeader) {
		return nil, fmt.Errorf("invalid sealed header")
	}
	return bytes.Clone(sealed[len(plainHeader):]), nil
}

// PlainKeys is the KeyManager counterpart of PlainSealer.
type PlainKeys struct{}

var _ fit.KeyManager = (*PlainKeys)(nil)

func (k *PlainKeys) Setup(string) error {
	return nil
}

func (k *PlainKeys) Unlock(string) (fit.Sealer, error) {
	return PlainSealer{}, nil
}

func (k *PlainKeys) IsConfigured() bool {
	return true
}
