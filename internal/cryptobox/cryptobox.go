// Package cryptobox encrypts notification message bodies at rest using an
// authenticated symmetric cipher, per spec.md §4.3. Ciphertext is the only
// form ever written to storage; callers only ever see plaintext.
package cryptobox

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// Box seals and opens notification payloads under a single process-wide
// key. The key is immutable after construction (spec.md §5: "the symmetric
// encryption keyset is process-wide, read-only after initialization").
type Box struct {
	key [32]byte
}

func New(key [32]byte) *Box {
	return &Box{key: key}
}

// Seal encrypts plaintext and returns nonce||ciphertext, ready to store.
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	out := make([]byte, nonceSize, nonceSize+len(plaintext)+secretbox.Overhead)
	copy(out, nonce[:])
	return secretbox.Seal(out, plaintext, &nonce, &b.key), nil
}

// Open reverses Seal. Any tampering with the ciphertext (or a wrong key)
// is detected and reported as an error — it never silently returns
// corrupted plaintext.
func (b *Box) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("sealed message too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &b.key)
	if !ok {
		return nil, fmt.Errorf("message authentication failed")
	}
	return plaintext, nil
}
