package cryptobox_test

import (
	"bytes"
	"testing"

	"github.com/ppnshub/notification-hub/internal/cryptobox"
)

func key(b byte) [32]byte {
	var k [32]byte
	for i := range k {
		k[i] = b
	}
	return k
}

func TestSealOpen_RoundTrip(t *testing.T) {
	box := cryptobox.New(key(1))
	plaintext := []byte(`{"a":1}`)

	sealed, err := box.Seal(plaintext)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	opened, err := box.Open(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("round trip mismatch: got %q, want %q", opened, plaintext)
	}
}

func TestOpen_TamperedCiphertextFails(t *testing.T) {
	box := cryptobox.New(key(2))
	sealed, err := box.Seal([]byte("hello"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xFF

	if _, err := box.Open(sealed); err == nil {
		t.Fatal("expected tampered ciphertext to fail authentication")
	}
}

func TestOpen_WrongKeyFails(t *testing.T) {
	sealed, err := cryptobox.New(key(3)).Seal([]byte("hello"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := cryptobox.New(key(4)).Open(sealed); err == nil {
		t.Fatal("expected wrong key to fail authentication")
	}
}

func TestSeal_NoncesDiffer(t *testing.T) {
	box := cryptobox.New(key(5))
	a, _ := box.Seal([]byte("same input"))
	b, _ := box.Seal([]byte("same input"))
	if bytes.Equal(a, b) {
		t.Fatal("expected distinct ciphertexts for repeated seals due to random nonce")
	}
}
