// Package cipher implements the external symmetric-cipher collaborator
// spec.md describes: "generate_key() -> key, encrypt(key, bytes) ->
// bytes, decrypt(key, bytes) -> bytes". The file layer treats its output
// as opaque ciphertext; this package is the one concrete choice, kept
// swappable behind the same three-function contract.
//
// Grounded on protocol/Packet Encoding.go's use of
// golang.org/x/crypto/salsa20 to encrypt the teacher's own wire packets
// with a 32-byte key and an 8-byte nonce via salsa20.XORKeyStream. The
// same primitive is reused here for the file layer's pre-upload
// transform, since the contract (stream-cipher over opaque bytes) is
// identical.
package cipher

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/salsa20"
)

// KeySize is the length in bytes of a generated file key.
const KeySize = 32

// nonceSize is the length in bytes of the per-encryption salsa20 nonce,
// prepended to every ciphertext produced by Encrypt.
const nonceSize = 8

// ErrShortCiphertext is returned by Decrypt when the input is too small
// to contain a nonce.
var ErrShortCiphertext = errors.New("cipher: ciphertext shorter than nonce")

// Key is a per-file symmetric key, persisted by the file layer as
// "<basename>.key" and never transmitted to peers.
type Key [KeySize]byte

// GenerateKey returns a fresh random key suitable for Encrypt/Decrypt.
func GenerateKey() (Key, error) {
	var k Key
	if _, err := rand.Read(k[:]); err != nil {
		return Key{}, err
	}
	return k, nil
}

// Encrypt transforms plaintext into opaque ciphertext. The returned
// bytes are what gets content-addressed and replicated; they carry a
// fresh random nonce as a prefix so the same plaintext never produces
// the same ciphertext twice.
func Encrypt(key Key, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out := make([]byte, nonceSize+len(plaintext))
	copy(out, nonce)
	salsa20.XORKeyStream(out[nonceSize:], plaintext, nonce, (*[32]byte)(&key))
	return out, nil
}

// Decrypt reverses Encrypt.
func Decrypt(key Key, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceSize {
		return nil, ErrShortCiphertext
	}
	nonce := ciphertext[:nonceSize]
	body := ciphertext[nonceSize:]

	out := make([]byte, len(body))
	salsa20.XORKeyStream(out, body, nonce, (*[32]byte)(&key))
	return out, nil
}
