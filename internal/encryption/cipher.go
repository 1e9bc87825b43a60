package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/idelchi/gochunk/internal/fault"
	"github.com/idelchi/gochunk/internal/keychain"
)

const (
	// KeySize is the required size of chunk keys and of the master key.
	KeySize = keychain.KeySize
	// NonceSize is the size of chunk nonces and of the keychain nonce.
	NonceSize = keychain.NonceSize
	// TagSize is the authentication tag overhead of every sealed buffer.
	TagSize = 16
)

// Suite selects the AEAD construction used for chunks and the keychain.
type Suite byte

const (
	// SuiteAESGCM is AES-256 in Galois/Counter Mode.
	SuiteAESGCM Suite = iota + 1
	// SuiteChaCha20Poly1305 is ChaCha20-Poly1305 (RFC 8439).
	SuiteChaCha20Poly1305
)

// Suites lists the supported suites by name.
//
//nolint:gochecknoglobals
var Suites = map[string]Suite{
	"aes-256-gcm":       SuiteAESGCM,
	"chacha20-poly1305": SuiteChaCha20Poly1305,
}

// ParseSuite returns the suite with the given name.
func ParseSuite(name string) (Suite, error) {
	if suite, ok := Suites[strings.ToLower(name)]; ok {
		return suite, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownSuite, name)
}

func (s Suite) String() string {
	for name, suite := range Suites {
		if suite == s {
			return name
		}
	}

	return fmt.Sprintf("suite(%d)", byte(s))
}

// newAEAD builds the chunk primitive for key.
func (s Suite) newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fault.E(fault.CreateCypher, fmt.Errorf("%w: got %d", ErrKeySize, len(key)))
	}

	var (
		aead cipher.AEAD
		err  error
	)

	switch s {
	case SuiteAESGCM:
		var block cipher.Block

		block, err = aes.NewCipher(key)
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case SuiteChaCha20Poly1305:
		aead, err = chacha20poly1305.New(key)
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownSuite, byte(s))
	}

	if err != nil {
		return nil, fault.E(fault.CreateCypher, err)
	}

	return aead, nil
}

// EncryptChunk seals plaintext under key and nonce and returns the ciphertext with the tag appended.
// Callers must never reuse a key and nonce pair.
func (s Suite) EncryptChunk(plaintext, key, nonce []byte) ([]byte, error) {
	aead, err := s.newAEAD(key)
	if err != nil {
		return nil, err
	}

	if len(nonce) != aead.NonceSize() {
		return nil, fault.E(fault.Nonce, fmt.Errorf("%w: got %d", ErrNonceSize, len(nonce)))
	}

	return aead.Seal(make([]byte, 0, len(plaintext)+aead.Overhead()), nonce, plaintext, nil), nil
}

// DecryptChunk opens a chunk sealed by EncryptChunk.
// It returns no plaintext unless the authentication tag verifies.
func (s Suite) DecryptChunk(ciphertext, key, nonce []byte) ([]byte, error) {
	aead, err := s.newAEAD(key)
	if err != nil {
		return nil, err
	}

	if len(nonce) != aead.NonceSize() {
		return nil, fault.E(fault.Nonce, fmt.Errorf("%w: got %d", ErrNonceSize, len(nonce)))
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fault.E(fault.CypherDecrypt, err)
	}

	return plaintext, nil
}

// EncryptChunk seals plaintext with AES-256-GCM.
func EncryptChunk(plaintext, key, nonce []byte) ([]byte, error) {
	return SuiteAESGCM.EncryptChunk(plaintext, key, nonce)
}

// DecryptChunk opens a chunk sealed with AES-256-GCM.
func DecryptChunk(ciphertext, key, nonce []byte) ([]byte, error) {
	return SuiteAESGCM.DecryptChunk(ciphertext, key, nonce)
}
