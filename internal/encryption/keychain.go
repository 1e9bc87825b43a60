package encryption

import (
	"fmt"

	"github.com/tink-crypto/tink-go/v2/aead/subtle"
	"github.com/tink-crypto/tink-go/v2/tink"

	"github.com/idelchi/gochunk/internal/fault"
)

// newKeychainAEAD returns the primitive sealing the keychain under masterKey.
// Tink prefixes every ciphertext with a fresh random 12-byte nonce, which is
// exactly the nonce || ciphertext layout of the metadata file.
func (s Suite) newKeychainAEAD(masterKey []byte) (tink.AEAD, error) {
	if len(masterKey) != KeySize {
		return nil, fault.E(fault.CreateCypher, fmt.Errorf("master %w: got %d", ErrKeySize, len(masterKey)))
	}

	var (
		primitive tink.AEAD
		err       error
	)

	switch s {
	case SuiteAESGCM:
		primitive, err = subtle.NewAESGCM(masterKey)
	case SuiteChaCha20Poly1305:
		primitive, err = subtle.NewChaCha20Poly1305(masterKey)
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownSuite, byte(s))
	}

	if err != nil {
		return nil, fault.E(fault.CreateCypher, err)
	}

	return primitive, nil
}

// EncryptKeychain seals a serialized keychain under masterKey and returns nonce || ciphertext.
func (s Suite) EncryptKeychain(plaintext, masterKey []byte) ([]byte, error) {
	primitive, err := s.newKeychainAEAD(masterKey)
	if err != nil {
		return nil, err
	}

	blob, err := primitive.Encrypt(plaintext, nil)
	if err != nil {
		return nil, fault.E(fault.CypherEncrypt, err)
	}

	return blob, nil
}

// DecryptKeychain opens a blob produced by EncryptKeychain.
// Blobs too short to hold a nonce are rejected before any cipher is built.
func (s Suite) DecryptKeychain(blob, masterKey []byte) ([]byte, error) {
	if len(blob) < NonceSize {
		return nil, fault.E(fault.Nonce, fmt.Errorf("%w: %d bytes", ErrShortMetadata, len(blob)))
	}

	primitive, err := s.newKeychainAEAD(masterKey)
	if err != nil {
		return nil, err
	}

	plaintext, err := primitive.Decrypt(blob, nil)
	if err != nil {
		return nil, fault.E(fault.CypherDecrypt, err)
	}

	return plaintext, nil
}

// EncryptKeychain seals a serialized keychain with AES-256-GCM.
func EncryptKeychain(plaintext, masterKey []byte) ([]byte, error) {
	return SuiteAESGCM.EncryptKeychain(plaintext, masterKey)
}

// DecryptKeychain opens a keychain sealed with AES-256-GCM.
func DecryptKeychain(blob, masterKey []byte) ([]byte, error) {
	return SuiteAESGCM.DecryptKeychain(blob, masterKey)
}
